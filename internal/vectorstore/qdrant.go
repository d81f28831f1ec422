package vectorstore

import (
	"context"
	"fmt"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"github.com/uavquery/queryengine/internal/logging"
	"github.com/uavquery/queryengine/internal/retry"
	"github.com/uavquery/queryengine/pkg/message"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// QdrantConfig configures the gRPC client used against a production
// Qdrant deployment.
type QdrantConfig struct {
	// Host is the Qdrant server hostname or IP address.
	Host string
	// Port is the Qdrant gRPC port (6334), not the HTTP REST port (6333).
	Port int
	// UseTLS enables TLS on the gRPC connection.
	UseTLS bool
	// MaxMessageSize bounds gRPC request/response size in bytes.
	// Default: 50MB.
	MaxMessageSize int
}

func (c *QdrantConfig) applyDefaults() {
	if c.Port == 0 {
		c.Port = 6334
	}
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = 50 * 1024 * 1024
	}
}

// QdrantStore implements Store against a real Qdrant deployment over its
// native gRPC client, the production vector store backend.
type QdrantStore struct {
	client *qdrant.Client
	logger *logging.Logger
	budget retry.Budget
}

// NewQdrantStore dials Qdrant and verifies the connection with a health
// check before returning.
func NewQdrantStore(config QdrantConfig, logger *logging.Logger) (*QdrantStore, error) {
	config.applyDefaults()
	if config.Host == "" {
		return nil, &StoreError{Op: "new_qdrant_store", Reason: "host required"}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   config.Host,
		Port:   config.Port,
		UseTLS: config.UseTLS,
		GrpcOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(config.MaxMessageSize),
				grpc.MaxCallSendMsgSize(config.MaxMessageSize),
			),
		},
	})
	if err != nil {
		return nil, &StoreError{Op: "new_qdrant_store", Reason: "connecting", Err: err}
	}

	store := &QdrantStore{
		client: client,
		logger: logger,
		budget: retry.Budget{MaxAttempts: 3, BaseBackoff: time.Second},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.HealthCheck(ctx); err != nil {
		_ = client.Close()
		return nil, &StoreError{Op: "new_qdrant_store", Reason: "health check", Err: err}
	}
	return store, nil
}

// Close releases the underlying gRPC connection.
func (s *QdrantStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

// isTransient reports whether a gRPC error should be retried: connection
// churn and overload, not a malformed request or a collection that
// genuinely does not exist.
func isTransient(err error) bool {
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	switch st.Code() {
	case grpccodes.Unavailable, grpccodes.DeadlineExceeded, grpccodes.Aborted, grpccodes.ResourceExhausted:
		return true
	default:
		return false
	}
}

func (s *QdrantStore) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	err := retry.Do(ctx, "qdrant."+op, s.budget, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			if isTransient(err) {
				return retry.Retryable(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		s.logger.Error(ctx, "qdrant call failed", zap.String("op", op), zap.Error(err))
		return &StoreError{Op: op, Reason: "remote call", Err: err}
	}
	return nil
}

// ListCollections enumerates every collection Qdrant knows about and its
// point count.
func (s *QdrantStore) ListCollections(ctx context.Context) ([]CollectionStat, error) {
	var names []string
	if err := s.call(ctx, "list_collections", func(ctx context.Context) error {
		result, err := s.client.ListCollections(ctx)
		if err != nil {
			return err
		}
		names = result
		return nil
	}); err != nil {
		return nil, err
	}

	stats := make([]CollectionStat, 0, len(names))
	for _, name := range names {
		var count int
		err := s.call(ctx, "get_collection_info", func(ctx context.Context) error {
			info, err := s.client.GetCollectionInfo(ctx, name)
			if err != nil {
				return err
			}
			if info.PointsCount != nil {
				count = int(*info.PointsCount)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		stats = append(stats, CollectionStat{Name: name, DocumentCount: count})
	}
	return stats, nil
}

// SimilaritySearch runs a vector query against collection through
// Qdrant's native gRPC Query API.
func (s *QdrantStore) SimilaritySearch(ctx context.Context, collection string, queryVector []float32, k int, filter Filter) ([]message.RetrievedDoc, error) {
	if k < 1 {
		return nil, &StoreError{Op: "similarity_search", Reason: "k must be >= 1"}
	}
	if err := s.requireCollection(ctx, collection); err != nil {
		return nil, err
	}

	var points []*qdrant.ScoredPoint
	err := s.call(ctx, "similarity_search", func(ctx context.Context) error {
		res, err := s.client.Query(ctx, &qdrant.QueryPoints{
			CollectionName: collection,
			Query:          qdrant.NewQuery(queryVector...),
			Limit:          qdrant.PtrOf(uint64(k)),
			WithPayload:    qdrant.NewWithPayload(true),
			Filter:         buildFilter(filter),
		})
		if err != nil {
			return err
		}
		points = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	docs := make([]message.RetrievedDoc, len(points))
	for i, p := range points {
		metadata := payloadToMetadata(p.Payload)
		docs[i] = message.RetrievedDoc{
			Content:    metadata["content"],
			Metadata:   metadata,
			Similarity: float64(p.Score),
			Source:     sourceFromMetadata(p.Id.GetUuid(), metadata),
		}
	}
	return docs, nil
}

// MetadataLookup performs an unranked structured lookup: a zero-score
// scroll through the points matching filter, native to Qdrant's Query
// API (no query vector narrows the match, so every assigned score is
// equal and carries no meaning).
func (s *QdrantStore) MetadataLookup(ctx context.Context, collection string, filter Filter, limit int) ([]message.RetrievedDoc, error) {
	if err := s.requireCollection(ctx, collection); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	var points []*qdrant.ScoredPoint
	err := s.call(ctx, "metadata_lookup", func(ctx context.Context) error {
		res, err := s.client.Query(ctx, &qdrant.QueryPoints{
			CollectionName: collection,
			Limit:          qdrant.PtrOf(uint64(limit)),
			WithPayload:    qdrant.NewWithPayload(true),
			Filter:         buildFilter(filter),
		})
		if err != nil {
			return err
		}
		points = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	docs := make([]message.RetrievedDoc, len(points))
	for i, p := range points {
		metadata := payloadToMetadata(p.Payload)
		docs[i] = message.RetrievedDoc{
			Content:  metadata["content"],
			Metadata: metadata,
			Source:   sourceFromMetadata(p.Id.GetUuid(), metadata),
		}
	}
	return docs, nil
}

func (s *QdrantStore) requireCollection(ctx context.Context, collection string) error {
	var exists bool
	err := s.call(ctx, "collection_exists", func(ctx context.Context) error {
		ok, err := s.client.CollectionExists(ctx, collection)
		if err != nil {
			return err
		}
		exists = ok
		return nil
	})
	if err != nil {
		return err
	}
	if !exists {
		return &StoreError{Op: "collection_exists", Reason: ReasonUnknownCollection}
	}
	return nil
}

// payloadToMetadata flattens a Qdrant payload into the plain
// map[string]string shape the rest of the engine works with.
func payloadToMetadata(payload map[string]*qdrant.Value) map[string]string {
	metadata := make(map[string]string, len(payload))
	for k, v := range payload {
		switch val := v.Kind.(type) {
		case *qdrant.Value_StringValue:
			metadata[k] = val.StringValue
		case *qdrant.Value_IntegerValue:
			metadata[k] = fmt.Sprintf("%d", val.IntegerValue)
		case *qdrant.Value_DoubleValue:
			metadata[k] = fmt.Sprintf("%g", val.DoubleValue)
		case *qdrant.Value_BoolValue:
			metadata[k] = fmt.Sprintf("%t", val.BoolValue)
		}
	}
	return metadata
}
