package vectorstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"
	"github.com/uavquery/queryengine/internal/logging"
	"github.com/uavquery/queryengine/pkg/message"
)

// ChromemConfig configures the embedded chromem-go backend: the dev/test
// backend, and the one unit tests exercise for a real (non-mocked)
// similarity search.
type ChromemConfig struct {
	// Path is the directory chromem-go persists its gob files to.
	Path string
	// Compress enables gzip compression of the persisted files.
	Compress bool
}

func (c *ChromemConfig) applyDefaults() {
	if c.Path == "" {
		c.Path = "./vectorstore-data"
	}
}

// ChromemStore implements Store on top of chromem-go, a pure-Go embedded
// vector database with no external service dependency.
type ChromemStore struct {
	db     *chromem.DB
	logger *logging.Logger

	// dims records the vector dimension observed per collection on its
	// first similarity search, so metadataLookup (which has no vector of
	// its own) can build a same-shaped probe vector.
	dims sync.Map // collection name -> int
}

// NewChromemStore opens (or creates) a persistent chromem-go database at
// config.Path.
func NewChromemStore(config ChromemConfig, logger *logging.Logger) (*ChromemStore, error) {
	config.applyDefaults()

	expanded, err := expandPath(config.Path)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: expanding chromem path: %w", err)
	}
	if err := os.MkdirAll(expanded, 0o755); err != nil {
		return nil, fmt.Errorf("vectorstore: creating chromem directory: %w", err)
	}

	db, err := chromem.NewPersistentDB(expanded, config.Compress)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: opening chromem db: %w", err)
	}

	return &ChromemStore{db: db, logger: logger}, nil
}

func expandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// noopEmbeddingFunc satisfies chromem's EmbeddingFunc signature for
// collections this adapter only ever queries by precomputed vector; the
// embedding client has already embedded the query by the time it
// reaches this store.
func noopEmbeddingFunc(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("vectorstore: chromem collection queried by text, expected precomputed vector")
}

func (s *ChromemStore) collection(name string) (*chromem.Collection, error) {
	coll := s.db.GetCollection(name, noopEmbeddingFunc)
	if coll == nil {
		return nil, &StoreError{Op: "get_collection", Reason: ReasonUnknownCollection}
	}
	return coll, nil
}

func (s *ChromemStore) ListCollections(ctx context.Context) ([]CollectionStat, error) {
	all := s.db.ListCollections()
	stats := make([]CollectionStat, 0, len(all))
	for name, coll := range all {
		stats = append(stats, CollectionStat{Name: name, DocumentCount: coll.Count()})
	}
	return stats, nil
}

func (s *ChromemStore) SimilaritySearch(ctx context.Context, collection string, queryVector []float32, k int, filter Filter) ([]message.RetrievedDoc, error) {
	if k < 1 {
		return nil, &StoreError{Op: "similarity_search", Reason: "k must be >= 1"}
	}
	coll, err := s.collection(collection)
	if err != nil {
		return nil, err
	}

	count := coll.Count()
	if count == 0 {
		return []message.RetrievedDoc{}, nil
	}
	if k > count {
		k = count
	}

	results, err := coll.QueryEmbedding(ctx, queryVector, k, filter, nil)
	if err != nil {
		return nil, &StoreError{Op: "similarity_search", Reason: "query failed", Err: err}
	}
	s.dims.Store(collection, len(queryVector))

	docs := make([]message.RetrievedDoc, len(results))
	for i, r := range results {
		docs[i] = message.RetrievedDoc{
			Content:    r.Content,
			Metadata:   r.Metadata,
			Similarity: float64(r.Similarity),
			Source:     sourceFromMetadata(r.ID, r.Metadata),
		}
	}
	return docs, nil
}

func (s *ChromemStore) MetadataLookup(ctx context.Context, collection string, filter Filter, limit int) ([]message.RetrievedDoc, error) {
	coll, err := s.collection(collection)
	if err != nil {
		return nil, err
	}

	count := coll.Count()
	if count == 0 {
		return []message.RetrievedDoc{}, nil
	}

	// chromem-go has no pure-metadata scan; a zero vector query with a
	// where-filter and the full collection size as k approximates an
	// unranked structured lookup, then this adapter trims to limit. The
	// probe vector's dimension comes from the last similarity_search seen
	// for this collection; until one has run, this falls back to a single
	// dimension, which chromem-go rejects with a dimension-mismatch error
	// that this adapter surfaces as a StoreError.
	dim := 1
	if cached, ok := s.dims.Load(collection); ok {
		dim = cached.(int)
	}
	zero := make([]float32, dim)
	results, err := coll.QueryEmbedding(ctx, zero, count, filter, nil)
	if err != nil {
		return nil, &StoreError{Op: "metadata_lookup", Reason: "query failed", Err: err}
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	docs := make([]message.RetrievedDoc, len(results))
	for i, r := range results {
		docs[i] = message.RetrievedDoc{
			Content:  r.Content,
			Metadata: r.Metadata,
			Source:   sourceFromMetadata(r.ID, r.Metadata),
		}
	}
	return docs, nil
}
