// Package vectorstore queries a vector-indexed document collection by
// similarity and by metadata, the narrow read interface the retrieval
// tools depend on.
package vectorstore

import (
	"context"
	"fmt"

	"github.com/uavquery/queryengine/pkg/message"
)

// CollectionStat describes one collection the store knows about.
type CollectionStat struct {
	Name          string
	DocumentCount int
}

// Filter is a conjunction of equality constraints on metadata fields,
// e.g. {"section": "article_24"} matches documents whose "section"
// metadata equals "article_24".
type Filter map[string]string

// Store is the vector store adapter's contract. Implementations must be
// safe for concurrent use by many in-flight queries.
type Store interface {
	// ListCollections enumerates every collection and its document count.
	ListCollections(ctx context.Context) ([]CollectionStat, error)

	// SimilaritySearch returns the top-k documents in collection by
	// cosine similarity to queryVector, optionally narrowed by filter.
	// k must be >= 1. An empty collection yields an empty slice, not an
	// error. Results are sorted descending by similarity.
	SimilaritySearch(ctx context.Context, collection string, queryVector []float32, k int, filter Filter) ([]message.RetrievedDoc, error)

	// MetadataLookup returns up to limit documents in collection whose
	// metadata matches filter, without any vector comparison.
	MetadataLookup(ctx context.Context, collection string, filter Filter, limit int) ([]message.RetrievedDoc, error)
}

// StoreError reports a vector store failure. Reason UnknownCollection
// marks a request against a collection the store has never heard of.
type StoreError struct {
	Op      string
	Reason  string
	Err     error
}

const ReasonUnknownCollection = "unknown collection"

func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vectorstore: %s: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("vectorstore: %s: %s", e.Op, e.Reason)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsUnknownCollection reports whether err is a StoreError naming a
// collection the store does not have.
func IsUnknownCollection(err error) bool {
	se, ok := err.(*StoreError)
	return ok && se.Reason == ReasonUnknownCollection
}
