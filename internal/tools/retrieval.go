package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/uavquery/queryengine/internal/vectorstore"
	"github.com/uavquery/queryengine/pkg/message"
)

// Embedder is the narrow slice of the embedding client the retrieval
// tools need: turning one query string into a vector.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// RetrievalConfig carries the defaults retrieval tools fall back to
// when a caller omits an optional argument.
type RetrievalConfig struct {
	DefaultTopK      int
	ContentMaxLength int
}

type designAreaRouterArgs struct {
	Query string `json:"query" jsonschema:"required,description=natural-language question to route to a collection"`
}

// NewDesignAreaRouter builds the design_area_router tool: it embeds
// query once and probes every known collection with a single-result
// similarity search, returning whichever collection scored highest.
func NewDesignAreaRouter(store vectorstore.Store, embedder Embedder) ToolSpec {
	return ToolSpec{
		Name:        "design_area_router",
		Description: "Pick the best-matching document collection for a query.",
		InputSchema: schemaOf(designAreaRouterArgs{}),
		Handler: func(ctx context.Context, raw json.RawMessage) (string, error) {
			var args designAreaRouterArgs
			if err := json.Unmarshal(raw, &args); err != nil {
				return "", &ToolError{Tool: "design_area_router", Reason: "decode arguments", Err: err}
			}

			collections, err := store.ListCollections(ctx)
			if err != nil {
				return "", &ToolError{Tool: "design_area_router", Reason: "listing collections", Err: err}
			}
			if len(collections) == 0 {
				return "", &ToolError{Tool: "design_area_router", Reason: "no collections available"}
			}

			vector, err := embedder.EmbedQuery(ctx, args.Query)
			if err != nil {
				return "", &ToolError{Tool: "design_area_router", Reason: "embedding query", Err: err}
			}

			best := collections[0].Name
			bestScore := -1.0
			for _, c := range collections {
				if c.DocumentCount == 0 {
					continue
				}
				docs, err := store.SimilaritySearch(ctx, c.Name, vector, 1, nil)
				if err != nil || len(docs) == 0 {
					continue
				}
				if docs[0].Similarity > bestScore {
					bestScore = docs[0].Similarity
					best = c.Name
				}
			}
			return best, nil
		},
	}
}

type retrieveArchiveArgs struct {
	Query      string `json:"query" jsonschema:"required,description=natural-language retrieval query"`
	Collection string `json:"collection,omitempty" jsonschema:"description=collection to search; if empty the router picks one"`
	K          int    `json:"k,omitempty" jsonschema:"description=number of passages to return"`
}

// NewRetrieveDatcomArchive builds retrieve_datcom_archive: semantic
// search over one collection, formatted as citations plus snippets.
func NewRetrieveDatcomArchive(store vectorstore.Store, embedder Embedder, cfg RetrievalConfig) ToolSpec {
	router := NewDesignAreaRouter(store, embedder)
	return ToolSpec{
		Name:        "retrieve_datcom_archive",
		Description: "Semantic retrieval of the most relevant passages for a query.",
		InputSchema: schemaOf(retrieveArchiveArgs{}),
		Handler: func(ctx context.Context, raw json.RawMessage) (string, error) {
			var args retrieveArchiveArgs
			if err := json.Unmarshal(raw, &args); err != nil {
				return "", &ToolError{Tool: "retrieve_datcom_archive", Reason: "decode arguments", Err: err}
			}

			collection := args.Collection
			if collection == "" {
				routed, err := router.Handler(ctx, raw)
				if err != nil {
					return "", err
				}
				collection = routed
			}

			k := args.K
			if k <= 0 {
				k = cfg.DefaultTopK
			}
			if k <= 0 {
				k = 10
			}

			vector, err := embedder.EmbedQuery(ctx, args.Query)
			if err != nil {
				return "", &ToolError{Tool: "retrieve_datcom_archive", Reason: "embedding query", Err: err}
			}

			docs, err := store.SimilaritySearch(ctx, collection, vector, k, nil)
			if err != nil {
				if vectorstore.IsUnknownCollection(err) {
					return "", &ToolError{Tool: "retrieve_datcom_archive", Reason: "unknown collection", Err: err}
				}
				return "retrieval unavailable", nil
			}
			return formatCitations(docs, cfg.ContentMaxLength), nil
		},
	}
}

type metadataSearchArgs struct {
	Collection string `json:"collection" jsonschema:"required,description=collection to search"`
	Field      string `json:"field" jsonschema:"required,description=metadata field name"`
	Value      string `json:"value" jsonschema:"required,description=metadata field value to match"`
}

// NewMetadataSearch builds metadata_search: a pure structured lookup,
// no vector comparison.
func NewMetadataSearch(store vectorstore.Store, cfg RetrievalConfig) ToolSpec {
	return ToolSpec{
		Name:        "metadata_search",
		Description: "Structured retrieval by exact metadata field match.",
		InputSchema: schemaOf(metadataSearchArgs{}),
		Handler: func(ctx context.Context, raw json.RawMessage) (string, error) {
			var args metadataSearchArgs
			if err := json.Unmarshal(raw, &args); err != nil {
				return "", &ToolError{Tool: "metadata_search", Reason: "decode arguments", Err: err}
			}

			docs, err := store.MetadataLookup(ctx, args.Collection, vectorstore.Filter{args.Field: args.Value}, cfg.DefaultTopK)
			if err != nil {
				if vectorstore.IsUnknownCollection(err) {
					return "", &ToolError{Tool: "metadata_search", Reason: "unknown collection", Err: err}
				}
				return "retrieval unavailable", nil
			}
			if len(docs) == 0 {
				return "no matching documents", nil
			}
			return formatCitations(docs, cfg.ContentMaxLength), nil
		},
	}
}

type articleLookupArgs struct {
	Reference string `json:"reference" jsonschema:"required,description=article or section reference, e.g. article_24"`
}

// NewArticleLookup builds article_lookup: a direct lookup by article
// reference across every known collection, returning the full text of
// the first match or "not found".
func NewArticleLookup(store vectorstore.Store) ToolSpec {
	return ToolSpec{
		Name:        "article_lookup",
		Description: "Direct lookup of an article or section by its reference.",
		InputSchema: schemaOf(articleLookupArgs{}),
		Handler: func(ctx context.Context, raw json.RawMessage) (string, error) {
			var args articleLookupArgs
			if err := json.Unmarshal(raw, &args); err != nil {
				return "", &ToolError{Tool: "article_lookup", Reason: "decode arguments", Err: err}
			}

			collections, err := store.ListCollections(ctx)
			if err != nil {
				return "", &ToolError{Tool: "article_lookup", Reason: "listing collections", Err: err}
			}

			filter := vectorstore.Filter{"section": args.Reference}
			for _, c := range collections {
				docs, err := store.MetadataLookup(ctx, c.Name, filter, 1)
				if err != nil || len(docs) == 0 {
					continue
				}
				return fmt.Sprintf("%s (source: %s)", docs[0].Content, docs[0].Source), nil
			}
			return "not found", nil
		},
	}
}

// formatCitations renders retrieved docs the way the agent's system
// prompt requires them cited: "(source: file, locator)" per passage.
func formatCitations(docs []message.RetrievedDoc, maxLen int) string {
	if len(docs) == 0 {
		return "no matching documents"
	}
	var b strings.Builder
	for i, d := range docs {
		content := d.Content
		if maxLen > 0 && len(content) > maxLen {
			content = content[:maxLen]
		}
		fmt.Fprintf(&b, "%d. %s (source: %s)\n", i+1, content, d.Source)
	}
	return strings.TrimRight(b.String(), "\n")
}
