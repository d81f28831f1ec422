package vectorstore

import (
	"context"
	"testing"

	chromem "github.com/philippgille/chromem-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uavquery/queryengine/internal/logging"
)

func newTestChromemStore(t *testing.T) *ChromemStore {
	t.Helper()
	store, err := NewChromemStore(ChromemConfig{Path: t.TempDir()}, logging.NewTestLogger().Logger)
	require.NoError(t, err)
	return store
}

func addDoc(t *testing.T, store *ChromemStore, collection, id string, vector []float32, metadata map[string]string) {
	t.Helper()
	coll, err := store.db.GetOrCreateCollection(collection, nil, noopEmbeddingFunc)
	require.NoError(t, err)
	content := metadata["content"]
	require.NoError(t, coll.AddDocuments(context.Background(), []chromem.Document{{
		ID:        id,
		Content:   content,
		Metadata:  metadata,
		Embedding: vector,
	}}, 1))
}

func TestChromemStoreListCollectionsReportsCounts(t *testing.T) {
	store := newTestChromemStore(t)
	addDoc(t, store, "wing_archive", "1", []float32{1, 0, 0}, map[string]string{"content": "a"})
	addDoc(t, store, "wing_archive", "2", []float32{0, 1, 0}, map[string]string{"content": "b"})

	stats, err := store.ListCollections(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "wing_archive", stats[0].Name)
	assert.Equal(t, 2, stats[0].DocumentCount)
}

func TestChromemStoreSimilaritySearchReturnsNearestNeighbor(t *testing.T) {
	store := newTestChromemStore(t)
	addDoc(t, store, "wing_archive", "1", []float32{1, 0, 0}, map[string]string{"content": "close", "file_name": "a.dat", "section": "s1"})
	addDoc(t, store, "wing_archive", "2", []float32{0, 1, 0}, map[string]string{"content": "far"})

	docs, err := store.SimilaritySearch(context.Background(), "wing_archive", []float32{1, 0, 0}, 1, nil)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "close", docs[0].Content)
	assert.Equal(t, "a.dat§s1", docs[0].Source)
}

func TestChromemStoreSimilaritySearchUnknownCollection(t *testing.T) {
	store := newTestChromemStore(t)
	_, err := store.SimilaritySearch(context.Background(), "missing", []float32{1}, 1, nil)
	require.Error(t, err)
	assert.True(t, IsUnknownCollection(err))
}

func TestChromemStoreSimilaritySearchRejectsInvalidK(t *testing.T) {
	store := newTestChromemStore(t)
	addDoc(t, store, "wing_archive", "1", []float32{1, 0, 0}, nil)
	_, err := store.SimilaritySearch(context.Background(), "wing_archive", []float32{1, 0, 0}, 0, nil)
	require.Error(t, err)
}

func TestChromemStoreMetadataLookupAfterSimilaritySearchSeedsProbeDimension(t *testing.T) {
	store := newTestChromemStore(t)
	addDoc(t, store, "wing_archive", "1", []float32{1, 0, 0}, map[string]string{"content": "x", "section": "article_24"})

	_, err := store.SimilaritySearch(context.Background(), "wing_archive", []float32{1, 0, 0}, 1, nil)
	require.NoError(t, err)

	docs, err := store.MetadataLookup(context.Background(), "wing_archive", Filter{"section": "article_24"}, 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "x", docs[0].Content)
}

func TestChromemStoreMetadataLookupEmptyCollection(t *testing.T) {
	store := newTestChromemStore(t)
	_, err := store.db.GetOrCreateCollection("empty_archive", nil, noopEmbeddingFunc)
	require.NoError(t, err)

	docs, err := store.MetadataLookup(context.Background(), "empty_archive", nil, 10)
	require.NoError(t, err)
	assert.Empty(t, docs)
}
