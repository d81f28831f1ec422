package embedclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uavquery/queryengine/internal/config"
	"github.com/uavquery/queryengine/internal/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.NewDefaultConfig()
	cfg.EmbedAPIBase = server.URL
	cfg.EmbedModel = "test-model"
	cfg.EmbedBatchSize = 2

	return New(cfg, logging.NewTestLogger().Logger, server.Client())
}

func fakeEmbedding(n int, dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = float32(n)
	}
	return v
}

func TestEmbedBatchSplitsIntoChunks(t *testing.T) {
	var callCount int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		callCount++
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		resp := embedResponse{}
		for range req.Input {
			resp.Data = append(resp.Data, struct {
				Embedding []float32 `json:"embedding"`
			}{Embedding: fakeEmbedding(1, 3)})
		}
		json.NewEncoder(w).Encode(resp)
	})

	vectors, err := client.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, vectors, 3)
	assert.Equal(t, 2, callCount) // batch size 2: [a,b], [c]
}

func TestEmbedQueryReturnsSingleVector(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		resp := embedResponse{Data: []struct {
			Embedding []float32 `json:"embedding"`
		}{{Embedding: []float32{1, 2, 3}}}}
		json.NewEncoder(w).Encode(resp)
	})

	v, err := client.EmbedQuery(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, v)
}

func TestEmbedFailsOnVectorCountMismatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{Data: nil})
	})

	_, err := client.EmbedQuery(context.Background(), "hello")
	require.Error(t, err)
	var embedErr *EmbedError
	require.ErrorAs(t, err, &embedErr)
}

func TestEmbedFailsOnDimensionMismatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		resp := embedResponse{Data: []struct {
			Embedding []float32 `json:"embedding"`
		}{
			{Embedding: []float32{1, 2, 3}},
			{Embedding: []float32{1, 2}},
		}}
		json.NewEncoder(w).Encode(resp)
	})

	_, err := client.EmbedBatch(context.Background(), []string{"a", "b"})
	require.Error(t, err)
}

func TestEmbedFailsAfterRetriesExhaustedOn5xx(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	client.budget.BaseBackoff = 0

	_, err := client.EmbedQuery(context.Background(), "hello")
	require.Error(t, err)
	var embedErr *EmbedError
	require.ErrorAs(t, err, &embedErr)
}

func TestEmbedRejectsEmptyInput(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach the network")
	})
	_, err := client.EmbedBatch(context.Background(), nil)
	require.Error(t, err)
}
