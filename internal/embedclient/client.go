// Package embedclient batch-encodes text to dense vectors via a remote,
// OpenAI-compatible embedding service.
package embedclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/uavquery/queryengine/internal/config"
	"github.com/uavquery/queryengine/internal/logging"
	"github.com/uavquery/queryengine/internal/retry"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultRateLimit = 10 // requests/sec
	defaultBurst     = 20
)

// Embedder is the pair of embedding operations that *Client provides.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Client is a thread-safe, connection-reusing embedding client shared by
// all in-flight queries.
type Client struct {
	baseURL    string
	apiKey     config.Secret
	model      string
	batchSize  int
	httpClient *http.Client
	limiter    *rate.Limiter
	budget     retry.Budget
	logger     *logging.Logger

	dimOnce sync.Once
	dim     atomic.Int64 // 0 until the first successful call sets it
}

// New creates an embedding client from configuration. httpClient may be
// nil to use a default client with a 120s timeout, matching the other
// remote-call clients' timeout.
func New(cfg *config.Config, logger *logging.Logger, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	batchSize := cfg.EmbedBatchSize
	if batchSize <= 0 {
		batchSize = 8
	}
	return &Client{
		baseURL:    cfg.EmbedAPIBase,
		apiKey:     cfg.EmbedAPIKey,
		model:      cfg.EmbedModel,
		batchSize:  batchSize,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		budget:     retry.Budget{MaxAttempts: 3, BaseBackoff: 250 * time.Millisecond},
		logger:     logger,
	}
}

type embedRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// EmbedBatch embeds texts in chunks of at most batchSize, issuing one
// remote call per chunk and concatenating results in input order.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, &EmbedError{Op: "embed_batch", Reason: "empty input"}
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := start + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		chunk, err := c.embed(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, chunk...)
	}
	return vectors, nil
}

// EmbedQuery embeds a single text.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *Client) embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &EmbedError{Op: "embed", Reason: "rate limiter", Err: err}
	}

	var vectors [][]float32
	err := retry.Do(ctx, "embedclient", c.budget, func(ctx context.Context) error {
		result, err := c.doRequest(ctx, texts)
		if err != nil {
			return err
		}
		vectors = result
		return nil
	})
	if err != nil {
		c.logger.Error(ctx, "embedding request failed", zap.Error(err), zap.Int("batch_size", len(texts)))
		return nil, &EmbedError{Op: "embed", Reason: "remote call exhausted retries", Err: err}
	}

	if len(vectors) != len(texts) {
		return nil, &EmbedError{Op: "embed", Reason: fmt.Sprintf("vector count %d != input count %d", len(vectors), len(texts))}
	}

	first := c.dimensionOf(vectors[0])
	for i, v := range vectors {
		if len(v) != first {
			return nil, &EmbedError{Op: "embed", Reason: fmt.Sprintf("vector %d has dimension %d, expected %d", i, len(v), first)}
		}
	}

	return vectors, nil
}

// dimensionOf records the dimension discovered at the first call and
// returns it for every subsequent call.
func (c *Client) dimensionOf(first []float32) int {
	c.dimOnce.Do(func() {
		c.dim.Store(int64(len(first)))
	})
	return int(c.dim.Load())
}

func (c *Client) doRequest(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{Input: texts, Model: c.model})
	if err != nil {
		return nil, fmt.Errorf("embedclient: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embedclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey.IsSet() {
		req.Header.Set("Authorization", "Bearer "+c.apiKey.Value())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, retry.Retryable(fmt.Errorf("embedclient: request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, retry.Retryable(fmt.Errorf("embedclient: status %d: %s", resp.StatusCode, string(respBody)))
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedclient: status %d: %s", resp.StatusCode, string(respBody))
	}

	var decoded embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("embedclient: decode response: %w", err)
	}

	vectors := make([][]float32, len(decoded.Data))
	for i, d := range decoded.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}
