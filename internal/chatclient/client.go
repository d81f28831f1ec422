// Package chatclient implements a single-turn, OpenAI-compatible chat
// completion call with optional tool-call schemas.
package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/uavquery/queryengine/internal/config"
	"github.com/uavquery/queryengine/internal/logging"
	"github.com/uavquery/queryengine/internal/retry"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultRateLimit = 10
	defaultBurst     = 20
)

// ToolDef is the chat-facing description of a tool: what the model sees,
// never the handler. The tool registry builds these from its ToolSpec
// values.
type ToolDef struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// ToolCall is one tool invocation the model requested.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// ChatResult is either a terminal textual reply or a list of tool-call
// requests; never both.
type ChatResult struct {
	Content   string
	ToolCalls []ToolCall
}

// IsToolCall reports whether the model chose to call tools instead of
// answering directly.
func (r ChatResult) IsToolCall() bool { return len(r.ToolCalls) > 0 }

// Message is the wire shape of one chat turn sent to the completion API.
type Message struct {
	Role       string `json:"role"`
	Content    string `json:"content,omitempty"`
	ToolCallID string `json:"tool_call_id,omitempty"`
	Name       string `json:"name,omitempty"`
}

// Client is a thread-safe chat completion client shared by all in-flight
// queries.
type Client struct {
	baseURL    string
	apiKey     config.Secret
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
	budget     retry.Budget
	logger     *logging.Logger
}

// New creates a chat client from configuration. httpClient may be nil to
// use a default client with a 120s timeout.
func New(cfg *config.Config, logger *logging.Logger, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	return &Client{
		baseURL:    cfg.ChatAPIBase,
		apiKey:     cfg.ChatAPIKey,
		model:      cfg.ChatModel,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		budget:     retry.Budget{MaxAttempts: 3, BaseBackoff: 250 * time.Millisecond},
		logger:     logger,
	}
}

type requestTool struct {
	Type     string          `json:"type"`
	Function requestFunction `json:"function"`
}

type requestFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []Message     `json:"messages"`
	Tools       []requestTool `json:"tools,omitempty"`
	ToolChoice  string        `json:"tool_choice,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				ID       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends one chat completion request. temperature defaults to 0
// for determinism when the caller passes 0 (the router and DATCOM
// extractor always do).
func (c *Client) Complete(ctx context.Context, system string, messages []Message, tools []ToolDef, temperature float64) (ChatResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return ChatResult{}, &ChatError{Op: "complete", Reason: "rate limiter", Err: err}
	}

	full := make([]Message, 0, len(messages)+1)
	if system != "" {
		full = append(full, Message{Role: "system", Content: system})
	}
	full = append(full, messages...)

	req := chatRequest{
		Model:       c.model,
		Messages:    full,
		Temperature: temperature,
	}
	if len(tools) > 0 {
		req.ToolChoice = "auto"
		req.Tools = make([]requestTool, len(tools))
		for i, t := range tools {
			req.Tools[i] = requestTool{
				Type: "function",
				Function: requestFunction{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  t.InputSchema,
				},
			}
		}
	}

	var result ChatResult
	err := retry.Do(ctx, "chatclient", c.budget, func(ctx context.Context) error {
		r, err := c.doRequest(ctx, req)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		c.logger.Error(ctx, "chat completion failed", zap.Error(err))
		return ChatResult{}, &ChatError{Op: "complete", Reason: "remote call exhausted retries", Err: err}
	}
	return result, nil
}

func (c *Client) doRequest(ctx context.Context, req chatRequest) (ChatResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return ChatResult{}, fmt.Errorf("chatclient: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return ChatResult{}, fmt.Errorf("chatclient: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey.IsSet() {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey.Value())
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return ChatResult{}, retry.Retryable(fmt.Errorf("chatclient: request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		respBody, _ := io.ReadAll(resp.Body)
		return ChatResult{}, retry.Retryable(fmt.Errorf("chatclient: status %d: %s", resp.StatusCode, string(respBody)))
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return ChatResult{}, fmt.Errorf("chatclient: status %d: %s", resp.StatusCode, string(respBody))
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ChatResult{}, fmt.Errorf("chatclient: decode response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return ChatResult{}, fmt.Errorf("chatclient: no choices in response")
	}

	choice := decoded.Choices[0].Message
	if len(choice.ToolCalls) == 0 {
		return ChatResult{Content: choice.Content}, nil
	}

	calls := make([]ToolCall, len(choice.ToolCalls))
	for i, tc := range choice.ToolCalls {
		calls[i] = ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		}
	}
	return ChatResult{ToolCalls: calls}, nil
}
