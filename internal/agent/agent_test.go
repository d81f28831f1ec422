package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uavquery/queryengine/internal/chatclient"
	"github.com/uavquery/queryengine/internal/config"
	"github.com/uavquery/queryengine/internal/logging"
	"github.com/uavquery/queryengine/internal/tools"
	"github.com/uavquery/queryengine/pkg/message"
)

type scriptedResponse struct {
	content   string
	toolCalls []struct {
		id, name, args string
	}
}

func newTestAgent(t *testing.T, registry *tools.Registry, responses []scriptedResponse) *Agent {
	t.Helper()
	var call int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := responses[call]
		if call < len(responses)-1 {
			call++
		}

		type toolCallJSON struct {
			ID       string `json:"id"`
			Function struct {
				Name      string `json:"name"`
				Arguments string `json:"arguments"`
			} `json:"function"`
		}
		body := struct {
			Choices []struct {
				Message struct {
					Content   string         `json:"content"`
					ToolCalls []toolCallJSON `json:"tool_calls"`
				} `json:"message"`
			} `json:"choices"`
		}{}
		body.Choices = make([]struct {
			Message struct {
				Content   string         `json:"content"`
				ToolCalls []toolCallJSON `json:"tool_calls"`
			} `json:"message"`
		}, 1)
		body.Choices[0].Message.Content = resp.content
		for _, tc := range resp.toolCalls {
			var entry toolCallJSON
			entry.ID = tc.id
			entry.Function.Name = tc.name
			entry.Function.Arguments = tc.args
			body.Choices[0].Message.ToolCalls = append(body.Choices[0].Message.ToolCalls, entry)
		}
		json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(server.Close)

	cfg := config.NewDefaultConfig()
	cfg.ChatAPIBase = server.URL
	cfg.ChatModel = "test-model"
	chat := chatclient.New(cfg, logging.NewTestLogger().Logger, server.Client())
	return New(chat, registry, logging.NewTestLogger().Logger, 0)
}

func echoRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	r, err := tools.NewRegistry(tools.NewPythonCalculator())
	require.NoError(t, err)
	return r
}

func TestAgentReturnsTerminalAnswerImmediately(t *testing.T) {
	registry := echoRegistry(t)
	a := newTestAgent(t, registry, []scriptedResponse{{content: "the answer is 42"}})

	result, err := a.Run(context.Background(), []message.Message{{Role: message.RoleUser, Content: "what is the answer?"}})
	require.NoError(t, err)
	assert.Equal(t, "the answer is 42", result.Generation)
}

func TestAgentExecutesToolCallThenAnswers(t *testing.T) {
	registry := echoRegistry(t)
	responses := []scriptedResponse{
		{toolCalls: []struct{ id, name, args string }{{id: "call_1", name: "python_calculator", args: `{"expression":"2+2"}`}}},
		{content: "the result is 4"},
	}
	a := newTestAgent(t, registry, responses)

	result, err := a.Run(context.Background(), []message.Message{{Role: message.RoleUser, Content: "what is 2+2?"}})
	require.NoError(t, err)
	assert.Equal(t, "the result is 4", result.Generation)

	var sawTool bool
	for _, m := range result.Messages {
		if m.Role == message.RoleTool && m.ToolName == "python_calculator" {
			sawTool = true
			assert.Equal(t, "4", m.Content)
		}
	}
	assert.True(t, sawTool)
}

func TestAgentTerminatesAtIterationCapWithNonEmptyGeneration(t *testing.T) {
	registry := echoRegistry(t)
	loopForever := scriptedResponse{toolCalls: []struct{ id, name, args string }{{id: "call_x", name: "python_calculator", args: `{"expression":"1+1"}`}}}
	a := newTestAgent(t, registry, []scriptedResponse{loopForever})
	a.maxIterations = 3

	result, err := a.Run(context.Background(), []message.Message{{Role: message.RoleUser, Content: "loop"}})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Generation)
	assert.Contains(t, result.Generation, "did not converge")
}

func TestAgentReportsUnknownToolAsObservationNotFatal(t *testing.T) {
	registry := echoRegistry(t)
	responses := []scriptedResponse{
		{toolCalls: []struct{ id, name, args string }{{id: "call_1", name: "does_not_exist", args: `{}`}}},
		{content: "done"},
	}
	a := newTestAgent(t, registry, responses)

	result, err := a.Run(context.Background(), []message.Message{{Role: message.RoleUser, Content: "x"}})
	require.NoError(t, err)
	assert.Equal(t, "done", result.Generation)
}
