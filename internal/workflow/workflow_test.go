package workflow

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uavquery/queryengine/internal/agent"
	"github.com/uavquery/queryengine/internal/chatclient"
	"github.com/uavquery/queryengine/internal/config"
	"github.com/uavquery/queryengine/internal/datcom"
	"github.com/uavquery/queryengine/internal/logging"
	"github.com/uavquery/queryengine/internal/router"
	"github.com/uavquery/queryengine/internal/tools"
)

func chatServer(t *testing.T, reply string) *chatclient.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
		}{}
		resp.Choices = make([]struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		}, 1)
		resp.Choices[0].Message.Content = reply
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)

	cfg := config.NewDefaultConfig()
	cfg.ChatAPIBase = server.URL
	cfg.ChatModel = "test-model"
	return chatclient.New(cfg, logging.NewTestLogger().Logger, server.Client())
}

func TestRunDispatchesToDatcomPipelineOnDatcomIntent(t *testing.T) {
	routerChat := chatServer(t, "datcom_generation")
	extraction := `{"wing":{"s":100,"a":8,"taper":0.5,"sweep":25},"flight":{"machs":[0.8],"altitudes":[10000],"alpha_start":-2,"alpha_end":10,"alpha_step":2}}`
	pipelineChat := chatServer(t, extraction)

	logger := logging.NewTestLogger().Logger
	r := router.New(routerChat, logger)
	pipeline := datcom.NewPipeline(pipelineChat, logger)
	reg, err := tools.NewRegistry(tools.NewPythonCalculator())
	require.NoError(t, err)
	agentChat := chatServer(t, "unused")
	a := agent.New(agentChat, reg, logger, 1)

	engine := New(r, pipeline, a, logger)
	state, err := engine.Run(context.Background(), "Generate a .dat file for S=100, A=8")
	require.NoError(t, err)

	assert.Equal(t, router.IntentDatcomGeneration, state.Intent)
	assert.NotEmpty(t, state.Generation)
	assert.Contains(t, state.Generation, "$FLTCON")
}

func TestRunDispatchesToAgentOnGeneralQueryIntent(t *testing.T) {
	routerChat := chatServer(t, "general_query")
	logger := logging.NewTestLogger().Logger
	r := router.New(routerChat, logger)
	pipelineChat := chatServer(t, "unused")
	pipeline := datcom.NewPipeline(pipelineChat, logger)
	reg, err := tools.NewRegistry(tools.NewPythonCalculator())
	require.NoError(t, err)
	agentChat := chatServer(t, "the FLTCON namelist describes the flight envelope (source: handbook.dat)")
	a := agent.New(agentChat, reg, logger, 0)

	engine := New(r, pipeline, a, logger)
	state, err := engine.Run(context.Background(), "What is the FLTCON namelist?")
	require.NoError(t, err)

	assert.Equal(t, router.IntentGeneralQuery, state.Intent)
	assert.Contains(t, state.Generation, "(source:")
}

func TestRunRejectsEmptyQuestion(t *testing.T) {
	logger := logging.NewTestLogger().Logger
	chat := chatServer(t, "general_query")
	r := router.New(chat, logger)
	pipeline := datcom.NewPipeline(chat, logger)
	reg, _ := tools.NewRegistry()
	a := agent.New(chat, reg, logger, 0)

	engine := New(r, pipeline, a, logger)
	_, err := engine.Run(context.Background(), "")
	require.Error(t, err)
}

func TestRunMessagesArePrefixExtensionOfSeed(t *testing.T) {
	logger := logging.NewTestLogger().Logger
	chat := chatServer(t, "general_query")
	r := router.New(chat, logger)
	pipeline := datcom.NewPipeline(chat, logger)
	reg, _ := tools.NewRegistry()
	agentChat := chatServer(t, "a terminal answer")
	a := agent.New(agentChat, reg, logger, 0)

	engine := New(r, pipeline, a, logger)
	state, err := engine.Run(context.Background(), "hello")
	require.NoError(t, err)

	require.NotEmpty(t, state.Messages)
	assert.Equal(t, "hello", state.Messages[0].Content)
}
