package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/uavquery/queryengine/internal/chatclient"
	"github.com/uavquery/queryengine/internal/config"
	"github.com/uavquery/queryengine/internal/logging"
)

func newTestRouter(t *testing.T, reply string) *Router {
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
	chat := chatclient.New(cfg, logging.NewTestLogger().Logger, server.Client())
	return New(chat, logging.NewTestLogger().Logger)
}

func TestClassifyDatcomGeneration(t *testing.T) {
	r := newTestRouter(t, "datcom_generation")
	assert.Equal(t, IntentDatcomGeneration, r.Classify(context.Background(), "Generate a .dat file for F-4"))
}

func TestClassifyGeneralQuery(t *testing.T) {
	r := newTestRouter(t, "general_query")
	assert.Equal(t, IntentGeneralQuery, r.Classify(context.Background(), "What is the FLTCON namelist?"))
}

func TestClassifyDefaultsToGeneralQueryOnAmbiguousReply(t *testing.T) {
	r := newTestRouter(t, "not sure")
	assert.Equal(t, IntentGeneralQuery, r.Classify(context.Background(), "hmm"))
}

func TestClassifyDefaultsToGeneralQueryOnChatFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	cfg := config.NewDefaultConfig()
	cfg.ChatAPIBase = server.URL
	cfg.ChatModel = "test-model"
	chat := chatclient.New(cfg, logging.NewTestLogger().Logger, server.Client())
	r := New(chat, logging.NewTestLogger().Logger)
	assert.Equal(t, IntentGeneralQuery, r.Classify(context.Background(), "anything"))
}

func TestSeedMessagesContainsUserTurn(t *testing.T) {
	msgs := SeedMessages("hello")
	assert.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Content)
}
