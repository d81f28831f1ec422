package datcom

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
)

func TestExtractRetriesOnceOnMalformedJSON(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		content := "not json"
		if calls > 1 {
			content = `{"wing":{"s":100,"a":8,"taper":0.5,"sweep":25}}`
		}
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
		resp.Choices[0].Message.Content = content
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)

	cfg := config.NewDefaultConfig()
	cfg.ChatAPIBase = server.URL
	cfg.ChatModel = "test-model"
	chat := chatclient.New(cfg, logging.NewTestLogger().Logger, server.Client())

	params, err := Extract(context.Background(), chat, "design a wing")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.True(t, params.Wing.Specified)
	assert.Equal(t, 100.0, params.Wing.Area)
}

func TestExtractRecoversJSONWrappedInProseOnFirstAttempt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content := "Sure, here is the JSON:\n```json\n" +
			`{"wing":{"s":530,"a":2.8,"taper":0.3,"sweep":45}}` +
			"\n```\nLet me know if you need anything else."
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
		resp.Choices[0].Message.Content = content
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)

	cfg := config.NewDefaultConfig()
	cfg.ChatAPIBase = server.URL
	cfg.ChatModel = "test-model"
	chat := chatclient.New(cfg, logging.NewTestLogger().Logger, server.Client())

	params, err := Extract(context.Background(), chat, "design a wing")
	require.NoError(t, err)
	assert.True(t, params.Wing.Specified)
	assert.Equal(t, 530.0, params.Wing.Area)
}

func TestDropNonNumericPlaceholdersKeepsValidFieldsAndClearsBadOnes(t *testing.T) {
	candidate := `{"wing":{"s":530,"a":"unknown","taper":0.3,"sweep":45}}`
	repaired := dropNonNumericPlaceholders(candidate)

	var schema extractionSchema
	require.NoError(t, json.Unmarshal([]byte(repaired), &schema))
	require.NotNil(t, schema.Wing)
	assert.Equal(t, 530.0, schema.Wing.S)
	assert.Equal(t, 0.0, schema.Wing.A)
}

func TestExtractFailsAfterRetryExhausted(t *testing.T) {
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
		resp.Choices[0].Message.Content = "still not json"
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)

	cfg := config.NewDefaultConfig()
	cfg.ChatAPIBase = server.URL
	cfg.ChatModel = "test-model"
	chat := chatclient.New(cfg, logging.NewTestLogger().Logger, server.Client())

	_, err := Extract(context.Background(), chat, "design a wing")
	require.Error(t, err)
}
