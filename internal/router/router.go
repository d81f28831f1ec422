// Package router implements the intent router: a single chat-completion
// call that classifies a question into one of two execution branches.
package router

import (
	"context"
	"strings"

	"github.com/uavquery/queryengine/internal/chatclient"
	"github.com/uavquery/queryengine/internal/logging"
	"github.com/uavquery/queryengine/pkg/message"
	"go.uber.org/zap"
)

// Intent is the workflow branch the router selects.
type Intent string

const (
	IntentDatcomGeneration Intent = "datcom_generation"
	IntentGeneralQuery     Intent = "general_query"
)

const systemPrompt = `Classify the user's question into exactly one label.
Respond with a single token, nothing else: either "datcom_generation" or "general_query".
Rules:
- If the question contains ".dat", "for005", "namelist", or explicit aerodynamic numeric parameters (wing area, aspect ratio, taper, sweep, Mach, altitude, alpha range), answer "datcom_generation".
- Otherwise answer "general_query".`

// Router classifies questions via a chat completion with a fixed
// system prompt.
type Router struct {
	chat   *chatclient.Client
	logger *logging.Logger
}

// New builds a Router bound to a chat client.
func New(chat *chatclient.Client, logger *logging.Logger) *Router {
	return &Router{chat: chat, logger: logger}
}

// Classify asks the chat model to label question. On any completion
// failure, or a reply that does not parse to one of the two known
// labels, it defaults to general_query and logs the fallback;
// classification failure is never fatal.
func (r *Router) Classify(ctx context.Context, question string) Intent {
	result, err := r.chat.Complete(ctx, systemPrompt, []chatclient.Message{{Role: "user", Content: question}}, nil, 0)
	if err != nil {
		r.logger.Warn(ctx, "intent classification failed, defaulting to general_query", zap.Error(err))
		return IntentGeneralQuery
	}

	switch strings.TrimSpace(strings.ToLower(result.Content)) {
	case string(IntentDatcomGeneration):
		return IntentDatcomGeneration
	case string(IntentGeneralQuery):
		return IntentGeneralQuery
	default:
		r.logger.Warn(ctx, "unparseable classifier reply, defaulting to general_query", zap.String("reply", result.Content))
		return IntentGeneralQuery
	}
}

// SeedMessages returns the initial message list for a run: the user's
// question as the first turn.
func SeedMessages(question string) []message.Message {
	return []message.Message{{Role: message.RoleUser, Content: question}}
}
