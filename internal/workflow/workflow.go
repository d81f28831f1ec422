// Package workflow implements the workflow engine: the shared State
// and the single Run operation that composes the intent router with
// the DATCOM pipeline or the reasoning agent.
package workflow

import (
	"context"
	"fmt"

	"github.com/uavquery/queryengine/internal/agent"
	"github.com/uavquery/queryengine/internal/datcom"
	"github.com/uavquery/queryengine/internal/logging"
	"github.com/uavquery/queryengine/internal/router"
	"github.com/uavquery/queryengine/pkg/message"
	"go.uber.org/zap"
)

// State is the only value that flows between components.
type State struct {
	Messages      []message.Message
	Question      string
	Intent        router.Intent
	Collection    string
	RetrievedDocs []message.RetrievedDoc
	Generation    string
}

// Engine composes the intent router, the DATCOM pipeline, and the
// reasoning agent into the single Run operation.
type Engine struct {
	router   *router.Router
	pipeline *datcom.Pipeline
	agent    *agent.Agent
	logger   *logging.Logger
}

// New builds an Engine from its three component dependencies.
func New(r *router.Router, pipeline *datcom.Pipeline, a *agent.Agent, logger *logging.Logger) *Engine {
	return &Engine{router: r, pipeline: pipeline, agent: a, logger: logger}
}

// Run executes the full query: classify intent, then dispatch to
// exactly one of the two branches. Intent is always written before
// either branch begins; a successful run always ends with a non-empty
// Generation; the returned Messages is always a prefix-extension of
// state.Messages.
func (e *Engine) Run(ctx context.Context, question string) (State, error) {
	if question == "" {
		return State{}, fmt.Errorf("workflow: question must not be empty")
	}

	state := State{
		Question: question,
		Messages: router.SeedMessages(question),
	}

	state.Intent = e.router.Classify(ctx, question)
	e.logger.Info(ctx, "intent classified", zap.String("intent", string(state.Intent)), zap.String("question", question))

	switch state.Intent {
	case router.IntentDatcomGeneration:
		result, err := e.pipeline.Run(ctx, question)
		if err != nil {
			return state, err
		}
		state.Generation = result.Generation
		state.Messages = append(state.Messages, message.Message{Role: message.RoleAssistant, Content: result.Generation})
		return state, nil

	default:
		result, err := e.agent.Run(ctx, state.Messages)
		if err != nil {
			return state, err
		}
		state.Messages = result.Messages
		state.Generation = result.Generation
		return state, nil
	}
}
