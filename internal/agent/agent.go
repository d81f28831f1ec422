// Package agent implements the bounded reasoning agent: a
// reason-act-observe loop over the tool registry, with message
// trimming and an optional grounding check.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/uavquery/queryengine/internal/chatclient"
	"github.com/uavquery/queryengine/internal/logging"
	"github.com/uavquery/queryengine/internal/tools"
	"github.com/uavquery/queryengine/pkg/message"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const systemPromptTemplate = `You are a UAV/DATCOM design assistant. Every factual claim must be cited using "(source: file, locator)".
Use article_lookup when the query contains an explicit article reference.
Use design_area_router before retrieve_datcom_archive when a collection is not yet set.
Use python_calculator for any arithmetic.
Available tools:
%s`

// DefaultMaxIterations is the reasoning loop's iteration cap.
const DefaultMaxIterations = 10

// SoftMessageLimit triggers message-list trimming once exceeded.
const SoftMessageLimit = 40

// Agent runs the bounded reason-act-observe loop.
type Agent struct {
	chat          *chatclient.Client
	registry      *tools.Registry
	logger        *logging.Logger
	maxIterations int
}

// New builds an Agent. maxIterations <= 0 uses DefaultMaxIterations.
func New(chat *chatclient.Client, registry *tools.Registry, logger *logging.Logger, maxIterations int) *Agent {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &Agent{chat: chat, registry: registry, logger: logger, maxIterations: maxIterations}
}

// Result is the outcome of one Run: the final answer plus the full
// (possibly trimmed) message transcript appended to whatever the
// caller passed in.
type Result struct {
	Generation string
	Messages   []message.Message
}

// Run executes the loop until the model answers, the iteration cap is
// reached, or a tool raises an error the registry cannot absorb
// locally (registry errors are always reported as observations, never
// propagated, so in practice only context cancellation exits early
// with an error).
func (a *Agent) Run(ctx context.Context, messages []message.Message) (Result, error) {
	system := fmt.Sprintf(systemPromptTemplate, toolList(a.registry))
	toolDefs := toChatToolDefs(a.registry.Defs())

	transcript := append([]message.Message(nil), messages...)

	for iteration := 0; iteration < a.maxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return Result{Messages: transcript}, err
		}

		transcript = trim(transcript)

		result, err := a.chat.Complete(ctx, system, toChatMessages(transcript), toolDefs, 0)
		if err != nil {
			a.logger.Warn(ctx, "chat completion failed mid-loop", zap.Error(err))
			observation := "retrieval unavailable"
			transcript = append(transcript, message.Message{Role: message.RoleTool, Content: observation})
			continue
		}

		if !result.IsToolCall() {
			generation := result.Content
			transcript = append(transcript, message.Message{Role: message.RoleAssistant, Content: generation})
			a.checkGrounding(ctx, generation, transcript)
			return Result{Generation: generation, Messages: transcript}, nil
		}

		transcript = append(transcript, message.Message{Role: message.RoleAssistant, Content: ""})
		observations := a.invokeAll(ctx, result.ToolCalls)
		for i, call := range result.ToolCalls {
			transcript = append(transcript, message.Message{
				Role:       message.RoleTool,
				Content:    observations[i],
				ToolName:   call.Name,
				ToolCallID: call.ID,
			})
		}
	}

	generation := "did not converge within the iteration limit; could not ground a complete answer"
	transcript = append(transcript, message.Message{Role: message.RoleAssistant, Content: generation})
	return Result{Generation: generation, Messages: transcript}, nil
}

// invokeAll dispatches every tool call from one turn concurrently,
// bounded by an errgroup, and returns observations in call order.
// Tool failures never fail the group; invoke already turns them into
// an "error: ..." observation string.
func (a *Agent) invokeAll(ctx context.Context, calls []chatclient.ToolCall) []string {
	observations := make([]string, len(calls))
	var g errgroup.Group
	for i, call := range calls {
		i, call := i, call
		g.Go(func() error {
			observations[i] = a.invoke(ctx, call)
			return nil
		})
	}
	_ = g.Wait()
	return observations
}

func (a *Agent) invoke(ctx context.Context, call chatclient.ToolCall) string {
	out, err := a.registry.Invoke(ctx, call.Name, call.Arguments)
	if err != nil {
		a.logger.Debug(ctx, "tool invocation failed", zap.String("tool", call.Name), zap.Error(err))
		return fmt.Sprintf("error: %v", err)
	}
	return out
}

// checkGrounding scans the final answer for sentences making a claim
// with no supporting substring in any preceding tool observation, and
// logs a debug entry for each one. Advisory only; never blocks the
// answer from being returned.
func (a *Agent) checkGrounding(ctx context.Context, generation string, transcript []message.Message) {
	var observations []string
	for _, m := range transcript {
		if m.Role == message.RoleTool {
			observations = append(observations, m.Content)
		}
	}
	combined := strings.Join(observations, "\n")

	for _, sentence := range splitSentences(generation) {
		trimmed := strings.TrimSpace(sentence)
		if trimmed == "" || !looksFactual(trimmed) {
			continue
		}
		if !strings.Contains(combined, trimmed) && !sharesSubstring(combined, trimmed) {
			a.logger.Debug(ctx, "ungrounded sentence in final answer", zap.String("sentence", trimmed))
		}
	}
}

func splitSentences(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool { return r == '.' || r == '\n' })
}

func looksFactual(sentence string) bool {
	return strings.ContainsAny(sentence, "0123456789") || strings.Contains(sentence, "(source:")
}

// sharesSubstring is a loose heuristic: a sentence is considered
// grounded if a meaningful run of its words appears verbatim in the
// tool observations, tolerating punctuation differences from sentence
// splitting.
func sharesSubstring(observations, sentence string) bool {
	words := strings.Fields(sentence)
	if len(words) < 4 {
		return strings.Contains(observations, sentence)
	}
	window := strings.Join(words[:4], " ")
	return strings.Contains(observations, window)
}

func toolList(r *tools.Registry) string {
	var b strings.Builder
	for _, def := range r.Defs() {
		fmt.Fprintf(&b, "- %s: %s\n", def.Name, def.Description)
	}
	return b.String()
}

func toChatToolDefs(defs []tools.ToolSpec) []chatclient.ToolDef {
	out := make([]chatclient.ToolDef, len(defs))
	for i, d := range defs {
		out[i] = chatclient.ToolDef{Name: d.Name, Description: d.Description, InputSchema: json.RawMessage(d.InputSchema)}
	}
	return out
}

func toChatMessages(msgs []message.Message) []chatclient.Message {
	out := make([]chatclient.Message, len(msgs))
	for i, m := range msgs {
		out[i] = chatclient.Message{Role: string(m.Role), Content: m.Content, ToolCallID: m.ToolCallID, Name: m.ToolName}
	}
	return out
}
