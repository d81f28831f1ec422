// Package tools implements the process-wide tool registry: the typed,
// named handlers the reasoning agent and the retrieve-only CLI path
// dispatch into.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/uavquery/queryengine/internal/metrics"
)

// ToolSpec is one registered tool: what the chat model sees
// (Name/Description/InputSchema) and what the registry dispatches to
// (Handler).
type ToolSpec struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Handler     func(ctx context.Context, args json.RawMessage) (string, error)

	compiled *sjsonschema.Schema
}

// Registry is a frozen, name-keyed set of ToolSpec values. The zero
// value is not usable; build one with NewRegistry.
type Registry struct {
	specs   map[string]*ToolSpec
	latency *metrics.ToolLatency
}

// NewRegistry compiles each spec's schema and freezes the set. Returns
// an error on a duplicate name or an uncompilable schema — both are
// startup-time defects, never a runtime condition.
func NewRegistry(specs ...ToolSpec) (*Registry, error) {
	r := &Registry{specs: make(map[string]*ToolSpec, len(specs)), latency: metrics.NewToolLatency(nil)}
	for i := range specs {
		spec := specs[i]
		if _, exists := r.specs[spec.Name]; exists {
			return nil, fmt.Errorf("tools: duplicate tool name %q", spec.Name)
		}
		compiled, err := compileSchema(spec.Name, spec.InputSchema)
		if err != nil {
			return nil, err
		}
		spec.compiled = compiled
		r.specs[spec.Name] = &spec
	}
	return r, nil
}

func compileSchema(name string, raw json.RawMessage) (*sjsonschema.Schema, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("tools: %s: unmarshal schema: %w", name, err)
	}
	c := sjsonschema.NewCompiler()
	resource := name + ".schema.json"
	if err := c.AddResource(resource, doc); err != nil {
		return nil, fmt.Errorf("tools: %s: add schema resource: %w", name, err)
	}
	compiled, err := c.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("tools: %s: compile schema: %w", name, err)
	}
	return compiled, nil
}

// Defs returns every registered tool's chat-facing definition, sorted
// by name for deterministic ordering in the prompt.
func (r *Registry) Defs() []ToolSpec {
	defs := make([]ToolSpec, 0, len(r.specs))
	for _, spec := range r.specs {
		defs = append(defs, ToolSpec{Name: spec.Name, Description: spec.Description, InputSchema: spec.InputSchema})
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Has reports whether name is a registered tool.
func (r *Registry) Has(name string) bool {
	_, ok := r.specs[name]
	return ok
}

// Invoke validates args against the named tool's schema and, on
// success, dispatches to its handler. A validation failure or unknown
// tool name is always a *ToolError: deterministic, never retried.
func (r *Registry) Invoke(ctx context.Context, name string, args json.RawMessage) (out string, err error) {
	start := time.Now()
	defer func() { r.latency.Record(ctx, name, time.Since(start), err) }()

	spec, ok := r.specs[name]
	if !ok {
		err = &ToolError{Tool: name, Reason: "unknown tool"}
		return "", err
	}

	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	var doc any
	if unmarshalErr := json.Unmarshal(args, &doc); unmarshalErr != nil {
		err = &ToolError{Tool: name, Reason: "malformed arguments", Err: unmarshalErr}
		return "", err
	}
	if validateErr := spec.compiled.Validate(doc); validateErr != nil {
		err = &ToolError{Tool: name, Reason: "arguments failed schema validation", Err: validateErr}
		return "", err
	}

	out, handlerErr := spec.Handler(ctx, args)
	if handlerErr != nil {
		var toolErr *ToolError
		if asToolError(handlerErr, &toolErr) {
			err = toolErr
			return "", err
		}
		err = &ToolError{Tool: name, Reason: "handler failed", Err: handlerErr}
		return "", err
	}
	return out, nil
}

func asToolError(err error, target **ToolError) bool {
	te, ok := err.(*ToolError)
	if !ok {
		return false
	}
	*target = te
	return true
}

// retrievalTools names every tool that reads from the vector store.
var retrievalTools = map[string]bool{
	"design_area_router":     true,
	"retrieve_datcom_archive": true,
	"metadata_search":         true,
	"article_lookup":          true,
}

// IsRetrievalTool reports whether name is one of the retrieval tools.
func IsRetrievalTool(name string) bool { return retrievalTools[name] }
