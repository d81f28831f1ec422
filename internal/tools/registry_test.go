package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoArgs struct {
	Value string `json:"value" jsonschema:"required"`
}

func echoTool() ToolSpec {
	return ToolSpec{
		Name:        "echo",
		Description: "echoes value",
		InputSchema: schemaOf(echoArgs{}),
		Handler: func(ctx context.Context, raw json.RawMessage) (string, error) {
			var args echoArgs
			if err := json.Unmarshal(raw, &args); err != nil {
				return "", err
			}
			return args.Value, nil
		},
	}
}

func TestNewRegistryRejectsDuplicateNames(t *testing.T) {
	_, err := NewRegistry(echoTool(), echoTool())
	require.Error(t, err)
}

func TestRegistryInvokeDispatchesToHandler(t *testing.T) {
	r, err := NewRegistry(echoTool())
	require.NoError(t, err)

	out, err := r.Invoke(context.Background(), "echo", json.RawMessage(`{"value":"hi"}`))
	require.NoError(t, err)
	assert.Equal(t, "hi", out)
}

func TestRegistryInvokeRejectsMissingRequiredField(t *testing.T) {
	r, err := NewRegistry(echoTool())
	require.NoError(t, err)

	_, err = r.Invoke(context.Background(), "echo", json.RawMessage(`{}`))
	require.Error(t, err)
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
}

func TestRegistryInvokeUnknownTool(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	_, err = r.Invoke(context.Background(), "missing", nil)
	require.Error(t, err)
}

func TestRegistryDefsSortedByName(t *testing.T) {
	r, err := NewRegistry(NewPythonCalculator(), echoTool())
	require.NoError(t, err)

	defs := r.Defs()
	require.Len(t, defs, 2)
	assert.Equal(t, "echo", defs[0].Name)
	assert.Equal(t, "python_calculator", defs[1].Name)
}

func TestIsRetrievalTool(t *testing.T) {
	assert.True(t, IsRetrievalTool("article_lookup"))
	assert.False(t, IsRetrievalTool("python_calculator"))
}
