package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertWingToDatcomToolMatchesS4Scenario(t *testing.T) {
	tool := NewConvertWingToDatcom()
	args, _ := json.Marshal(convertWingArgs{S: 100, A: 8, Taper: 0.5, Sweep: 25})

	out, err := tool.Handler(context.Background(), args)
	require.NoError(t, err)

	var decoded map[string]float64
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.InDelta(t, 4.71404, decoded["CHRDR"], 1e-4)
	assert.InDelta(t, 2.35702, decoded["CHRDTP"], 1e-4)
	assert.InDelta(t, 14.14213, decoded["SSPN"], 1e-4)
}

func TestGenerateFltconMatrixToolRejectsOverLimit(t *testing.T) {
	tool := NewGenerateFltconMatrix()
	machs := make([]float64, 10)
	alts := make([]float64, 10)
	args, _ := json.Marshal(fltconMatrixArgs{Machs: machs, Altitudes: alts, AlphaStart: 0, AlphaEnd: 10, AlphaStep: 1})

	_, err := tool.Handler(context.Background(), args)
	require.Error(t, err)
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
}

func TestValidateDatcomParametersToolReportsFailure(t *testing.T) {
	tool := NewValidateDatcomParameters()
	args, _ := json.Marshal(validateParamsArgs{Wing: &wingArgsJSON{S: 100, A: 8, Taper: 1.5}})

	out, err := tool.Handler(context.Background(), args)
	require.NoError(t, err)
	assert.Contains(t, out, "validation: fail")
}
