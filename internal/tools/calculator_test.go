package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculatorEvaluatesArithmetic(t *testing.T) {
	calc := NewPythonCalculator()
	out, err := calc.Handler(context.Background(), json.RawMessage(`{"expression":"2 + 3 * 4"}`))
	require.NoError(t, err)
	assert.Equal(t, "14", out)
}

func TestCalculatorEvaluatesFunctions(t *testing.T) {
	calc := NewPythonCalculator()
	out, err := calc.Handler(context.Background(), json.RawMessage(`{"expression":"sqrt(16)"}`))
	require.NoError(t, err)
	assert.Equal(t, "4", out)
}

func TestCalculatorRejectsBlocklistedIdentifiers(t *testing.T) {
	calc := NewPythonCalculator()
	_, err := calc.Handler(context.Background(), json.RawMessage(`{"expression":"__import__('os').system('ls')"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "illegal")
}

func TestCalculatorRejectsOverlongExpression(t *testing.T) {
	calc := NewPythonCalculator()
	long := make([]byte, 501)
	for i := range long {
		long[i] = '1'
	}
	args, _ := json.Marshal(calculatorArgs{Expression: string(long)})
	_, err := calc.Handler(context.Background(), args)
	require.Error(t, err)
}

func TestCalculatorRejectsUnknownIdentifier(t *testing.T) {
	calc := NewPythonCalculator()
	_, err := calc.Handler(context.Background(), json.RawMessage(`{"expression":"foo + 1"}`))
	require.Error(t, err)
}

func TestCalculatorRejectsDivisionByZero(t *testing.T) {
	calc := NewPythonCalculator()
	_, err := calc.Handler(context.Background(), json.RawMessage(`{"expression":"1/0"}`))
	require.Error(t, err)
}
