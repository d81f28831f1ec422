package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLevelFromStringTrace(t *testing.T) {
	l, err := LevelFromString("trace")
	require.NoError(t, err)
	assert.Equal(t, TraceLevel, l)
}

func TestLevelFromStringStandard(t *testing.T) {
	l, err := LevelFromString("warn")
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, l)
}

func TestLevelFromStringInvalid(t *testing.T) {
	_, err := LevelFromString("not-a-level")
	require.Error(t, err)
}
