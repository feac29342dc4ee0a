package logger

import (
	"bytes"
	"testing"

	"codeberg.org/mutker/duckovhaptics/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", DebugLevel},
		{"INFO", InfoLevel},
		{"", InfoLevel},
		{"warning", WarnLevel},
		{"warn", WarnLevel},
		{"error", ErrorLevel},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("loud")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidLogLevel))
}

func TestComponentLogger(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	SetLogLevel(DebugLevel)
	t.Cleanup(func() { SetLogLevel(InfoLevel) })

	Component("binding").Debug().Str("spec", "LevelManager.OnMainCharacterDead").Msg("bound")

	out := buf.String()
	assert.Contains(t, out, `"component":"binding"`)
	assert.Contains(t, out, `"spec":"LevelManager.OnMainCharacterDead"`)
	assert.Contains(t, out, `"message":"bound"`)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	SetLogLevel(WarnLevel)
	t.Cleanup(func() { SetLogLevel(InfoLevel) })

	Debug().Msg("hidden")
	Info().Msg("hidden too")
	Warn().Msg("visible")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "visible")
}
