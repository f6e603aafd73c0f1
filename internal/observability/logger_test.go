package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJSONLogger(buf *bytes.Buffer, level string) *Logger {
	return NewLogger(LogConfig{
		Level:       level,
		Format:      "json",
		Output:      buf,
		ServiceName: "pdf-bw-test",
	})
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(&buf, "debug").WithOperation("convert").WithRun("run-1")

	logger.Info().
		Str("document", "a.pdf").
		Int("pages", 3).
		Int64("bytes", 1024).
		Float64("dpi", 300).
		Err(errors.New("boom")).
		Msg("Document converted")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "info", e["level"])
	assert.Equal(t, "pdf-bw-test", e["service"])
	assert.Equal(t, "convert", e["operation"])
	assert.Equal(t, "run-1", e["run_id"])
	assert.Equal(t, "a.pdf", e["document"])
	assert.Equal(t, float64(3), e["pages"])
	assert.Equal(t, float64(1024), e["bytes"])
	assert.Equal(t, "boom", e["error"])
	assert.Equal(t, "Document converted", e["message"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(&buf, "warn")

	logger.Debug().Msg("hidden")
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")
	logger.Error().Msgf("shown %d", 2)

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "shown", entries[0]["message"])
	assert.Equal(t, "shown 2", entries[1]["message"])
}

func TestLogger_WithContext(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(&buf, "info").With().Str("document", "b.pdf").Int("index", 2).Logger()

	logger.Info().Msg("hello")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "b.pdf", entries[0]["document"])
	assert.Equal(t, float64(2), entries[0]["index"])
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().Error().Str("k", "v").Msg("discarded")
	})
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"trace":    zerolog.TraceLevel,
		"debug":    zerolog.DebugLevel,
		"info":     zerolog.InfoLevel,
		"warn":     zerolog.WarnLevel,
		"warning":  zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"disabled": zerolog.Disabled,
		"bogus":    zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestValidLevel(t *testing.T) {
	assert.True(t, ValidLevel("debug"))
	assert.True(t, ValidLevel("off"))
	assert.False(t, ValidLevel("verbose"))
	assert.False(t, ValidLevel(""))
}
