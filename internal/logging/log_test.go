package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewLevel(t *testing.T) {
	logger := New("debug", nil)
	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())

	logger = New("invalid", nil)
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())

	logger = New("", nil)
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())

	logger = New(" WARN ", nil)
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())
}

func TestNewWritesStructuredJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New("info", &buf)

	logger.Info().Str("asset", "BTC").Msg("fill")
	logger.Debug().Msg("dropped")

	out := buf.String()
	assert.Contains(t, out, `"asset":"BTC"`)
	assert.Contains(t, out, `"message":"fill"`)
	assert.NotContains(t, out, "dropped")
}
