package logx

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("loud"))
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" warn "))
}

func TestNewLoggerFiltersAndShortensCaller(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, "warn")

	log.Info().Msg("hidden")
	assert.Empty(t, buf.String())

	log.Warn().Str("provider", "chessapi").Msg("attempt failed")
	out := buf.String()
	assert.Contains(t, out, "attempt failed")
	assert.Contains(t, out, "provider=")
	assert.Contains(t, out, "logx_test.go:")
	assert.NotContains(t, out, "/logx_test.go")
}
