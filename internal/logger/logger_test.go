package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	log := New()
	assert.NotEqual(t, zerolog.Disabled, log.GetLevel())
}

func TestNewWithWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)

	log.Info().Msg("test message")
	assert.Contains(t, buf.String(), "test message")
}

func TestConfigure(t *testing.T) {
	buf := &bytes.Buffer{}
	log, err := Configure(buf, "warn", "json")
	require.NoError(t, err)

	log.Info().Msg("hidden")
	log.Warn().Str("batch", "b1").Msg("shown")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"batch":"b1"`)
	assert.Contains(t, out, `"level":"warn"`)
}

func TestConfigure_Console(t *testing.T) {
	buf := &bytes.Buffer{}
	log, err := Configure(buf, "", "console")
	require.NoError(t, err)

	log.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.NotContains(t, buf.String(), `"message"`)
}

func TestConfigure_Invalid(t *testing.T) {
	_, err := Configure(&bytes.Buffer{}, "loud", "json")
	assert.Error(t, err)

	_, err = Configure(&bytes.Buffer{}, "info", "xml")
	assert.Error(t, err)
}

func TestFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithContext(context.Background(), NewWithWriter(buf))
	require.NotNil(t, ctx.Value(LoggerKey))

	log := FromContext(ctx)
	log.Info().Msg("test")
	assert.NotZero(t, buf.Len())
}

func TestFromContext_DefaultLogger(t *testing.T) {
	log := FromContext(context.Background())
	assert.NotEqual(t, zerolog.Disabled, log.GetLevel())
}

func TestWithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := WithFields(NewWithWriter(buf), map[string]any{
		"batch_id": "123",
		"action":   "ingest",
	})
	log.Info().Msg("test message")

	out := buf.String()
	assert.Contains(t, out, `"batch_id":"123"`)
	assert.Contains(t, out, `"action":"ingest"`)
}
