package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	buf.Reset()

	return out
}

func TestZerologLogger_Fields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewZerolog(zerolog.New(buf).Level(zerolog.DebugLevel))

	logger.Info("listener connected", "host", "nsqd-1", "port", 4150)
	line := decodeLine(t, buf)
	require.Equal(t, "info", line["level"])
	require.Equal(t, "listener connected", line["message"])
	require.Equal(t, "nsqd-1", line["host"])
	require.EqualValues(t, 4150, line["port"])

	logger.Error("provisioning failed", "error", errors.New("refused"))
	line = decodeLine(t, buf)
	require.Equal(t, "error", line["level"])
	require.Equal(t, "refused", line["error"])

	logger.Debug("timeout", "after", 2*time.Second)
	line = decodeLine(t, buf)
	require.Equal(t, "2s", line["after"])
}

func TestZerologLogger_OddKeyValues(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewZerolog(zerolog.New(buf))

	logger.Warn("dangling", "key")
	line := decodeLine(t, buf)
	require.Equal(t, "<missing>", line["key"])
}

func TestZerologLogger_DisabledLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewZerolog(zerolog.New(buf).Level(zerolog.ErrorLevel))

	logger.Debug("hidden", "k", "v")
	logger.Info("hidden")

	require.Empty(t, buf.String())
}
