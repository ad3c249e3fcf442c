package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForServiceCarriesServiceAttribute(t *testing.T) {
	var structured, human bytes.Buffer
	SetOutput(&structured, &human)

	logger := ForService("webserver")
	require.NotNil(t, logger)
	logger.Info("listening")

	assert.Contains(t, structured.String(), `"service":"webserver"`)
	assert.Contains(t, structured.String(), `"msg":"listening"`)
}

func TestHumanReadableGoesToSecondWriter(t *testing.T) {
	var structured, human bytes.Buffer
	SetOutput(&structured, &human)

	HumanReadable().Error("configuration broken", "error", "bad yaml")

	assert.Contains(t, human.String(), "configuration broken")
	assert.NotContains(t, structured.String(), "configuration broken")
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "web.log")

	logger, closeFunc, err := NewFileLogger(path, "webserver", slog.LevelInfo)
	require.NoError(t, err)
	require.NotNil(t, logger)

	logger.Info("request", "uri", "/api/v2/records")
	require.NoError(t, closeFunc())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"service":"webserver"`)
	assert.Contains(t, string(data), "/api/v2/records")
}

func TestAddFileOutputTeesStructuredLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wastenet.log")

	closeFunc, err := AddFileOutput(path)
	require.NoError(t, err)

	Info("edge node started", "node", "bench")
	require.NoError(t, closeFunc())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "edge node started")
}
