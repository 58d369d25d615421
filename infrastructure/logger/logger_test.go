package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure(t *testing.T) {
	defer Configure("json", "info")

	Configure("json", "debug")
	assert.Equal(t, log.DebugLevel, Level())

	Configure("text", "not-a-level")
	assert.Equal(t, log.InfoLevel, Level())
	_, ok := logger.Formatter.(*log.TextFormatter)
	assert.True(t, ok)
}

func TestGetLoggerCallerFields(t *testing.T) {
	var buf bytes.Buffer
	out := logger.Out
	logger.Out = &buf
	defer func() { logger.Out = out }()
	Configure("json", "info")

	GetLogger().WithField("job_id", "j1").Info("hello")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "j1", entry["job_id"])
	assert.Contains(t, entry["function"], "TestGetLoggerCallerFields")
	assert.Contains(t, entry["file"], "logger_test.go")
}
