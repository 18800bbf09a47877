package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/aman-churiwal/media-quota/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChannel(t *testing.T) {
	ch, err := ParseChannel("STDOUT")
	require.NoError(t, err)
	assert.Equal(t, Stdout, ch)

	ch, err = ParseChannel("both")
	require.NoError(t, err)
	assert.Equal(t, Both, ch)

	_, err = ParseChannel("syslog")
	assert.Error(t, err)
}

func TestNewJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(config.LoggingConfig{Level: "debug", Format: "json", Channel: "stdout"}, &buf)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	log.WithField("subject_id", "s1").Info("usage reconciled")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "usage reconciled", entry["msg"])
	assert.Equal(t, "s1", entry["subject_id"])
	assert.Contains(t, entry["file"], "logger_test.go")
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(config.LoggingConfig{Level: "loud", Channel: "stdout"})
	assert.Error(t, err)
}
