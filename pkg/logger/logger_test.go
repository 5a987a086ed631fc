package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bandgrab/pkg/config"
)

func TestNewLoggerLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		cfg := &config.LoggingConfig{Level: level}
		log, err := New(cfg)
		require.NoError(t, err, "level %s", level)
		assert.NotNil(t, log, "level %s", level)
	}
}

func TestTestLoggerRecordsMessages(t *testing.T) {
	log := NewTestLogger()

	log.Info("collection listed")
	log.WithField("item_id", 7001).Warn("no download URL")
	log.InfoWithFields("download saved", map[string]interface{}{
		"bytes": 1024,
	})

	messages := log.Messages()
	require.Len(t, messages, 3)

	assert.True(t, log.HasMessage("INFO", "collection listed"))
	assert.True(t, log.HasMessage("WARN", "no download URL"))
	assert.True(t, log.HasMessage("INFO", "download saved"))
	assert.False(t, log.HasMessage("ERROR", "collection listed"))

	assert.Equal(t, 7001, messages[1].Fields["item_id"])
	assert.Equal(t, 1024, messages[2].Fields["bytes"])
}

func TestGlobalLogger(t *testing.T) {
	require.NoError(t, Initialize(&config.LoggingConfig{Level: "info"}))
	assert.NotNil(t, GetLogger())
}
