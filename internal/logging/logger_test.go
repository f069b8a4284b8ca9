package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriterEmitsJSONOutsideLocal(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := NewWithWriter(&buf, "production", "INFO")
	require.NoError(t, err)

	logger.Info().Str("filename", "esp32_capture_1.jpg").Msg("upload accepted")
	logger.Debug().Msg("hidden")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "camtranslate", line["service"])
	assert.Equal(t, "upload accepted", line["message"])
	assert.Equal(t, "esp32_capture_1.jpg", line["filename"])
}

func TestNewWithWriterRejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	_, err := NewWithWriter(&bytes.Buffer{}, "local", "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_LEVEL")
}

func TestParseLevelAliases(t *testing.T) {
	t.Parallel()

	level, err := parseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, level)

	level, err = parseLevel(" WARNING ")
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, level)

	level, err = parseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, level)
}
