// Package logging builds the zerolog logger every camtranslate command shares.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const serviceName = "camtranslate"

// New logs to stdout.
func New(environment, level string) (zerolog.Logger, error) {
	return NewWithWriter(os.Stdout, environment, level)
}

// NewWithWriter logs to out: console output for ENVIRONMENT=local, JSON lines for
// anything else. An empty LOG_LEVEL means info and "warning" is accepted for warn.
func NewWithWriter(out io.Writer, environment, level string) (zerolog.Logger, error) {
	parsedLevel, err := parseLevel(level)
	if err != nil {
		return zerolog.Logger{}, err
	}

	if strings.EqualFold(strings.TrimSpace(environment), "local") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(parsedLevel).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger(), nil
}

func parseLevel(raw string) (zerolog.Level, error) {
	switch normalized := strings.ToLower(strings.TrimSpace(raw)); normalized {
	case "":
		return zerolog.InfoLevel, nil
	case "warning":
		return zerolog.WarnLevel, nil
	default:
		parsed, err := zerolog.ParseLevel(normalized)
		if err != nil {
			return zerolog.NoLevel, fmt.Errorf("parse LOG_LEVEL=%q: %w", raw, err)
		}
		return parsed, nil
	}
}
