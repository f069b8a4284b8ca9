package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	ServiceName string `envconfig:"SERVICE_NAME" default:"ESP32-CAM Translator Server"`

	UploadDir       string        `envconfig:"UPLOAD_DIR" default:"."`
	RecordDir       string        `envconfig:"RECORD_DIR" default:"."`
	CleanupDelay    time.Duration `envconfig:"CLEANUP_DELAY" default:"30s"`
	UploadChunkSize int           `envconfig:"UPLOAD_CHUNK_SIZE" default:"8192"`
	MaxUploadBytes  int64         `envconfig:"MAX_UPLOAD_BYTES" default:"16777216"`

	Workers   int `envconfig:"WORKERS" default:"2"`
	QueueSize int `envconfig:"QUEUE_SIZE" default:"32"`

	TargetLang          string `envconfig:"TARGET_LANG" default:"es"`
	DefaultSourceLang   string `envconfig:"DEFAULT_SOURCE_LANG" default:"en"`
	LangDetectLanguages string `envconfig:"LANGDETECT_LANGUAGES" default:"en,es,fr,de,it,pt"`

	OCRLanguages   string `envconfig:"OCR_LANGUAGES" default:"eng"`
	TessdataPrefix string `envconfig:"TESSDATA_PREFIX" default:""`

	TranslationProvider  string        `envconfig:"TRANSLATION_PROVIDER" default:"local"`
	TranslationEndpoint  string        `envconfig:"TRANSLATION_ENDPOINT" default:"http://127.0.0.1:8845/v1"`
	TranslationModel     string        `envconfig:"TRANSLATION_MODEL" default:"tencent/HY-MT1.5-7B"`
	TranslationTimeout   time.Duration `envconfig:"TRANSLATION_TIMEOUT" default:"60s"`
	LibreTranslateURL    string        `envconfig:"LIBRETRANSLATE_URL" default:"http://127.0.0.1:5001"`
	LibreTranslateAPIKey string        `envconfig:"LIBRETRANSLATE_API_KEY" default:""`

	MetricsAddr string `envconfig:"METRICS_ADDR" default:""`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.UploadDir) == "" {
		return fmt.Errorf("UPLOAD_DIR is required")
	}
	if strings.TrimSpace(c.RecordDir) == "" {
		return fmt.Errorf("RECORD_DIR is required")
	}
	if c.CleanupDelay < 0 {
		return fmt.Errorf("CLEANUP_DELAY must be >= 0")
	}
	if c.UploadChunkSize < 1 {
		return fmt.Errorf("UPLOAD_CHUNK_SIZE must be >= 1")
	}
	if c.MaxUploadBytes < 1 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be >= 1")
	}
	if c.Workers < 1 {
		return fmt.Errorf("WORKERS must be >= 1")
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("QUEUE_SIZE must be >= 1")
	}
	if strings.TrimSpace(c.TargetLang) == "" {
		return fmt.Errorf("TARGET_LANG is required")
	}
	if strings.TrimSpace(c.DefaultSourceLang) == "" {
		return fmt.Errorf("DEFAULT_SOURCE_LANG is required")
	}
	if n := len(c.LangDetectLanguageList()); n == 1 {
		return fmt.Errorf("LANGDETECT_LANGUAGES needs at least 2 languages (got %d)", n)
	}
	if c.TranslationTimeout <= 0 {
		return fmt.Errorf("TRANSLATION_TIMEOUT must be > 0")
	}
	return nil
}

// LangDetectLanguageList returns the deduplicated, lower-cased detector language set.
// An empty list means every language lingua knows about.
func (c *Config) LangDetectLanguageList() []string {
	if c == nil {
		return nil
	}
	return splitList(c.LangDetectLanguages, strings.ToLower)
}

// OCRLanguageSpec joins OCR_LANGUAGES into the "eng+spa" form Tesseract expects.
func (c *Config) OCRLanguageSpec() string {
	if c == nil {
		return ""
	}
	langs := splitList(strings.ReplaceAll(c.OCRLanguages, "+", ","), strings.TrimSpace)
	return strings.Join(langs, "+")
}

func splitList(raw string, normalize func(string) string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		value := normalize(strings.TrimSpace(part))
		if value == "" {
			continue
		}
		if _, exists := seen[value]; exists {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
