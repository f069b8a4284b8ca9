package translation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// minDetectRunes is the shortest text handed to the language detector.
	minDetectRunes = 3
	// minTranslateRunes is the shortest text sent to a provider; anything shorter is
	// returned as-is.
	minTranslateRunes = 2
)

// ErrEmptyTranslation means a provider answered without any text.
var ErrEmptyTranslation = errors.New("translation provider returned empty text")

// LanguageDetector guesses the ISO 639-1 code of a text span, "" when unsure.
type LanguageDetector interface {
	DetectISO6391(text string) string
}

// Translation is the outcome of a successful Translator.Translate call.
type Translation struct {
	Text       string
	SourceLang string
	TargetLang string
	Provider   string
	// Skipped is set when no provider was called because the input was trivial or
	// already in the target language. Text is then the input.
	Skipped bool
	Latency time.Duration
}

// TranslatorOptions configures a Translator.
type TranslatorOptions struct {
	Provider          string
	DefaultSourceLang string
}

// Translator is the boundary the processing pipeline talks to: language detection plus
// translation through the registry's provider.
type Translator struct {
	registry      *Registry
	detector      LanguageDetector
	provider      string
	defaultSource string
	logger        zerolog.Logger
}

func NewTranslator(registry *Registry, detector LanguageDetector, opts TranslatorOptions, logger zerolog.Logger) *Translator {
	defaultSource := normalizeLangCode(opts.DefaultSourceLang)
	if defaultSource == "" {
		defaultSource = "en"
	}
	return &Translator{
		registry:      registry,
		detector:      detector,
		provider:      strings.TrimSpace(opts.Provider),
		defaultSource: defaultSource,
		logger:        logger,
	}
}

// DetectLanguage never fails: short text, a missing detector or an unsure detector all
// fall back to the default source language.
func (t *Translator) DetectLanguage(text string) string {
	sample := strings.TrimSpace(text)
	if len([]rune(sample)) < minDetectRunes || t.detector == nil {
		return t.defaultSource
	}

	code := normalizeLangCode(t.detector.DetectISO6391(sample))
	if code == "" {
		t.logger.Debug().Int("chars", len(sample)).Msg("language detection inconclusive, using default")
		return t.defaultSource
	}
	return code
}

// Translate sends text to the configured provider. Trivial input and same-language
// pairs come back with Skipped set; provider failures are returned as errors.
func (t *Translator) Translate(ctx context.Context, req TranslateRequest) (Translation, error) {
	text := strings.TrimSpace(req.Text)
	targetLang := normalizeLangCode(req.TargetLang)
	if targetLang == "" {
		return Translation{}, fmt.Errorf("target language is required")
	}
	sourceLang := normalizeLangCode(req.SourceLang)

	if len([]rune(text)) < minTranslateRunes || shouldSkipTranslation(sourceLang, targetLang) {
		return Translation{
			Text:       req.Text,
			SourceLang: sourceLang,
			TargetLang: targetLang,
			Skipped:    true,
		}, nil
	}

	provider, err := t.registry.Provider(t.provider)
	if err != nil {
		return Translation{}, err
	}

	started := time.Now()
	resp, err := provider.Translate(ctx, TranslateRequest{
		Text:       text,
		SourceLang: sourceLang,
		TargetLang: targetLang,
	})
	if err != nil {
		return Translation{}, fmt.Errorf("%s: %w", provider.Name(), err)
	}
	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		return Translation{}, fmt.Errorf("%s: %w", provider.Name(), ErrEmptyTranslation)
	}

	if sourceLang == "" {
		sourceLang = normalizeLangCode(resp.SourceLang)
	}
	return Translation{
		Text:       resp.Text,
		SourceLang: sourceLang,
		TargetLang: targetLang,
		Provider:   provider.Name(),
		Latency:    time.Since(started),
	}, nil
}

func shouldSkipTranslation(sourceLang, targetLang string) bool {
	source := normalizeLangCode(sourceLang)
	if source == "" || source == "und" {
		return false
	}
	return source == normalizeLangCode(targetLang)
}
