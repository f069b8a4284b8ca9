package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"horse.fit/camtranslate/internal/language"
	"horse.fit/camtranslate/internal/metrics"
	"horse.fit/camtranslate/internal/ocr"
	"horse.fit/camtranslate/internal/translation"
)

const (
	MessageFileNotFound         = "file not found"
	MessageEmptyFile            = "empty file"
	MessageOCRUnavailable       = "text extraction unavailable"
	MessageNoText               = "no text detected"
	MessageTranslationFailed    = "text detected but translation failed"
	MessageRecordNotSaved       = "translation completed but record could not be saved"
	MessageTranslationCompleted = "translation completed"
)

// Outcome labels used for metrics and logs.
const (
	OutcomeTranslated        = "translated"
	OutcomeMissing           = "missing"
	OutcomeOCRFailed         = "ocr_failed"
	OutcomeNoText            = "no_text"
	OutcomeTranslationFailed = "translation_failed"
	OutcomeArchiveFailed     = "archive_failed"
	OutcomePanic             = "panic"
)

// Result is the outcome of processing one upload.
type Result struct {
	TextDetected   bool   `json:"text_detected"`
	OriginalText   string `json:"original_text,omitempty"`
	TranslatedText string `json:"translated_text,omitempty"`
	SourceLang     string `json:"source_lang,omitempty"`
	LanguageName   string `json:"language_name,omitempty"`
	Message        string `json:"message"`
	RecordName     string `json:"record_name,omitempty"`
	Outcome        string `json:"outcome"`
}

// TextTranslator detects and translates extracted text.
type TextTranslator interface {
	DetectLanguage(text string) string
	Translate(ctx context.Context, req translation.TranslateRequest) (translation.Translation, error)
}

// RecordArchiver persists a finished translation and returns the record name.
type RecordArchiver interface {
	Archive(original, translated, sourceLang string) (string, error)
}

// Processor runs the image -> text -> translation -> record sequence for one upload.
type Processor struct {
	fs         afero.Fs
	extractor  ocr.Extractor
	translator TextTranslator
	archiver   RecordArchiver
	targetLang string
	metrics    metrics.Metrics
	logger     zerolog.Logger
}

type ProcessorOptions struct {
	Extractor  ocr.Extractor
	Translator TextTranslator
	Archiver   RecordArchiver
	TargetLang string
	Metrics    metrics.Metrics
}

func NewProcessor(fs afero.Fs, opts ProcessorOptions, logger zerolog.Logger) *Processor {
	m := opts.Metrics
	if m == nil {
		m = metrics.Noop{}
	}
	target := language.NormalizeCode(opts.TargetLang)
	if target == "" {
		target = "es"
	}
	return &Processor{
		fs:         fs,
		extractor:  opts.Extractor,
		translator: opts.Translator,
		archiver:   opts.Archiver,
		targetLang: target,
		metrics:    m,
		logger:     logger,
	}
}

// Process never returns an error; every failure, including a panic in a collaborator, is
// reported through the Result.
func (p *Processor) Process(ctx context.Context, path string) (result Result) {
	logger := p.logger.With().Str("path", path).Logger()
	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Error().
				Interface("panic", recovered).
				Bytes("stack", debug.Stack()).
				Msg("pipeline panic recovered")
			result = Result{
				TextDetected: false,
				Message:      fmt.Sprintf("processing error: %v", recovered),
				Outcome:      OutcomePanic,
			}
		}
		p.metrics.IncJobsCompleted(result.Outcome)
	}()

	info, err := p.fs.Stat(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn().Err(err).Msg("cannot stat upload artifact")
		}
		return Result{Message: MessageFileNotFound, Outcome: OutcomeMissing}
	}
	if info.Size() == 0 {
		return Result{Message: MessageEmptyFile, Outcome: OutcomeMissing}
	}

	data, err := afero.ReadFile(p.fs, path)
	if err != nil {
		logger.Warn().Err(err).Msg("cannot read upload artifact")
		return Result{Message: MessageFileNotFound, Outcome: OutcomeMissing}
	}
	logger.Info().Str("size", humanize.Bytes(uint64(len(data)))).Msg("processing upload")

	started := time.Now()
	text, err := p.extractor.Extract(ctx, data)
	p.metrics.ObserveStageDuration("ocr", time.Since(started).Seconds())
	if err != nil {
		if errors.Is(err, ocr.ErrUnavailable) {
			logger.Error().Err(err).Msg("text extraction unavailable")
			return Result{Message: MessageOCRUnavailable, Outcome: OutcomeOCRFailed}
		}
		logger.Error().Err(err).Msg("text extraction failed")
		return Result{Message: fmt.Sprintf("text extraction failed: %v", err), Outcome: OutcomeOCRFailed}
	}

	original := strings.TrimSpace(text)
	if original == "" {
		logger.Info().Msg("no text detected")
		return Result{Message: MessageNoText, Outcome: OutcomeNoText}
	}

	sourceLang := p.translator.DetectLanguage(original)
	result = Result{
		TextDetected: true,
		OriginalText: original,
		SourceLang:   sourceLang,
		LanguageName: language.Name(sourceLang),
	}
	logger.Info().
		Str("source_lang", sourceLang).
		Str("language", result.LanguageName).
		Int("chars", len([]rune(original))).
		Msg("text detected")

	started = time.Now()
	translated, err := p.translator.Translate(ctx, translation.TranslateRequest{
		Text:       original,
		SourceLang: sourceLang,
		TargetLang: p.targetLang,
	})
	p.metrics.ObserveStageDuration("translate", time.Since(started).Seconds())
	if err != nil {
		logger.Error().Err(err).Msg("translation failed")
		result.Message = MessageTranslationFailed
		result.Outcome = OutcomeTranslationFailed
		return result
	}
	result.TranslatedText = translated.Text
	logger.Info().
		Str("provider", translated.Provider).
		Bool("skipped", translated.Skipped).
		Str("latency", translated.Latency.String()).
		Msg("translation finished")

	started = time.Now()
	name, err := p.archiver.Archive(original, translated.Text, sourceLang)
	p.metrics.ObserveStageDuration("archive", time.Since(started).Seconds())
	if err != nil {
		logger.Error().Err(err).Msg("failed to save translation record")
		result.Message = MessageRecordNotSaved
		result.Outcome = OutcomeArchiveFailed
		return result
	}

	logger.Info().Str("record", name).Msg("translation record saved")
	result.RecordName = name
	result.Message = MessageTranslationCompleted
	result.Outcome = OutcomeTranslated
	return result
}
