package app

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"horse.fit/camtranslate/internal/archive"
	"horse.fit/camtranslate/internal/artifact"
	"horse.fit/camtranslate/internal/cli"
	"horse.fit/camtranslate/internal/config"
	"horse.fit/camtranslate/internal/langdetect"
	"horse.fit/camtranslate/internal/logging"
	"horse.fit/camtranslate/internal/metrics"
	"horse.fit/camtranslate/internal/ocr"
	"horse.fit/camtranslate/internal/pipeline"
	"horse.fit/camtranslate/internal/translation"
)

// services is everything the commands share, built from one Config.
type services struct {
	cfg        *config.Config
	fs         afero.Fs
	store      *artifact.Store
	janitor    *artifact.Janitor
	archiver   *archive.Archiver
	extractor  ocr.Extractor
	translator *translation.Translator
	processor  *pipeline.Processor
}

func loadConfigAndLogger(envLoader *cli.EnvLoader) (*config.Config, zerolog.Logger, error) {
	var envFile string
	if envLoader != nil {
		loaded, err := envLoader.Load()
		switch {
		case err == nil:
			envFile = loaded
		case !errors.Is(err, cli.ErrNoEnvFile):
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("initialize logger: %w", err)
	}
	if envFile != "" {
		logger.Debug().Str("path", envFile).Msg("environment file loaded")
	}
	return cfg, logger, nil
}

func newServices(cfg *config.Config, fs afero.Fs, m metrics.Metrics, logger zerolog.Logger) (*services, error) {
	registry, err := translation.NewRegistryFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	translator := translation.NewTranslator(
		registry,
		langdetect.New(cfg.LangDetectLanguageList()),
		translation.TranslatorOptions{
			Provider:          cfg.TranslationProvider,
			DefaultSourceLang: cfg.DefaultSourceLang,
		},
		logger.With().Str("component", "translation").Logger(),
	)

	archiver := archive.New(fs, cfg.RecordDir, cfg.TargetLang)
	extractor := ocr.NewTesseract(ocr.Options{
		Languages:      cfg.OCRLanguageSpec(),
		TessdataPrefix: cfg.TessdataPrefix,
	})

	processor := pipeline.NewProcessor(fs, pipeline.ProcessorOptions{
		Extractor:  extractor,
		Translator: translator,
		Archiver:   archiver,
		TargetLang: cfg.TargetLang,
		Metrics:    m,
	}, logger.With().Str("component", "pipeline").Logger())

	janitor := artifact.NewJanitor(fs, logger.With().Str("component", "janitor").Logger())
	janitor.OnDelete = func(_ string, err error) {
		status := "ok"
		if err != nil {
			status = "error"
		}
		m.IncCleanups(status)
	}

	return &services{
		cfg:        cfg,
		fs:         fs,
		store:      artifact.NewStore(fs, cfg.UploadDir),
		janitor:    janitor,
		archiver:   archiver,
		extractor:  extractor,
		translator: translator,
		processor:  processor,
	}, nil
}
