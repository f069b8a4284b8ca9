package app

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"image/color"
	"os"
	"time"

	"github.com/disintegration/imaging"
	"github.com/spf13/afero"

	"horse.fit/camtranslate/internal/cli"
	"horse.fit/camtranslate/internal/metrics"
	"horse.fit/camtranslate/internal/ocr"
	"horse.fit/camtranslate/internal/translation"
)

func runHealth(args []string) int {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env")
	timeout := fs.Duration("timeout", 30*time.Second, "Provider round-trip timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, logger, err := loadConfigAndLogger(envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Startup failed: %v\n", err)
		return 1
	}

	svc, err := newServices(cfg, afero.NewOsFs(), metrics.Noop{}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	failed := false
	if err := checkOCR(ctx, svc.extractor); err != nil {
		failed = true
		logger.Error().Err(err).Msg("ocr health check failed")
		fmt.Fprintf(os.Stderr, "fail: ocr: %v\n", err)
	} else {
		fmt.Fprintf(stdout, "ok: ocr engine ready (%s)\n", cfg.OCRLanguageSpec())
	}

	started := time.Now()
	result, err := svc.translator.Translate(ctx, translation.TranslateRequest{
		Text:       "Hello world",
		SourceLang: "en",
		TargetLang: cfg.TargetLang,
	})
	if err != nil {
		failed = true
		logger.Error().Err(err).Str("provider", cfg.TranslationProvider).Msg("translation health check failed")
		fmt.Fprintf(os.Stderr, "fail: translation: %v\n", err)
	} else {
		fmt.Fprintf(stdout, "ok: translation provider %s answered in %s (%q)\n", cfg.TranslationProvider, time.Since(started).Round(time.Millisecond), result.Text)
	}

	if failed {
		return 1
	}
	return 0
}

// checkOCR runs the extractor on a blank frame; only engine errors count.
func checkOCR(ctx context.Context, extractor ocr.Extractor) error {
	blank := imaging.New(64, 32, color.White)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, blank, imaging.PNG); err != nil {
		return fmt.Errorf("encode blank image: %w", err)
	}
	_, err := extractor.Extract(ctx, buf.Bytes())
	return err
}
