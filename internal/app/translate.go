package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/afero"

	"horse.fit/camtranslate/internal/cli"
	"horse.fit/camtranslate/internal/language"
	"horse.fit/camtranslate/internal/metrics"
	"horse.fit/camtranslate/internal/translation"
)

type translateOutput struct {
	SourceLang   string `json:"source_lang"`
	LanguageName string `json:"language_name"`
	TargetLang   string `json:"target_lang"`
	Provider     string `json:"provider,omitempty"`
	Skipped      bool   `json:"skipped"`
	LatencyMs    int64  `json:"latency_ms"`
	Original     string `json:"original"`
	Translated   string `json:"translated"`
}

func runTranslate(args []string) int {
	fs := flag.NewFlagSet("translate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env")
	timeout := fs.Duration("timeout", 2*time.Minute, "Command timeout")
	lang := fs.String("lang", "", "Target language (ISO 639-1); defaults to TARGET_LANG")
	source := fs.String("source", "", "Source language (ISO 639-1); detected when empty")
	provider := fs.String("provider", "", "Translation provider name (for example: local, libretranslate)")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	text := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if text == "" {
		fmt.Fprintln(os.Stderr, "translate requires text")
		printTranslateUsage()
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if strings.TrimSpace(*lang) != "" && normalizeLanguageFlag(*lang) == "" {
		fmt.Fprintln(os.Stderr, "--lang must be a valid language code")
		return 2
	}
	if strings.TrimSpace(*source) != "" && normalizeLanguageFlag(*source) == "" {
		fmt.Fprintln(os.Stderr, "--source must be a valid language code")
		return 2
	}

	cfg, logger, err := loadConfigAndLogger(envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Startup failed: %v\n", err)
		return 1
	}
	if p := strings.TrimSpace(*provider); p != "" {
		cfg.TranslationProvider = p
	}

	svc, err := newServices(cfg, afero.NewOsFs(), metrics.Noop{}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		return 1
	}

	targetLang := normalizeLanguageFlag(*lang)
	if targetLang == "" {
		targetLang = cfg.TargetLang
	}
	sourceLang := normalizeLanguageFlag(*source)
	if sourceLang == "" {
		sourceLang = svc.translator.DetectLanguage(text)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := svc.translator.Translate(ctx, translation.TranslateRequest{
		Text:       text,
		SourceLang: sourceLang,
		TargetLang: targetLang,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Translate failed: %v\n", err)
		return 1
	}

	out := translateOutput{
		SourceLang:   sourceLang,
		LanguageName: language.Name(sourceLang),
		TargetLang:   result.TargetLang,
		Provider:     result.Provider,
		Skipped:      result.Skipped,
		LatencyMs:    result.Latency.Milliseconds(),
		Original:     text,
		Translated:   result.Text,
	}
	if outputFormat == outputFormatJSON {
		err = printJSON(out)
	} else {
		err = writeTable([]string{"FIELD", "VALUE"}, [][]string{
			{"source", fmt.Sprintf("%s (%s)", out.LanguageName, out.SourceLang)},
			{"target", out.TargetLang},
			{"provider", out.Provider},
			{"skipped", fmt.Sprintf("%t", out.Skipped)},
			{"translated", truncateForTable(out.Translated, 100)},
		})
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write output: %v\n", err)
		return 1
	}
	return 0
}

// normalizeLanguageFlag accepts tags like "pt_BR" and returns the primary subtag, or ""
// when the flag is not a language tag.
func normalizeLanguageFlag(raw string) string {
	return language.NormalizeCode(raw)
}

func printTranslateUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  camtranslate translate <text> [--lang es] [--source en] [--provider local] [--format table|json] [--env .env] [--timeout 2m]")
}
