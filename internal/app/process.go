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
	"horse.fit/camtranslate/internal/metrics"
	"horse.fit/camtranslate/internal/pipeline"
)

func runProcess(args []string) int {
	fs := flag.NewFlagSet("process", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env")
	timeout := fs.Duration("timeout", 3*time.Minute, "Command timeout")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "process requires one image path")
		printProcessUsage()
		return 2
	}
	imagePath := strings.TrimSpace(fs.Arg(0))
	if imagePath == "" {
		fmt.Fprintln(os.Stderr, "image path must not be empty")
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	cfg, logger, err := loadConfigAndLogger(envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Startup failed: %v\n", err)
		return 1
	}

	svc, err := newServices(cfg, afero.NewOsFs(), metrics.Noop{}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result := svc.processor.Process(ctx, imagePath)
	if err := printProcessResult(outputFormat, imagePath, result); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write output: %v\n", err)
		return 1
	}
	if result.Outcome != pipeline.OutcomeTranslated {
		return 1
	}
	return 0
}

func printProcessResult(format, imagePath string, result pipeline.Result) error {
	if format == outputFormatJSON {
		return printJSON(result)
	}

	rows := [][]string{
		{"image", imagePath},
		{"text_detected", fmt.Sprintf("%t", result.TextDetected)},
		{"language", strings.TrimSpace(result.LanguageName + " (" + result.SourceLang + ")")},
		{"original", truncateForTable(result.OriginalText, 80)},
		{"translated", truncateForTable(result.TranslatedText, 80)},
		{"record", result.RecordName},
		{"message", result.Message},
	}
	if result.SourceLang == "" {
		rows[2][1] = ""
	}
	return writeTable([]string{"FIELD", "VALUE"}, rows)
}

func printProcessUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  camtranslate process <image> [--format table|json] [--env .env] [--timeout 3m]")
}
