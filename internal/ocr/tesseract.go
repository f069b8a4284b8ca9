//go:build cgo

package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract runs gosseract on each image. A new client is created per call since
// gosseract clients are not safe for concurrent use.
type Tesseract struct {
	languages      []string
	tessdataPrefix string
}

func NewTesseract(opts Options) *Tesseract {
	return &Tesseract{
		languages:      splitLanguages(opts.Languages),
		tessdataPrefix: strings.TrimSpace(opts.TessdataPrefix),
	}
}

func (t *Tesseract) Extract(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("image is empty")
	}

	prepared, err := Preprocess(data)
	if err != nil {
		// Tesseract decodes with leptonica, which may still cope with the raw bytes.
		prepared = data
	}

	client := gosseract.NewClient()
	defer client.Close()

	if t.tessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.tessdataPrefix); err != nil {
			return "", fmt.Errorf("failed to set tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(t.languages...); err != nil {
		return "", fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImageFromBytes(prepared); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}
