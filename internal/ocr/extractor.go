package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"

	"horse.fit/camtranslate/internal/language"
)

// ErrUnavailable is returned when this binary has no OCR engine.
var ErrUnavailable = errors.New("ocr engine unavailable")

// Extractor turns encoded image bytes into text. An image without text yields "" and no
// error.
type Extractor interface {
	Extract(ctx context.Context, image []byte) (string, error)
}

// Options configures the Tesseract extractor.
type Options struct {
	// Languages uses Tesseract's "eng+spa" form. Empty means "eng".
	Languages string
	// TessdataPrefix overrides the directory holding *.traineddata files.
	TessdataPrefix string
}

const (
	// minOCRWidth is the width small captures are upscaled to. The ESP32-CAM default
	// frame (VGA) is too small for reliable glyph recognition.
	minOCRWidth = 1000
	// maxOCRWidth bounds the work Tesseract does on very large uploads.
	maxOCRWidth = 3000
)

// Preprocess prepares a capture for recognition: EXIF orientation is applied, the image
// is converted to grayscale with a contrast boost, and its width is brought into
// [minOCRWidth, maxOCRWidth]. The result is PNG encoded.
func Preprocess(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		return nil, fmt.Errorf("decode image: empty bounds")
	}

	var out image.Image = imaging.Grayscale(img)
	out = imaging.AdjustContrast(out, 20)

	switch width := out.Bounds().Dx(); {
	case width < minOCRWidth:
		out = imaging.Resize(out, minOCRWidth, 0, imaging.Lanczos)
	case width > maxOCRWidth:
		out = imaging.Resize(out, maxOCRWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}

func splitLanguages(spec string) []string {
	var langs []string
	for _, part := range strings.FieldsFunc(spec, func(r rune) bool { return r == '+' || r == ',' }) {
		part = strings.TrimSpace(part)
		if len(part) == 2 {
			// ISO 639-1 codes are accepted for convenience.
			part = language.TesseractCode(part)
		}
		if part != "" {
			langs = append(langs, part)
		}
	}
	if len(langs) == 0 {
		return []string{"eng"}
	}
	return langs
}
