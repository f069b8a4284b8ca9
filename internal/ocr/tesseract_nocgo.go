//go:build !cgo

package ocr

import "context"

// Tesseract is a stub for builds without cgo.
type Tesseract struct{}

func NewTesseract(Options) *Tesseract {
	return &Tesseract{}
}

func (t *Tesseract) Extract(context.Context, []byte) (string, error) {
	return "", ErrUnavailable
}
