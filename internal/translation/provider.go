package translation

import (
	"context"
	"time"
)

// Provider is one translation backend.
type Provider interface {
	Name() string
	SupportedLanguages() []string
	Translate(ctx context.Context, req TranslateRequest) (*TranslateResponse, error)
}

// TranslateRequest carries OCR text plus ISO 639-1 codes. An empty SourceLang lets
// providers that can detect languages do so.
type TranslateRequest struct {
	Text       string
	SourceLang string
	TargetLang string
}

// TranslateResponse is a provider's answer. SourceLang is the language the provider
// translated from, which may be its own detection result.
type TranslateResponse struct {
	Text       string
	SourceLang string
	Provider   string
	Latency    time.Duration
}
