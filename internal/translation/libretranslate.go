package translation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultLibreTranslateURL is a self-hosted LibreTranslate instance.
	DefaultLibreTranslateURL = "http://127.0.0.1:5001"

	defaultLibreTranslateTimeout = 60 * time.Second
)

// LibreTranslateProvider calls the LibreTranslate /translate API. It is the one
// provider that detects the source language itself when none is given.
type LibreTranslateProvider struct {
	endpoint jsonEndpoint
	apiKey   string
}

func NewLibreTranslateProvider(baseURL, apiKey string, timeout time.Duration) *LibreTranslateProvider {
	if timeout <= 0 {
		timeout = defaultLibreTranslateTimeout
	}
	return &LibreTranslateProvider{
		endpoint: newJSONEndpoint(libreTranslateURL(baseURL), timeout),
		apiKey:   strings.TrimSpace(apiKey),
	}
}

func (p *LibreTranslateProvider) Name() string {
	return "libretranslate"
}

func (p *LibreTranslateProvider) SupportedLanguages() []string {
	return SupportedLanguageCodes()
}

type libreTranslateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type libreTranslateResponse struct {
	TranslatedText   string `json:"translatedText"`
	DetectedLanguage *struct {
		Language   string  `json:"language"`
		Confidence float64 `json:"confidence"`
	} `json:"detectedLanguage,omitempty"`
}

func (p *LibreTranslateProvider) Translate(ctx context.Context, req TranslateRequest) (*TranslateResponse, error) {
	if p == nil {
		return nil, fmt.Errorf("libretranslate provider is nil")
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, fmt.Errorf("text is required")
	}
	target := normalizeLangCode(req.TargetLang)
	if target == "" {
		return nil, fmt.Errorf("target language is required")
	}
	source := normalizeLangCode(req.SourceLang)
	wireSource := source
	if wireSource == "" {
		wireSource = "auto"
	}

	started := time.Now()
	var parsed libreTranslateResponse
	err := p.endpoint.post(ctx, libreTranslateRequest{
		Q:      text,
		Source: wireSource,
		Target: target,
		Format: "text",
		APIKey: p.apiKey,
	}, &parsed, libreTranslateErrorMessage)
	if err != nil {
		return nil, err
	}

	translated := strings.TrimSpace(parsed.TranslatedText)
	if translated == "" {
		return nil, ErrEmptyTranslation
	}
	if source == "" && parsed.DetectedLanguage != nil {
		source = normalizeLangCode(parsed.DetectedLanguage.Language)
	}
	return &TranslateResponse{
		Text:       translated,
		SourceLang: source,
		Provider:   p.Name(),
		Latency:    time.Since(started),
	}, nil
}

func libreTranslateErrorMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return ""
	}
	return payload.Error
}

func libreTranslateURL(raw string) string {
	return resolveEndpoint(raw, DefaultLibreTranslateURL, "", "/translate")
}
