package translation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	DefaultLocalEndpoint = "http://127.0.0.1:8845/v1"
	DefaultLocalModel    = "tencent/HY-MT1.5-7B"

	defaultLocalTimeout = 120 * time.Second
)

// LocalProvider asks a self-hosted OpenAI-compatible chat completions server for
// translations. The prompt follows the HY-MT template.
type LocalProvider struct {
	endpoint jsonEndpoint
	model    string
}

func NewLocalProvider(endpoint, model string, timeout time.Duration) *LocalProvider {
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultLocalModel
	}
	if timeout <= 0 {
		timeout = defaultLocalTimeout
	}
	return &LocalProvider{
		endpoint: newJSONEndpoint(resolveEndpoint(endpoint, DefaultLocalEndpoint, "/v1", "/chat/completions"), timeout),
		model:    model,
	}
}

func (p *LocalProvider) Name() string {
	return "local"
}

func (p *LocalProvider) SupportedLanguages() []string {
	return SupportedLanguageCodes()
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	TopP        float64       `json:"top_p,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (p *LocalProvider) Translate(ctx context.Context, req TranslateRequest) (*TranslateResponse, error) {
	if p == nil {
		return nil, fmt.Errorf("local provider is nil")
	}
	text := collapseOCRLines(req.Text)
	if text == "" {
		return nil, fmt.Errorf("text is required")
	}
	target := normalizeLangCode(req.TargetLang)
	if target == "" {
		return nil, fmt.Errorf("target language is required")
	}
	source := normalizeLangCode(req.SourceLang)

	started := time.Now()
	var parsed chatResponse
	err := p.endpoint.post(ctx, chatRequest{
		Model:       p.model,
		Messages:    []chatMessage{{Role: "user", Content: translationPrompt(text, source, target)}},
		Temperature: 0.2,
		TopP:        0.6,
	}, &parsed, chatErrorMessage)
	if err != nil {
		return nil, err
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("translation response missing choices")
	}

	translated := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if translated == "" {
		return nil, ErrEmptyTranslation
	}
	return &TranslateResponse{
		Text:       translated,
		SourceLang: source,
		Provider:   p.Name(),
		Latency:    time.Since(started),
	}, nil
}

func chatErrorMessage(body []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return ""
	}
	return payload.Error.Message
}

// translationPrompt names the source language only when it is known.
func translationPrompt(text, source, target string) string {
	targetName := englishLanguageName(target)
	if targetName == "" {
		targetName = target
	}
	if sourceName := englishLanguageName(source); sourceName != "" {
		return fmt.Sprintf("Translate the following segment from %s into %s, without additional explanation.\n\n%s", sourceName, targetName, text)
	}
	return fmt.Sprintf("Translate the following segment into %s, without additional explanation.\n\n%s", targetName, text)
}

// collapseOCRLines joins hard-wrapped OCR lines so the model sees whole sentences.
// Blank lines still separate paragraphs.
func collapseOCRLines(raw string) string {
	paragraphs := strings.Split(strings.ReplaceAll(strings.TrimSpace(raw), "\r\n", "\n"), "\n\n")
	out := make([]string, 0, len(paragraphs))
	for _, paragraph := range paragraphs {
		joined := strings.Join(strings.Fields(paragraph), " ")
		if joined == "" {
			continue
		}
		out = append(out, joined)
	}
	return strings.Join(out, "\n\n")
}
