package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxResponseBytes = 4 << 20

// StatusError is a non-2xx answer from a translation endpoint.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("translation endpoint status %d: %s", e.StatusCode, e.Message)
}

type jsonEndpoint struct {
	url    string
	client *http.Client
}

func newJSONEndpoint(rawURL string, timeout time.Duration) jsonEndpoint {
	return jsonEndpoint{
		url:    rawURL,
		client: &http.Client{Timeout: timeout},
	}
}

// post sends payload as JSON and decodes a 2xx body into out. On other statuses the
// returned *StatusError carries whatever message extract finds in the body, or the raw
// body when it finds none.
func (e jsonEndpoint) post(ctx context.Context, payload, out any, extract func([]byte) string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal translation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build translation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("send translation request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read translation response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := ""
		if extract != nil {
			message = strings.TrimSpace(extract(raw))
		}
		if message == "" {
			message = strings.TrimSpace(string(raw))
		}
		return &StatusError{StatusCode: resp.StatusCode, Message: message}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode translation response: %w", err)
	}
	return nil
}

// resolveEndpoint expands a configured base URL into the API URL ending in suffix.
// Bare hosts get http://, an empty path becomes defaultPath, and values that do not
// parse fall back to fallback.
func resolveEndpoint(raw, fallback, defaultPath, suffix string) string {
	base := strings.TrimSpace(raw)
	if base == "" {
		base = fallback
	}
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}

	parsed, err := url.Parse(base)
	if err != nil || strings.TrimSpace(parsed.Host) == "" {
		parsed, _ = url.Parse(fallback)
	}

	path := strings.TrimRight(parsed.Path, "/")
	if path == "" {
		path = defaultPath
	}
	if !strings.HasSuffix(path, suffix) {
		path += suffix
	}
	parsed.Path = path
	return parsed.String()
}
