package tooling

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
	"unicode"

	readability "github.com/go-shiori/go-readability"
	"github.com/rs/zerolog"
)

const (
	userAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	responsePreview = 500
	articleMaxChars = 4000
	maxBodyBytes    = 2 << 20 // 2MB
)

type webClient struct {
	http   *http.Client
	logger zerolog.Logger
}

func newWebClient(timeout time.Duration, logger zerolog.Logger) *webClient {
	return &webClient{
		http:   &http.Client{Timeout: timeout},
		logger: logger.With().Str("component", "web").Logger(),
	}
}

// do sends req and returns the body; non-2xx statuses are errors.
func (w *webClient) do(req *http.Request) ([]byte, *http.Response, error) {
	req.Header.Set("User-Agent", userAgent)
	start := time.Now()
	resp, err := w.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	w.logger.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("http request")
	if err != nil {
		return nil, resp, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, resp, fmt.Errorf("%d %s for url: %s", resp.StatusCode, http.StatusText(resp.StatusCode), req.URL)
	}
	return body, resp, nil
}

// WebOperations issues HTTP requests and extracts article text.
func WebOperations(w *webClient) *Capability {
	return NewCapability("web_operations").
		Add("make_get_request", func(ctx context.Context, args ...string) (string, error) {
			if err := checkArgs("make_get_request", args, 1, 1); err != nil {
				return "", err
			}
			return w.get(ctx, args[0]), nil
		}).
		Add("make_post_request", func(ctx context.Context, args ...string) (string, error) {
			if err := checkArgs("make_post_request", args, 2, -1); err != nil {
				return "", err
			}
			return w.post(ctx, args[0], strings.Join(args[1:], ", ")), nil
		}).
		Add("fetch_article", func(ctx context.Context, args ...string) (string, error) {
			if err := checkArgs("fetch_article", args, 1, 1); err != nil {
				return "", err
			}
			return w.article(ctx, args[0]), nil
		})
}

// withScheme defaults scheme-less URLs to https.
func withScheme(raw string) string {
	raw = strings.TrimSpace(raw)
	if u, err := url.Parse(raw); err == nil && u.Scheme != "" {
		return raw
	}
	return "https://" + strings.TrimLeft(raw, "/")
}

func (w *webClient) get(ctx context.Context, raw string) string {
	target := withScheme(raw)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Sprintf("Error making GET request to %s: %v", target, err)
	}
	body, _, err := w.do(req)
	if err != nil {
		return fmt.Sprintf("Error making GET request to %s: %v", target, err)
	}
	return fmt.Sprintf("GET request to %s successful. Response:\n%s...", target, preview(string(body)))
}

func (w *webClient) post(ctx context.Context, raw, data string) string {
	target := withScheme(raw)
	payload, ok := parsePayload(data)
	if !ok {
		return fmt.Sprintf("Error: Invalid data format. Expected a dictionary-like string, got: %s", data)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return fmt.Sprintf("Error making POST request to %s: %v", target, err)
	}
	req.Header.Set("Content-Type", "application/json")
	body, _, err := w.do(req)
	if err != nil {
		return fmt.Sprintf("Error making POST request to %s: %v", target, err)
	}
	return fmt.Sprintf("POST request to %s successful. Response:\n%s...", target, preview(string(body)))
}

// parsePayload accepts a JSON object, a single-quoted object literal, or
// "key: value" pairs, and returns the JSON body to send.
func parsePayload(data string) ([]byte, bool) {
	trimmed := strings.TrimSpace(data)
	for _, candidate := range []string{trimmed, strings.ReplaceAll(trimmed, "'", `"`)} {
		var obj map[string]json.RawMessage
		if json.Unmarshal([]byte(candidate), &obj) == nil && obj != nil {
			var buf bytes.Buffer
			if json.Compact(&buf, []byte(candidate)) == nil {
				return buf.Bytes(), true
			}
		}
	}
	if strings.HasPrefix(trimmed, "{") {
		return nil, false
	}
	obj, err := parsePairs(trimmed, true)
	if err != nil {
		return nil, false
	}
	body, err := obj.MarshalJSON()
	if err != nil {
		return nil, false
	}
	return body, true
}

func (w *webClient) article(ctx context.Context, raw string) string {
	target := withScheme(raw)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Sprintf("Error fetching article from %s: %v", target, err)
	}
	body, resp, err := w.do(req)
	if err != nil {
		return fmt.Sprintf("Error fetching article from %s: %v", target, err)
	}
	article, err := readability.FromReader(bytes.NewReader(body), resp.Request.URL)
	if err != nil {
		return fmt.Sprintf("Error extracting article from %s: %v", target, err)
	}
	text := normalizeWhitespace(article.TextContent)
	if text == "" {
		return fmt.Sprintf("Error extracting article from %s: no readable content", target)
	}
	if r := []rune(text); len(r) > articleMaxChars {
		text = string(r[:articleMaxChars]) + "..."
	}
	title := strings.TrimSpace(article.Title)
	return fmt.Sprintf("Article from %s\nTitle: %s\n\n%s", target, title, text)
}

func preview(s string) string {
	r := []rune(s)
	if len(r) > responsePreview {
		return string(r[:responsePreview])
	}
	return s
}

func normalizeWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
