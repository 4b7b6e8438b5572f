package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta"

// GeminiClient calls the Gemini generateContent REST endpoint directly.
// The key travels as a query parameter per request, which lets each session
// carry its own user-supplied key without rebuilding an SDK client.
type GeminiClient struct {
	http     *http.Client
	apiKey   string
	model    string
	endpoint string
}

// GeminiOption mutates a GeminiClient during construction.
type GeminiOption func(*GeminiClient)

// WithEndpoint overrides the API base URL (tests point this at a local server).
func WithEndpoint(endpoint string) GeminiOption {
	return func(g *GeminiClient) { g.endpoint = strings.TrimRight(endpoint, "/") }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(c *http.Client) GeminiOption {
	return func(g *GeminiClient) { g.http = c }
}

// NewGeminiClient creates a REST client for the given model and key.
func NewGeminiClient(apiKey, model string, opts ...GeminiOption) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingCredential
	}
	if strings.TrimSpace(model) == "" {
		model = "gemini-2.5-flash"
	}
	g := &GeminiClient{
		http:     &http.Client{Timeout: 90 * time.Second},
		apiKey:   apiKey,
		model:    model,
		endpoint: defaultGeminiEndpoint,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.model }
func (g *GeminiClient) Close() error { return nil }

type geminiPart struct {
	Text string `json:"text"`
}
type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}
type geminiReq struct {
	Contents []geminiContent `json:"contents"`
}
type geminiAPIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}
type geminiResp struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *geminiAPIError `json:"error,omitempty"`
}

// Generate performs one generateContent call and returns the first
// candidate's text. Errors are classified into ModelError kinds; no retry
// is performed here.
func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	body, _ := json.Marshal(geminiReq{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})

	u := g.endpoint + "/models/" + url.PathEscape(g.model) + ":generateContent?key=" + url.QueryEscape(g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return "", &ModelError{Kind: KindTransport, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", &ModelError{Kind: KindTransport, Message: err.Error(), Err: err}
	}

	var out geminiResp
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &ModelError{Kind: KindGeneric, Code: resp.StatusCode, Message: trimBody(raw), Err: err}
	}
	if out.Error != nil {
		return "", classifyGemini(out.Error.Code, out.Error.Message)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", classifyGemini(resp.StatusCode, trimBody(raw))
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(out.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// classifyGemini maps an upstream status code and message onto the error
// taxonomy. Both the REST and SDK clients route through here so the kinds
// stay identical across transports. Auth and unknown-model failures are
// permanent: retrying with the same key or model name cannot succeed.
func classifyGemini(code int, message string) error {
	me := &ModelError{Code: code, Message: message}
	switch {
	case code == http.StatusTooManyRequests,
		strings.Contains(strings.ToLower(message), "quota"):
		me.Kind = KindQuota
		return me
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		me.Kind = KindAuth
		return NewPermanentError(me)
	case code == http.StatusNotFound:
		me.Kind = KindNotFound
		return NewPermanentError(me)
	default:
		me.Kind = KindGeneric
		return me
	}
}

func trimBody(raw []byte) string {
	const max = 2048
	if len(raw) > max {
		raw = raw[:max]
	}
	return string(raw)
}
