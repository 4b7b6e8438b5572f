package llmclient

import (
	"context"
	"errors"
	"strings"

	genai "google.golang.org/genai"
)

// SDKClient is a thin wrapper around the official genai client, for
// deployments that prefer the SDK transport over the raw REST endpoint.
// It yields the same Client surface and error taxonomy as GeminiClient
// where the SDK exposes enough detail.
type SDKClient struct {
	cli   *genai.Client
	model string
}

func NewSDKClient(ctx context.Context, apiKey, model string) (*SDKClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingCredential
	}
	if strings.TrimSpace(model) == "" {
		model = "gemini-2.5-flash"
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &SDKClient{cli: cli, model: model}, nil
}

func (s *SDKClient) Name() string { return "GeminiSDK:" + s.model }
func (s *SDKClient) Close() error { return nil }

func (s *SDKClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := s.cli.Models.GenerateContent(ctx, s.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		nil,
	)
	if err != nil {
		return "", classifySDK(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// classifySDK routes SDK failures through the shared status classification
// so quota, auth and unknown-model errors keep their kinds (and permanence)
// regardless of transport. Anything without an API status is a transport
// failure.
func classifySDK(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyGemini(apiErr.Code, apiErr.Message)
	}
	return &ModelError{Kind: KindTransport, Message: err.Error(), Err: err}
}
