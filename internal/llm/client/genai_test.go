package llmclient

import (
	"errors"
	"fmt"
	"testing"

	genai "google.golang.org/genai"
)

func TestClassifySDK_KeepsTaxonomyAcrossTransports(t *testing.T) {
	quota := classifySDK(genai.APIError{Code: 429, Message: "Resource has been exhausted"})
	if KindOf(quota) != KindQuota {
		t.Fatalf("429 classified as %s, want quota", KindOf(quota))
	}
	if IsPermanent(quota) {
		t.Fatalf("quota errors must stay retryable")
	}

	auth := classifySDK(genai.APIError{Code: 403, Message: "API key not valid"})
	if KindOf(auth) != KindAuth {
		t.Fatalf("403 classified as %s, want auth", KindOf(auth))
	}
	if !IsPermanent(auth) {
		t.Fatalf("auth errors must be permanent")
	}

	// Quota and auth must remain distinguishable from each other.
	if KindOf(quota) == KindOf(auth) {
		t.Fatalf("quota and auth collapsed to one kind")
	}

	notFound := classifySDK(genai.APIError{Code: 404, Message: "model not found"})
	if KindOf(notFound) != KindNotFound || !IsPermanent(notFound) {
		t.Fatalf("404 classified as %s permanent=%v", KindOf(notFound), IsPermanent(notFound))
	}
}

func TestClassifySDK_WrappedAPIError(t *testing.T) {
	wrapped := fmt.Errorf("generate content: %w", genai.APIError{Code: 429, Message: "quota exceeded"})
	if KindOf(classifySDK(wrapped)) != KindQuota {
		t.Fatalf("wrapped api error lost its kind")
	}
}

func TestClassifySDK_NonAPIErrorIsTransport(t *testing.T) {
	err := classifySDK(errors.New("dial tcp: connection refused"))
	if KindOf(err) != KindTransport {
		t.Fatalf("plain error classified as %s, want transport", KindOf(err))
	}
	if IsPermanent(err) {
		t.Fatalf("transport errors must stay retryable")
	}
}
