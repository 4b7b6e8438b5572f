package llmclient

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredential means no API key is available. Callers fail
	// fast on this; no network call is attempted.
	ErrMissingCredential = errors.New("llm: missing api key")

	// ErrEmptyResponse means the call succeeded but no usable text was
	// returned by the provider.
	ErrEmptyResponse = errors.New("llm: empty response from model")
)

// ErrorKind classifies provider failures so callers can branch without
// matching on message strings.
type ErrorKind int

const (
	KindGeneric ErrorKind = iota
	KindQuota     // rate limit / quota exhausted
	KindAuth      // invalid or rejected key
	KindNotFound  // unknown model identifier
	KindTransport // network-level failure
)

func (k ErrorKind) String() string {
	switch k {
	case KindQuota:
		return "quota"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindTransport:
		return "transport"
	default:
		return "generic"
	}
}

// ModelError is a classified provider error. Code carries the upstream
// numeric code when one was present.
type ModelError struct {
	Kind    ErrorKind
	Code    int
	Message string
	Err     error
}

func (e *ModelError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("llm: %s (%d): %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("llm: %s: %s", e.Kind, e.Message)
}

func (e *ModelError) Unwrap() error { return e.Err }

// PermanentError indicates an error that will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// KindOf extracts the ErrorKind from err, unwrapping as needed.
// Non-ModelError values report KindGeneric.
func KindOf(err error) ErrorKind {
	var me *ModelError
	if errors.As(err, &me) {
		return me.Kind
	}
	return KindGeneric
}

// IsPermanent reports whether err is marked non-retryable.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}
