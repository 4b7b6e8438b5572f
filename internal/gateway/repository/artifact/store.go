// Package artifact stores exported document bundles per project.
package artifact

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("artifact: not found")

// Store is the document storage the export flow writes into.
type Store interface {
	Put(ctx context.Context, sessionID, path string, content []byte) error
	Get(ctx context.Context, sessionID, path string) ([]byte, error)
	List(ctx context.Context, sessionID string) ([]string, error)
}

// URLProvider is implemented by stores that can hand out direct download
// links instead of streaming bytes through the gateway.
type URLProvider interface {
	GetURL(ctx context.Context, sessionID, path string) (string, error)
}
