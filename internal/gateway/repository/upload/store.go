package upload

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("upload not found")

// Store keeps the photos players submit. Objects are grouped per
// player handle; URL returns a link a browser can fetch directly.
type Store interface {
	Put(ctx context.Context, handle, name string, content []byte, contentType string) error
	Get(ctx context.Context, handle, name string) ([]byte, error)
	URL(ctx context.Context, handle, name string) (string, error)
}
