package llmclient

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when the model produced no usable text.
var ErrEmptyResponse = errors.New("empty response from model")

// TextClient generates free-form text for a prompt. Implementations
// only cover the API call itself; cross-cutting concerns (logging,
// caching) are layered on via Middleware.
type TextClient interface {
	Name() string
	GenerateText(ctx context.Context, prompt string) (string, error)
	Close() error
}

// Middleware wraps a TextClient with additional behavior.
type Middleware func(next TextClient) TextClient

// Chain applies middlewares so the first listed is outermost.
func Chain(client TextClient, middlewares ...Middleware) TextClient {
	for i := len(middlewares) - 1; i >= 0; i-- {
		client = middlewares[i](client)
	}
	return client
}
