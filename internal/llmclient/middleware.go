package llmclient

import (
	"context"
	"log/slog"
)

// WithLogging logs request size and errors around text generation.
func WithLogging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next TextClient) TextClient {
		return &logging{next: next, log: logger}
	}
}

type logging struct {
	next TextClient
	log  *slog.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }

func (l *logging) GenerateText(ctx context.Context, prompt string) (string, error) {
	l.log.Debug("text generation request", "client", l.next.Name(), "prompt_bytes", len(prompt))
	text, err := l.next.GenerateText(ctx, prompt)
	if err != nil {
		l.log.Warn("text generation failed", "client", l.next.Name(), "error", err)
	}
	return text, err
}
