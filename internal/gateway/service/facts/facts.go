// Package facts produces the educational species description shown
// with every classification result.
package facts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	memcache "animaldex/internal/cache/memory"
	"animaldex/internal/gateway/entity"
	"animaldex/internal/llmclient"
)

const (
	defaultTimeout = 10 * time.Second
	// Answers shorter than this many words are degenerate.
	minFactWords = 5

	factCacheEntries = 256
	factCacheTTL     = 12 * time.Hour
)

const promptTemplate = `You are a wildlife educator for kids aged 8-12.
Give a short, factual and specific description (3-4 sentences) of the animal %q.
Include where it lives, what it eats, and one interesting behavior.`

// Provider fetches a fact from the generative-text service, falling
// back to a deterministic placeholder whenever the service fails or
// returns degenerate output. Get never fails: degraded generation is
// logged, not surfaced.
type Provider struct {
	client  llmclient.TextClient
	timeout time.Duration
	cache   *memcache.LRUTTL[string, string]
	log     *slog.Logger
}

func NewProvider(client llmclient.TextClient, timeout time.Duration, logger *slog.Logger) *Provider {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		client:  client,
		timeout: timeout,
		cache:   memcache.NewLRUTTL[string, string](factCacheEntries, factCacheTTL),
		log:     logger,
	}
}

// Get returns usable text for the species. One attempt against the
// external service with a bounded timeout; on any failure the fallback
// is the defined degraded behavior, not an error state, so there are
// no retries. Only generated facts are cached, never fallbacks.
func (p *Provider) Get(ctx context.Context, label string) string {
	key := entity.NormalizeLabel(label)
	if cached, ok := p.cache.Get(key); ok {
		return cached
	}

	text, err := p.generate(ctx, label)
	if err != nil {
		p.log.Warn("fact generation degraded, using fallback", "label", label, "error", err)
		return Fallback(label)
	}
	p.cache.Set(key, text)
	return text
}

func (p *Provider) generate(ctx context.Context, label string) (string, error) {
	if p.client == nil {
		return "", fmt.Errorf("no text client configured")
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	text, err := p.client.GenerateText(ctx, fmt.Sprintf(promptTemplate, label))
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if len(strings.Fields(text)) < minFactWords {
		return "", fmt.Errorf("degenerate answer (%d words)", len(strings.Fields(text)))
	}
	return text, nil
}

// Fallback is the deterministic placeholder fact. Pluralization is a
// plain "s" suffix ("Foxs", not "Foxes") — kept as shipped.
func Fallback(label string) string {
	return capitalize(label) + "s are fascinating animals found in different parts of the world!"
}

func capitalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
