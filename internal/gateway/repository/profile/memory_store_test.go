package profile

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"animaldex/internal/gateway/entity"
)

func TestMemoryStoreCreateGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Create(ctx, entity.NewProfile("ava", "hash")))
	assert.ErrorIs(t, s.Create(ctx, entity.NewProfile("ava", "other")), ErrDuplicate)

	got, err := s.Get(ctx, "ava")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Level)
	assert.Equal(t, entity.BadgeBeginnerExplorer, got.Badge)

	_, err = s.Get(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Create(ctx, entity.NewProfile("ava", "hash")))

	updated, err := s.Update(ctx, "ava", func(p *entity.Profile) {
		p.AddDiscovery("Fox")
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Level)
	assert.Equal(t, []string{"fox"}, updated.Discovered)

	// The returned copy must not alias stored state.
	updated.Discovered[0] = "rat"
	got, err := s.Get(ctx, "ava")
	require.NoError(t, err)
	assert.Equal(t, []string{"fox"}, got.Discovered)

	_, err = s.Update(ctx, "nobody", func(*entity.Profile) {})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreUpdateCanceledContext(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Create(ctx, entity.NewProfile("ava", "hash")))

	canceled, cancel := context.WithCancel(ctx)
	cancel()

	_, err := s.Update(canceled, "ava", func(p *entity.Profile) {
		p.AddDiscovery("fox")
	})
	require.Error(t, err)

	got, err := s.Get(ctx, "ava")
	require.NoError(t, err)
	assert.Empty(t, got.Discovered)
	assert.Equal(t, 1, got.Level)
}

func TestMemoryStoreConcurrentDistinctLabels(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Create(ctx, entity.NewProfile("ava", "hash")))

	labels := []string{"fox", "owl", "tiger", "lynx", "bear", "wolf", "deer", "hare"}
	var wg sync.WaitGroup
	for _, label := range labels {
		wg.Add(1)
		go func(label string) {
			defer wg.Done()
			_, err := s.Update(ctx, "ava", func(p *entity.Profile) {
				p.AddDiscovery(label)
			})
			assert.NoError(t, err)
		}(label)
	}
	wg.Wait()

	got, err := s.Get(ctx, "ava")
	require.NoError(t, err)
	assert.Len(t, got.Discovered, len(labels))
	assert.Equal(t, 1+len(labels), got.Level)
}
