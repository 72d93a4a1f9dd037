// Package ledger implements the discovery ledger: the authoritative
// per-player record of discovered species, level and badge.
package ledger

import (
	"context"

	"animaldex/internal/gateway/entity"
	profilerepo "animaldex/internal/gateway/repository/profile"
)

// Service applies discovery mutations through the profile store. All
// atomicity comes from the store's Update contract; the service itself
// holds no state.
type Service struct {
	store profilerepo.Store
}

func New(store profilerepo.Store) *Service {
	return &Service{store: store}
}

// HasDiscovered reports whether the player already recorded the
// species, under any case/whitespace variant of the label.
func (s *Service) HasDiscovered(ctx context.Context, handle entity.Handle, label string) (bool, error) {
	p, err := s.store.Get(ctx, handle)
	if err != nil {
		return false, err
	}
	return p.HasDiscovered(label), nil
}

// RecordDiscovery idempotently records a species for the player and
// returns the resulting profile plus whether the ledger changed.
//
// A profile that already holds the species is returned unchanged with
// no write at all. Otherwise the insert, the level increment and the
// badge recompute commit as one atomic per-profile update, so two
// concurrent submissions of the same new species cannot
// double-increment the level.
func (s *Service) RecordDiscovery(ctx context.Context, handle entity.Handle, label string) (entity.Profile, bool, error) {
	current, err := s.store.Get(ctx, handle)
	if err != nil {
		return entity.Profile{}, false, err
	}
	if current.HasDiscovered(label) {
		return current, false, nil
	}

	isNew := false
	updated, err := s.store.Update(ctx, handle, func(p *entity.Profile) {
		isNew = p.AddDiscovery(label)
	})
	if err != nil {
		return entity.Profile{}, false, err
	}
	return updated, isNew, nil
}

// Profile returns the current ledger state for read accessors.
func (s *Service) Profile(ctx context.Context, handle entity.Handle) (entity.Profile, error) {
	return s.store.Get(ctx, handle)
}
