// Package auth owns registration, credential verification and the
// session table. Profiles hold only the opaque bcrypt hash; nothing
// else in the gateway touches credentials.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	memcache "animaldex/internal/cache/memory"
	"animaldex/internal/gateway/entity"
	profilerepo "animaldex/internal/gateway/repository/profile"
)

var (
	ErrInvalidCredentials = errors.New("invalid handle or password")
	// ErrDuplicateIdentity mirrors the store sentinel for handlers.
	ErrDuplicateIdentity = profilerepo.ErrDuplicate
)

const (
	defaultSessionTTL = 24 * time.Hour
	sessionTableSize  = 4096
)

type Service struct {
	store    profilerepo.Store
	sessions *memcache.LRUTTL[string, entity.Handle]
	log      *slog.Logger
}

func New(store profilerepo.Store, sessionTTL time.Duration, logger *slog.Logger) *Service {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		sessions: memcache.NewLRUTTL[string, entity.Handle](sessionTableSize, sessionTTL),
		log:      logger,
	}
}

// Register creates a fresh profile at level 1 with no discoveries.
func (s *Service) Register(ctx context.Context, rawHandle, secret string) error {
	handle := entity.NormalizeHandle(rawHandle)
	if handle.IsZero() {
		return fmt.Errorf("handle is required")
	}
	if secret == "" {
		return fmt.Errorf("password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash credential: %w", err)
	}
	if err := s.store.Create(ctx, entity.NewProfile(handle, string(hash))); err != nil {
		return err
	}
	s.log.Info("profile registered", "handle", handle)
	return nil
}

// Login verifies the credential and issues an opaque session token.
// Unknown handles and wrong passwords are indistinguishable to the
// caller.
func (s *Service) Login(ctx context.Context, rawHandle, secret string) (string, error) {
	handle := entity.NormalizeHandle(rawHandle)
	p, err := s.store.Get(ctx, handle)
	if err != nil {
		if errors.Is(err, profilerepo.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(p.CredentialHash), []byte(secret)) != nil {
		return "", ErrInvalidCredentials
	}

	token := uuid.NewString()
	s.sessions.Set(token, handle)
	return token, nil
}

func (s *Service) Logout(token string) {
	s.sessions.Delete(token)
}

// Identity resolves a session token to the logged-in handle.
func (s *Service) Identity(token string) (entity.Handle, bool) {
	if token == "" {
		return "", false
	}
	handle, ok := s.sessions.Get(token)
	return handle, ok
}
