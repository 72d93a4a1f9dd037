package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"animaldex/internal/gateway/entity"
)

const profileCacheSize = 1024

// PostgresStore persists profiles in a single table. The discovered
// list is stored as a JSON array so insertion order survives round
// trips. Reads go through an LRU cache invalidated on every write.
type PostgresStore struct {
	db *sql.DB

	schemaOnce sync.Once
	schemaErr  error

	cache *lru.Cache[string, entity.Profile]
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, fmt.Errorf("open profile db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping profile db: %w", err)
	}
	cache, err := lru.New[string, entity.Profile](profileCacheSize)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresStore{db: db, cache: cache}, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS profiles (
  handle TEXT PRIMARY KEY,
  credential_hash TEXT NOT NULL,
  level INTEGER NOT NULL DEFAULT 1,
  discovered JSONB NOT NULL DEFAULT '[]',
  badge TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);`)
	})
	return s.schemaErr
}

func (s *PostgresStore) Create(ctx context.Context, p entity.Profile) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	p.Normalize()
	if p.Handle.IsZero() {
		return fmt.Errorf("profile handle is required")
	}
	discovered, err := json.Marshal(p.Discovered)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO profiles (handle, credential_hash, level, discovered, badge)
VALUES ($1, $2, $3, $4, $5)`,
		p.Handle.String(), p.CredentialHash, p.Level, discovered, p.Badge)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	s.cache.Remove(p.Handle.String())
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, handle entity.Handle) (entity.Profile, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return entity.Profile{}, err
	}
	key := handle.String()
	if key == "" {
		return entity.Profile{}, ErrNotFound
	}
	if cached, ok := s.cache.Get(key); ok {
		return cached.Clone(), nil
	}

	row := s.db.QueryRowContext(ctx, `
SELECT handle, credential_hash, level, discovered, badge
FROM profiles WHERE handle = $1`, key)
	p, err := scanProfile(row)
	if err != nil {
		return entity.Profile{}, err
	}
	s.cache.Add(key, p.Clone())
	return p, nil
}

// Update runs the mutation inside a transaction holding a row lock on
// the profile, so concurrent discoveries for one player serialize and
// the level can never double-increment. The row is rewritten only on
// commit; a canceled context aborts the transaction untouched.
func (s *PostgresStore) Update(ctx context.Context, handle entity.Handle, mutate func(*entity.Profile)) (entity.Profile, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return entity.Profile{}, err
	}
	key := handle.String()
	if key == "" {
		return entity.Profile{}, ErrNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return entity.Profile{}, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
SELECT handle, credential_hash, level, discovered, badge
FROM profiles WHERE handle = $1 FOR UPDATE`, key)
	p, err := scanProfile(row)
	if err != nil {
		return entity.Profile{}, err
	}

	mutate(&p)
	p.Handle = handle
	p.Normalize()

	discovered, err := json.Marshal(p.Discovered)
	if err != nil {
		return entity.Profile{}, err
	}
	if _, err := tx.ExecContext(ctx, `
UPDATE profiles
SET credential_hash = $2, level = $3, discovered = $4, badge = $5
WHERE handle = $1`,
		key, p.CredentialHash, p.Level, discovered, p.Badge); err != nil {
		return entity.Profile{}, err
	}
	if err := tx.Commit(); err != nil {
		return entity.Profile{}, err
	}

	s.cache.Add(key, p.Clone())
	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (entity.Profile, error) {
	var (
		p   entity.Profile
		raw []byte
	)
	err := row.Scan(&p.Handle, &p.CredentialHash, &p.Level, &raw, &p.Badge)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Profile{}, ErrNotFound
	}
	if err != nil {
		return entity.Profile{}, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p.Discovered); err != nil {
			return entity.Profile{}, fmt.Errorf("decode discovered list: %w", err)
		}
	}
	p.Normalize()
	return p, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
