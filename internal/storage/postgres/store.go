package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/campuslink/campuslink-be/internal/models"
	"github.com/campuslink/campuslink-be/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the SQLSTATE raised when the users_email unique
// constraint rejects an insert.
const uniqueViolation = "23505"

// querier is the slice of pgxpool.Pool the store needs; pgxmock
// satisfies it too, so tests run without a live database.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Ensure Store satisfies the storage.UserStore interface at compile time.
var _ storage.UserStore = (*Store)(nil)

// Store provides Postgres-backed persistence for identity records.
type Store struct {
	db   querier
	pool *pgxpool.Pool
}

// NewUserStore connects to Postgres and applies the users migration.
func NewUserStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{db: pool, pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// NewWithDB wraps an existing connection-like value. Used by tests.
func NewWithDB(db querier) *Store {
	return &Store{db: db}
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			avatar_url TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS users_email_unique_idx ON users (email);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

// Create inserts a new identity record. The unique index on email is
// the authoritative duplicate check; a violation maps to
// storage.ErrAlreadyExists.
func (s *Store) Create(ctx context.Context, user models.User) (models.User, error) {
	const query = `
	INSERT INTO users (name, email, avatar_url, password_hash)
	VALUES ($1, $2, $3, $4)
	RETURNING id, name, email, avatar_url, password_hash, created_at, updated_at;
	`
	row := s.db.QueryRow(ctx, query, user.Name, user.Email, user.AvatarURL, user.PasswordHash)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, err
	}
	return created, nil
}

// FindByEmail fetches an identity record by its login key. The match
// is exact and case-sensitive.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `
	SELECT id, name, email, avatar_url, password_hash, created_at, updated_at
	FROM users
	WHERE email = $1;
	`
	return scanUser(s.db.QueryRow(ctx, query, email))
}

// FindByID fetches an identity record by the id carried in verified
// token claims.
func (s *Store) FindByID(ctx context.Context, id int64) (models.User, error) {
	const query = `
	SELECT id, name, email, avatar_url, password_hash, created_at, updated_at
	FROM users
	WHERE id = $1;
	`
	return scanUser(s.db.QueryRow(ctx, query, id))
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.AvatarURL,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}
