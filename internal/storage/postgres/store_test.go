package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslink/campuslink-be/internal/models"
	"github.com/campuslink/campuslink-be/internal/storage"
)

func userColumns() []string {
	return []string{"id", "name", "email", "avatar_url", "password_hash", "created_at", "updated_at"}
}

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return NewWithDB(mock), mock
}

func TestCreate(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	now := time.Now()

	rows := pgxmock.NewRows(userColumns()).
		AddRow(int64(1), "Ava", "ava@example.com", "https://ui-avatars.com/api/?name=Ava", "$2a$10$hash", now, now)
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("Ava", "ava@example.com", "https://ui-avatars.com/api/?name=Ava", "$2a$10$hash").
		WillReturnRows(rows)

	created, err := store.Create(context.Background(), models.User{
		Name:         "Ava",
		Email:        "ava@example.com",
		AvatarURL:    "https://ui-avatars.com/api/?name=Ava",
		PasswordHash: "$2a$10$hash",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "ava@example.com", created.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicateEmail(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("Ava", "ava@example.com", "", "$2a$10$hash").
		WillReturnError(&pgconn.PgError{Code: uniqueViolation, ConstraintName: "users_email_unique_idx"})

	_, err := store.Create(context.Background(), models.User{
		Name:         "Ava",
		Email:        "ava@example.com",
		PasswordHash: "$2a$10$hash",
	})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByEmail_NotFound(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT id, name, email, avatar_url, password_hash, created_at, updated_at").
		WithArgs("missing@example.com").
		WillReturnError(pgx.ErrNoRows)

	_, err := store.FindByEmail(context.Background(), "missing@example.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	now := time.Now()

	rows := pgxmock.NewRows(userColumns()).
		AddRow(int64(7), "Ben", "ben@example.com", "", "$2a$10$hash", now, now)
	mock.ExpectQuery("SELECT id, name, email, avatar_url, password_hash, created_at, updated_at").
		WithArgs(int64(7)).
		WillReturnRows(rows)

	user, err := store.FindByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Ben", user.Name)
	assert.Equal(t, "ben@example.com", user.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}
