// Package memory holds an in-memory UserStore with the same semantics
// as the Postgres store, including atomic duplicate-email detection.
// It backs handler and session tests and local development without a
// database.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/campuslink/campuslink-be/internal/models"
	"github.com/campuslink/campuslink-be/internal/storage"
)

var _ storage.UserStore = (*Store)(nil)

type Store struct {
	mu      sync.Mutex
	nextID  int64
	byID    map[int64]models.User
	byEmail map[string]int64
}

func NewStore() *Store {
	return &Store{
		byID:    make(map[int64]models.User),
		byEmail: make(map[string]int64),
	}
}

// Create assigns an id and timestamps. The duplicate check and the
// insert happen under one lock, so concurrent registrations with the
// same email cannot both succeed.
func (s *Store) Create(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[user.Email]; exists {
		return models.User{}, storage.ErrAlreadyExists
	}

	s.nextID++
	now := time.Now()
	user.ID = s.nextID
	user.CreatedAt = now
	user.UpdatedAt = now

	s.byID[user.ID] = user
	s.byEmail[user.Email] = user.ID
	return user, nil
}

func (s *Store) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[email]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return s.byID[id], nil
}

func (s *Store) FindByID(_ context.Context, id int64) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byID[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}
