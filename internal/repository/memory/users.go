// Package memory provides thread-safe in-process stores with the same
// semantics as the MySQL repositories. They back tests and STORAGE=memory.
package memory

import (
	"context"
	"sync"

	"github.com/parley/parley-go/internal/model"
	"github.com/parley/parley-go/internal/repository"
)

// UserStore keeps users in maps keyed by id, username and email.
type UserStore struct {
	mu         sync.RWMutex
	nextID     int64
	byID       map[int64]*model.User
	byUsername map[string]int64
	byEmail    map[string]int64
}

func NewUserStore() *UserStore {
	return &UserStore{
		byID:       make(map[int64]*model.User),
		byUsername: make(map[string]int64),
		byEmail:    make(map[string]int64),
	}
}

func (s *UserStore) Create(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUsername[user.Username]; ok {
		return repository.ErrDuplicateUser
	}
	if _, ok := s.byEmail[user.Email]; ok {
		return repository.ErrDuplicateUser
	}

	s.nextID++
	user.ID = s.nextID
	stored := *user
	s.byID[stored.ID] = &stored
	s.byUsername[stored.Username] = stored.ID
	s.byEmail[stored.Email] = stored.ID
	return nil
}

func (s *UserStore) GetByID(_ context.Context, id int64) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(id)
}

func (s *UserStore) GetByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return s.get(id)
}

func (s *UserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return s.get(id)
}

func (s *UserStore) UpdatePasswordAndEmail(_ context.Context, id int64, passwordHash, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	if owner, ok := s.byEmail[email]; ok && owner != id {
		return repository.ErrDuplicateUser
	}

	delete(s.byEmail, user.Email)
	user.Email = email
	user.PasswordHash = passwordHash
	s.byEmail[email] = id
	return nil
}

// get must be called with s.mu held.
func (s *UserStore) get(id int64) (*model.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	out := *user
	return &out, nil
}
