package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"catalog-server-go/internal/domain/auth/model"
)

type memoryStore struct {
	users map[string]model.UserRecord
	mutex sync.RWMutex
}

// NewMemory builds an in-memory user store. Records live for the process
// lifetime; useful for tests and single-instance demos.
func NewMemory() Store {
	return &memoryStore{
		users: make(map[string]model.UserRecord),
	}
}

func (s *memoryStore) Save(_ context.Context, user model.UserRecord) error {
	if user.Username == "" {
		return fmt.Errorf("username required")
	}
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	s.mutex.Lock()
	s.users[user.Username] = user
	s.mutex.Unlock()
	return nil
}

func (s *memoryStore) Get(_ context.Context, username string) (model.UserRecord, error) {
	s.mutex.RLock()
	user, ok := s.users[username]
	s.mutex.RUnlock()
	if !ok {
		return model.UserRecord{}, fmt.Errorf("%w: %s", ErrNotFound, username)
	}
	return user, nil
}

func (s *memoryStore) List(_ context.Context) ([]model.UserRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	users := make([]model.UserRecord, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	return users, nil
}

func (s *memoryStore) SetRole(ctx context.Context, username string, role model.Role) error {
	return s.update(username, func(user *model.UserRecord) {
		user.Role = role
	})
}

func (s *memoryStore) SetActive(ctx context.Context, username string, active bool) error {
	return s.update(username, func(user *model.UserRecord) {
		user.Active = active
	})
}

func (s *memoryStore) update(username string, mutate func(*model.UserRecord)) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	user, ok := s.users[username]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, username)
	}
	mutate(&user)
	user.UpdatedAt = time.Now()
	s.users[username] = user
	return nil
}

func (s *memoryStore) Delete(_ context.Context, username string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.users[username]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, username)
	}
	delete(s.users, username)
	return nil
}

func (s *memoryStore) Stats(_ context.Context) (map[string]any, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	active := 0
	for _, user := range s.users {
		if user.Active {
			active++
		}
	}
	return map[string]any{
		"type":   "memory",
		"total":  len(s.users),
		"active": active,
	}, nil
}

func (s *memoryStore) Close(context.Context) error {
	return nil
}
