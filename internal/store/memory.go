package store

import (
	"context"
	"sort"
	"sync"

	"github.com/phrazzld/users-qa/internal/domain"
)

// MemoryUserStore keeps users in a map. Ids grow monotonically and are never
// reused, even after a delete.
type MemoryUserStore struct {
	mu     sync.RWMutex
	users  map[int]domain.User
	nextID int
}

var _ UserStore = (*MemoryUserStore)(nil)

// NewMemoryUserStore returns a store holding seed, keeping the seed ids.
// Users without an id get the next free one.
func NewMemoryUserStore(seed ...domain.User) *MemoryUserStore {
	s := &MemoryUserStore{users: make(map[int]domain.User), nextID: 1}
	for _, u := range seed {
		if u.ID <= 0 {
			u.ID = s.nextID
		}
		s.users[u.ID] = u
		if u.ID >= s.nextID {
			s.nextID = u.ID + 1
		}
	}
	return s
}

// Create implements UserStore.
func (s *MemoryUserStore) Create(_ context.Context, user domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.ID = s.nextID
	s.nextID++
	s.users[user.ID] = user
	return user, nil
}

// Get implements UserStore.
func (s *MemoryUserStore) Get(_ context.Context, id int) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return domain.User{}, ErrUserNotFound
	}
	return u, nil
}

// List implements UserStore.
func (s *MemoryUserStore) List(_ context.Context, ids ...int) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ret := make([]domain.User, 0, len(s.users))
	if len(ids) == 0 {
		for _, u := range s.users {
			ret = append(ret, u)
		}
	} else {
		seen := make(map[int]bool, len(ids))
		for _, id := range ids {
			if u, ok := s.users[id]; ok && !seen[id] {
				seen[id] = true
				ret = append(ret, u)
			}
		}
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].ID < ret[j].ID })
	return ret, nil
}

// Update implements UserStore.
func (s *MemoryUserStore) Update(_ context.Context, user domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return domain.User{}, NewStoreError("user", "update", "no such id", ErrUserNotFound)
	}
	s.users[user.ID] = user
	return user, nil
}

// Delete implements UserStore.
func (s *MemoryUserStore) Delete(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return NewStoreError("user", "delete", "no such id", ErrUserNotFound)
	}
	delete(s.users, id)
	return nil
}
