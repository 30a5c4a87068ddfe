package identity

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryRepository struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewMemoryRepository builds an in-memory user store for tests and
// database-less development runs.
func NewMemoryRepository() Repository {
	return &memoryRepository{users: make(map[string]User)}
}

func (r *memoryRepository) Create(_ context.Context, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[user.ClientID]; exists {
		return ErrClientIDTaken
	}
	if r.emailOwnerLocked(user.Email) != "" {
		return ErrEmailTaken
	}
	r.users[user.ClientID] = user
	return nil
}

func (r *memoryRepository) FindByClientID(_ context.Context, clientID string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[clientID]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	owner := r.emailOwnerLocked(email)
	if owner == "" {
		return User{}, ErrUserNotFound
	}
	return r.users[owner], nil
}

func (r *memoryRepository) List(_ context.Context, limit, offset int) ([]User, error) {
	r.mu.RLock()
	all := make([]User, 0, len(r.users))
	for _, u := range r.users {
		all = append(all, u)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ClientID < all[j].ClientID
	})
	if offset >= len(all) {
		return []User{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *memoryRepository) Update(_ context.Context, clientID string, changes Changes) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[clientID]
	if !ok {
		return User{}, ErrUserNotFound
	}
	if changes.Email != nil {
		if owner := r.emailOwnerLocked(*changes.Email); owner != "" && owner != clientID {
			return User{}, ErrEmailTaken
		}
		user.Email = *changes.Email
	}
	if changes.Name != nil {
		user.Name = *changes.Name
	}
	user.UpdatedAt = time.Now().UTC()
	r.users[clientID] = user
	return user, nil
}

func (r *memoryRepository) Delete(_ context.Context, clientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[clientID]; !ok {
		return ErrUserNotFound
	}
	delete(r.users, clientID)
	return nil
}

func (r *memoryRepository) emailOwnerLocked(email string) string {
	for clientID, u := range r.users {
		if u.Email == email {
			return clientID
		}
	}
	return ""
}
