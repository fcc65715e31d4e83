package auth

import (
	"context"
	"sync"
	"time"
)

// TokenRegistry records issued bearer tokens by their JTI. A token is
// honoured only while its record exists, so revoking deletes the record.
type TokenRegistry interface {
	Record(ctx context.Context, jti string, userID int, expiresAt time.Time) error
	Active(ctx context.Context, jti string) (bool, error)
	Revoke(ctx context.Context, jti string) error
	DeleteForUser(ctx context.Context, userID int) error
}

type tokenEntry struct {
	userID    int
	expiresAt time.Time
}

// MemoryTokenRegistry keeps issued tokens in process memory. Expired
// entries are dropped on the next Record.
type MemoryTokenRegistry struct {
	mu       sync.RWMutex
	entries  map[string]tokenEntry // JTI -> entry
	userJTIs map[int][]string
	now      func() time.Time
}

func NewMemoryTokenRegistry() *MemoryTokenRegistry {
	return &MemoryTokenRegistry{
		entries:  make(map[string]tokenEntry),
		userJTIs: make(map[int][]string),
		now:      time.Now,
	}
}

func (r *MemoryTokenRegistry) Record(_ context.Context, jti string, userID int, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleanup()
	r.entries[jti] = tokenEntry{userID: userID, expiresAt: expiresAt}
	r.userJTIs[userID] = append(r.userJTIs[userID], jti)
	return nil
}

func (r *MemoryTokenRegistry) Active(_ context.Context, jti string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[jti]
	return ok && r.now().Before(e.expiresAt), nil
}

func (r *MemoryTokenRegistry) Revoke(_ context.Context, jti string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[jti]
	if !ok {
		return nil
	}
	delete(r.entries, jti)
	r.forget(e.userID, jti)
	return nil
}

func (r *MemoryTokenRegistry) DeleteForUser(_ context.Context, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, jti := range r.userJTIs[userID] {
		delete(r.entries, jti)
	}
	delete(r.userJTIs, userID)
	return nil
}

// Len returns the number of recorded tokens, expired ones included.
func (r *MemoryTokenRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// cleanup removes expired entries. Callers hold the write lock.
func (r *MemoryTokenRegistry) cleanup() {
	now := r.now()
	for jti, e := range r.entries {
		if !now.Before(e.expiresAt) {
			delete(r.entries, jti)
			r.forget(e.userID, jti)
		}
	}
}

func (r *MemoryTokenRegistry) forget(userID int, jti string) {
	jtis := r.userJTIs[userID]
	for i, id := range jtis {
		if id == jti {
			r.userJTIs[userID] = append(jtis[:i], jtis[i+1:]...)
			break
		}
	}
	if len(r.userJTIs[userID]) == 0 {
		delete(r.userJTIs, userID)
	}
}

// UserRevoker drops every credential a user holds in one store.
type UserRevoker interface {
	DeleteForUser(ctx context.Context, userID int) error
}

// Revokers applies DeleteForUser to each store in order and stops at the
// first error.
type Revokers []UserRevoker

func (rs Revokers) DeleteForUser(ctx context.Context, userID int) error {
	for _, r := range rs {
		if err := r.DeleteForUser(ctx, userID); err != nil {
			return err
		}
	}
	return nil
}
