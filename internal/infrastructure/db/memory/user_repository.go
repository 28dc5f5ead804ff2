package memory

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/trackerpro/tracker-auth/internal/core/domain"
)

// UserRepository is an in-process credential store. Uniqueness is checked and
// the insert performed under a single lock.
type UserRepository struct {
	mu           sync.RWMutex
	nextID       int64
	byID         map[string]*domain.User
	byEmail      map[string]string
	byEmployeeID map[string]string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:         make(map[string]*domain.User),
		byEmail:      make(map[string]string),
		byEmployeeID: make(map[string]string),
	}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(r.byID[id]), nil
}

func (r *UserRepository) FindByEmployeeID(_ context.Context, employeeID string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmployeeID[employeeID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(r.byID[id]), nil
}

func (r *UserRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	_, ok := r.byEmail[email]
	r.mu.RUnlock()
	return ok, nil
}

func (r *UserRepository) ExistsByEmployeeID(_ context.Context, employeeID string) (bool, error) {
	r.mu.RLock()
	_, ok := r.byEmployeeID[employeeID]
	r.mu.RUnlock()
	return ok, nil
}

// Create stores a copy of user under a newly assigned ID.
func (r *UserRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var conflicts []error
	if _, ok := r.byEmail[user.Email]; ok {
		conflicts = append(conflicts, domain.ErrDuplicateEmail)
	}
	if _, ok := r.byEmployeeID[user.EmployeeID]; ok {
		conflicts = append(conflicts, domain.ErrDuplicateEmployeeID)
	}
	if len(conflicts) > 0 {
		return nil, errors.Join(conflicts...)
	}

	r.nextID++
	stored := cloneUser(user)
	stored.ID = strconv.FormatInt(r.nextID, 10)

	r.byID[stored.ID] = stored
	r.byEmail[stored.Email] = stored.ID
	r.byEmployeeID[stored.EmployeeID] = stored.ID
	return cloneUser(stored), nil
}

func (r *UserRepository) UpdatePasswordHash(_ context.Context, id, digest string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	stored.PasswordHash = digest
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

// Len returns the number of stored users.
func (r *UserRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
