package ports

import (
	"context"

	"github.com/trackerpro/tracker-auth/internal/core/domain"
)

// UserRepository is the credential store. Implementations must enforce email
// and employee-id uniqueness themselves; Create returns ErrDuplicateEmail or
// ErrDuplicateEmployeeID when a concurrent writer won the race.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByEmployeeID(ctx context.Context, employeeID string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByEmployeeID(ctx context.Context, employeeID string) (bool, error)
	// Create persists user and returns the stored record with its assigned ID.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// UpdatePasswordHash replaces the stored digest of the user with id.
	// Returns ErrUserNotFound when no such user exists.
	UpdatePasswordHash(ctx context.Context, id, digest string) error
}

// AuditRepository persists audit-trail entries.
type AuditRepository interface {
	InsertAuthEvent(ctx context.Context, event *domain.AuthEvent) error
}
