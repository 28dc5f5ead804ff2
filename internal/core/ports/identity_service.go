package ports

import (
	"context"

	"github.com/trackerpro/tracker-auth/internal/core/domain"
)

// RegistrationInput is the DTO passed from the transport layer to IdentityService.
// Role is accepted only so that it can be ignored: registration always yields RoleUser.
type RegistrationInput struct {
	FullName        string `validate:"required"`
	Email           string `validate:"required,email"`
	Password        string `validate:"required,min=6,max=72"`
	ConfirmPassword string `validate:"required"`
	Department      string `validate:"required"`
	EmployeeID      string `validate:"required"`
	MobileNo        string `validate:"required"`
	Role            string
}

// IdentityService covers registration, credential verification and the
// existence checks used for pre-submission validation.
type IdentityService interface {
	Register(ctx context.Context, in RegistrationInput) (*domain.User, error)
	// Authenticate returns ErrInvalidCredentials for an unknown email and for a
	// wrong password alike.
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	EmployeeIDExists(ctx context.Context, employeeID string) (bool, error)
	FindByEmployeeID(ctx context.Context, employeeID string) (*domain.User, error)
	EnsureBootstrapAdministrator(ctx context.Context) error
}

// PasswordHasher produces self-describing salted digests.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	// Verify never errors: a malformed digest simply does not match.
	Verify(plaintext, digest string) bool
}

// AuditSink accepts audit events without blocking the caller.
type AuditSink interface {
	Record(event domain.AuthEvent)
}
