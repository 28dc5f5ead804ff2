package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/trackerpro/tracker-auth/internal/core/domain"
	"github.com/trackerpro/tracker-auth/internal/core/ports"
	"github.com/trackerpro/tracker-auth/internal/pkg/validation"
)

// timingGuard is hashed once and verified against when the email is unknown,
// so a miss costs the same as a wrong password.
const timingGuard = "trackerpro-timing-guard"

type rehashChecker interface {
	NeedsRehash(digest string) bool
}

// IdentityService implements registration, authentication and bootstrap seeding.
type IdentityService struct {
	repo     ports.UserRepository
	hasher   ports.PasswordHasher
	audit    ports.AuditSink
	validate *validator.Validate
	log      zerolog.Logger
	now      func() time.Time

	dummyOnce   sync.Once
	dummyDigest string
}

// NewIdentityService returns an IdentityService. audit may be nil.
func NewIdentityService(
	repo ports.UserRepository,
	hasher ports.PasswordHasher,
	audit ports.AuditSink,
	log zerolog.Logger,
) *IdentityService {
	if audit == nil {
		audit = nopAudit{}
	}
	return &IdentityService{
		repo:     repo,
		hasher:   hasher,
		audit:    audit,
		validate: validation.New(),
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// NormalizeEmail trims and lower-cases an email so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register validates the candidate, enforces email and employee-id uniqueness,
// hashes the password and persists a new RoleUser account.
func (s *IdentityService) Register(ctx context.Context, in ports.RegistrationInput) (*domain.User, error) {
	in.Email = NormalizeEmail(in.Email)
	in.EmployeeID = strings.TrimSpace(in.EmployeeID)
	in.FullName = strings.TrimSpace(in.FullName)
	in.Department = strings.TrimSpace(in.Department)
	in.MobileNo = strings.TrimSpace(in.MobileNo)
	in.Role = strings.TrimSpace(in.Role)

	user, err := s.register(ctx, in)
	event := domain.AuthEvent{Type: domain.EventRegister, Email: in.Email, Success: err == nil, At: s.now()}
	if err != nil {
		event.Reason = err.Error()
		s.log.Info().Err(err).Str("email", in.Email).Str("emp_id", in.EmployeeID).Msg("registration rejected")
	} else {
		event.UserID = user.ID
		s.log.Info().Str("email", user.Email).Str("user_id", user.ID).Msg("user registered")
	}
	s.audit.Record(event)
	return user, err
}

func (s *IdentityService) register(ctx context.Context, in ports.RegistrationInput) (*domain.User, error) {
	// 1. Field validation and password confirmation, before any store access.
	if err := s.validate.Struct(in); err != nil {
		return nil, &domain.ValidationError{Fields: validation.Messages(err)}
	}
	if in.Password != in.ConfirmPassword {
		return nil, domain.ErrPasswordMismatch
	}

	// 2. Uniqueness pre-checks. Both keys are checked so a caller fixing one
	// conflict learns about the other in the same response.
	emailTaken, err := s.repo.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("register: check email: %w", err)
	}
	empTaken, err := s.repo.ExistsByEmployeeID(ctx, in.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("register: check employee id: %w", err)
	}
	var conflicts []error
	if emailTaken {
		conflicts = append(conflicts, domain.ErrDuplicateEmail)
	}
	if empTaken {
		conflicts = append(conflicts, domain.ErrDuplicateEmployeeID)
	}
	if len(conflicts) > 0 {
		return nil, errors.Join(conflicts...)
	}

	// 3. Hash and persist. The role supplied by the caller is ignored.
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, domain.ErrFieldValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	now := s.now()
	user := &domain.User{
		FullName:     in.FullName,
		Email:        in.Email,
		EmployeeID:   in.EmployeeID,
		Department:   in.Department,
		MobileNo:     in.MobileNo,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		Enabled:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// The store's own uniqueness constraint settles races the pre-checks cannot.
	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) || errors.Is(err, domain.ErrDuplicateEmployeeID) {
			return nil, err
		}
		return nil, fmt.Errorf("register: create user: %w", err)
	}
	return created, nil
}

// Authenticate returns the user whose email and password match, or
// ErrInvalidCredentials without saying which part was wrong.
func (s *IdentityService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = NormalizeEmail(email)

	user, err := s.authenticate(ctx, email, password)
	event := domain.AuthEvent{Type: domain.EventLogin, Email: email, Success: err == nil, At: s.now()}
	if err != nil {
		event.Reason = err.Error()
	} else {
		event.UserID = user.ID
	}
	s.audit.Record(event)
	return user, err
}

func (s *IdentityService) authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.hasher.Verify(password, s.timingDigest())
			s.log.Info().Str("email", email).Msg("login failed: unknown email")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.log.Info().Str("email", email).Msg("login failed: password mismatch")
		return nil, domain.ErrInvalidCredentials
	}
	if !user.Enabled {
		s.log.Warn().Str("email", email).Msg("login failed: account disabled")
		return nil, domain.ErrInvalidCredentials
	}

	s.upgradeDigest(ctx, user, password)
	return user, nil
}

// upgradeDigest re-hashes password with the current parameters when the
// stored digest is outdated. Failures are logged and never fail the login.
func (s *IdentityService) upgradeDigest(ctx context.Context, user *domain.User, password string) {
	rc, ok := s.hasher.(rehashChecker)
	if !ok || !rc.NeedsRehash(user.PasswordHash) {
		return
	}
	digest, err := s.hasher.Hash(password)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("password rehash failed")
		return
	}
	if err := s.repo.UpdatePasswordHash(ctx, user.ID, digest); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("password rehash not persisted")
		return
	}
	user.PasswordHash = digest
	s.log.Info().Str("user_id", user.ID).Msg("password digest upgraded")
}

func (s *IdentityService) timingDigest() string {
	s.dummyOnce.Do(func() {
		digest, err := s.hasher.Hash(timingGuard)
		if err != nil {
			s.log.Warn().Err(err).Msg("timing guard digest unavailable")
			return
		}
		s.dummyDigest = digest
	})
	return s.dummyDigest
}

// EmailExists applies the same normalisation and predicate Register uses.
func (s *IdentityService) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.repo.ExistsByEmail(ctx, NormalizeEmail(email))
}

// EmployeeIDExists applies the same normalisation and predicate Register uses.
func (s *IdentityService) EmployeeIDExists(ctx context.Context, employeeID string) (bool, error) {
	return s.repo.ExistsByEmployeeID(ctx, strings.TrimSpace(employeeID))
}

// FindByEmployeeID looks a user up by employee id.
func (s *IdentityService) FindByEmployeeID(ctx context.Context, employeeID string) (*domain.User, error) {
	return s.repo.FindByEmployeeID(ctx, strings.TrimSpace(employeeID))
}

// EnsureBootstrapAdministrator creates the well-known administrator account if
// it does not exist yet. Calling it again is a no-op.
func (s *IdentityService) EnsureBootstrapAdministrator(ctx context.Context) error {
	exists, err := s.repo.ExistsByEmail(ctx, domain.AdminEmail)
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	if exists {
		s.log.Debug().Str("email", domain.AdminEmail).Msg("bootstrap administrator already present")
		return nil
	}

	hash, err := s.hasher.Hash(domain.AdminPassword)
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	now := s.now()
	admin := &domain.User{
		FullName:     domain.AdminFullName,
		Email:        domain.AdminEmail,
		EmployeeID:   domain.AdminEmployeeID,
		Department:   domain.AdminDepartment,
		MobileNo:     domain.AdminMobileNo,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		Enabled:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, admin)
	if err != nil {
		// Another instance seeded it between our check and insert.
		if errors.Is(err, domain.ErrDuplicateEmail) || errors.Is(err, domain.ErrDuplicateEmployeeID) {
			return nil
		}
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	s.log.Info().Str("email", created.Email).Str("user_id", created.ID).Msg("bootstrap administrator created")
	s.audit.Record(domain.AuthEvent{
		Type:    domain.EventBootstrap,
		Email:   created.Email,
		UserID:  created.ID,
		Success: true,
		At:      now,
	})
	return nil
}

type nopAudit struct{}

func (nopAudit) Record(domain.AuthEvent) {}
