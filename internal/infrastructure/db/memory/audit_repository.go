package memory

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/trackerpro/tracker-auth/internal/core/domain"
)

// AuditRepository writes audit events to the log instead of a database.
type AuditRepository struct {
	log zerolog.Logger
}

func NewAuditRepository(log zerolog.Logger) *AuditRepository {
	return &AuditRepository{log: log}
}

func (r *AuditRepository) InsertAuthEvent(_ context.Context, event *domain.AuthEvent) error {
	r.log.Info().
		Str("type", string(event.Type)).
		Str("email", event.Email).
		Str("user_id", event.UserID).
		Bool("success", event.Success).
		Str("reason", event.Reason).
		Time("at", event.At).
		Msg("auth event")
	return nil
}
