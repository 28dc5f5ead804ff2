// Package session bridges server-side session state and the per-request
// principal: it reconstructs the principal on every request, writes it on
// login and destroys the whole session on logout.
package session

import (
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	echosession "github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/trackerpro/tracker-auth/internal/core/domain"
)

// Well-known session keys holding the principal.
const (
	KeyUserID = "userId"
	KeyEmail  = "userEmail"
	KeyRole   = "userRole"
	KeyName   = "userName"
)

// renewer is implemented by stores that can rotate a session's id.
type renewer interface {
	Renew(r *http.Request, s *sessions.Session) error
}

// Bridge reads and writes the principal held in the named session. The
// session store itself is installed on the echo instance with
// echosession.Middleware.
type Bridge struct {
	store sessions.Store
	name  string
	log   zerolog.Logger
}

func NewBridge(store sessions.Store, name string, log zerolog.Logger) *Bridge {
	return &Bridge{store: store, name: name, log: log}
}

// Store returns the underlying session store.
func (b *Bridge) Store() sessions.Store {
	return b.store
}

// Load reconstructs the principal for the current request. An absent,
// unreadable or partially populated session yields false.
func (b *Bridge) Load(c echo.Context) (domain.Principal, bool) {
	sess, err := echosession.Get(b.name, c)
	if err != nil {
		b.log.Debug().Err(err).Msg("session unreadable, treating request as anonymous")
		return domain.Principal{}, false
	}
	return PrincipalFromValues(sess.Values)
}

// PrincipalFromValues rebuilds a principal from raw session values. Every
// identifying field must be present and well-typed; otherwise nothing is returned.
func PrincipalFromValues(values map[any]any) (domain.Principal, bool) {
	id, _ := values[KeyUserID].(string)
	email, _ := values[KeyEmail].(string)
	roleName, _ := values[KeyRole].(string)
	name, _ := values[KeyName].(string)

	if id == "" || email == "" || roleName == "" {
		return domain.Principal{}, false
	}
	role, err := domain.ParseRole(roleName)
	if err != nil {
		return domain.Principal{}, false
	}

	p := domain.Principal{UserID: id, Email: email, Role: role, Name: name}
	return p, p.Complete()
}

// Establish replaces whatever the session held with the principal of user and
// saves it in one write. Stores that support it also rotate the session id.
func (b *Bridge) Establish(c echo.Context, user *domain.User) (domain.Principal, error) {
	sess, err := echosession.Get(b.name, c)
	if sess == nil {
		return domain.Principal{}, fmt.Errorf("establish session: %w", err)
	}
	if err != nil {
		b.log.Debug().Err(err).Msg("replacing unreadable session")
	}

	if r, ok := b.store.(renewer); ok {
		if err := r.Renew(c.Request(), sess); err != nil {
			return domain.Principal{}, fmt.Errorf("establish session: %w", err)
		}
	}

	p := user.Principal()
	clear(sess.Values)
	sess.Values[KeyUserID] = p.UserID
	sess.Values[KeyEmail] = p.Email
	sess.Values[KeyRole] = p.Role.String()
	sess.Values[KeyName] = p.Name

	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return domain.Principal{}, fmt.Errorf("establish session: %w", err)
	}
	return p, nil
}

// Destroy invalidates the entire session, including any non-principal data.
func (b *Bridge) Destroy(c echo.Context) error {
	sess, err := echosession.Get(b.name, c)
	if sess == nil {
		return fmt.Errorf("destroy session: %w", err)
	}

	clear(sess.Values)
	sess.Options.MaxAge = -1
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}
