package redis

import (
	"encoding/base32"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "session:"
	sessionIDBytes   = 32
)

// SessionStore is a server-side gorilla sessions.Store. The cookie holds only
// a signed random session id; values live in Redis under session:<id> and
// expire with the session.
// Key format: session:<id>
type SessionStore struct {
	client  redis.Cmdable
	codecs  []securecookie.Codec
	options *sessions.Options
	encoder securecookie.GobEncoder
}

// NewSessionStore returns a SessionStore signing cookies with keyPairs (see
// securecookie.CodecsFromPairs). opts is copied into every new session.
func NewSessionStore(client redis.Cmdable, opts sessions.Options, keyPairs ...[]byte) *SessionStore {
	if opts.Path == "" {
		opts.Path = "/"
	}
	codecs := securecookie.CodecsFromPairs(keyPairs...)
	for _, c := range codecs {
		if sc, ok := c.(*securecookie.SecureCookie); ok && opts.MaxAge > 0 {
			sc.MaxAge(opts.MaxAge)
		}
	}
	return &SessionStore{client: client, codecs: codecs, options: &opts}
}

// Get returns the session cached for this request, loading it on first use.
func (s *SessionStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New loads the session named by the request cookie, or returns a fresh one.
// A missing, forged or expired cookie yields a new empty session.
func (s *SessionStore) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.options
	session.Options = &opts
	session.IsNew = true

	cookie, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}

	var id string
	if err := securecookie.DecodeMulti(name, cookie.Value, &id, s.codecs...); err != nil {
		return session, fmt.Errorf("decode session cookie: %w", err)
	}

	data, err := s.client.Get(r.Context(), s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return session, nil
		}
		return session, fmt.Errorf("load session: %w", err)
	}
	if err := s.encoder.Deserialize(data, &session.Values); err != nil {
		return session, fmt.Errorf("decode session: %w", err)
	}

	session.ID = id
	session.IsNew = false
	return session, nil
}

// Save persists session and writes its cookie. A negative MaxAge deletes the
// stored values and expires the cookie.
func (s *SessionStore) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.client.Del(r.Context(), s.key(session.ID)).Err(); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		session.ID = newSessionID()
	}

	data, err := s.encoder.Serialize(session.Values)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	ttl := time.Duration(session.Options.MaxAge) * time.Second
	if err := s.client.Set(r.Context(), s.key(session.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.codecs...)
	if err != nil {
		return fmt.Errorf("encode session cookie: %w", err)
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

// Renew discards the stored copy of session and clears its id, so the next
// Save issues a fresh id.
func (s *SessionStore) Renew(r *http.Request, session *sessions.Session) error {
	if session.ID == "" {
		return nil
	}
	if err := s.client.Del(r.Context(), s.key(session.ID)).Err(); err != nil {
		return fmt.Errorf("renew session: %w", err)
	}
	session.ID = ""
	return nil
}

func (s *SessionStore) key(id string) string {
	return sessionKeyPrefix + id
}

func newSessionID() string {
	return strings.TrimRight(
		base32.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(sessionIDBytes)),
		"=",
	)
}
