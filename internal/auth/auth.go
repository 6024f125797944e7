// Package auth implements the identity provider: users keyed by email
// with bcrypt-hashed passwords, and renewable sessions. Callers only
// ever see opaque identifiers; failure modes are collapsed at the API
// boundary.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"

	"github.com/starford/ansuz/internal/apperr"
)

// Default session windows: a session is refreshed when its active
// window has lapsed, and dies outright when the idle window has.
const (
	DefaultActivePeriod = 24 * time.Hour
	DefaultIdlePeriod   = 14 * 24 * time.Hour
)

// placeholderUsername is assigned to every new account; the admin UI
// renames users later.
const placeholderUsername = "Admin"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	username      TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	created_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
	id             TEXT PRIMARY KEY,
	user_id        TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	active_expires INTEGER NOT NULL,
	idle_expires   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
`

// User is an account as seen by callers.
type User struct {
	ID       string
	Email    string
	Username string
}

// Session is an authenticated session.
type Session struct {
	ID            string
	UserID        string
	ActiveExpires int64 // unix milliseconds
	IdleExpires   int64
}

// Provider is the identity-provider surface the API delegates to.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (User, Session, error)
	SignUp(ctx context.Context, email, password string) (User, Session, error)
	ValidateSession(ctx context.Context, sessionID string) (User, Session, error)
}

// Service is the SQLite-backed Provider.
type Service struct {
	conn         *sql.DB
	activePeriod time.Duration
	idlePeriod   time.Duration
	now          func() time.Time
}

var _ Provider = (*Service)(nil)

// NewService applies the auth schema and returns the provider.
func NewService(conn *sql.DB, activePeriod, idlePeriod time.Duration) (*Service, error) {
	if activePeriod <= 0 {
		activePeriod = DefaultActivePeriod
	}
	if idlePeriod <= 0 {
		idlePeriod = DefaultIdlePeriod
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		return nil, fmt.Errorf("auth: apply schema: %w", err)
	}
	return &Service{
		conn:         conn,
		activePeriod: activePeriod,
		idlePeriod:   idlePeriod,
		now:          time.Now,
	}, nil
}

// SignUp creates a user with a placeholder display name and opens a
// session for it.
func (s *Service) SignUp(ctx context.Context, email, password string) (User, Session, error) {
	if email == "" || password == "" {
		return User{}, Session{}, apperr.ErrNotFound
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, Session{}, fmt.Errorf("auth: hash password: %w", err)
	}
	u := User{ID: uuid.NewString(), Email: email, Username: placeholderUsername}
	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, username, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Username, string(hash), s.now().UnixMilli())
	if err != nil {
		var sqlErr sqlite3.Error
		if errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return User{}, Session{}, fmt.Errorf("auth: create user: %w", apperr.ErrAlreadyExists)
		}
		return User{}, Session{}, fmt.Errorf("auth: create user: %w", err)
	}
	sess, err := s.createSession(ctx, u.ID)
	if err != nil {
		return User{}, Session{}, err
	}
	return u, sess, nil
}

// SignIn authenticates by email and password and opens a session.
// Unknown email and wrong password are indistinguishable to callers.
func (s *Service) SignIn(ctx context.Context, email, password string) (User, Session, error) {
	var u User
	var hash string
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, email, username, password_hash FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Email, &u.Username, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, Session{}, apperr.ErrNotFound
	}
	if err != nil {
		return User{}, Session{}, fmt.Errorf("auth: lookup user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return User{}, Session{}, apperr.ErrNotFound
	}
	sess, err := s.createSession(ctx, u.ID)
	if err != nil {
		return User{}, Session{}, err
	}
	return u, sess, nil
}

// ValidateSession checks a session identifier and returns the owning
// user. A session past its active window but inside its idle window is
// replaced with a fresh one; a session past its idle window is removed.
func (s *Service) ValidateSession(ctx context.Context, sessionID string) (User, Session, error) {
	var sess Session
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, user_id, active_expires, idle_expires FROM sessions WHERE id = ?`, sessionID).
		Scan(&sess.ID, &sess.UserID, &sess.ActiveExpires, &sess.IdleExpires)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, Session{}, apperr.ErrNotFound
	}
	if err != nil {
		return User{}, Session{}, fmt.Errorf("auth: lookup session: %w", err)
	}

	now := s.now().UnixMilli()
	if now > sess.IdleExpires {
		_, _ = s.conn.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sess.ID)
		return User{}, Session{}, apperr.ErrNotFound
	}

	u, err := s.userByID(ctx, sess.UserID)
	if err != nil {
		return User{}, Session{}, err
	}

	if now > sess.ActiveExpires {
		// Renewal: replace the lapsed session with a fresh identifier.
		_, _ = s.conn.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sess.ID)
		fresh, err := s.createSession(ctx, sess.UserID)
		if err != nil {
			return User{}, Session{}, err
		}
		return u, fresh, nil
	}
	return u, sess, nil
}

func (s *Service) userByID(ctx context.Context, id string) (User, error) {
	var u User
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, email, username FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Email, &u.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, apperr.ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("auth: lookup user: %w", err)
	}
	return u, nil
}

func (s *Service) createSession(ctx context.Context, userID string) (Session, error) {
	now := s.now()
	sess := Session{
		ID:            uuid.NewString(),
		UserID:        userID,
		ActiveExpires: now.Add(s.activePeriod).UnixMilli(),
		IdleExpires:   now.Add(s.activePeriod + s.idlePeriod).UnixMilli(),
	}
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, active_expires, idle_expires) VALUES (?, ?, ?, ?)`,
		sess.ID, sess.UserID, sess.ActiveExpires, sess.IdleExpires)
	if err != nil {
		return Session{}, fmt.Errorf("auth: create session: %w", err)
	}
	return sess, nil
}
