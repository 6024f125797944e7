package auth

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/ansuz/internal/apperr"
)

func testService(t *testing.T) *Service {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "auth.db") + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	svc, err := NewService(conn, 0, 0)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestSignUpThenSignIn(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	u, sess, err := svc.SignUp(ctx, "ada@example.com", "hunter2")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if u.Email != "ada@example.com" || u.Username != "Admin" {
		t.Errorf("user = %+v", u)
	}
	if sess.ID == "" || sess.UserID != u.ID {
		t.Errorf("session = %+v", sess)
	}

	u2, sess2, err := svc.SignIn(ctx, "ada@example.com", "hunter2")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if u2.ID != u.ID {
		t.Errorf("SignIn user = %q, want %q", u2.ID, u.ID)
	}
	if sess2.ID == sess.ID {
		t.Error("SignIn reused the signup session id")
	}
}

func TestSignInRejectsWrongPassword(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	if _, _, err := svc.SignUp(ctx, "ada@example.com", "hunter2"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	_, _, err := svc.SignIn(ctx, "ada@example.com", "wrong")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSignInUnknownEmail(t *testing.T) {
	svc := testService(t)
	_, _, err := svc.SignIn(context.Background(), "nobody@example.com", "pw")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	if _, _, err := svc.SignUp(ctx, "ada@example.com", "hunter2"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	_, _, err := svc.SignUp(ctx, "ada@example.com", "other")
	if !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestSignUpStorageFailureIsNotDuplicate(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "auth.db") + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	svc, err := NewService(conn, 0, 0)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	conn.Close()

	_, _, err = svc.SignUp(context.Background(), "ada@example.com", "hunter2")
	if err == nil {
		t.Fatal("SignUp on closed db should fail")
	}
	if errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("storage failure reported as duplicate: %v", err)
	}
}

func TestValidateSession(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	u, sess, err := svc.SignUp(ctx, "ada@example.com", "hunter2")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	got, gotSess, err := svc.ValidateSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("ValidateSession: %v", err)
	}
	if got.ID != u.ID || gotSess.ID != sess.ID {
		t.Errorf("got user %q session %q", got.ID, gotSess.ID)
	}
}

func TestValidateSessionUnknown(t *testing.T) {
	svc := testService(t)
	_, _, err := svc.ValidateSession(context.Background(), "no-such-session")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestValidateSessionRenewsAfterActiveWindow(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	_, sess, err := svc.SignUp(ctx, "ada@example.com", "hunter2")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	// Move the clock past the active window but inside the idle window.
	svc.now = func() time.Time {
		return time.Now().Add(svc.activePeriod + time.Hour)
	}
	_, fresh, err := svc.ValidateSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("ValidateSession: %v", err)
	}
	if fresh.ID == sess.ID {
		t.Error("expected a renewed session with a new id")
	}

	// The replaced session is gone.
	svc.now = time.Now
	if _, _, err := svc.ValidateSession(ctx, sess.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("old session err = %v, want ErrNotFound", err)
	}
}

func TestValidateSessionExpiredIdle(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	_, sess, err := svc.SignUp(ctx, "ada@example.com", "hunter2")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	svc.now = func() time.Time {
		return time.Now().Add(svc.activePeriod + svc.idlePeriod + time.Hour)
	}
	if _, _, err := svc.ValidateSession(ctx, sess.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
