package client

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/shared-todo/internal/auth"
	"github.com/BuzzLyutic/shared-todo/internal/model"
)

// Directory resolves users and verifies PINs. API satisfies it.
type Directory interface {
	FindUser(ctx context.Context, name string) (model.User, error)
	Login(ctx context.Context, name, pin string) (model.User, error)
}

// Authenticator runs the PIN login flow with a local lockout table.
type Authenticator struct {
	dir      Directory
	lockout  *auth.LockoutTable
	sessions *auth.SessionStore
	logger   *zap.Logger
	now      func() time.Time
}

// NewAuthenticator builds an Authenticator. sessions may be nil to skip persisting the session.
func NewAuthenticator(dir Directory, sessions *auth.SessionStore, logger *zap.Logger) *Authenticator {
	return newAuthenticator(dir, sessions, logger, time.Now)
}

func newAuthenticator(dir Directory, sessions *auth.SessionStore, logger *zap.Logger, now func() time.Time) *Authenticator {
	return &Authenticator{
		dir:      dir,
		lockout:  auth.NewLockoutTable(now),
		sessions: sessions,
		logger:   logger,
		now:      now,
	}
}

// Lockout exposes the table so callers can show a countdown.
func (a *Authenticator) Lockout() *auth.LockoutTable { return a.lockout }

func (a *Authenticator) Login(ctx context.Context, name, pin string) (auth.Session, error) {
	if !auth.IsValidPin(pin) {
		return auth.Session{}, invalid("pin must be exactly 4 digits")
	}

	user, err := a.dir.FindUser(ctx, name)
	if err != nil {
		return auth.Session{}, err
	}

	if locked, remaining := a.lockout.IsLockedOut(user.ID); locked {
		return auth.Session{}, LockedOutError{Remaining: remaining}
	}

	verified, err := a.dir.Login(ctx, user.Name, pin)
	if errors.Is(err, ErrWrongPin) {
		state := a.lockout.Increment(user.ID)
		werr := WrongPinError{AttemptsRemaining: a.lockout.AttemptsRemaining(user.ID)}
		if state.LockedUntil != nil {
			werr.LockedFor = state.LockedUntil.Sub(a.now())
			werr.AttemptsRemaining = 0
		}
		a.logger.Info("Wrong pin",
			zap.String("user", user.Name),
			zap.Int("attempts_remaining", werr.AttemptsRemaining))
		return auth.Session{}, werr
	}
	if err != nil {
		return auth.Session{}, err
	}

	a.lockout.Clear(user.ID)
	sess := auth.Session{
		UserID:     verified.ID,
		UserName:   verified.Name,
		Color:      verified.Color,
		LoggedInAt: a.now(),
	}
	if a.sessions != nil {
		if err := a.sessions.Save(sess); err != nil {
			return auth.Session{}, err
		}
	}
	return sess, nil
}

func (a *Authenticator) Logout() error {
	if a.sessions == nil {
		return nil
	}
	return a.sessions.Clear()
}
