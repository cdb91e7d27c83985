package client

import (
	"errors"
	"fmt"
	"time"

	"github.com/BuzzLyutic/shared-todo/internal/auth"
)

var (
	ErrInvalid      = errors.New("invalid input")
	ErrTodoNotFound = errors.New("task not found")
	ErrUserNotFound = errors.New("user not found")
	ErrWrongPin     = errors.New("wrong pin")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...)
}

// LockedOutError is returned while a user is locked out. No attempt is consumed.
type LockedOutError struct {
	Remaining time.Duration
}

func (e LockedOutError) Error() string {
	return fmt.Sprintf("too many attempts, try again in %ds", auth.RemainingSeconds(e.Remaining))
}

// WrongPinError reports a failed attempt. LockedFor is non-zero when this
// failure triggered a lockout.
type WrongPinError struct {
	AttemptsRemaining int
	LockedFor         time.Duration
}

func (e WrongPinError) Error() string {
	if e.LockedFor > 0 {
		return fmt.Sprintf("wrong pin, locked for %ds", auth.RemainingSeconds(e.LockedFor))
	}
	return fmt.Sprintf("wrong pin, %d attempts remaining", e.AttemptsRemaining)
}

func (e WrongPinError) Unwrap() error { return ErrWrongPin }

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}
