package auth

import (
	"sync"
	"time"
)

const (
	MaxAttempts     = 3
	LockoutDuration = 30 * time.Second
)

type LockoutState struct {
	Attempts    int        `json:"attempts"`
	LockedUntil *time.Time `json:"locked_until,omitempty"`
}

// LockoutTable tracks failed PIN attempts per user id. It lives with the
// client session and is never persisted server-side.
type LockoutTable struct {
	mu      sync.Mutex
	entries map[string]LockoutState
	now     func() time.Time
}

func NewLockoutTable(now func() time.Time) *LockoutTable {
	if now == nil {
		now = time.Now
	}
	return &LockoutTable{
		entries: make(map[string]LockoutState),
		now:     now,
	}
}

// IsLockedOut reports whether userID is locked and for how long. An expired
// lockout is dropped, returning the user to a clean state.
func (l *LockoutTable) IsLockedOut(userID string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lockedLocked(userID)
}

func (l *LockoutTable) lockedLocked(userID string) (bool, time.Duration) {
	st, ok := l.entries[userID]
	if !ok || st.LockedUntil == nil {
		return false, 0
	}
	now := l.now()
	if now.Before(*st.LockedUntil) {
		return true, st.LockedUntil.Sub(now)
	}
	delete(l.entries, userID)
	return false, 0
}

// Increment records a failed attempt. The third failure locks the user for
// LockoutDuration and resets the counter for the next cycle.
func (l *LockoutTable) Increment(userID string) LockoutState {
	l.mu.Lock()
	defer l.mu.Unlock()

	if locked, _ := l.lockedLocked(userID); locked {
		return l.entries[userID]
	}

	st := l.entries[userID]
	st.Attempts++
	if st.Attempts >= MaxAttempts {
		until := l.now().Add(LockoutDuration)
		st = LockoutState{LockedUntil: &until}
	}
	l.entries[userID] = st
	return st
}

func (l *LockoutTable) Clear(userID string) {
	l.mu.Lock()
	delete(l.entries, userID)
	l.mu.Unlock()
}

// AttemptsRemaining derives the remaining tries from the same entry the lockout
// check reads. A locked user has none.
func (l *LockoutTable) AttemptsRemaining(userID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if locked, _ := l.lockedLocked(userID); locked {
		return 0
	}
	return MaxAttempts - l.entries[userID].Attempts
}

func (l *LockoutTable) State(userID string) LockoutState {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lockedLocked(userID)
	return l.entries[userID]
}

// Reset drops every entry.
func (l *LockoutTable) Reset() {
	l.mu.Lock()
	l.entries = make(map[string]LockoutState)
	l.mu.Unlock()
}

// RemainingSeconds rounds a remaining lockout up to whole seconds for display.
func RemainingSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
