package lockout

import (
	"sync"
	"time"
)

// Tracker counts consecutive failed login attempts and enforces a timed lock.
// State is deliberately in-memory only: with a client-side store this is a
// cosmetic rate control, not a hard security boundary.
type Tracker struct {
	mu          sync.Mutex
	maxAttempts int
	window      time.Duration
	failedCount int
	lockedUntil time.Time
	unlockTimer *time.Timer
	now         func() time.Time
}

func NewTracker(maxAttempts int, window time.Duration) *Tracker {
	return &Tracker{
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
	}
}

// RecordFailure registers one failed attempt. The lock triggers strictly
// after the maxAttempts-th consecutive failure and auto-releases once the
// window elapses.
func (t *Tracker) RecordFailure() (locked bool, attemptsRemaining int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.expireLocked()
	if t.locked() {
		return true, 0
	}

	t.failedCount++
	if t.failedCount >= t.maxAttempts {
		t.lockedUntil = t.now().Add(t.window)
		t.stopTimer()
		t.unlockTimer = time.AfterFunc(t.window, t.Reset)
		return true, 0
	}
	return false, t.maxAttempts - t.failedCount
}

// IsLocked reports the lock state and the whole seconds left until release.
func (t *Tracker) IsLocked() (locked bool, remainingSeconds int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.expireLocked()
	if !t.locked() {
		return false, 0
	}
	remaining := t.lockedUntil.Sub(t.now())
	seconds := int((remaining + time.Second - 1) / time.Second)
	return true, seconds
}

// Reset clears the failure counter and releases any active lock. Called on
// successful login and by the unlock timer.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failedCount = 0
	t.lockedUntil = time.Time{}
	t.stopTimer()
}

func (t *Tracker) locked() bool {
	return !t.lockedUntil.IsZero() && t.now().Before(t.lockedUntil)
}

// expireLocked drops a lock whose window already elapsed. The unlock timer
// normally does this, but callers must not observe a stale lock in the gap
// before it fires. Caller holds t.mu.
func (t *Tracker) expireLocked() {
	if !t.lockedUntil.IsZero() && !t.now().Before(t.lockedUntil) {
		t.failedCount = 0
		t.lockedUntil = time.Time{}
		t.stopTimer()
	}
}

func (t *Tracker) stopTimer() {
	if t.unlockTimer != nil {
		t.unlockTimer.Stop()
		t.unlockTimer = nil
	}
}
