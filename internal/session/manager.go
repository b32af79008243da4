package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/netdash/authcore/internal/audit"
	"github.com/netdash/authcore/internal/lockout"
	"github.com/netdash/authcore/internal/otp"
	"github.com/netdash/authcore/internal/users"
	"github.com/netdash/authcore/model"
	"github.com/netdash/authcore/params"
)

type State int

const (
	StateUnauthenticated State = iota
	StateMfaPending
	StateAuthenticated
)

// LoginResult is the structured outcome of a login attempt. Success with
// MfaRequired means the password was correct but the session stays pending
// until the TOTP challenge is answered.
type LoginResult struct {
	Success           bool
	MfaRequired       bool
	ChallengeToken    string
	AttemptsRemaining int
	Locked            bool
	RetryAfterSeconds int
}

// Snapshot is the read-only view of the current session handed to callers
// for display and role gating.
type Snapshot struct {
	Authenticated  bool
	MfaPending     bool
	User           *model.User
	Role           model.Role
	LastActivityAt time.Time
}

type Config struct {
	Issuer            string // shown in authenticator apps
	MasterKey         string
	IdleTimeout       time.Duration
	IdleCheckInterval time.Duration
	ChallengeMaxAge   time.Duration
	Now               func() time.Time
}

// Manager owns the login state machine: Unauthenticated -> MfaPending ->
// Authenticated. The dashboard is single-operator, so there is one current
// session; the mutex gives login flows the same check-then-update atomicity
// the event-loop original relied on.
type Manager struct {
	mu sync.Mutex

	users   *users.UserService
	tracker *lockout.Tracker
	auditor *audit.Recorder

	issuer          string
	masterKey       []byte
	idleTimeout     time.Duration
	idleInterval    time.Duration
	challengeMaxAge time.Duration
	now             func() time.Time

	state              State
	currentUser        *model.User
	pendingUser        *model.User
	pendingChallengeID string
	pendingAttempts    int
	lastActivityAt     time.Time
	idleStop           chan struct{}
}

func NewManager(userService *users.UserService, tracker *lockout.Tracker, auditor *audit.Recorder, cfg Config) *Manager {
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = params.DefaultIdleTimeout
	}
	if cfg.IdleCheckInterval == 0 {
		cfg.IdleCheckInterval = params.IdleCheckInterval
	}
	if cfg.ChallengeMaxAge == 0 {
		cfg.ChallengeMaxAge = params.ChallengeMaxAge
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Manager{
		users:           userService,
		tracker:         tracker,
		auditor:         auditor,
		issuer:          cfg.Issuer,
		masterKey:       []byte(cfg.MasterKey),
		idleTimeout:     cfg.IdleTimeout,
		idleInterval:    cfg.IdleCheckInterval,
		challengeMaxAge: cfg.ChallengeMaxAge,
		now:             cfg.Now,
	}
}

// Login verifies the first factor. Credential failures come back as a
// structured result, never as an error; only storage failures are errors.
func (m *Manager) Login(ctx context.Context, username string, password string) (LoginResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if locked, remaining := m.tracker.IsLocked(); locked {
		return LoginResult{Locked: true, RetryAfterSeconds: remaining}, nil
	}

	ok, err := m.users.VerifyPassword(ctx, username, password)
	if err != nil {
		return LoginResult{}, err
	}

	var user *model.User
	if ok {
		if user, err = m.users.FindUser(ctx, username); err != nil {
			return LoginResult{}, err
		}
	}
	if !ok || user.Disabled() {
		locked, remaining := m.tracker.RecordFailure()
		result := LoginResult{AttemptsRemaining: remaining, Locked: locked}
		if locked {
			_, result.RetryAfterSeconds = m.tracker.IsLocked()
		}
		return result, nil
	}

	m.tracker.Reset()

	enrollment, err := m.users.GetMfaEnrollment(ctx, username)
	if err != nil && !errors.Is(err, users.ErrMfaNotEnrolled) {
		return LoginResult{}, err
	}
	if enrollment != nil && enrollment.Enabled {
		challengeID := uuid.NewString()
		token, err := m.issueChallengeToken(username, challengeID, m.now())
		if err != nil {
			return LoginResult{}, err
		}
		m.discardPendingLocked()
		m.state = StateMfaPending
		m.pendingUser = user
		m.pendingChallengeID = challengeID
		m.pendingAttempts = 0
		m.auditor.Append(ctx, audit.EventMfaRequired, audit.Details{"username": username})
		return LoginResult{Success: true, MfaRequired: true, ChallengeToken: token}, nil
	}

	if err := m.users.RecordLogin(ctx, username, m.now()); err != nil {
		return LoginResult{}, err
	}
	m.becomeAuthenticatedLocked(ctx, user)
	m.auditor.Append(ctx, audit.EventLogin, audit.Details{
		"username": username,
		"role":     string(user.Role),
	})
	return LoginResult{Success: true}, nil
}

// VerifyChallenge answers the pending MFA challenge. A wrong code keeps the
// session pending; an expired or mismatched token, or too many wrong codes,
// discards the pending identity entirely.
func (m *Manager) VerifyChallenge(ctx context.Context, token string, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateMfaPending {
		return false, ErrNoPendingChallenge
	}

	claims, err := m.parseChallengeToken(token, m.now())
	if err != nil || claims.ChallengeID != m.pendingChallengeID || claims.Username != m.pendingUser.Username {
		m.discardPendingLocked()
		m.state = StateUnauthenticated
		return false, ErrChallengeExpired
	}

	m.pendingAttempts++
	if m.pendingAttempts > params.ChallengeMaxAttempts {
		m.discardPendingLocked()
		m.state = StateUnauthenticated
		return false, ErrChallengeAttemptsExceeded
	}

	enrollment, err := m.users.GetMfaEnrollment(ctx, m.pendingUser.Username)
	if err != nil {
		return false, err
	}
	if !otp.VerifyCode(enrollment.Secret, code, m.now()) {
		return false, nil
	}

	user := m.pendingUser
	if err := m.users.RecordLogin(ctx, user.Username, m.now()); err != nil {
		return false, err
	}
	m.discardPendingLocked()
	m.becomeAuthenticatedLocked(ctx, user)
	m.auditor.Append(ctx, audit.EventMfaVerified, audit.Details{"username": user.Username})
	return true, nil
}

// CancelChallenge discards the pending identity. A verification still in
// flight finds the state changed and its result is ignored.
func (m *Manager) CancelChallenge() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateMfaPending {
		return
	}
	m.discardPendingLocked()
	m.state = StateUnauthenticated
}

func (m *Manager) Logout() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateAuthenticated {
		return
	}
	m.endSessionLocked()
}

// Touch refreshes the idle clock. Called on every tracked user interaction.
func (m *Manager) Touch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateAuthenticated {
		m.lastActivityAt = m.now()
	}
}

func (m *Manager) Session() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		MfaPending:     m.state == StateMfaPending,
		LastActivityAt: m.lastActivityAt,
	}
	if m.state == StateAuthenticated && m.currentUser != nil {
		user := *m.currentUser
		snap.Authenticated = true
		snap.User = &user
		snap.Role = user.Role
	}
	return snap
}

// Close stops the idle watcher. Used on shutdown and in tests.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopIdleWatchLocked()
}

func (m *Manager) becomeAuthenticatedLocked(ctx context.Context, user *model.User) {
	m.state = StateAuthenticated
	m.currentUser = user
	m.lastActivityAt = m.now()
	m.startIdleWatchLocked()
}

func (m *Manager) endSessionLocked() {
	m.stopIdleWatchLocked()
	m.state = StateUnauthenticated
	m.currentUser = nil
	m.lastActivityAt = time.Time{}
}

func (m *Manager) discardPendingLocked() {
	m.pendingUser = nil
	m.pendingChallengeID = ""
	m.pendingAttempts = 0
}

func (m *Manager) startIdleWatchLocked() {
	m.stopIdleWatchLocked()
	stop := make(chan struct{})
	m.idleStop = stop
	go m.idleWatch(stop)
}

func (m *Manager) stopIdleWatchLocked() {
	if m.idleStop != nil {
		close(m.idleStop)
		m.idleStop = nil
	}
}

func (m *Manager) idleWatch(stop chan struct{}) {
	ticker := time.NewTicker(m.idleInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if m.expireIfIdle() {
				return
			}
		}
	}
}

// expireIfIdle force-logs-out an authenticated session whose idle time
// exceeded the threshold. Returns true when the watcher should exit.
func (m *Manager) expireIfIdle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateAuthenticated {
		return true
	}
	if m.now().Sub(m.lastActivityAt) <= m.idleTimeout {
		return false
	}
	username := ""
	if m.currentUser != nil {
		username = m.currentUser.Username
	}
	m.idleStop = nil // the watcher exits on its own, nothing to close
	m.state = StateUnauthenticated
	m.currentUser = nil
	m.lastActivityAt = time.Time{}
	m.auditor.Append(context.Background(), audit.EventSessionTimeout, audit.Details{"username": username})
	return true
}
