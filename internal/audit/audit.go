package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/netdash/authcore/internal/store"
	"github.com/netdash/authcore/model"
	"github.com/netdash/authcore/params"
)

const (
	EventLogin                  = "login"
	EventMfaRequired            = "mfa_required"
	EventMfaVerified            = "mfa_verified"
	EventMfaReset               = "mfa_reset"
	EventMfaToggled             = "mfa_toggled"
	EventPasswordChanged        = "password_changed"
	EventPasswordResetRequested = "password_reset_requested"
	EventSessionTimeout         = "session_timeout"
)

type Details map[string]string

// Recorder appends security events to the append-only audit trail. Writes are
// best-effort: a storage failure is logged and swallowed so audit logging can
// never block authentication.
type Recorder struct {
	mu      sync.Mutex
	storage store.Storage
	now     func() time.Time
}

func NewRecorder(storage store.Storage) *Recorder {
	return &Recorder{
		storage: storage,
		now:     time.Now,
	}
}

func (r *Recorder) load(ctx context.Context) ([]model.AuditEntry, error) {
	var entries []model.AuditEntry
	err := r.storage.Get(ctx, params.AuditLogsKey, &entries)
	if err == store.ErrNotFound {
		return nil, nil
	}
	return entries, err
}

func (r *Recorder) Append(ctx context.Context, event string, details Details) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.load(ctx)
	if err != nil {
		slog.Error("Audit read failed, dropping event", "event", event, "error", err)
		return
	}
	entries = append(entries, model.AuditEntry{
		Timestamp: r.now().UTC(),
		Event:     event,
		Details:   details,
	})
	if err := r.storage.Save(ctx, params.AuditLogsKey, entries); err != nil {
		slog.Error("Audit write failed, dropping event", "event", event, "error", err)
	}
}

// List returns all entries oldest first, in append order.
func (r *Recorder) List(ctx context.Context) ([]model.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

// Clear wipes the trail. Admin action, irreversible.
func (r *Recorder) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.storage.Delete(ctx, params.AuditLogsKey)
}
