package session

import (
	"context"

	"github.com/netdash/authcore/internal/audit"
)

// ChangePassword re-verifies the current password before storing the new
// one. Validation failures carry a labeled reason for display.
func (m *Manager) ChangePassword(ctx context.Context, username string, currentPlaintext string, newPlaintext string) error {
	ok, err := m.users.VerifyPassword(ctx, username, currentPlaintext)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCredentials
	}
	if err := m.users.SetPassword(ctx, username, newPlaintext); err != nil {
		return err
	}
	m.auditor.Append(ctx, audit.EventPasswordChanged, audit.Details{"username": username})
	return nil
}

// RequestPasswordReset mints a single-use reset token. Callers must not
// reveal to the requester whether the username exists.
func (m *Manager) RequestPasswordReset(ctx context.Context, username string) (string, error) {
	token, err := m.users.CreateResetToken(ctx, username)
	if err != nil {
		return "", err
	}
	m.auditor.Append(ctx, audit.EventPasswordResetRequested, audit.Details{"username": username})
	return token, nil
}

func (m *Manager) ConfirmPasswordReset(ctx context.Context, token string, newPlaintext string) error {
	username, err := m.users.ResetPassword(ctx, token, newPlaintext)
	if err != nil {
		return err
	}
	m.auditor.Append(ctx, audit.EventPasswordChanged, audit.Details{
		"username": username,
		"method":   "reset",
	})
	return nil
}
