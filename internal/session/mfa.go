package session

import (
	"context"

	"github.com/netdash/authcore/internal/audit"
	"github.com/netdash/authcore/internal/otp"
)

// Enrollment is a two-phase commit: EnrollMfaBegin hands out a fresh secret
// for the authenticator app, EnrollMfaConfirm commits it only after the user
// proves the app produces matching codes.

func (m *Manager) EnrollMfaBegin(username string) (secret string, provisioningURL string, err error) {
	secret, err = otp.GenerateSecret()
	if err != nil {
		return "", "", err
	}
	return secret, otp.ProvisioningURL(m.issuer, username, secret), nil
}

func (m *Manager) EnrollMfaConfirm(ctx context.Context, username string, secret string, code string) (bool, error) {
	if !otp.VerifyCode(secret, code, m.now()) {
		return false, nil
	}
	if err := m.users.EnrollMfa(ctx, username, secret); err != nil {
		return false, err
	}
	m.auditor.Append(ctx, audit.EventMfaToggled, audit.Details{
		"username": username,
		"enabled":  "true",
	})
	return true, nil
}

func (m *Manager) DisableMfa(ctx context.Context, username string) error {
	if err := m.users.DisableMfa(ctx, username); err != nil {
		return err
	}
	m.auditor.Append(ctx, audit.EventMfaToggled, audit.Details{
		"username": username,
		"enabled":  "false",
	})
	return nil
}

// ResetMfa is the admin recovery path: it wipes another user's enrollment so
// they can re-enroll after losing their authenticator.
func (m *Manager) ResetMfa(ctx context.Context, username string) error {
	if err := m.users.DisableMfa(ctx, username); err != nil {
		return err
	}
	m.auditor.Append(ctx, audit.EventMfaReset, audit.Details{"username": username})
	return nil
}
