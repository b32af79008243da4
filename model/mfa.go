package model

// MfaEnrollment is the per-username TOTP enrollment. Enabled implies a
// non-empty secret; the secret must never be written to the audit log.
type MfaEnrollment struct {
	OwnerUsername string `json:"ownerUsername"`
	Secret        string `json:"secret"` // base32, 16 characters
	Enabled       bool   `json:"enabled"`
}
