package params

import "time"

const (
	ServerBodyLimit    = 1048576 // 1 MiB
	ServerIdleTimeout  = 30 * time.Second
	ServerReadTimeout  = 10 * time.Second
	ServerWriteTimeout = 10 * time.Second

	// logical storage keys, kept compatible with the dashboard's persisted layout
	SystemUsersKey       = "systemUsers"
	AuditLogsKey         = "auditLogs"
	LegacyAdminHashKey   = "userPasswordHash" // legacy single-key admin hash, read-only fallback
	MfaSecretKeyPrefix   = "mfaSecret_"
	MfaEnabledKeyPrefix  = "mfaEnabled_"
	ResetTokenKeyPrefix  = "passwordReset_"
	HealthProbeKeyPrefix = "healthProbe_"

	TOTPSecretLength = 16              // base32 characters
	TOTPStepSeconds  = 30              // RFC 6238 time step
	TOTPDigits       = 6               // code length
	TOTPDriftSteps   = 2               // accepted clock drift, in steps either side
	ChallengeMaxAge  = 5 * time.Minute // MFA challenge token lifetime

	LockoutMaxAttempts   = 4 // consecutive failures before the account locks
	DefaultLockoutWindow = 5 * time.Minute

	DefaultIdleTimeout = 15 * time.Minute // authenticated session idle expiry
	IdleCheckInterval  = 30 * time.Second

	ChallengeMaxAttempts = 5 // wrong codes tolerated per MFA challenge

	PasswordMinLength    = 8
	ResetTokenExpiration = 1 * time.Hour

	BootstrapAdminID       = 1       // primordial admin, cannot be disabled or deleted
	BootstrapAdminUsername = "admin"
	DefaultAdminPassword   = "admin"    // documented demo credential
	DefaultViewerUsername  = "observer" // seed read-only account
	DefaultViewerPassword  = "observer"

	HealthCheckServerAddr = ":3001"
)
