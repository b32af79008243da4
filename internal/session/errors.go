package session

import "errors"

var (
	ErrInvalidCredentials        = errors.New("invalid username or password")
	ErrNoPendingChallenge        = errors.New("no pending mfa challenge")
	ErrChallengeExpired          = errors.New("mfa challenge expired")
	ErrChallengeAttemptsExceeded = errors.New("too many failed mfa attempts")
	ErrNotAuthenticated          = errors.New("not authenticated")
)
