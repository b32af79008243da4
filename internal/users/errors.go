package users

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUsernameTaken     = errors.New("username already taken")
	ErrInvalidRole       = errors.New("invalid role")
	ErrProtectedUser     = errors.New("bootstrap admin cannot be modified")
	ErrPasswordTooShort  = errors.New("password must be at least 8 characters")
	ErrMfaNotEnrolled    = errors.New("mfa not enrolled")
	ErrResetTokenInvalid = errors.New("reset token invalid or expired")
)
