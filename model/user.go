package model

import "time"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleViewer Role = "viewer"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleViewer
}

type UserStatus string

const (
	StatusActive   UserStatus = "active"
	StatusDisabled UserStatus = "disabled"
)

// User stores a dashboard operator account
type User struct {
	ID           uint64     `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"passwordHash"` // hex-encoded SHA-256 digest
	Role         Role       `json:"role"`
	Status       UserStatus `json:"status"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
}

func (u *User) Disabled() bool {
	return u.Status == StatusDisabled
}
