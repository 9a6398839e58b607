package models

import (
	"time"

	"github.com/google/uuid"
)

// Role decides which admin sections an account may open.
type Role string

const (
	RoleAdmin  Role = "admin"  // everything, including analytics and settings
	RoleEditor Role = "editor" // pages and categories
)

// User is an admin panel account. TOTPSecret is set during enrollment;
// 2FA counts as configured only once TOTPEnabled is true.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	DisplayName  string
	Role         Role
	TOTPSecret   *string
	TOTPEnabled  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// Needs2FASetup ignores a stored secret from an enrollment that was never
// confirmed.
func (u *User) Needs2FASetup() bool { return !u.TOTPEnabled }
