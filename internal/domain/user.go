package domain

import "time"

// Role enumerates the helpdesk roles.
type Role string

const (
	RoleClient  Role = "client"
	RoleAgent   Role = "agent"
	RoleManager Role = "manager"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleAgent, RoleManager:
		return true
	}
	return false
}

// IsStaff reports whether r is an agent or a manager.
func (r Role) IsStaff() bool {
	return r == RoleAgent || r == RoleManager
}

// User is a profile row of the role directory.
type User struct {
	ID        string
	Role      Role
	FullName  string
	AvatarURL *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserRef is the joined view of a user referenced by another record.
type UserRef struct {
	ID       string
	FullName string
}

// Credential holds login material for a user.
type Credential struct {
	UserID       string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
