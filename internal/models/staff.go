// internal/models/staff.go
package models

import "time"

// Role is a staff permission level.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleAgent   Role = "AGENT"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleManager || r == RoleAgent
}

// CanAssign reports whether the role may assign cases to agents.
func (r Role) CanAssign() bool {
	return r == RoleAdmin || r == RoleManager
}

// StaffUser is a counsellor, manager or admin account.
type StaffUser struct {
	ID           string    `json:"userId"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Active       bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
}
