package auth

import (
	"time"
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

type Account struct {
	ID           int        `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	FullName     string     `json:"fullName"`
	IsActive     bool       `json:"isActive"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// CanManageUsers reports whether the role may create, edit or delete admin accounts.
func CanManageUsers(role Role) bool {
	return role == RoleSuperAdmin
}

func CanManageAppointments(role Role) bool {
	return role.Valid()
}

func CanManageProperties(role Role) bool {
	return role.Valid()
}
