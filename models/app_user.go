package models

import "time"

const (
	RoleBorrower = "borrower"
	RoleManager  = "manager"
)

// ValidRole reports whether role is one of the known user roles.
func ValidRole(role string) bool {
	return role == RoleBorrower || role == RoleManager
}

type AppUser struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	PhotoURL     string    `json:"photoURL,omitempty"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
