package model

import "time"

// Role values stored in users.role.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Status values stored in users.status.  Only active users may sign in and
// only active users count towards the user cap.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusPending  = "pending"
)

// User represents an application user record as stored in the `users`
// table.  PasswordHash never leaves the process: it is excluded from JSON so
// a User can be returned from admin endpoints as is.
type User struct {
	ID           uint64     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login"`
}

// IsActive reports whether the account may hold a session.
func (u *User) IsActive() bool { return u != nil && u.Status == StatusActive }

// IsAdmin reports whether the account has the admin role.
func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// ValidRole reports whether r is a known role.
func ValidRole(r string) bool { return r == RoleAdmin || r == RoleUser }
