package domain

import "time"

// UserRole is the platform-level role of an account. Group-scoped roles
// (teacher/student) live on Membership, not here.
type UserRole string

const (
	UserRoleUser  UserRole = "USER"
	UserRoleAdmin UserRole = "ADMIN"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string // argon2id encoded
	Role         UserRole
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
