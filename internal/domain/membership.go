package domain

import "time"

// GroupRole is the role a member holds within a single group.
type GroupRole string

const (
	GroupRoleTeacher GroupRole = "TEACHER"
	GroupRoleStudent GroupRole = "STUDENT"
)

// Valid reports whether r is one of the known group roles.
func (r GroupRole) Valid() bool {
	return r == GroupRoleTeacher || r == GroupRoleStudent
}

type Membership struct {
	ID       string
	UserID   string
	GroupID  string
	Role     GroupRole
	JoinedAt time.Time
}
