package domain

import "time"

// Group is a learning group. The owner is the user who created it; ownership
// is a fact on the group row, not a membership role.
type Group struct {
	ID          string
	Name        string
	JoinCode    string // human-typable code, unique across groups
	OwnerUserID string
	CreatedAt   time.Time
}
