package service

import "errors"

// Service error taxonomy. Handlers translate these to protocol responses
// with errors.Is; services wrap them with call-site context where useful.
var (
	// Not found

	ErrGroupNotFound      = errors.New("group not found")
	ErrMembershipNotFound = errors.New("membership not found")
	ErrInviteNotFound     = errors.New("invite not found")

	// Invalid input

	ErrInvalidRequest = errors.New("invalid request")

	// Conflicts

	ErrAlreadyMember = errors.New("user already belongs to this group")
	ErrEmailTaken    = errors.New("email already registered")

	// ErrInviteNotUsable collapses revoked, expired, exhausted, and
	// already-used-by-this-user into one answer so a caller cannot probe
	// which condition failed.
	ErrInviteNotUsable = errors.New("invite is not usable")

	// Policy violations

	ErrForbidden         = errors.New("forbidden")
	ErrCannotRemoveOwner = errors.New("cannot remove group owner")

	// Credentials

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRefresh     = errors.New("invalid refresh token")
)
