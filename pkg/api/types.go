// Package api holds the JSON request and response types of the HTTP
// surface. They are shared between the server handlers and any Go client,
// so wire compatibility lives in one place.
package api

import "time"

// ErrorResponse is the uniform error body for every non-2xx response.
type ErrorResponse struct {
	// Error is a stable machine-readable code (e.g. "invalid_request",
	// "forbidden", "invite_not_usable").
	Error string `json:"error"`

	// ErrorDescription is a human-readable explanation.
	ErrorDescription string `json:"error_description,omitempty"`
}

// HealthResponse is returned by the liveness and readiness probes.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports per-dependency readiness.
type HealthChecks struct {
	Database string `json:"database"`
}

// RegisterRequest creates an account.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest exchanges credentials for tokens.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries a freshly issued token pair.
type TokenResponse struct {
	// AccessToken is the JWT used to authenticate API requests.
	AccessToken string `json:"access_token"`

	// RefreshToken is the opaque token redeemed at /v1/auth/refresh. It is
	// shown exactly once; only its digest is stored server-side.
	RefreshToken string `json:"refresh_token"`

	// TokenType is always "Bearer".
	TokenType string `json:"token_type"`

	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64 `json:"expires_in"`
}

// RefreshRequest rotates a refresh token. Also used for logout.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// CreateGroupRequest creates a learning group.
type CreateGroupRequest struct {
	Name string `json:"name"`
}

// GroupResponse is a group as seen by the requesting member. JoinCode is
// present only when the requester holds the teacher role in the group.
type GroupResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	JoinCode  string    `json:"join_code,omitempty"`
	OwnerID   string    `json:"owner_id"`
	MyRole    string    `json:"my_role"`
	CreatedAt time.Time `json:"created_at"`
}

// JoinGroupRequest joins a group by its human-typable code.
type JoinGroupRequest struct {
	JoinCode string `json:"join_code"`
}

// JoinCodeResponse carries a group's (re)generated join code.
type JoinCodeResponse struct {
	JoinCode string `json:"join_code"`
}

// MemberResponse is one row of a group's member listing.
type MemberResponse struct {
	UserID   string    `json:"user_id"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// CreateInviteRequest mints an invite token for a group. All fields are
// optional: the defaults are the student role, unlimited uses, and a 7-day
// expiry.
type CreateInviteRequest struct {
	RoleGranted      string `json:"role_granted,omitempty"`
	MaxUses          *int   `json:"max_uses,omitempty"`
	ExpiresInMinutes *int   `json:"expires_in_minutes,omitempty"`
}

// InviteCreatedResponse is the one and only time the raw invite token is
// visible.
type InviteCreatedResponse struct {
	ID          string    `json:"id"`
	Token       string    `json:"token"`
	ExpiresAt   time.Time `json:"expires_at"`
	MaxUses     *int      `json:"max_uses,omitempty"`
	RoleGranted string    `json:"role_granted"`
}

// InviteSummaryResponse is the management view of an invite; the raw token
// is never recoverable.
type InviteSummaryResponse struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	Revoked     bool      `json:"revoked"`
	MaxUses     *int      `json:"max_uses,omitempty"`
	UsedCount   int       `json:"used_count"`
	RoleGranted string    `json:"role_granted"`
}

// AcceptInviteRequest redeems a raw invite token.
type AcceptInviteRequest struct {
	Token string `json:"token"`
}

// AcceptInviteResponse reports the group joined and the role granted.
type AcceptInviteResponse struct {
	Group       GroupResponse `json:"group"`
	RoleGranted string        `json:"role_granted"`
}
