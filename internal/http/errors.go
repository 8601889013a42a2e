package http

import (
	"errors"
	"net/http"

	"github.com/lexloop/lexloop/internal/service"
	"github.com/lexloop/lexloop/pkg/api"
	"github.com/lexloop/lexloop/pkg/httpx"
	"github.com/lexloop/lexloop/pkg/slogx"
)

// writeServiceError maps the service error taxonomy onto HTTP statuses and
// stable error codes, so every handler reports failures the same way.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		status int
		code   string
	)

	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		status, code = http.StatusBadRequest, "invalid_request"
	case errors.Is(err, service.ErrInvalidCredentials):
		status, code = http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, service.ErrInvalidRefresh):
		status, code = http.StatusUnauthorized, "invalid_refresh_token"
	case errors.Is(err, service.ErrForbidden):
		status, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, service.ErrCannotRemoveOwner):
		status, code = http.StatusForbidden, "cannot_remove_owner"
	case errors.Is(err, service.ErrGroupNotFound):
		status, code = http.StatusNotFound, "group_not_found"
	case errors.Is(err, service.ErrMembershipNotFound):
		status, code = http.StatusNotFound, "membership_not_found"
	case errors.Is(err, service.ErrInviteNotFound):
		status, code = http.StatusNotFound, "invite_not_found"
	case errors.Is(err, service.ErrEmailTaken):
		status, code = http.StatusConflict, "email_taken"
	case errors.Is(err, service.ErrAlreadyMember):
		status, code = http.StatusConflict, "already_member"
	case errors.Is(err, service.ErrInviteNotUsable):
		status, code = http.StatusConflict, "invite_not_usable"
	default:
		slogx.FromContext(r.Context()).Error("unhandled service error", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, api.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "An internal error occurred",
		})
		return
	}

	httpx.WriteJSON(w, status, api.ErrorResponse{
		Error:            code,
		ErrorDescription: err.Error(),
	})
}

func writeInvalidJSON(w http.ResponseWriter) {
	httpx.WriteJSON(w, http.StatusBadRequest, api.ErrorResponse{
		Error:            "invalid_request",
		ErrorDescription: "Invalid JSON body",
	})
}
