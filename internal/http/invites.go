package http

import (
	"encoding/json"
	"net/http"

	"github.com/lexloop/lexloop/internal/domain"
	"github.com/lexloop/lexloop/internal/service"
	"github.com/lexloop/lexloop/pkg/api"
	"github.com/lexloop/lexloop/pkg/httpx"
)

// InvitesHandler serves the invite lifecycle endpoints.
type InvitesHandler struct {
	InviteService *service.InviteService
}

// Create mints an invite token for a group. The raw token in the response
// is the only copy that will ever exist.
func (h *InvitesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req api.CreateInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w)
		return
	}

	created, err := h.InviteService.CreateInvite(
		r.Context(),
		r.PathValue("id"),
		httpx.UserIDFromContext(r.Context()),
		service.CreateInviteParams{
			RoleGranted:      domain.GroupRole(req.RoleGranted),
			MaxUses:          req.MaxUses,
			ExpiresInMinutes: req.ExpiresInMinutes,
		},
	)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, api.InviteCreatedResponse{
		ID:          created.InviteID,
		Token:       created.Token,
		ExpiresAt:   created.ExpiresAt,
		MaxUses:     created.MaxUses,
		RoleGranted: string(created.RoleGranted),
	})
}

// List returns a group's invites, newest first.
func (h *InvitesHandler) List(w http.ResponseWriter, r *http.Request) {
	invites, err := h.InviteService.ListInvites(r.Context(), r.PathValue("id"), httpx.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]api.InviteSummaryResponse, 0, len(invites))
	for _, inv := range invites {
		out = append(out, api.InviteSummaryResponse{
			ID:          inv.ID,
			CreatedAt:   inv.CreatedAt,
			ExpiresAt:   inv.ExpiresAt,
			Revoked:     inv.Revoked,
			MaxUses:     inv.MaxUses,
			UsedCount:   inv.UsedCount,
			RoleGranted: string(inv.RoleGranted),
		})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// Revoke invalidates an invite.
func (h *InvitesHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	err := h.InviteService.RevokeInvite(
		r.Context(),
		r.PathValue("id"),
		r.PathValue("inviteID"),
		httpx.UserIDFromContext(r.Context()),
	)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Recreate revokes an invite and mints its replacement.
func (h *InvitesHandler) Recreate(w http.ResponseWriter, r *http.Request) {
	created, err := h.InviteService.RecreateInvite(
		r.Context(),
		r.PathValue("id"),
		r.PathValue("inviteID"),
		httpx.UserIDFromContext(r.Context()),
	)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, api.InviteCreatedResponse{
		ID:          created.InviteID,
		Token:       created.Token,
		ExpiresAt:   created.ExpiresAt,
		MaxUses:     created.MaxUses,
		RoleGranted: string(created.RoleGranted),
	})
}

// Accept redeems a raw invite token for the caller.
func (h *InvitesHandler) Accept(w http.ResponseWriter, r *http.Request) {
	var req api.AcceptInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w)
		return
	}

	group, role, err := h.InviteService.AcceptInvite(r.Context(), req.Token, httpx.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, api.AcceptInviteResponse{
		Group: api.GroupResponse{
			ID:        group.ID,
			Name:      group.Name,
			OwnerID:   group.OwnerUserID,
			MyRole:    string(role),
			CreatedAt: group.CreatedAt,
		},
		RoleGranted: string(role),
	})
}
