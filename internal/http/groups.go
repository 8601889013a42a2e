package http

import (
	"encoding/json"
	"net/http"

	"github.com/lexloop/lexloop/internal/service"
	"github.com/lexloop/lexloop/pkg/api"
	"github.com/lexloop/lexloop/pkg/httpx"
)

// GroupsHandler serves group creation, join-code membership, and member
// management.
type GroupsHandler struct {
	GroupService      *service.GroupService
	MembershipService *service.MembershipService
}

// Create makes a new group owned by the caller.
func (h *GroupsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req api.CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w)
		return
	}

	view, err := h.GroupService.CreateGroup(r.Context(), req.Name, httpx.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, groupResponse(view))
}

// ListMine lists the caller's groups.
func (h *GroupsHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	views, err := h.GroupService.MyGroups(r.Context(), httpx.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]api.GroupResponse, 0, len(views))
	for _, v := range views {
		out = append(out, groupResponse(v))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// Details returns one group as seen by the caller.
func (h *GroupsHandler) Details(w http.ResponseWriter, r *http.Request) {
	view, err := h.GroupService.GroupDetails(r.Context(), r.PathValue("id"), httpx.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, groupResponse(view))
}

// Join adds the caller to the group behind a join code.
func (h *GroupsHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req api.JoinGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w)
		return
	}

	view, err := h.GroupService.JoinByCode(r.Context(), req.JoinCode, httpx.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, groupResponse(view))
}

// ResetJoinCode replaces the group's join code.
func (h *GroupsHandler) ResetJoinCode(w http.ResponseWriter, r *http.Request) {
	code, err := h.GroupService.ResetJoinCode(r.Context(), r.PathValue("id"), httpx.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, api.JoinCodeResponse{JoinCode: code})
}

// ListMembers lists a group's members.
func (h *GroupsHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.GroupService.ListMembers(r.Context(), r.PathValue("id"), httpx.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]api.MemberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, api.MemberResponse{
			UserID:   m.UserID,
			Email:    m.Email,
			Role:     string(m.Role),
			JoinedAt: m.JoinedAt,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// RemoveMember removes a member from the group, subject to the removal
// policy.
func (h *GroupsHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	err := h.MembershipService.RemoveMember(
		r.Context(),
		r.PathValue("id"),
		r.PathValue("userID"),
		httpx.UserIDFromContext(r.Context()),
	)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Leave removes the caller from the group.
func (h *GroupsHandler) Leave(w http.ResponseWriter, r *http.Request) {
	err := h.MembershipService.LeaveGroup(r.Context(), r.PathValue("id"), httpx.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func groupResponse(v service.GroupView) api.GroupResponse {
	return api.GroupResponse{
		ID:        v.ID,
		Name:      v.Name,
		JoinCode:  v.JoinCode,
		OwnerID:   v.OwnerID,
		MyRole:    string(v.MyRole),
		CreatedAt: v.CreatedAt,
	}
}
