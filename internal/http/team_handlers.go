package httpx

import (
	"net/http"

	"github.com/vinayak200306/primetrade-assignment/internal/domain"
)

type createTeamRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type addMemberRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (r *Router) handleTeams(w http.ResponseWriter, req *http.Request) {
	info, ok := r.currentUser(w, req)
	if !ok {
		return
	}
	switch req.Method {
	case http.MethodGet:
		teams, err := r.team.ListForUser(req.Context(), info.User.ID)
		if err != nil {
			r.writeServiceError(w, req, err)
			return
		}
		if teams == nil {
			teams = []domain.Team{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"teams": teams})
	case http.MethodPost:
		var payload createTeamRequest
		if err := r.decode(w, req, &payload); err != nil {
			r.writeServiceError(w, req, err)
			return
		}
		created, err := r.team.Create(req.Context(), info.User.ID, payload.Name)
		if err != nil {
			r.writeServiceError(w, req, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"team": created})
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleAddMember(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	info, ok := r.currentUser(w, req)
	if !ok {
		return
	}
	var payload addMemberRequest
	if err := r.decode(w, req, &payload); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	err := r.team.AddMember(req.Context(), req.PathValue("id"), info.User.ID, payload.Email)
	recordMemberAdd(err)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "member added"})
}
