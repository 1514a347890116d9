package httpx

import (
	"errors"
	"net/http"

	"github.com/vinayak200306/primetrade-assignment/internal/domain"
	"github.com/vinayak200306/primetrade-assignment/internal/service/auth"
	"github.com/vinayak200306/primetrade-assignment/internal/service/user"
)

type signupRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type profileRequest struct {
	Name  *string `json:"name" validate:"omitempty,max=100"`
	Email *string `json:"email" validate:"omitempty,email"`
}

func (r *Router) handleSignup(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload signupRequest
	if err := r.decode(w, req, &payload); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	created, token, err := r.auth.Signup(req.Context(), auth.SignupInput{
		Name:     payload.Name,
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"token": token,
		"user":  created,
	})
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload loginRequest
	if err := r.decode(w, req, &payload); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	found, token, err := r.auth.Login(req.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			recordAuthFailure(authFailBadCredentials)
		}
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  found,
	})
}

func (r *Router) handleProfile(w http.ResponseWriter, req *http.Request) {
	info, ok := r.currentUser(w, req)
	if !ok {
		return
	}
	switch req.Method {
	case http.MethodGet:
		profile, err := r.user.Profile(req.Context(), info.User.ID)
		if err != nil {
			r.writeServiceError(w, req, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": profile})
	case http.MethodPut:
		var payload profileRequest
		if err := r.decode(w, req, &payload); err != nil {
			r.writeServiceError(w, req, err)
			return
		}
		updated, err := r.user.UpdateProfile(req.Context(), info.User.ID, user.ProfileUpdate{
			Name:  payload.Name,
			Email: payload.Email,
		})
		if err != nil {
			r.writeServiceError(w, req, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": updated})
	default:
		r.methodNotAllowed(w)
	}
}
