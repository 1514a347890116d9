package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/vinayak200306/primetrade-assignment/internal/domain"
	"github.com/vinayak200306/primetrade-assignment/internal/service/task"
)

type authContextKey string

type authInfo struct {
	User    *domain.User
	TeamIDs []string
}

const contextKeyAuth authContextKey = "todo-auth-info"

const msgNotAuthorized = "not authorized to access this route"

type contextSetter interface {
	SetContext(context.Context)
}

// requireAuth ensures the request has a valid bearer token before invoking the handler.
func (r *Router) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx, _, ok := r.ensureAuth(w, req)
		if !ok {
			return
		}
		if setter, ok := w.(contextSetter); ok {
			setter.SetContext(ctx)
		}
		next(w, req.WithContext(ctx))
	}
}

// ensureAuth validates the Authorization header, loads the user with its
// team memberships and enriches the context.
func (r *Router) ensureAuth(w http.ResponseWriter, req *http.Request) (context.Context, authInfo, bool) {
	token, err := bearerToken(req.Header.Get("Authorization"))
	if err != nil {
		r.logger.Warn("authorization header invalid", "error", err, "path", req.URL.Path)
		recordAuthFailure(authFailBadHeader)
		writeError(w, http.StatusUnauthorized, msgNotAuthorized)
		return req.Context(), authInfo{}, false
	}
	user, err := r.auth.Authorize(req.Context(), token)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			r.logger.Warn("token validation failed", "error", err, "path", req.URL.Path)
			recordAuthFailure(authFailInvalidToken)
			writeError(w, http.StatusUnauthorized, msgNotAuthorized)
		} else {
			r.writeServiceError(w, req, err)
		}
		return req.Context(), authInfo{}, false
	}
	teamIDs, err := r.team.MemberTeamIDs(req.Context(), user.ID)
	if err != nil {
		r.writeServiceError(w, req, err)
		return req.Context(), authInfo{}, false
	}
	info := authInfo{User: user, TeamIDs: teamIDs}
	ctx := context.WithValue(req.Context(), contextKeyAuth, info)
	return ctx, info, true
}

// authInfoFromContext extracts auth metadata from context.
func authInfoFromContext(ctx context.Context) (authInfo, bool) {
	value := ctx.Value(contextKeyAuth)
	if value == nil {
		return authInfo{}, false
	}
	info, ok := value.(authInfo)
	return info, ok && info.User != nil
}

func (a authInfo) requester() task.Requester {
	return task.Requester{UserID: a.User.ID, TeamIDs: a.TeamIDs}
}

func bearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header format")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("empty bearer token")
	}
	return token, nil
}
