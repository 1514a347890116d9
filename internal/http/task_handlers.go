package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/vinayak200306/primetrade-assignment/internal/domain"
	"github.com/vinayak200306/primetrade-assignment/internal/service/task"
)

const dateOnly = "2006-01-02"

type createTaskRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description string  `json:"description" validate:"max=2000"`
	Status      string  `json:"status"`
	Team        *string `json:"team"`
	DueDate     *string `json:"dueDate"`
}

type updateTaskRequest struct {
	Title       *string         `json:"title" validate:"omitempty,max=200"`
	Description *string         `json:"description" validate:"omitempty,max=2000"`
	Status      *string         `json:"status"`
	DueDate     json.RawMessage `json:"dueDate"`
}

func (r *Router) handleTasks(w http.ResponseWriter, req *http.Request) {
	info, ok := r.currentUser(w, req)
	if !ok {
		return
	}
	switch req.Method {
	case http.MethodGet:
		r.listTasks(w, req, info)
	case http.MethodPost:
		r.createTask(w, req, info)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleTask(w http.ResponseWriter, req *http.Request) {
	info, ok := r.currentUser(w, req)
	if !ok {
		return
	}
	switch req.Method {
	case http.MethodPut:
		r.updateTask(w, req, info)
	case http.MethodDelete:
		deleted, err := r.task.Delete(req.Context(), info.requester(), req.PathValue("id"))
		if err != nil {
			r.writeServiceError(w, req, err)
			return
		}
		recordTaskMutation("deleted", deleted)
		writeJSON(w, http.StatusOK, map[string]any{"message": "task deleted"})
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) createTask(w http.ResponseWriter, req *http.Request, info authInfo) {
	var payload createTaskRequest
	if err := r.decode(w, req, &payload); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	in := task.CreateInput{
		Title:       payload.Title,
		Description: payload.Description,
		Status:      domain.TaskStatus(strings.TrimSpace(payload.Status)),
	}
	if payload.Team != nil {
		in.TeamID = *payload.Team
	}
	if payload.DueDate != nil && strings.TrimSpace(*payload.DueDate) != "" {
		due, err := parseDate("dueDate", *payload.DueDate, false)
		if err != nil {
			r.writeServiceError(w, req, err)
			return
		}
		in.DueDate = &due
	}
	created, err := r.task.Create(req.Context(), info.requester(), in)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	recordTaskMutation("created", created)
	writeJSON(w, http.StatusCreated, map[string]any{"task": created})
}

func (r *Router) listTasks(w http.ResponseWriter, req *http.Request, info authInfo) {
	query := req.URL.Query()
	filter := task.ListFilter{
		Search: query.Get("search"),
		Status: domain.TaskStatus(strings.TrimSpace(query.Get("status"))),
	}
	if raw := strings.TrimSpace(query.Get("from")); raw != "" {
		from, err := parseDate("from", raw, false)
		if err != nil {
			r.writeServiceError(w, req, err)
			return
		}
		filter.From = &from
	}
	if raw := strings.TrimSpace(query.Get("to")); raw != "" {
		to, err := parseDate("to", raw, true)
		if err != nil {
			r.writeServiceError(w, req, err)
			return
		}
		filter.To = &to
	}
	tasks, err := r.task.List(req.Context(), info.requester(), filter)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(tasks),
		"tasks": tasks,
	})
}

func (r *Router) updateTask(w http.ResponseWriter, req *http.Request, info authInfo) {
	var payload updateTaskRequest
	if err := r.decode(w, req, &payload); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	patch := task.Patch{
		Title:       payload.Title,
		Description: payload.Description,
	}
	if payload.Status != nil {
		status := domain.TaskStatus(strings.TrimSpace(*payload.Status))
		patch.Status = &status
	}
	if len(payload.DueDate) > 0 {
		if bytes.Equal(bytes.TrimSpace(payload.DueDate), []byte("null")) {
			patch.ClearDueDate = true
		} else {
			var raw string
			if err := json.Unmarshal(payload.DueDate, &raw); err != nil {
				r.writeServiceError(w, req, invalidDate("dueDate"))
				return
			}
			if strings.TrimSpace(raw) == "" {
				patch.ClearDueDate = true
			} else {
				due, err := parseDate("dueDate", raw, false)
				if err != nil {
					r.writeServiceError(w, req, err)
					return
				}
				patch.DueDate = &due
			}
		}
	}
	updated, err := r.task.Update(req.Context(), info.requester(), req.PathValue("id"), patch)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	recordTaskMutation("updated", updated)
	writeJSON(w, http.StatusOK, map[string]any{"task": updated})
}

// parseDate accepts RFC 3339 timestamps and calendar dates. With endOfDay a
// calendar date covers the whole day so that an inclusive upper bound keeps
// tasks due later on that date.
func parseDate(field, value string, endOfDay bool) (time.Time, error) {
	value = strings.TrimSpace(value)
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts.UTC(), nil
	}
	day, err := time.Parse(dateOnly, value)
	if err != nil {
		return time.Time{}, invalidDate(field)
	}
	if endOfDay {
		day = day.Add(24*time.Hour - time.Nanosecond)
	}
	return day, nil
}

func invalidDate(field string) error {
	return domain.Validation("invalid date", domain.FieldError{
		Field:   field,
		Message: field + " must be a date (YYYY-MM-DD) or an RFC 3339 timestamp",
	})
}
