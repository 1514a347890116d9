package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/vinayak200306/primetrade-assignment/internal/domain"
	"github.com/vinayak200306/primetrade-assignment/internal/repository"
	"github.com/vinayak200306/primetrade-assignment/pkg/config"
)

// Service enforces task visibility and ownership on top of the task store.
type Service struct {
	tasks  repository.TaskRepository
	teams  repository.TeamRepository
	logger *slog.Logger
	scope  string
}

// New constructs a Service. scope is config.TeamTaskScopeAny or config.TeamTaskScopeMember.
func New(tasks repository.TaskRepository, teams repository.TeamRepository, logger *slog.Logger, scope string) Service {
	if scope != config.TeamTaskScopeMember {
		scope = config.TeamTaskScopeAny
	}
	return Service{tasks: tasks, teams: teams, logger: logger, scope: scope}
}

// Requester identifies the caller and the teams it belongs to.
type Requester struct {
	UserID  string
	TeamIDs []string
}

func (r Requester) inTeam(teamID string) bool {
	return slices.Contains(r.TeamIDs, teamID)
}

var (
	errTitleRequired = domain.Validation("title is required")
	errTitleEmpty    = domain.Validation("title cannot be empty")
	errInvalidStatus = domain.Validation("status must be either pending or completed")
	errTaskNotFound  = domain.NotFound("task not found")
	errTeamNotFound  = domain.Validation("team not found")
	errNotTeamMember = domain.Forbidden("not a member of this team")
)

// CreateInput carries the fields of a new task. Zero values mean "not given".
type CreateInput struct {
	Title       string
	Description string
	Status      domain.TaskStatus
	TeamID      string
	DueDate     *time.Time
}

// Create stores a task owned by the requester.
func (s Service) Create(ctx context.Context, req Requester, in CreateInput) (*domain.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, errTitleRequired
	}
	status := in.Status
	if status == "" {
		status = domain.TaskStatusPending
	}
	if !status.Valid() {
		return nil, errInvalidStatus
	}

	var teamID *string
	if id := strings.TrimSpace(in.TeamID); id != "" {
		if err := s.checkTeam(ctx, req, id); err != nil {
			return nil, err
		}
		teamID = &id
	}

	now := time.Now().UTC()
	task := &domain.Task{
		ID:          domain.NewID(),
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Status:      status,
		UserID:      req.UserID,
		TeamID:      teamID,
		DueDate:     in.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.tasks.CreateTask(ctx, task); err != nil {
		if errors.Is(err, repository.ErrInvalidReference) {
			return nil, errTeamNotFound
		}
		return nil, fmt.Errorf("create task: %w", err)
	}
	s.logger.Info("task created", "task_id", task.ID, "user_id", req.UserID, "team_scoped", task.TeamScoped())
	return task, nil
}

func (s Service) checkTeam(ctx context.Context, req Requester, teamID string) error {
	if !domain.ValidID(teamID) {
		return errTeamNotFound
	}
	if _, err := s.teams.GetTeamByID(ctx, teamID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errTeamNotFound
		}
		return fmt.Errorf("load team: %w", err)
	}
	if s.scope == config.TeamTaskScopeMember && !req.inTeam(teamID) {
		return errNotTeamMember
	}
	return nil
}

// ListFilter narrows a listing. The date range applies only when both bounds are set.
type ListFilter struct {
	Search string
	Status domain.TaskStatus
	From   *time.Time
	To     *time.Time
}

// List returns the tasks visible to the requester, newest first.
func (s Service) List(ctx context.Context, req Requester, f ListFilter) ([]domain.Task, error) {
	filter := domain.TaskFilter{
		RequesterID: req.UserID,
		AnyTeam:     s.scope == config.TeamTaskScopeAny,
		TeamIDs:     req.TeamIDs,
		Search:      strings.TrimSpace(f.Search),
	}
	if f.Status.Valid() {
		filter.Status = f.Status
	}
	if f.From != nil && f.To != nil {
		filter.DueFrom = f.From
		filter.DueTo = f.To
	}
	tasks, err := s.tasks.ListTasks(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// Patch lists the fields to change. ClearDueDate removes the due date.
type Patch struct {
	Title        *string
	Description  *string
	Status       *domain.TaskStatus
	DueDate      *time.Time
	ClearDueDate bool
}

// Update applies patch to a task the requester may mutate.
func (s Service) Update(ctx context.Context, req Requester, taskID string, p Patch) (*domain.Task, error) {
	changes := domain.TaskChanges{
		Status:       p.Status,
		DueDate:      p.DueDate,
		ClearDueDate: p.ClearDueDate,
	}
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return nil, errTitleEmpty
		}
		changes.Title = &title
	}
	if p.Description != nil {
		description := strings.TrimSpace(*p.Description)
		changes.Description = &description
	}
	if p.Status != nil && !p.Status.Valid() {
		return nil, errInvalidStatus
	}

	if _, err := s.authorize(ctx, req, taskID, "update"); err != nil {
		return nil, err
	}
	updated, err := s.tasks.UpdateTask(ctx, taskID, changes)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errTaskNotFound
		}
		return nil, fmt.Errorf("update task: %w", err)
	}
	s.logger.Info("task updated", "task_id", taskID, "user_id", req.UserID)
	return updated, nil
}

// Delete removes a task the requester may mutate and returns the removed task.
func (s Service) Delete(ctx context.Context, req Requester, taskID string) (*domain.Task, error) {
	task, err := s.authorize(ctx, req, taskID, "delete")
	if err != nil {
		return nil, err
	}
	if err := s.tasks.DeleteTask(ctx, taskID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errTaskNotFound
		}
		return nil, fmt.Errorf("delete task: %w", err)
	}
	s.logger.Info("task deleted", "task_id", taskID, "user_id", req.UserID)
	return task, nil
}

func (s Service) authorize(ctx context.Context, req Requester, taskID, action string) (*domain.Task, error) {
	if !domain.ValidID(taskID) {
		return nil, errTaskNotFound
	}
	task, err := s.tasks.GetTaskByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errTaskNotFound
		}
		return nil, fmt.Errorf("load task: %w", err)
	}
	if !s.canMutate(req, *task) {
		return nil, domain.Forbidden(fmt.Sprintf("not authorized to %s this task", action))
	}
	return task, nil
}

// canMutate: the owner always may; team-scoped tasks follow the configured scope.
func (s Service) canMutate(req Requester, task domain.Task) bool {
	if task.UserID == req.UserID {
		return true
	}
	if !task.TeamScoped() {
		return false
	}
	if s.scope == config.TeamTaskScopeAny {
		return true
	}
	return req.inTeam(*task.TeamID)
}
