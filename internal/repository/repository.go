package repository

import (
	"context"

	"github.com/vinayak200306/primetrade-assignment/internal/domain"
)

// UserRepository persists users. Emails are stored normalized.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
}

// TeamRepository manages teams and memberships.
type TeamRepository interface {
	// CreateTeam stores the team together with its owner's membership.
	CreateTeam(ctx context.Context, team *domain.Team) error
	GetTeamByID(ctx context.Context, teamID string) (*domain.Team, error)
	ListTeamsByUser(ctx context.Context, userID string) ([]domain.Team, error)
	ListTeamIDsByUser(ctx context.Context, userID string) ([]string, error)
	// AddMember returns ErrConflict when the user is already a member.
	AddMember(ctx context.Context, member *domain.TeamMember) error
}

// TaskRepository persists tasks.
type TaskRepository interface {
	CreateTask(ctx context.Context, task *domain.Task) error
	GetTaskByID(ctx context.Context, taskID string) (*domain.Task, error)
	// ListTasks returns visible tasks matching filter, newest first.
	ListTasks(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, error)
	UpdateTask(ctx context.Context, taskID string, changes domain.TaskChanges) (*domain.Task, error)
	DeleteTask(ctx context.Context, taskID string) error
}
