package domain

import "time"

// TaskStatus is the two-value lifecycle of a task.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	return s == TaskStatusPending || s == TaskStatusCompleted
}

// Task is a unit of work owned by a user and optionally scoped to a team.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	UserID      string     `json:"user"`
	TeamID      *string    `json:"team"`
	DueDate     *time.Time `json:"dueDate"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TeamScoped reports whether the task belongs to a team.
func (t Task) TeamScoped() bool {
	return t.TeamID != nil && *t.TeamID != ""
}

// TaskFilter narrows a task listing. Visibility fields are set by the service.
type TaskFilter struct {
	RequesterID string
	// AnyTeam makes every team-scoped task visible; otherwise only TeamIDs are.
	AnyTeam bool
	TeamIDs []string
	Search  string
	Status  TaskStatus
	DueFrom *time.Time
	DueTo   *time.Time
}

// TaskChanges lists the fields an update touches; nil means unchanged.
type TaskChanges struct {
	Title        *string
	Description  *string
	Status       *TaskStatus
	DueDate      *time.Time
	ClearDueDate bool
}

// Apply copies the present fields onto task.
func (c TaskChanges) Apply(task *Task) {
	if c.Title != nil {
		task.Title = *c.Title
	}
	if c.Description != nil {
		task.Description = *c.Description
	}
	if c.Status != nil {
		task.Status = *c.Status
	}
	if c.ClearDueDate {
		task.DueDate = nil
	} else if c.DueDate != nil {
		due := *c.DueDate
		task.DueDate = &due
	}
}
