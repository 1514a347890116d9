// Package memory is an in-process implementation of the repository interfaces
// with the same semantics as the PostgreSQL store. Tests and local tooling use it.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vinayak200306/primetrade-assignment/internal/domain"
	"github.com/vinayak200306/primetrade-assignment/internal/repository"
)

// Repository stores users, teams and tasks in maps guarded by one mutex.
type Repository struct {
	mu      sync.RWMutex
	users   map[string]domain.User
	teams   map[string]domain.Team
	members map[string][]domain.TeamMember
	tasks   map[string]storedTask
	seq     int64
}

type storedTask struct {
	task domain.Task
	seq  int64
}

var (
	_ repository.UserRepository = (*Repository)(nil)
	_ repository.TeamRepository = (*Repository)(nil)
	_ repository.TaskRepository = (*Repository)(nil)
)

// New returns an empty Repository.
func New() *Repository {
	return &Repository{
		users:   make(map[string]domain.User),
		teams:   make(map[string]domain.Team),
		members: make(map[string][]domain.TeamMember),
		tasks:   make(map[string]storedTask),
	}
}

// CreateUser stores a user; a taken email yields ErrConflict.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; ok {
		return repository.ErrConflict
	}
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repository.ErrConflict
		}
	}
	r.users[user.ID] = *user
	return nil
}

// GetUserByEmail fetches a user by normalized email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

// GetUserByID retrieves a user by identifier.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

// UpdateUser persists name and email changes and refreshes cached member details.
func (r *Repository) UpdateUser(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, existing := range r.users {
		if id != user.ID && existing.Email == user.Email {
			return repository.ErrConflict
		}
	}
	current.Name = user.Name
	current.Email = user.Email
	current.UpdatedAt = user.UpdatedAt
	r.users[user.ID] = current
	for teamID, list := range r.members {
		for i := range list {
			if list[i].UserID == user.ID {
				list[i].Name = user.Name
				list[i].Email = user.Email
			}
		}
		r.members[teamID] = list
	}
	return nil
}

// DeleteUser removes a user. Only used to simulate accounts vanishing after token issuance.
func (r *Repository) DeleteUser(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
}

// CreateTeam stores a team with its owner as the first member.
func (r *Repository) CreateTeam(ctx context.Context, team *domain.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.teams[team.ID]; ok {
		return repository.ErrConflict
	}
	if _, ok := r.users[team.OwnerID]; !ok {
		return repository.ErrInvalidReference
	}
	stored := *team
	stored.Members = nil
	r.teams[team.ID] = stored
	list := make([]domain.TeamMember, 0, len(team.Members))
	for _, m := range team.Members {
		m.TeamID = team.ID
		list = append(list, r.hydrate(m))
	}
	r.members[team.ID] = list
	return nil
}

func (r *Repository) hydrate(m domain.TeamMember) domain.TeamMember {
	if u, ok := r.users[m.UserID]; ok {
		m.Name = u.Name
		m.Email = u.Email
	}
	return m
}

func (r *Repository) teamWithMembers(team domain.Team) domain.Team {
	team.Members = append([]domain.TeamMember(nil), r.members[team.ID]...)
	return team
}

// GetTeamByID returns a team with its members.
func (r *Repository) GetTeamByID(ctx context.Context, teamID string) (*domain.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	team, ok := r.teams[teamID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	team = r.teamWithMembers(team)
	return &team, nil
}

// ListTeamsByUser returns teams the user belongs to.
func (r *Repository) ListTeamsByUser(ctx context.Context, userID string) ([]domain.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	teams := make([]domain.Team, 0)
	for teamID, list := range r.members {
		for _, m := range list {
			if m.UserID == userID {
				teams = append(teams, r.teamWithMembers(r.teams[teamID]))
				break
			}
		}
	}
	sort.Slice(teams, func(i, j int) bool {
		return teams[i].CreatedAt.After(teams[j].CreatedAt)
	})
	return teams, nil
}

// ListTeamIDsByUser returns identifiers of every team the user belongs to.
func (r *Repository) ListTeamIDsByUser(ctx context.Context, userID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0)
	for teamID, list := range r.members {
		for _, m := range list {
			if m.UserID == userID {
				ids = append(ids, teamID)
				break
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// AddMember appends a membership; duplicates surface as ErrConflict.
func (r *Repository) AddMember(ctx context.Context, member *domain.TeamMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.teams[member.TeamID]; !ok {
		return repository.ErrInvalidReference
	}
	if _, ok := r.users[member.UserID]; !ok {
		return repository.ErrInvalidReference
	}
	for _, m := range r.members[member.TeamID] {
		if m.UserID == member.UserID {
			return repository.ErrConflict
		}
	}
	r.members[member.TeamID] = append(r.members[member.TeamID], r.hydrate(*member))
	return nil
}

// CreateTask stores a task.
func (r *Repository) CreateTask(ctx context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[task.ID]; ok {
		return repository.ErrConflict
	}
	if task.TeamScoped() {
		if _, ok := r.teams[*task.TeamID]; !ok {
			return repository.ErrInvalidReference
		}
	}
	r.seq++
	r.tasks[task.ID] = storedTask{task: cloneTask(*task), seq: r.seq}
	return nil
}

// GetTaskByID fetches a task.
func (r *Repository) GetTaskByID(ctx context.Context, taskID string) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.tasks[taskID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	task := cloneTask(stored.task)
	return &task, nil
}

// ListTasks returns tasks matching filter, newest first.
func (r *Repository) ListTasks(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matched := make([]storedTask, 0)
	for _, stored := range r.tasks {
		if matches(stored.task, filter) {
			matched = append(matched, stored)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.task.CreatedAt.Equal(b.task.CreatedAt) {
			return a.task.CreatedAt.After(b.task.CreatedAt)
		}
		return a.seq > b.seq
	})
	tasks := make([]domain.Task, 0, len(matched))
	for _, stored := range matched {
		tasks = append(tasks, cloneTask(stored.task))
	}
	return tasks, nil
}

func matches(task domain.Task, filter domain.TaskFilter) bool {
	visible := task.UserID == filter.RequesterID
	if !visible && task.TeamScoped() {
		if filter.AnyTeam {
			visible = true
		} else {
			for _, id := range filter.TeamIDs {
				if id == *task.TeamID {
					visible = true
					break
				}
			}
		}
	}
	if !visible {
		return false
	}
	if filter.Search != "" && !strings.Contains(strings.ToLower(task.Title), strings.ToLower(filter.Search)) {
		return false
	}
	if filter.Status != "" && task.Status != filter.Status {
		return false
	}
	if filter.DueFrom != nil && filter.DueTo != nil {
		if task.DueDate == nil || task.DueDate.Before(*filter.DueFrom) || task.DueDate.After(*filter.DueTo) {
			return false
		}
	}
	return true
}

// UpdateTask applies changes and returns the stored task.
func (r *Repository) UpdateTask(ctx context.Context, taskID string, changes domain.TaskChanges) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tasks[taskID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	changes.Apply(&stored.task)
	stored.task.UpdatedAt = time.Now().UTC()
	r.tasks[taskID] = stored
	task := cloneTask(stored.task)
	return &task, nil
}

// DeleteTask removes a task.
func (r *Repository) DeleteTask(ctx context.Context, taskID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[taskID]; !ok {
		return repository.ErrNotFound
	}
	delete(r.tasks, taskID)
	return nil
}

func cloneTask(task domain.Task) domain.Task {
	if task.TeamID != nil {
		team := *task.TeamID
		task.TeamID = &team
	}
	if task.DueDate != nil {
		due := *task.DueDate
		task.DueDate = &due
	}
	return task
}
