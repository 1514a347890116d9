package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vinayak200306/primetrade-assignment/internal/domain"
	"github.com/vinayak200306/primetrade-assignment/internal/repository"
)

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ensure Repository satisfies interfaces.
var (
	_ repository.UserRepository = (*Repository)(nil)
	_ repository.TeamRepository = (*Repository)(nil)
	_ repository.TaskRepository = (*Repository)(nil)
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgInvalidTextRepr     = "22P02"
)

// translate maps driver errors onto repository sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return repository.ErrConflict
		case pgForeignKeyViolation:
			return repository.ErrInvalidReference
		case pgInvalidTextRepr:
			return repository.ErrNotFound
		}
	}
	return err
}

const userColumns = `id, name, email, password_hash, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// CreateUser inserts a user.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	const query = `INSERT INTO users (id, name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.pool.Exec(ctx, query, user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	return translate(err)
}

// GetUserByEmail fetches a user by email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

// GetUserByID retrieves a user by identifier.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

// UpdateUser persists name and email changes.
func (r *Repository) UpdateUser(ctx context.Context, user *domain.User) error {
	const query = `UPDATE users SET name = $2, email = $3, updated_at = $4 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, user.ID, user.Name, user.Email, user.UpdatedAt)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CreateTeam creates a team record and its owner membership in one transaction.
func (r *Repository) CreateTeam(ctx context.Context, team *domain.Team) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const teamQuery = `INSERT INTO teams (id, name, owner_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5)`
		if _, err := tx.Exec(ctx, teamQuery, team.ID, team.Name, team.OwnerID, team.CreatedAt, team.UpdatedAt); err != nil {
			return translate(err)
		}
		const memberQuery = `INSERT INTO team_members (team_id, user_id, created_at) VALUES ($1, $2, $3)`
		for _, member := range team.Members {
			if _, err := tx.Exec(ctx, memberQuery, team.ID, member.UserID, member.CreatedAt); err != nil {
				return translate(err)
			}
		}
		return nil
	})
}

// GetTeamByID returns a team with its members.
func (r *Repository) GetTeamByID(ctx context.Context, teamID string) (*domain.Team, error) {
	const query = `SELECT id, name, owner_id, created_at, updated_at FROM teams WHERE id = $1`
	var team domain.Team
	if err := r.pool.QueryRow(ctx, query, teamID).Scan(&team.ID, &team.Name, &team.OwnerID, &team.CreatedAt, &team.UpdatedAt); err != nil {
		return nil, translate(err)
	}
	members, err := r.listMembers(ctx, []string{team.ID})
	if err != nil {
		return nil, err
	}
	team.Members = members[team.ID]
	return &team, nil
}

// ListTeamsByUser returns teams the user belongs to.
func (r *Repository) ListTeamsByUser(ctx context.Context, userID string) ([]domain.Team, error) {
	const query = `SELECT t.id, t.name, t.owner_id, t.created_at, t.updated_at
		FROM teams t
		INNER JOIN team_members tm ON tm.team_id = t.id
		WHERE tm.user_id = $1
		ORDER BY t.created_at DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	teams := make([]domain.Team, 0)
	ids := make([]string, 0)
	for rows.Next() {
		var team domain.Team
		if err := rows.Scan(&team.ID, &team.Name, &team.OwnerID, &team.CreatedAt, &team.UpdatedAt); err != nil {
			return nil, err
		}
		teams = append(teams, team)
		ids = append(ids, team.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return teams, nil
	}
	members, err := r.listMembers(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range teams {
		teams[i].Members = members[teams[i].ID]
	}
	return teams, nil
}

func (r *Repository) listMembers(ctx context.Context, teamIDs []string) (map[string][]domain.TeamMember, error) {
	const query = `SELECT tm.team_id, u.id, u.name, u.email, tm.created_at
		FROM team_members tm
		INNER JOIN users u ON u.id = tm.user_id
		WHERE tm.team_id = ANY($1)
		ORDER BY tm.created_at ASC`
	rows, err := r.pool.Query(ctx, query, teamIDs)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	members := make(map[string][]domain.TeamMember, len(teamIDs))
	for rows.Next() {
		var m domain.TeamMember
		if err := rows.Scan(&m.TeamID, &m.UserID, &m.Name, &m.Email, &m.CreatedAt); err != nil {
			return nil, err
		}
		members[m.TeamID] = append(members[m.TeamID], m)
	}
	return members, rows.Err()
}

// ListTeamIDsByUser returns identifiers of every team the user belongs to.
func (r *Repository) ListTeamIDsByUser(ctx context.Context, userID string) ([]string, error) {
	const query = `SELECT team_id FROM team_members WHERE user_id = $1`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, translate(err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// AddMember inserts a membership; duplicates surface as ErrConflict.
func (r *Repository) AddMember(ctx context.Context, member *domain.TeamMember) error {
	const query = `INSERT INTO team_members (team_id, user_id, created_at) VALUES ($1, $2, $3)`
	_, err := r.pool.Exec(ctx, query, member.TeamID, member.UserID, member.CreatedAt)
	return translate(err)
}

const taskColumns = `id, title, description, status, user_id, team_id, due_date, created_at, updated_at`

func scanTask(row pgx.Row) (*domain.Task, error) {
	var task domain.Task
	if err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.UserID,
		&task.TeamID,
		&task.DueDate,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		return nil, translate(err)
	}
	return &task, nil
}

// CreateTask inserts a task.
func (r *Repository) CreateTask(ctx context.Context, task *domain.Task) error {
	const query = `INSERT INTO tasks (id, title, description, status, user_id, team_id, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.pool.Exec(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.Status,
		task.UserID,
		task.TeamID,
		task.DueDate,
		task.CreatedAt,
		task.UpdatedAt,
	)
	return translate(err)
}

// GetTaskByID fetches a task.
func (r *Repository) GetTaskByID(ctx context.Context, taskID string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	return scanTask(r.pool.QueryRow(ctx, query, taskID))
}

// ListTasks returns tasks matching filter, newest first.
func (r *Repository) ListTasks(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, error) {
	query, args := buildTaskListQuery(filter)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func buildTaskListQuery(filter domain.TaskFilter) (string, []any) {
	args := []any{filter.RequesterID}
	var visibility string
	if filter.AnyTeam {
		visibility = "(user_id = $1 OR team_id IS NOT NULL)"
	} else {
		args = append(args, teamIDsOrEmpty(filter.TeamIDs))
		visibility = "(user_id = $1 OR team_id = ANY($2))"
	}
	clauses := []string{visibility}
	if filter.Search != "" {
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		clauses = append(clauses, fmt.Sprintf(`title ILIKE $%d ESCAPE '\'`, len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.DueFrom != nil && filter.DueTo != nil {
		args = append(args, *filter.DueFrom, *filter.DueTo)
		clauses = append(clauses, fmt.Sprintf("due_date BETWEEN $%d AND $%d", len(args)-1, len(args)))
	}
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + strings.Join(clauses, " AND ") +
		` ORDER BY created_at DESC, id DESC`
	return query, args
}

func teamIDsOrEmpty(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}

// UpdateTask applies changes and returns the stored row.
func (r *Repository) UpdateTask(ctx context.Context, taskID string, changes domain.TaskChanges) (*domain.Task, error) {
	query, args := buildTaskUpdateQuery(taskID, changes)
	return scanTask(r.pool.QueryRow(ctx, query, args...))
}

// buildTaskUpdateQuery sets only the columns present in changes. ClearDueDate
// wins over DueDate.
func buildTaskUpdateQuery(taskID string, changes domain.TaskChanges) (string, []any) {
	sets := make([]string, 0, 5)
	args := []any{taskID}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if changes.Title != nil {
		add("title", *changes.Title)
	}
	if changes.Description != nil {
		add("description", *changes.Description)
	}
	if changes.Status != nil {
		add("status", string(*changes.Status))
	}
	if changes.ClearDueDate {
		sets = append(sets, "due_date = NULL")
	} else if changes.DueDate != nil {
		add("due_date", *changes.DueDate)
	}
	sets = append(sets, "updated_at = NOW()")
	query := `UPDATE tasks SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + taskColumns
	return query, args
}

// DeleteTask removes a task.
func (r *Repository) DeleteTask(ctx context.Context, taskID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, taskID)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
