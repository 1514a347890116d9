package team

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/vinayak200306/primetrade-assignment/internal/domain"
	"github.com/vinayak200306/primetrade-assignment/internal/repository"
)

// Service handles team workflows.
type Service struct {
	teams  repository.TeamRepository
	users  repository.UserRepository
	logger *slog.Logger
}

// New constructs a Service with default logging.
func New(teams repository.TeamRepository, users repository.UserRepository, logger *slog.Logger) Service {
	return Service{teams: teams, users: users, logger: logger}
}

var (
	errInvalidTeamName = domain.Validation("team name is required")
	errTeamNotFound    = domain.NotFound("team not found")
	errUserNotFound    = domain.NotFound("user not found")
	errNotOwner        = domain.Forbidden("only the team owner can add members")
	errAlreadyMember   = domain.Conflict("user already in team")
)

// Create registers a team for the owner, who becomes its only member.
func (s Service) Create(ctx context.Context, ownerID, name string) (*domain.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errInvalidTeamName
	}
	now := time.Now().UTC()
	team := &domain.Team{
		ID:        domain.NewID(),
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
		Members:   []domain.TeamMember{{UserID: ownerID, CreatedAt: now}},
	}
	if err := s.teams.CreateTeam(ctx, team); err != nil {
		return nil, fmt.Errorf("create team: %w", err)
	}
	stored, err := s.teams.GetTeamByID(ctx, team.ID)
	if err != nil {
		return nil, fmt.Errorf("reload team: %w", err)
	}
	s.logger.Info("team created", "team_id", team.ID, "owner_id", ownerID)
	return stored, nil
}

// ListForUser returns every team userID belongs to.
func (s Service) ListForUser(ctx context.Context, userID string) ([]domain.Team, error) {
	teams, err := s.teams.ListTeamsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return teams, nil
}

// MemberTeamIDs returns identifiers of the teams userID belongs to.
func (s Service) MemberTeamIDs(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.teams.ListTeamIDsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list team memberships: %w", err)
	}
	return ids, nil
}

// AddMember adds the user registered under email to the team. Only the owner may add.
func (s Service) AddMember(ctx context.Context, teamID, requesterID, email string) error {
	if !domain.ValidID(teamID) {
		return errTeamNotFound
	}
	team, err := s.teams.GetTeamByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errTeamNotFound
		}
		return fmt.Errorf("load team: %w", err)
	}
	if team.OwnerID != requesterID {
		return errNotOwner
	}
	user, err := s.users.GetUserByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errUserNotFound
		}
		return fmt.Errorf("lookup user by email: %w", err)
	}
	if team.HasMember(user.ID) {
		return errAlreadyMember
	}
	member := &domain.TeamMember{TeamID: team.ID, UserID: user.ID, CreatedAt: time.Now().UTC()}
	if err := s.teams.AddMember(ctx, member); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return errAlreadyMember
		}
		return fmt.Errorf("add member: %w", err)
	}
	s.logger.Info("team member added", "team_id", team.ID, "user_id", user.ID, "by", requesterID)
	return nil
}
