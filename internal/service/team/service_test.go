package team

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/vinayak200306/primetrade-assignment/internal/domain"
	"github.com/vinayak200306/primetrade-assignment/internal/repository/memory"
)

func setup(t *testing.T) (Service, *memory.Repository) {
	t.Helper()
	repo := memory.New()
	return New(repo, repo, slog.New(slog.NewTextHandler(io.Discard, nil))), repo
}

func seedUser(t *testing.T, repo *memory.Repository, name, email string) *domain.User {
	t.Helper()
	now := time.Now().UTC()
	u := &domain.User{ID: domain.NewID(), Name: name, Email: email, CreatedAt: now, UpdatedAt: now}
	if err := repo.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func TestCreateMakesOwnerSoleMember(t *testing.T) {
	svc, repo := setup(t)
	owner := seedUser(t, repo, "Owner", "owner@x.com")

	team, err := svc.Create(context.Background(), owner.ID, "  Core  ")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if team.Name != "Core" || team.OwnerID != owner.ID {
		t.Fatalf("unexpected team %+v", team)
	}
	if len(team.Members) != 1 || team.Members[0].UserID != owner.ID || team.Members[0].Email != "owner@x.com" {
		t.Fatalf("expected owner as sole member, got %+v", team.Members)
	}

	if _, err := svc.Create(context.Background(), owner.ID, " "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for blank name, got %v", err)
	}
}

func TestAddMemberChecksInOrder(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()
	owner := seedUser(t, repo, "Owner", "owner@x.com")
	other := seedUser(t, repo, "Other", "other@x.com")
	team, err := svc.Create(ctx, owner.ID, "Core")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.AddMember(ctx, domain.NewID(), owner.ID, "other@x.com"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing team: expected ErrNotFound, got %v", err)
	}
	if err := svc.AddMember(ctx, "not-an-id", owner.ID, "other@x.com"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("malformed team id: expected ErrNotFound, got %v", err)
	}
	if err := svc.AddMember(ctx, team.ID, other.ID, "other@x.com"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("non-owner: expected ErrForbidden, got %v", err)
	}
	if err := svc.AddMember(ctx, team.ID, owner.ID, "ghost@x.com"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown email: expected ErrNotFound, got %v", err)
	}
	if err := svc.AddMember(ctx, team.ID, owner.ID, "Other@X.com"); err != nil {
		t.Fatalf("add member: %v", err)
	}
}

func TestAddMemberTwiceConflicts(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()
	owner := seedUser(t, repo, "Owner", "owner@x.com")
	seedUser(t, repo, "Other", "other@x.com")
	team, err := svc.Create(ctx, owner.ID, "Core")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.AddMember(ctx, team.ID, owner.ID, "other@x.com"); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := svc.AddMember(ctx, team.ID, owner.ID, "other@x.com"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("second add: expected ErrConflict, got %v", err)
	}
	if err := svc.AddMember(ctx, team.ID, owner.ID, "owner@x.com"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("owner re-add: expected ErrConflict, got %v", err)
	}

	stored, err := repo.GetTeamByID(ctx, team.ID)
	if err != nil {
		t.Fatalf("get team: %v", err)
	}
	if len(stored.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(stored.Members))
	}
}

func TestListAndMembershipIDs(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()
	owner := seedUser(t, repo, "Owner", "owner@x.com")
	other := seedUser(t, repo, "Other", "other@x.com")
	core, err := svc.Create(ctx, owner.ID, "Core")
	if err != nil {
		t.Fatalf("create core: %v", err)
	}
	if _, err := svc.Create(ctx, other.ID, "Side"); err != nil {
		t.Fatalf("create side: %v", err)
	}

	teams, err := svc.ListForUser(ctx, owner.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(teams) != 1 || teams[0].ID != core.ID {
		t.Fatalf("expected only core team, got %+v", teams)
	}

	ids, err := svc.MemberTeamIDs(ctx, other.ID)
	if err != nil {
		t.Fatalf("member ids: %v", err)
	}
	if len(ids) != 1 || ids[0] == core.ID {
		t.Fatalf("unexpected membership ids %v", ids)
	}
}
