package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vinayak200306/primetrade-assignment/internal/domain"
	"github.com/vinayak200306/primetrade-assignment/internal/repository"
)

func TestAddMemberRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	repo := New()
	now := time.Now().UTC()
	owner := &domain.User{ID: "u1", Name: "Owner", Email: "o@x.com"}
	mate := &domain.User{ID: "u2", Name: "Mate", Email: "m@x.com"}
	for _, u := range []*domain.User{owner, mate} {
		if err := repo.CreateUser(ctx, u); err != nil {
			t.Fatalf("create user: %v", err)
		}
	}
	team := &domain.Team{ID: "t1", Name: "Core", OwnerID: owner.ID, CreatedAt: now,
		Members: []domain.TeamMember{{UserID: owner.ID, CreatedAt: now}}}
	if err := repo.CreateTeam(ctx, team); err != nil {
		t.Fatalf("create team: %v", err)
	}

	member := &domain.TeamMember{TeamID: "t1", UserID: mate.ID, CreatedAt: now}
	if err := repo.AddMember(ctx, member); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if err := repo.AddMember(ctx, member); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	stored, err := repo.GetTeamByID(ctx, "t1")
	if err != nil {
		t.Fatalf("get team: %v", err)
	}
	if len(stored.Members) != 2 || stored.Members[1].Email != "m@x.com" {
		t.Fatalf("expected hydrated members, got %+v", stored.Members)
	}
	ids, err := repo.ListTeamIDsByUser(ctx, mate.ID)
	if err != nil || len(ids) != 1 || ids[0] != "t1" {
		t.Fatalf("unexpected memberships %v %v", ids, err)
	}
}

func TestListTasksVisibility(t *testing.T) {
	ctx := context.Background()
	repo := New()
	team := "t1"
	repo.teams[team] = domain.Team{ID: team}
	tasks := []domain.Task{
		{ID: "a", Title: "mine", UserID: "u1"},
		{ID: "b", Title: "theirs", UserID: "u2"},
		{ID: "c", Title: "team", UserID: "u2", TeamID: &team},
	}
	for i := range tasks {
		if err := repo.CreateTask(ctx, &tasks[i]); err != nil {
			t.Fatalf("create task: %v", err)
		}
	}

	visible, err := repo.ListTasks(ctx, domain.TaskFilter{RequesterID: "u1", AnyTeam: true})
	if err != nil || len(visible) != 2 {
		t.Fatalf("any-team scope: %v %v", visible, err)
	}
	member, err := repo.ListTasks(ctx, domain.TaskFilter{RequesterID: "u1"})
	if err != nil || len(member) != 1 || member[0].ID != "a" {
		t.Fatalf("member scope without teams: %v %v", member, err)
	}
	member, err = repo.ListTasks(ctx, domain.TaskFilter{RequesterID: "u1", TeamIDs: []string{team}})
	if err != nil || len(member) != 2 || member[0].ID != "c" {
		t.Fatalf("member scope with team, newest first: %v %v", member, err)
	}
}
