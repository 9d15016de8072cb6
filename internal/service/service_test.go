package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"taskboard/internal/model"
	"taskboard/internal/repository"
)

var testNow = time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	users       *repository.UserRepository
	teamRepo    *repository.TeamRepository
	auth        *AuthService
	teams       *TeamService
	projects    *ProjectService
	tasks       *TaskService
	assignments *AssignmentService
	comments    *CommentService
	dashboard   *DashboardService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := repository.NewDB(fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name), log)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	users := repository.NewUserRepository(db)
	sessions := repository.NewSessionRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	clock := func() time.Time { return testNow }
	env := &testEnv{
		users:       users,
		teamRepo:    teamRepo,
		auth:        NewAuthService(users, sessions, time.Hour, log),
		teams:       NewTeamService(teamRepo, projectRepo, users, log),
		projects:    NewProjectService(projectRepo, teamRepo, taskRepo, log),
		tasks:       NewTaskService(taskRepo, projectRepo, teamRepo, assignmentRepo, commentRepo, time.UTC, log),
		assignments: NewAssignmentService(assignmentRepo, taskRepo, teamRepo, users, log),
		comments:    NewCommentService(commentRepo, taskRepo, teamRepo),
		dashboard:   NewDashboardService(taskRepo, projectRepo, teamRepo),
	}
	env.auth.now = clock
	env.projects.now = clock
	env.tasks.now = clock
	env.assignments.now = clock
	env.dashboard.now = clock
	return env
}

// user inserts an account directly, with a cheap hash of "secret-pass".
func (e *testEnv) user(t *testing.T, username, email string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret-pass"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &model.User{Username: username, Email: email, PasswordHash: hash}
	if err := e.users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func idString(id uint) string { return fmt.Sprint(id) }

type scenario struct {
	alice, bob, carol *model.User
	team              *model.Team
	project           *model.Project
	task              *model.Task
}

// engScenario builds team "Eng" (owner alice, members alice and bob), project
// "P1" and task "T1" with priority 3, due yesterday, status todo. Carol is not
// a member.
func engScenario(t *testing.T, e *testEnv) scenario {
	t.Helper()
	ctx := context.Background()
	sc := scenario{
		alice: e.user(t, "alice", "alice@example.com"),
		bob:   e.user(t, "bob", "bob@example.com"),
		carol: e.user(t, "carol", "carol@example.com"),
	}
	var err error
	if sc.team, err = e.teams.Create(ctx, sc.alice, TeamInput{Name: "Eng"}); err != nil {
		t.Fatalf("create team: %v", err)
	}
	if _, err = e.teams.AddMember(ctx, sc.alice, sc.team.ID, "bob"); err != nil {
		t.Fatalf("add bob: %v", err)
	}
	if sc.project, err = e.projects.Create(ctx, sc.alice, ProjectInput{Name: "P1", TeamID: sc.team.ID}); err != nil {
		t.Fatalf("create project: %v", err)
	}
	yesterday := testNow.Add(-24 * time.Hour).Format(DueDateLayout)
	sc.task, err = e.tasks.Create(ctx, sc.alice, TaskInput{
		Title:     "T1",
		Project: idString(sc.project.ID),
		Status:    "todo",
		Priority:  "3",
		DueDate:   yesterday,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return sc
}
