package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"taskboard/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := NewDB(dsn, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

type fixture struct {
	alice, bob *model.User
	team       *model.Team
	project    *model.Project
}

func seed(t *testing.T, db *gorm.DB) fixture {
	t.Helper()
	ctx := context.Background()
	users := NewUserRepository(db)
	alice := &model.User{Username: "alice", Email: "alice@example.com", PasswordHash: []byte("x")}
	bob := &model.User{Username: "bob", Email: "bob@example.com", PasswordHash: []byte("x")}
	for _, u := range []*model.User{alice, bob} {
		if err := users.Create(ctx, u); err != nil {
			t.Fatalf("create user: %v", err)
		}
	}
	teams := NewTeamRepository(db)
	team := &model.Team{Name: "Eng", OwnerID: alice.ID}
	if err := teams.Create(ctx, team); err != nil {
		t.Fatalf("create team: %v", err)
	}
	if err := teams.AddMember(ctx, team.ID, bob.ID); err != nil {
		t.Fatalf("add member: %v", err)
	}
	project := &model.Project{Name: "P1", TeamID: team.ID, OwnerID: alice.ID}
	if err := NewProjectRepository(db).Create(ctx, project); err != nil {
		t.Fatalf("create project: %v", err)
	}
	return fixture{alice: alice, bob: bob, team: team, project: project}
}

func createTask(t *testing.T, db *gorm.DB, projectID uint, title string, prio model.Priority, due *time.Time, status model.TaskStatus) *model.Task {
	t.Helper()
	task := &model.Task{Title: title, ProjectID: projectID, Priority: prio, DueDate: due, Status: status}
	if err := NewTaskRepository(db).Create(context.Background(), task); err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

func TestTeamCreateEnrolsOwner(t *testing.T) {
	db := newTestDB(t)
	fx := seed(t, db)
	teams := NewTeamRepository(db)
	ctx := context.Background()

	for _, u := range []*model.User{fx.alice, fx.bob} {
		ok, err := teams.IsMember(ctx, fx.team.ID, u.ID)
		if err != nil {
			t.Fatalf("IsMember: %v", err)
		}
		if !ok {
			t.Fatalf("expected %s to be a member", u.Username)
		}
	}

	// Adding an existing member must not fail or duplicate.
	if err := teams.AddMember(ctx, fx.team.ID, fx.bob.ID); err != nil {
		t.Fatalf("re-add member: %v", err)
	}
	team, err := teams.FindByID(ctx, fx.team.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if len(team.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(team.Members))
	}
	if team.Members[0].Username != "alice" {
		t.Fatalf("expected members ordered by username, got %s first", team.Members[0].Username)
	}
}

func TestAssignmentGetOrCreateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	fx := seed(t, db)
	task := createTask(t, db, fx.project.ID, "T1", model.PriorityHigh, nil, model.StatusTodo)
	repo := NewAssignmentRepository(db)
	ctx := context.Background()

	first, created, err := repo.GetOrCreate(ctx, task.ID, fx.bob.ID, &fx.alice.ID)
	if err != nil {
		t.Fatalf("first GetOrCreate: %v", err)
	}
	if !created {
		t.Fatal("expected first call to create the assignment")
	}
	second, created, err := repo.GetOrCreate(ctx, task.ID, fx.bob.ID, &fx.bob.ID)
	if err != nil {
		t.Fatalf("second GetOrCreate: %v", err)
	}
	if created {
		t.Fatal("expected second call to reuse the assignment")
	}
	if first.ID != second.ID {
		t.Fatalf("expected the same row, got %d and %d", first.ID, second.ID)
	}
	if second.AssignedByID == nil || *second.AssignedByID != fx.alice.ID {
		t.Fatalf("assigned_by should stay with the first assigner, got %v", second.AssignedByID)
	}
	count, err := repo.CountByTaskAndUser(ctx, task.ID, fx.bob.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one assignment, got %d", count)
	}
}

func TestActiveAssigneeIDsSkipsCompleted(t *testing.T) {
	db := newTestDB(t)
	fx := seed(t, db)
	task := createTask(t, db, fx.project.ID, "T1", model.PriorityLow, nil, model.StatusTodo)
	repo := NewAssignmentRepository(db)
	ctx := context.Background()

	done, _, err := repo.GetOrCreate(ctx, task.ID, fx.alice.ID, nil)
	if err != nil {
		t.Fatalf("assign alice: %v", err)
	}
	if _, _, err := repo.GetOrCreate(ctx, task.ID, fx.bob.ID, nil); err != nil {
		t.Fatalf("assign bob: %v", err)
	}
	if err := repo.MarkCompleted(ctx, done, time.Now().UTC()); err != nil {
		t.Fatalf("complete: %v", err)
	}
	ids, err := repo.ActiveAssigneeIDs(ctx, task.ID)
	if err != nil {
		t.Fatalf("ActiveAssigneeIDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != fx.bob.ID {
		t.Fatalf("expected only bob active, got %v", ids)
	}
}

func TestListAssignedFiltersAndOrders(t *testing.T) {
	db := newTestDB(t)
	fx := seed(t, db)
	ctx := context.Background()
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	soon := now.Add(24 * time.Hour)
	later := now.Add(72 * time.Hour)

	undated := createTask(t, db, fx.project.ID, "undated", model.PriorityHigh, nil, model.StatusTodo)
	lateHigh := createTask(t, db, fx.project.ID, "late-high", model.PriorityHigh, &later, model.StatusTodo)
	soonHigh := createTask(t, db, fx.project.ID, "soon-high", model.PriorityHigh, &soon, model.StatusInProgress)
	urgent := createTask(t, db, fx.project.ID, "urgent", model.PriorityUrgent, nil, model.StatusTodo)
	createTask(t, db, fx.project.ID, "not-mine", model.PriorityUrgent, nil, model.StatusTodo)

	assignments := NewAssignmentRepository(db)
	for _, task := range []*model.Task{undated, lateHigh, soonHigh, urgent} {
		if _, _, err := assignments.GetOrCreate(ctx, task.ID, fx.bob.ID, nil); err != nil {
			t.Fatalf("assign: %v", err)
		}
	}

	repo := NewTaskRepository(db)
	tasks, total, err := repo.ListAssigned(ctx, fx.bob.ID, TaskFilter{}, 0, 20)
	if err != nil {
		t.Fatalf("ListAssigned: %v", err)
	}
	if total != 4 {
		t.Fatalf("expected 4 tasks, got %d", total)
	}
	var got []string
	for _, task := range tasks {
		got = append(got, task.Title)
	}
	want := []string{"urgent", "soon-high", "late-high", "undated"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected order: got %v want %v", got, want)
	}

	status := model.StatusInProgress
	tasks, total, err = repo.ListAssigned(ctx, fx.bob.ID, TaskFilter{Status: &status}, 0, 20)
	if err != nil {
		t.Fatalf("ListAssigned by status: %v", err)
	}
	if total != 1 || tasks[0].ID != soonHigh.ID {
		t.Fatalf("status filter returned %d tasks", total)
	}

	prio := model.PriorityHigh
	_, total, err = repo.ListAssigned(ctx, fx.bob.ID, TaskFilter{Priority: &prio}, 0, 2)
	if err != nil {
		t.Fatalf("ListAssigned by priority: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected 3 high-priority tasks, got %d", total)
	}

	overdue, err := repo.ListAssignedOverdue(ctx, fx.bob.ID, soon.Add(time.Hour))
	if err != nil {
		t.Fatalf("ListAssignedOverdue: %v", err)
	}
	if len(overdue) != 1 || overdue[0].ID != soonHigh.ID {
		t.Fatalf("expected soon-high to be overdue, got %d tasks", len(overdue))
	}
}

func TestProjectStats(t *testing.T) {
	db := newTestDB(t)
	fx := seed(t, db)
	createTask(t, db, fx.project.ID, "a", model.PriorityLow, nil, model.StatusCompleted)
	createTask(t, db, fx.project.ID, "b", model.PriorityLow, nil, model.StatusTodo)
	createTask(t, db, fx.project.ID, "c", model.PriorityLow, nil, model.StatusInProgress)

	stats, err := NewProjectRepository(db).Stats(context.Background(), fx.project.ID)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	want := TaskStats{Total: 3, Todo: 1, InProgress: 1, Completed: 1}
	if stats != want {
		t.Fatalf("got %+v want %+v", stats, want)
	}
}

func TestTaskDeleteCascades(t *testing.T) {
	db := newTestDB(t)
	fx := seed(t, db)
	ctx := context.Background()
	task := createTask(t, db, fx.project.ID, "T1", model.PriorityLow, nil, model.StatusTodo)
	if _, _, err := NewAssignmentRepository(db).GetOrCreate(ctx, task.ID, fx.bob.ID, nil); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := NewCommentRepository(db).Create(ctx, &model.Comment{TaskID: task.ID, AuthorID: fx.bob.ID, Content: "hi"}); err != nil {
		t.Fatalf("comment: %v", err)
	}

	repo := NewTaskRepository(db)
	if err := repo.Delete(ctx, task.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	assertCount(t, db, &model.Comment{}, 0)
	assertCount(t, db, &model.TaskAssignment{}, 0)
	if _, err := repo.FindByID(ctx, task.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, task.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestTeamDeleteCascades(t *testing.T) {
	db := newTestDB(t)
	fx := seed(t, db)
	ctx := context.Background()
	task := createTask(t, db, fx.project.ID, "T1", model.PriorityLow, nil, model.StatusTodo)
	if _, _, err := NewAssignmentRepository(db).GetOrCreate(ctx, task.ID, fx.bob.ID, nil); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := NewCommentRepository(db).Create(ctx, &model.Comment{TaskID: task.ID, AuthorID: fx.alice.ID, Content: "hi"}); err != nil {
		t.Fatalf("comment: %v", err)
	}

	if err := NewTeamRepository(db).Delete(ctx, fx.team.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	assertCount(t, db, &model.Team{}, 0)
	assertCount(t, db, &model.Project{}, 0)
	assertCount(t, db, &model.Task{}, 0)
	assertCount(t, db, &model.TaskAssignment{}, 0)
	assertCount(t, db, &model.Comment{}, 0)
	assertCount(t, db, &model.User{}, 2)
}

func TestTaskUpdateDoesNotRestoreDeletedProject(t *testing.T) {
	db := newTestDB(t)
	fx := seed(t, db)
	ctx := context.Background()
	created := createTask(t, db, fx.project.ID, "T1", model.PriorityLow, nil, model.StatusTodo)

	tasks := NewTaskRepository(db)
	task, err := tasks.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if err := NewProjectRepository(db).Delete(ctx, fx.project.ID); err != nil {
		t.Fatalf("delete project: %v", err)
	}
	task.Title = "stale edit"
	if err := tasks.Update(ctx, task); err != nil {
		t.Fatalf("Update: %v", err)
	}
	assertCount(t, db, &model.Project{}, 0)
	assertCount(t, db, &model.Task{}, 0)
	assertCount(t, db, &model.Team{}, 1)
}

func TestProjectUpdateDoesNotRestoreDeletedTeam(t *testing.T) {
	db := newTestDB(t)
	fx := seed(t, db)
	ctx := context.Background()

	projects := NewProjectRepository(db)
	project, err := projects.FindByID(ctx, fx.project.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if err := NewTeamRepository(db).Delete(ctx, fx.team.ID); err != nil {
		t.Fatalf("delete team: %v", err)
	}
	project.Name = "stale edit"
	if err := projects.Update(ctx, project); err != nil {
		t.Fatalf("Update: %v", err)
	}
	assertCount(t, db, &model.Team{}, 0)
	assertCount(t, db, &model.Project{}, 0)
}

func TestMarkCompletedLeavesDeletedTaskGone(t *testing.T) {
	db := newTestDB(t)
	fx := seed(t, db)
	ctx := context.Background()
	task := createTask(t, db, fx.project.ID, "T1", model.PriorityLow, nil, model.StatusTodo)

	assignments := NewAssignmentRepository(db)
	created, _, err := assignments.GetOrCreate(ctx, task.ID, fx.bob.ID, nil)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	assignment, err := assignments.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if err := NewTaskRepository(db).Delete(ctx, task.ID); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	if err := assignments.MarkCompleted(ctx, assignment, time.Now().UTC()); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	assertCount(t, db, &model.Task{}, 0)
	assertCount(t, db, &model.TaskAssignment{}, 0)
}

func TestEmailTakenByOther(t *testing.T) {
	db := newTestDB(t)
	fx := seed(t, db)
	users := NewUserRepository(db)
	ctx := context.Background()

	taken, err := users.EmailTakenByOther(ctx, "bob@example.com", fx.alice.ID)
	if err != nil {
		t.Fatalf("EmailTakenByOther: %v", err)
	}
	if !taken {
		t.Fatal("expected bob's email to be taken for alice")
	}
	taken, err = users.EmailTakenByOther(ctx, "alice@example.com", fx.alice.ID)
	if err != nil {
		t.Fatalf("EmailTakenByOther: %v", err)
	}
	if taken {
		t.Fatal("alice keeping her own email must be allowed")
	}
}

func TestDeleteExpiredSessions(t *testing.T) {
	db := newTestDB(t)
	fx := seed(t, db)
	ctx := context.Background()
	now := time.Now().UTC()
	sessions := NewSessionRepository(db)
	for i, exp := range []time.Time{now.Add(-time.Hour), now.Add(time.Hour)} {
		s := &model.Session{Token: fmt.Sprintf("tok-%d", i), UserID: fx.alice.ID, ExpiresAt: exp, LastSeenAt: now}
		if err := sessions.Create(ctx, s); err != nil {
			t.Fatalf("create session: %v", err)
		}
	}
	n, err := sessions.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 expired session removed, got %d", n)
	}
	s, err := sessions.FindByToken(ctx, "tok-1")
	if err != nil {
		t.Fatalf("FindByToken: %v", err)
	}
	if s.User.Username != "alice" {
		t.Fatalf("expected preloaded user, got %q", s.User.Username)
	}
}

func TestWithForeignKeys(t *testing.T) {
	cases := map[string]string{
		"taskboard.db":                  "taskboard.db?_foreign_keys=on",
		"file:x?mode=memory":            "file:x?mode=memory&_foreign_keys=on",
		"file:x?_fk=0":                  "file:x?_fk=0",
		"data/app.db?_foreign_keys=off": "data/app.db?_foreign_keys=off",
	}
	for in, want := range cases {
		if got := withForeignKeys(in); got != want {
			t.Errorf("withForeignKeys(%q) = %q, want %q", in, got, want)
		}
	}
}

func assertCount(t *testing.T, db *gorm.DB, m interface{}, want int64) {
	t.Helper()
	var got int64
	if err := db.Model(m).Count(&got).Error; err != nil {
		t.Fatalf("count %T: %v", m, err)
	}
	if got != want {
		t.Fatalf("expected %d rows of %T, got %d", want, m, got)
	}
}
