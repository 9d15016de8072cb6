package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"taskboard/internal/model"
	"taskboard/internal/repository"
)

// DueDateLayout is how due dates are rendered back into forms.
const DueDateLayout = "2006-01-02T15:04"

var dueDateLayouts = []string{
	DueDateLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// TaskInput is the task form as submitted. Project is ignored on update.
type TaskInput struct {
	Title       string
	Description string
	Project     string
	Status      string
	Priority    string
	DueDate     string
}

// TaskListing is the "my tasks" page.
type TaskListing struct {
	Tasks        []model.Task
	Page         Page
	MyTasksCount int64
	Overdue      []model.Task
	Projects     []model.Project
}

// TaskDetail is everything shown on a task page.
type TaskDetail struct {
	Task              *model.Task
	Comments          []model.Comment
	Assignments       []model.TaskAssignment
	Members           []model.User
	ActiveAssigneeIDs []uint
	Overdue           bool
}

// TaskService wraps task-related business logic.
type TaskService struct {
	tasks       *repository.TaskRepository
	projects    *repository.ProjectRepository
	teams       *repository.TeamRepository
	assignments *repository.AssignmentRepository
	comments    *repository.CommentRepository
	loc         *time.Location
	now         func() time.Time
	logger      *slog.Logger
}

func NewTaskService(tasks *repository.TaskRepository, projects *repository.ProjectRepository, teams *repository.TeamRepository, assignments *repository.AssignmentRepository, comments *repository.CommentRepository, loc *time.Location, logger *slog.Logger) *TaskService {
	if loc == nil {
		loc = time.Local
	}
	return &TaskService{
		tasks:       tasks,
		projects:    projects,
		teams:       teams,
		assignments: assignments,
		comments:    comments,
		loc:         loc,
		now:         func() time.Time { return time.Now().UTC() },
		logger:      logger,
	}
}

// ParseTaskFilter validates the optional status, priority and project query
// values. Empty values are not applied; anything malformed is ErrBadRequest.
func ParseTaskFilter(status, priority, project string) (repository.TaskFilter, error) {
	var f repository.TaskFilter
	if status = strings.TrimSpace(status); status != "" {
		st := model.TaskStatus(status)
		if !st.Valid() {
			return f, fmt.Errorf("status %q: %w", status, ErrBadRequest)
		}
		f.Status = &st
	}
	if priority = strings.TrimSpace(priority); priority != "" {
		n, err := strconv.Atoi(priority)
		if err != nil || !model.Priority(n).Valid() {
			return f, fmt.Errorf("priority %q: %w", priority, ErrBadRequest)
		}
		p := model.Priority(n)
		f.Priority = &p
	}
	if project = strings.TrimSpace(project); project != "" {
		n, err := strconv.ParseUint(project, 10, 64)
		if err != nil || n == 0 {
			return f, fmt.Errorf("project %q: %w", project, ErrBadRequest)
		}
		id := uint(n)
		f.ProjectID = &id
	}
	return f, nil
}

// List returns tasks assigned to the actor matching the filter.
func (s *TaskService) List(ctx context.Context, actor *model.User, filter repository.TaskFilter, number int) (*TaskListing, error) {
	offset := Page{Number: number, Size: TasksPerPage}.Offset()
	tasks, total, err := s.tasks.ListAssigned(ctx, actor.ID, filter, offset, TasksPerPage)
	if err != nil {
		return nil, err
	}
	page, err := resolvePage(number, TasksPerPage, total)
	if err != nil {
		return nil, err
	}
	count, err := s.tasks.CountAssigned(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	overdue, err := s.tasks.ListAssignedOverdue(ctx, actor.ID, s.now())
	if err != nil {
		return nil, err
	}
	projects, _, err := s.projects.ListForMember(ctx, actor.ID, 0, 0)
	if err != nil {
		return nil, err
	}
	return &TaskListing{
		Tasks:        tasks,
		Page:         page,
		MyTasksCount: count,
		Overdue:      overdue,
		Projects:     projects,
	}, nil
}

// Create adds a task to a project of one of the actor's teams.
func (s *TaskService) Create(ctx context.Context, actor *model.User, input TaskInput) (*model.Task, error) {
	task := &model.Task{}
	verr := s.applyInput(task, input)
	const invalidProject = "Select a valid choice. That choice is not one of the available choices."
	var projectID uint
	raw := strings.TrimSpace(input.Project)
	if raw == "" {
		verr.Add("project", "This field is required.")
	} else if id, err := strconv.ParseUint(raw, 10, 64); err != nil || id == 0 {
		verr.Add("project", invalidProject)
	} else {
		projectID = uint(id)
		project, err := s.projects.FindByID(ctx, projectID)
		switch {
		case err == nil:
			ok, err := s.teams.IsMember(ctx, project.TeamID, actor.ID)
			if err != nil {
				return nil, err
			}
			if !ok {
				verr.Add("project", invalidProject)
			}
		case errors.Is(err, repository.ErrNotFound):
			verr.Add("project", invalidProject)
		default:
			return nil, err
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	creator := actor.ID
	task.ProjectID = projectID
	task.CreatedByID = &creator
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	s.logger.Info("task created", "task_id", task.ID, "project_id", task.ProjectID, "user_id", actor.ID)
	return task, nil
}

// Get loads a task the actor can see through team membership.
func (s *TaskService) Get(ctx context.Context, actor *model.User, taskID uint) (*model.Task, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := requireMember(ctx, s.teams, task.Project.TeamID, actor.ID); err != nil {
		return nil, err
	}
	return task, nil
}

// Detail loads a task with its comments, assignments and assignable members.
func (s *TaskService) Detail(ctx context.Context, actor *model.User, taskID uint) (*TaskDetail, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	team, err := s.teams.FindByID(ctx, task.Project.TeamID)
	if err != nil {
		return nil, err
	}
	if !team.HasMember(actor.ID) {
		return nil, ErrForbidden
	}
	comments, err := s.comments.ListByTask(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	assignments, err := s.assignments.ListByTask(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	active, err := s.assignments.ActiveAssigneeIDs(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	return &TaskDetail{
		Task:              task,
		Comments:          comments,
		Assignments:       assignments,
		Members:           team.Members,
		ActiveAssigneeIDs: active,
		Overdue:           task.IsOverdue(s.now()),
	}, nil
}

// Update changes the editable fields of a task.
func (s *TaskService) Update(ctx context.Context, actor *model.User, taskID uint, input TaskInput) (*model.Task, error) {
	task, err := s.Get(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}
	updated := *task
	if err := s.applyInput(&updated, input).OrNil(); err != nil {
		return nil, err
	}
	if err := s.tasks.Update(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a task with its assignments and comments.
func (s *TaskService) Delete(ctx context.Context, actor *model.User, taskID uint) error {
	task, err := s.Get(ctx, actor, taskID)
	if err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, task.ID); err != nil {
		return err
	}
	s.logger.Info("task deleted", "task_id", task.ID, "user_id", actor.ID)
	return nil
}

// Location is the zone due dates are entered and displayed in.
func (s *TaskService) Location() *time.Location { return s.loc }

// Now is the service clock.
func (s *TaskService) Now() time.Time { return s.now() }

// FormatDueDate renders a stored due date for a form field in the service's location.
func (s *TaskService) FormatDueDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.In(s.loc).Format(DueDateLayout)
}

// applyInput validates input and copies the editable fields onto task.
func (s *TaskService) applyInput(task *model.Task, input TaskInput) *ValidationError {
	verr := &ValidationError{}

	title := strings.TrimSpace(input.Title)
	switch {
	case title == "":
		verr.Add("title", "This field is required.")
	case len(title) > 200:
		verr.Add("title", "Ensure this value has at most 200 characters.")
	}
	task.Title = title
	task.Description = strings.TrimSpace(input.Description)

	status := model.StatusTodo
	if raw := strings.TrimSpace(input.Status); raw != "" {
		status = model.TaskStatus(raw)
	}
	if !status.Valid() {
		verr.Add("status", fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", input.Status))
	}
	task.Status = status

	priority := model.PriorityMedium
	if raw := strings.TrimSpace(input.Priority); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || !model.Priority(n).Valid() {
			verr.Add("priority", fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", raw))
		} else {
			priority = model.Priority(n)
		}
	}
	task.Priority = priority

	task.DueDate = nil
	if raw := strings.TrimSpace(input.DueDate); raw != "" {
		due, err := parseDueDate(raw, s.loc)
		if err != nil {
			verr.Add("due_date", "Enter a valid date/time.")
		} else {
			task.DueDate = &due
		}
	}
	return verr
}

func parseDueDate(raw string, loc *time.Location) (time.Time, error) {
	for _, layout := range dueDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse due date %q", raw)
}
