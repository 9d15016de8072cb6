package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"taskboard/internal/model"
	"taskboard/internal/repository"
)

// ProjectInput is the project form. TeamID is ignored on update.
type ProjectInput struct {
	Name        string
	Description string
	TeamID      uint
}

// ProjectPage is one page of the user's projects.
type ProjectPage struct {
	Projects []model.Project
	Page     Page
}

// ProjectDetail is everything shown on a project page.
type ProjectDetail struct {
	Project  *model.Project
	Tasks    []model.Task
	Progress int
	Stats    repository.TaskStats
	Overdue  []model.Task
	CanAdmin bool
}

// ProjectService wraps project workflows.
type ProjectService struct {
	projects *repository.ProjectRepository
	teams    *repository.TeamRepository
	tasks    *repository.TaskRepository
	now      func() time.Time
	logger   *slog.Logger
}

func NewProjectService(projects *repository.ProjectRepository, teams *repository.TeamRepository, tasks *repository.TaskRepository, logger *slog.Logger) *ProjectService {
	return &ProjectService{
		projects: projects,
		teams:    teams,
		tasks:    tasks,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}
}

// List returns the given page of projects across the actor's teams.
func (s *ProjectService) List(ctx context.Context, actor *model.User, number int) (*ProjectPage, error) {
	offset := Page{Number: number, Size: ProjectsPerPage}.Offset()
	projects, total, err := s.projects.ListForMember(ctx, actor.ID, offset, ProjectsPerPage)
	if err != nil {
		return nil, err
	}
	page, err := resolvePage(number, ProjectsPerPage, total)
	if err != nil {
		return nil, err
	}
	return &ProjectPage{Projects: projects, Page: page}, nil
}

// All returns every project across the actor's teams.
func (s *ProjectService) All(ctx context.Context, actor *model.User) ([]model.Project, error) {
	projects, _, err := s.projects.ListForMember(ctx, actor.ID, 0, 0)
	return projects, err
}

// Create adds a project to one of the actor's teams with the actor as owner.
func (s *ProjectService) Create(ctx context.Context, actor *model.User, input ProjectInput) (*model.Project, error) {
	verr := validateProject(input)
	if input.TeamID == 0 {
		verr.Add("team", "This field is required.")
	} else {
		ok, err := s.teams.IsMember(ctx, input.TeamID, actor.ID)
		if err != nil {
			return nil, err
		}
		if !ok {
			verr.Add("team", "Select a valid choice. That choice is not one of the available choices.")
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	project := &model.Project{
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		TeamID:      input.TeamID,
		OwnerID:     actor.ID,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}
	s.logger.Info("project created", "project_id", project.ID, "team_id", project.TeamID, "owner_id", actor.ID)
	return project, nil
}

// Get loads a project the actor can see through team membership.
func (s *ProjectService) Get(ctx context.Context, actor *model.User, projectID uint) (*model.Project, error) {
	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := requireMember(ctx, s.teams, project.TeamID, actor.ID); err != nil {
		return nil, err
	}
	return project, nil
}

// Detail loads a project with its tasks, progress and status breakdown.
func (s *ProjectService) Detail(ctx context.Context, actor *model.User, projectID uint) (*ProjectDetail, error) {
	project, err := s.Get(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListByProject(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	stats, err := s.projects.Stats(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	var overdue []model.Task
	for _, task := range tasks {
		if task.IsOverdue(now) {
			overdue = append(overdue, task)
		}
	}
	return &ProjectDetail{
		Project:  project,
		Tasks:    tasks,
		Progress: model.ProgressPercent(stats.Completed, stats.Total),
		Stats:    stats,
		Overdue:  overdue,
		CanAdmin: canAdminProject(actor, project),
	}, nil
}

// Progress returns the percentage of the project's tasks that are completed.
func (s *ProjectService) Progress(ctx context.Context, projectID uint) (int, error) {
	stats, err := s.projects.Stats(ctx, projectID)
	if err != nil {
		return 0, err
	}
	return model.ProgressPercent(stats.Completed, stats.Total), nil
}

// Update changes name and description; any team member may edit.
func (s *ProjectService) Update(ctx context.Context, actor *model.User, projectID uint, input ProjectInput) (*model.Project, error) {
	project, err := s.Get(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	if err := validateProject(input).OrNil(); err != nil {
		return nil, err
	}
	project.Name = strings.TrimSpace(input.Name)
	project.Description = strings.TrimSpace(input.Description)
	if err := s.projects.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// Delete removes the project and its tasks; allowed for the project owner and the team owner.
func (s *ProjectService) Delete(ctx context.Context, actor *model.User, projectID uint) (*model.Project, error) {
	project, err := s.Get(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	if !canAdminProject(actor, project) {
		return nil, ErrForbidden
	}
	if err := s.projects.Delete(ctx, project.ID); err != nil {
		return nil, err
	}
	s.logger.Info("project deleted", "project_id", project.ID, "user_id", actor.ID)
	return project, nil
}

func canAdminProject(actor *model.User, project *model.Project) bool {
	return project.OwnerID == actor.ID || project.Team.OwnerID == actor.ID
}

func validateProject(input ProjectInput) *ValidationError {
	verr := &ValidationError{}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		verr.Add("name", "This field is required.")
	} else if len(name) > 200 {
		verr.Add("name", "Ensure this value has at most 200 characters.")
	}
	return verr
}
