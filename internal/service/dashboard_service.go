package service

import (
	"context"
	"sort"
	"time"

	"taskboard/internal/model"
	"taskboard/internal/repository"
)

// dueSoonWindow is how far ahead an open task counts as due soon.
const dueSoonWindow = 48 * time.Hour

// Urgency classifies a task's due date relative to now.
type Urgency string

const (
	UrgencyNone    Urgency = ""
	UrgencyDueSoon Urgency = "due-soon"
	UrgencyOverdue Urgency = "overdue"
)

// TaskUrgency reports whether task is overdue, due within two days, or neither.
func TaskUrgency(task model.Task, now time.Time) Urgency {
	if task.DueDate == nil || task.Status == model.StatusCompleted {
		return UrgencyNone
	}
	switch {
	case task.IsOverdue(now):
		return UrgencyOverdue
	case task.DueDate.Sub(now) <= dueSoonWindow:
		return UrgencyDueSoon
	}
	return UrgencyNone
}

// Dashboard is the landing page overview of the actor's work.
type Dashboard struct {
	MyTasks    []model.Task
	Overdue    []model.Task
	DueSoon    []model.Task
	InProgress []model.Task
	Projects   []model.Project
	Teams      []model.Team
}

// ProfileStats are the counters shown on a profile page.
type ProfileStats struct {
	AssignedTasks int64
	Projects      int64
	Teams         int64
	CreatedTasks  int64
}

// DashboardService builds overview pages.
type DashboardService struct {
	tasks    *repository.TaskRepository
	projects *repository.ProjectRepository
	teams    *repository.TeamRepository
	now      func() time.Time
}

func NewDashboardService(tasks *repository.TaskRepository, projects *repository.ProjectRepository, teams *repository.TeamRepository) *DashboardService {
	return &DashboardService{
		tasks:    tasks,
		projects: projects,
		teams:    teams,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *DashboardService) Dashboard(ctx context.Context, actor *model.User) (*Dashboard, error) {
	now := s.now()
	mine, _, err := s.tasks.ListAssigned(ctx, actor.ID, repository.TaskFilter{}, 0, 0)
	if err != nil {
		return nil, err
	}
	overdue, err := s.tasks.ListAssignedOverdue(ctx, actor.ID, now)
	if err != nil {
		return nil, err
	}
	inProgress, err := s.tasks.ListAssignedByStatus(ctx, actor.ID, model.StatusInProgress)
	if err != nil {
		return nil, err
	}
	projects, _, err := s.projects.ListForMember(ctx, actor.ID, 0, 0)
	if err != nil {
		return nil, err
	}
	teams, _, err := s.teams.ListForMember(ctx, actor.ID, 0, 0)
	if err != nil {
		return nil, err
	}

	var dueSoon []model.Task
	for _, task := range mine {
		if TaskUrgency(task, now) == UrgencyDueSoon {
			dueSoon = append(dueSoon, task)
		}
	}
	sort.SliceStable(dueSoon, func(i, j int) bool {
		return dueSoon[i].DueDate.Before(*dueSoon[j].DueDate)
	})

	return &Dashboard{
		MyTasks:    mine,
		Overdue:    overdue,
		DueSoon:    dueSoon,
		InProgress: inProgress,
		Projects:   projects,
		Teams:      teams,
	}, nil
}

func (s *DashboardService) Profile(ctx context.Context, actor *model.User) (*ProfileStats, error) {
	var (
		stats ProfileStats
		err   error
	)
	if stats.AssignedTasks, err = s.tasks.CountAssigned(ctx, actor.ID); err != nil {
		return nil, err
	}
	if stats.Projects, err = s.projects.CountForMember(ctx, actor.ID); err != nil {
		return nil, err
	}
	if stats.Teams, err = s.teams.CountForMember(ctx, actor.ID); err != nil {
		return nil, err
	}
	if stats.CreatedTasks, err = s.tasks.CountCreatedBy(ctx, actor.ID); err != nil {
		return nil, err
	}
	return &stats, nil
}
