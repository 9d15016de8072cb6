package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskboard/internal/model"
)

// TaskStats counts a project's tasks by status.
type TaskStats struct {
	Total      int64
	Todo       int64
	InProgress int64
	Completed  int64
}

// ProjectRepository handles CRUD for projects.
type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(ctx context.Context, project *model.Project) error {
	if err := r.db.WithContext(ctx).Omit("Team", "Owner").Create(project).Error; err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// FindByID loads a project with its team and owner.
func (r *ProjectRepository) FindByID(ctx context.Context, id uint) (*model.Project, error) {
	var project model.Project
	if err := r.db.WithContext(ctx).Preload("Team").Preload("Owner").First(&project, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &project, nil
}

func (r *ProjectRepository) forMember(ctx context.Context, userID uint) *gorm.DB {
	db := r.db.WithContext(ctx)
	return db.Model(&model.Project{}).Where("team_id IN (?)", memberTeamIDs(db, userID))
}

// ListForMember returns one page of projects of the user's teams, newest first.
// A non-positive limit returns every project.
func (r *ProjectRepository) ListForMember(ctx context.Context, userID uint, offset, limit int) ([]model.Project, int64, error) {
	var total int64
	if err := r.forMember(ctx, userID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count projects: %w", err)
	}
	var projects []model.Project
	q := r.forMember(ctx, userID).Preload("Team").Preload("Owner").Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	if err := q.Find(&projects).Error; err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}
	return projects, total, nil
}

func (r *ProjectRepository) CountForMember(ctx context.Context, userID uint) (int64, error) {
	var total int64
	if err := r.forMember(ctx, userID).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count projects: %w", err)
	}
	return total, nil
}

func (r *ProjectRepository) ListByTeam(ctx context.Context, teamID uint) ([]model.Project, error) {
	var projects []model.Project
	if err := r.db.WithContext(ctx).Preload("Owner").Where("team_id = ?", teamID).
		Order("created_at DESC, id DESC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// Update stores name and description changes.
func (r *ProjectRepository) Update(ctx context.Context, project *model.Project) error {
	updates := map[string]interface{}{
		"name":        project.Name,
		"description": project.Description,
	}
	if err := r.db.WithContext(ctx).Model(project).Omit(clause.Associations).Updates(updates).Error; err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return nil
}

// Stats counts the project's tasks per status.
func (r *ProjectRepository) Stats(ctx context.Context, projectID uint) (TaskStats, error) {
	var rows []struct {
		Status model.TaskStatus
		Count  int64
	}
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Select("status, COUNT(*) AS count").
		Where("project_id = ?", projectID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return TaskStats{}, fmt.Errorf("count tasks: %w", err)
	}
	var stats TaskStats
	for _, row := range rows {
		stats.Total += row.Count
		switch row.Status {
		case model.StatusTodo:
			stats.Todo = row.Count
		case model.StatusInProgress:
			stats.InProgress = row.Count
		case model.StatusCompleted:
			stats.Completed = row.Count
		}
	}
	return stats, nil
}

// Delete removes the project with its tasks and their assignments and comments
// in a single transaction.
func (r *ProjectRepository) Delete(ctx context.Context, projectID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taskIDs := tx.Model(&model.Task{}).Select("id").Where("project_id = ?", projectID)
		if err := deleteTaskChildren(tx, taskIDs); err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&model.Task{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Project{}, projectID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}
