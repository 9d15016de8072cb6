package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskboard/internal/model"
)

// TaskFilter narrows a task listing; nil fields are not applied.
type TaskFilter struct {
	Status    *model.TaskStatus
	Priority  *model.Priority
	ProjectID *uint
}

const taskOrder = "tasks.priority DESC, tasks.due_date ASC NULLS LAST, tasks.id ASC"

// TaskRepository handles CRUD for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Omit("Project", "CreatedBy", "Assignments", "Comments").Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// FindByID loads a task with its project, the project's team and the creator.
func (r *TaskRepository) FindByID(ctx context.Context, id uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).
		Preload("Project").
		Preload("Project.Team").
		Preload("CreatedBy").
		First(&task, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &task, nil
}

// Update stores the editable fields of task.
func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	updates := map[string]interface{}{
		"title":       task.Title,
		"description": task.Description,
		"status":      task.Status,
		"priority":    task.Priority,
		"due_date":    task.DueDate,
	}
	if err := r.db.WithContext(ctx).Model(task).Omit(clause.Associations).Updates(updates).Error; err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

// Delete removes a task with its assignments and comments in one transaction.
func (r *TaskRepository) Delete(ctx context.Context, taskID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", taskID).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", taskID).Delete(&model.TaskAssignment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Task{}, taskID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// assignedTo scopes tasks to those with an assignment for userID.
func (r *TaskRepository) assignedTo(ctx context.Context, userID uint) *gorm.DB {
	db := r.db.WithContext(ctx)
	assigned := db.Model(&model.TaskAssignment{}).Select("task_id").Where("assigned_to_id = ?", userID)
	return db.Model(&model.Task{}).Where("tasks.id IN (?)", assigned)
}

func applyTaskFilter(q *gorm.DB, f TaskFilter) *gorm.DB {
	if f.Status != nil {
		q = q.Where("tasks.status = ?", *f.Status)
	}
	if f.Priority != nil {
		q = q.Where("tasks.priority = ?", *f.Priority)
	}
	if f.ProjectID != nil {
		q = q.Where("tasks.project_id = ?", *f.ProjectID)
	}
	return q
}

// ListAssigned returns one page of tasks assigned to userID matching f, by
// priority descending then due date ascending with undated tasks last.
func (r *TaskRepository) ListAssigned(ctx context.Context, userID uint, f TaskFilter, offset, limit int) ([]model.Task, int64, error) {
	var total int64
	if err := applyTaskFilter(r.assignedTo(ctx, userID), f).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}
	var tasks []model.Task
	q := applyTaskFilter(r.assignedTo(ctx, userID), f).Preload("Project").Order(taskOrder)
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	if err := q.Find(&tasks).Error; err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, total, nil
}

func (r *TaskRepository) CountAssigned(ctx context.Context, userID uint) (int64, error) {
	var total int64
	if err := r.assignedTo(ctx, userID).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return total, nil
}

// ListAssignedOverdue returns open tasks assigned to userID whose due date is before now.
func (r *TaskRepository) ListAssignedOverdue(ctx context.Context, userID uint, now time.Time) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.assignedTo(ctx, userID).Preload("Project").
		Where("tasks.status IN ?", []model.TaskStatus{model.StatusTodo, model.StatusInProgress}).
		Where("tasks.due_date IS NOT NULL AND tasks.due_date < ?", now).
		Order(taskOrder).
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list overdue tasks: %w", err)
	}
	return tasks, nil
}

// ListAssignedByStatus returns tasks assigned to userID in the given status.
func (r *TaskRepository) ListAssignedByStatus(ctx context.Context, userID uint, status model.TaskStatus) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.assignedTo(ctx, userID).Preload("Project").
		Where("tasks.status = ?", status).
		Order(taskOrder).
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) ListByProject(ctx context.Context, projectID uint) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Preload("Project").
		Where("project_id = ?", projectID).Order(taskOrder).Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) CountCreatedBy(ctx context.Context, userID uint) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("created_by_id = ?", userID).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return total, nil
}
