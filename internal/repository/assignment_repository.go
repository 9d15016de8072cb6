package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskboard/internal/model"
)

// AssignmentRepository manages task assignments.
type AssignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// GetOrCreate returns the assignment of userID to taskID, creating it with
// assignedBy when it does not exist. created reports whether a row was inserted.
// A concurrent insert of the same pair is absorbed by the unique index.
func (r *AssignmentRepository) GetOrCreate(ctx context.Context, taskID, userID uint, assignedBy *uint) (*model.TaskAssignment, bool, error) {
	var assignment model.TaskAssignment
	db := r.db.WithContext(ctx)
	err := db.Where("task_id = ? AND assigned_to_id = ?", taskID, userID).First(&assignment).Error
	switch {
	case err == nil:
		return &assignment, false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		assignment = model.TaskAssignment{TaskID: taskID, AssignedToID: userID, AssignedByID: assignedBy}
		res := db.Omit("Task", "AssignedTo", "AssignedBy").
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&assignment)
		if res.Error != nil {
			return nil, false, fmt.Errorf("create assignment: %w", res.Error)
		}
		if res.RowsAffected == 1 {
			return &assignment, true, nil
		}
		var existing model.TaskAssignment
		if err := db.Where("task_id = ? AND assigned_to_id = ?", taskID, userID).First(&existing).Error; err != nil {
			return nil, false, fmt.Errorf("find assignment: %w", err)
		}
		return &existing, false, nil
	default:
		return nil, false, fmt.Errorf("find assignment: %w", err)
	}
}

// FindByID loads an assignment with its task.
func (r *AssignmentRepository) FindByID(ctx context.Context, id uint) (*model.TaskAssignment, error) {
	var assignment model.TaskAssignment
	if err := r.db.WithContext(ctx).Preload("Task").First(&assignment, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &assignment, nil
}

// ListByTask returns a task's assignments, newest first.
func (r *AssignmentRepository) ListByTask(ctx context.Context, taskID uint) ([]model.TaskAssignment, error) {
	var assignments []model.TaskAssignment
	if err := r.db.WithContext(ctx).Preload("AssignedTo").Preload("AssignedBy").
		Where("task_id = ?", taskID).
		Order("assigned_at DESC, id DESC").
		Find(&assignments).Error; err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// ActiveAssigneeIDs returns the ids of users with an open assignment on taskID.
func (r *AssignmentRepository) ActiveAssigneeIDs(ctx context.Context, taskID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&model.TaskAssignment{}).
		Where("task_id = ? AND is_completed = ?", taskID, false).
		Order("assigned_to_id ASC").
		Pluck("assigned_to_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list assignees: %w", err)
	}
	return ids, nil
}

func (r *AssignmentRepository) MarkCompleted(ctx context.Context, assignment *model.TaskAssignment, completedAt time.Time) error {
	updates := map[string]interface{}{
		"is_completed": true,
		"completed_at": completedAt,
	}
	if err := r.db.WithContext(ctx).Model(assignment).Omit(clause.Associations).Updates(updates).Error; err != nil {
		return fmt.Errorf("complete assignment: %w", err)
	}
	assignment.IsCompleted = true
	assignment.CompletedAt = &completedAt
	return nil
}

func (r *AssignmentRepository) CountByTaskAndUser(ctx context.Context, taskID, userID uint) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.TaskAssignment{}).
		Where("task_id = ? AND assigned_to_id = ?", taskID, userID).
		Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count assignments: %w", err)
	}
	return total, nil
}
