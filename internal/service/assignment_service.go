package service

import (
	"context"
	"log/slog"
	"time"

	"taskboard/internal/model"
	"taskboard/internal/repository"
)

// AssignmentService binds team members to tasks and tracks their completion.
type AssignmentService struct {
	assignments *repository.AssignmentRepository
	tasks       *repository.TaskRepository
	teams       *repository.TeamRepository
	users       *repository.UserRepository
	now         func() time.Time
	logger      *slog.Logger
}

func NewAssignmentService(assignments *repository.AssignmentRepository, tasks *repository.TaskRepository, teams *repository.TeamRepository, users *repository.UserRepository, logger *slog.Logger) *AssignmentService {
	return &AssignmentService{
		assignments: assignments,
		tasks:       tasks,
		teams:       teams,
		users:       users,
		now:         func() time.Time { return time.Now().UTC() },
		logger:      logger,
	}
}

// AssignTask assigns targetID to the task on behalf of actor. Both users must
// belong to the task's team, otherwise ErrForbidden is returned and nothing is
// written. Assigning an already assigned user returns the existing row.
func (s *AssignmentService) AssignTask(ctx context.Context, actor *model.User, taskID, targetID uint) (*model.TaskAssignment, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	target, err := s.users.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	teamID := task.Project.TeamID
	if err := requireMember(ctx, s.teams, teamID, actor.ID); err != nil {
		return nil, err
	}
	if err := requireMember(ctx, s.teams, teamID, target.ID); err != nil {
		s.logger.Warn("assign rejected: not a team member", "task_id", task.ID, "user_id", target.ID, "team_id", teamID)
		return nil, err
	}

	assignedBy := actor.ID
	assignment, created, err := s.assignments.GetOrCreate(ctx, task.ID, target.ID, &assignedBy)
	if err != nil {
		return nil, err
	}
	if created {
		s.logger.Info("task assigned", "task_id", task.ID, "user_id", target.ID, "assigned_by", actor.ID)
	}
	return assignment, nil
}

// CompleteAssignment marks an assignment done. Only the assignee and the
// task's creator may complete it; anyone else gets ErrForbidden. Completing an
// already completed assignment keeps its first completion time.
func (s *AssignmentService) CompleteAssignment(ctx context.Context, actor *model.User, assignmentID uint) (*model.TaskAssignment, error) {
	assignment, err := s.assignments.FindByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if assignment.AssignedToID != actor.ID && !assignment.Task.CreatedByUser(actor.ID) {
		s.logger.Warn("complete rejected", "assignment_id", assignment.ID, "user_id", actor.ID)
		return assignment, ErrForbidden
	}
	if assignment.IsCompleted {
		return assignment, nil
	}
	if err := s.assignments.MarkCompleted(ctx, assignment, s.now()); err != nil {
		return nil, err
	}
	s.logger.Info("assignment completed", "assignment_id", assignment.ID, "task_id", assignment.TaskID, "user_id", actor.ID)
	return assignment, nil
}
