package service

import (
	"context"
	"strings"

	"taskboard/internal/model"
	"taskboard/internal/repository"
)

// CommentService posts comments on tasks.
type CommentService struct {
	comments *repository.CommentRepository
	tasks    *repository.TaskRepository
	teams    *repository.TeamRepository
}

func NewCommentService(comments *repository.CommentRepository, tasks *repository.TaskRepository, teams *repository.TeamRepository) *CommentService {
	return &CommentService{comments: comments, tasks: tasks, teams: teams}
}

// AddComment posts content on the task as actor. Blank content is ignored and
// yields a nil comment.
func (s *CommentService) AddComment(ctx context.Context, actor *model.User, taskID uint, content string) (*model.Comment, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := requireMember(ctx, s.teams, task.Project.TeamID, actor.ID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}
	comment := &model.Comment{TaskID: task.ID, AuthorID: actor.ID, Content: content}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}
