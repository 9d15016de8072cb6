package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"taskboard/internal/model"
)

// TeamRepository manages teams and their membership.
type TeamRepository struct {
	db *gorm.DB
}

func NewTeamRepository(db *gorm.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

// Create stores the team and enrols its owner as the first member.
func (r *TeamRepository) Create(ctx context.Context, team *model.Team) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Members", "Owner").Create(team).Error; err != nil {
			return err
		}
		return insertMember(tx, team.ID, team.OwnerID)
	})
	if err != nil {
		return fmt.Errorf("create team: %w", err)
	}
	return nil
}

// FindByID loads a team with its owner and members.
func (r *TeamRepository) FindByID(ctx context.Context, id uint) (*model.Team, error) {
	var team model.Team
	if err := r.db.WithContext(ctx).
		Preload("Owner").
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("users.username ASC") }).
		First(&team, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &team, nil
}

// memberTeamIDs selects the ids of teams userID belongs to.
func (r *TeamRepository) memberTeamIDs(ctx context.Context, userID uint) *gorm.DB {
	return memberTeamIDs(r.db.WithContext(ctx), userID)
}

func memberTeamIDs(db *gorm.DB, userID uint) *gorm.DB {
	return db.Table("team_members").Select("team_id").Where("user_id = ?", userID)
}

// ListForMember returns one page of the user's teams, newest first, with the total count.
func (r *TeamRepository) ListForMember(ctx context.Context, userID uint, offset, limit int) ([]model.Team, int64, error) {
	var total int64
	base := r.db.WithContext(ctx).Model(&model.Team{}).Where("id IN (?)", r.memberTeamIDs(ctx, userID))
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count teams: %w", err)
	}
	var teams []model.Team
	q := r.db.WithContext(ctx).Preload("Owner").Preload("Members").
		Where("id IN (?)", r.memberTeamIDs(ctx, userID)).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	if err := q.Find(&teams).Error; err != nil {
		return nil, 0, fmt.Errorf("list teams: %w", err)
	}
	return teams, total, nil
}

func (r *TeamRepository) CountForMember(ctx context.Context, userID uint) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Team{}).
		Where("id IN (?)", r.memberTeamIDs(ctx, userID)).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count teams: %w", err)
	}
	return total, nil
}

// IsMember reports whether userID belongs to teamID.
func (r *TeamRepository) IsMember(ctx context.Context, teamID, userID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Table("team_members").
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return count > 0, nil
}

// AddMember enrols userID in teamID; adding an existing member is a no-op.
func (r *TeamRepository) AddMember(ctx context.Context, teamID, userID uint) error {
	if err := insertMember(r.db.WithContext(ctx), teamID, userID); err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

func insertMember(db *gorm.DB, teamID, userID uint) error {
	return db.Exec("INSERT INTO team_members (team_id, user_id) VALUES (?, ?) ON CONFLICT DO NOTHING", teamID, userID).Error
}

// Delete removes the team together with its projects, their tasks, and
// the tasks' assignments and comments in a single transaction.
func (r *TeamRepository) Delete(ctx context.Context, teamID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		projectIDs := tx.Model(&model.Project{}).Select("id").Where("team_id = ?", teamID)
		taskIDs := tx.Model(&model.Task{}).Select("id").Where("project_id IN (?)", projectIDs)
		if err := deleteTaskChildren(tx, taskIDs); err != nil {
			return err
		}
		if err := tx.Where("project_id IN (?)", projectIDs).Delete(&model.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Where("team_id = ?", teamID).Delete(&model.Project{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM team_members WHERE team_id = ?", teamID).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Team{}, teamID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	return nil
}

// deleteTaskChildren removes comments and assignments of the tasks selected by taskIDs.
func deleteTaskChildren(tx *gorm.DB, taskIDs *gorm.DB) error {
	if err := tx.Where("task_id IN (?)", taskIDs).Delete(&model.Comment{}).Error; err != nil {
		return err
	}
	if err := tx.Where("task_id IN (?)", taskIDs).Delete(&model.TaskAssignment{}).Error; err != nil {
		return err
	}
	return nil
}
