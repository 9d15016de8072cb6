package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"taskboard/internal/model"
	"taskboard/internal/repository"
)

// TeamInput is the team creation form.
type TeamInput struct {
	Name        string
	Description string
}

// TeamPage is one page of the user's teams.
type TeamPage struct {
	Teams []model.Team
	Page  Page
}

// TeamDetail is everything shown on a team page.
type TeamDetail struct {
	Team     *model.Team
	Projects []model.Project
	Members  []model.User
	IsOwner  bool
}

// TeamService wraps team workflows.
type TeamService struct {
	teams    *repository.TeamRepository
	projects *repository.ProjectRepository
	users    *repository.UserRepository
	logger   *slog.Logger
}

func NewTeamService(teams *repository.TeamRepository, projects *repository.ProjectRepository, users *repository.UserRepository, logger *slog.Logger) *TeamService {
	return &TeamService{teams: teams, projects: projects, users: users, logger: logger}
}

// List returns the given page of teams the actor belongs to.
func (s *TeamService) List(ctx context.Context, actor *model.User, number int) (*TeamPage, error) {
	offset := Page{Number: number, Size: TeamsPerPage}.Offset()
	teams, total, err := s.teams.ListForMember(ctx, actor.ID, offset, TeamsPerPage)
	if err != nil {
		return nil, err
	}
	page, err := resolvePage(number, TeamsPerPage, total)
	if err != nil {
		return nil, err
	}
	return &TeamPage{Teams: teams, Page: page}, nil
}

// All returns every team the actor belongs to.
func (s *TeamService) All(ctx context.Context, actor *model.User) ([]model.Team, error) {
	teams, _, err := s.teams.ListForMember(ctx, actor.ID, 0, 0)
	return teams, err
}

// Create makes the actor owner and first member of a new team.
func (s *TeamService) Create(ctx context.Context, actor *model.User, input TeamInput) (*model.Team, error) {
	name := strings.TrimSpace(input.Name)
	verr := &ValidationError{}
	if name == "" {
		verr.Add("name", "This field is required.")
	} else if len(name) > 200 {
		verr.Add("name", "Ensure this value has at most 200 characters.")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	team := &model.Team{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		OwnerID:     actor.ID,
	}
	if err := s.teams.Create(ctx, team); err != nil {
		return nil, err
	}
	s.logger.Info("team created", "team_id", team.ID, "owner_id", actor.ID)
	return team, nil
}

// Detail loads a team for one of its members.
func (s *TeamService) Detail(ctx context.Context, actor *model.User, teamID uint) (*TeamDetail, error) {
	team, err := s.teams.FindByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !team.HasMember(actor.ID) {
		return nil, ErrForbidden
	}
	projects, err := s.projects.ListByTeam(ctx, team.ID)
	if err != nil {
		return nil, err
	}
	return &TeamDetail{
		Team:     team,
		Projects: projects,
		Members:  team.Members,
		IsOwner:  team.OwnerID == actor.ID,
	}, nil
}

// AddMember lets the team owner enrol another user by username.
func (s *TeamService) AddMember(ctx context.Context, actor *model.User, teamID uint, username string) (*model.User, error) {
	team, err := s.teams.FindByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.OwnerID != actor.ID {
		return nil, ErrForbidden
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, &ValidationError{Fields: map[string]string{"username": "This field is required."}}
	}
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &ValidationError{Fields: map[string]string{"username": "No user with that username."}}
		}
		return nil, err
	}
	if err := s.teams.AddMember(ctx, team.ID, user.ID); err != nil {
		return nil, err
	}
	s.logger.Info("team member added", "team_id", team.ID, "user_id", user.ID)
	return user, nil
}

// Delete removes a team and everything under it; only the owner may do so.
func (s *TeamService) Delete(ctx context.Context, actor *model.User, teamID uint) error {
	team, err := s.teams.FindByID(ctx, teamID)
	if err != nil {
		return err
	}
	if team.OwnerID != actor.ID {
		return ErrForbidden
	}
	if err := s.teams.Delete(ctx, team.ID); err != nil {
		return err
	}
	s.logger.Info("team deleted", "team_id", team.ID, "owner_id", actor.ID)
	return nil
}
