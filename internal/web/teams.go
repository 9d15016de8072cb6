package web

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/service"
)

type teamForm struct {
	Name        string `form:"name"`
	Description string `form:"description"`
}

func (s *Server) listTeams(c *gin.Context) {
	number, err := pageParam(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	page, err := s.svc.Teams.List(c.Request.Context(), currentUser(c), number)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.html(c, http.StatusOK, "team_list", gin.H{"Teams": page.Teams, "Page": page.Page, "Query": ""})
}

func (s *Server) newTeam(c *gin.Context) {
	s.html(c, http.StatusOK, "team_form", gin.H{"Form": teamForm{}})
}

func (s *Server) createTeam(c *gin.Context) {
	var form teamForm
	if err := c.ShouldBind(&form); err != nil {
		s.renderError(c, http.StatusBadRequest)
		return
	}
	_, err := s.svc.Teams.Create(c.Request.Context(), currentUser(c), service.TeamInput{
		Name:        form.Name,
		Description: form.Description,
	})
	if fields, ok := validationErrors(err); ok {
		s.html(c, http.StatusUnprocessableEntity, "team_form", gin.H{"Form": form, "Errors": fields})
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/teams/")
}

func (s *Server) teamDetail(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		s.fail(c, err)
		return
	}
	detail, err := s.svc.Teams.Detail(c.Request.Context(), currentUser(c), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.html(c, http.StatusOK, "team_detail", gin.H{"Detail": detail})
}

func (s *Server) addTeamMember(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		s.fail(c, err)
		return
	}
	username := c.PostForm("username")
	user, err := s.svc.Teams.AddMember(c.Request.Context(), currentUser(c), id, username)
	if fields, ok := validationErrors(err); ok {
		s.addFlash(c, "error", fields["username"])
		c.Redirect(http.StatusFound, teamURL(id))
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	s.addFlash(c, "success", user.Username+" was added to the team.")
	c.Redirect(http.StatusFound, teamURL(id))
}

func (s *Server) deleteTeam(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.svc.Teams.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		s.fail(c, err)
		return
	}
	s.addFlash(c, "success", "The team was deleted.")
	c.Redirect(http.StatusFound, "/teams/")
}

func teamURL(id uint) string { return fmt.Sprintf("/teams/%d/", id) }
func projectURL(id uint) string { return fmt.Sprintf("/projects/%d/", id) }
func taskURL(id uint) string { return fmt.Sprintf("/tasks/%d/", id) }
