package web

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"taskboard/internal/service"
)

type projectForm struct {
	Name        string `form:"name"`
	Description string `form:"description"`
	Team        uint   `form:"team"`
}

func (s *Server) listProjects(c *gin.Context) {
	number, err := pageParam(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	page, err := s.svc.Projects.List(c.Request.Context(), currentUser(c), number)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.html(c, http.StatusOK, "project_list", gin.H{"Projects": page.Projects, "Page": page.Page, "Query": ""})
}

func (s *Server) newProject(c *gin.Context) {
	form := projectForm{}
	if team, err := strconv.ParseUint(c.Query("team"), 10, 64); err == nil {
		form.Team = uint(team)
	}
	s.renderProjectForm(c, http.StatusOK, form, nil, 0)
}

func (s *Server) createProject(c *gin.Context) {
	var form projectForm
	if err := c.ShouldBind(&form); err != nil {
		s.renderError(c, http.StatusBadRequest)
		return
	}
	project, err := s.svc.Projects.Create(c.Request.Context(), currentUser(c), service.ProjectInput{
		Name:        form.Name,
		Description: form.Description,
		TeamID:      form.Team,
	})
	if fields, ok := validationErrors(err); ok {
		s.renderProjectForm(c, http.StatusUnprocessableEntity, form, fields, 0)
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, projectURL(project.ID))
}

func (s *Server) projectDetail(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		s.fail(c, err)
		return
	}
	detail, err := s.svc.Projects.Detail(c.Request.Context(), currentUser(c), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.html(c, http.StatusOK, "project_detail", gin.H{"Detail": detail})
}

func (s *Server) editProject(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		s.fail(c, err)
		return
	}
	project, err := s.svc.Projects.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	form := projectForm{Name: project.Name, Description: project.Description, Team: project.TeamID}
	s.renderProjectForm(c, http.StatusOK, form, nil, project.ID)
}

func (s *Server) updateProject(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		s.fail(c, err)
		return
	}
	var form projectForm
	if err := c.ShouldBind(&form); err != nil {
		s.renderError(c, http.StatusBadRequest)
		return
	}
	project, err := s.svc.Projects.Update(c.Request.Context(), currentUser(c), id, service.ProjectInput{
		Name:        form.Name,
		Description: form.Description,
	})
	if fields, ok := validationErrors(err); ok {
		s.renderProjectForm(c, http.StatusUnprocessableEntity, form, fields, id)
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, projectURL(project.ID))
}

func (s *Server) deleteProject(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		s.fail(c, err)
		return
	}
	if _, err := s.svc.Projects.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		s.fail(c, err)
		return
	}
	s.addFlash(c, "success", "The project was deleted.")
	c.Redirect(http.StatusFound, "/projects/")
}

// renderProjectForm shows the create form when projectID is zero and the
// update form otherwise.
func (s *Server) renderProjectForm(c *gin.Context, status int, form projectForm, fields map[string]string, projectID uint) {
	teams, err := s.svc.Teams.All(c.Request.Context(), currentUser(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	data := gin.H{"Form": form, "Teams": teams, "ProjectID": projectID}
	if fields != nil {
		data["Errors"] = fields
	}
	s.html(c, status, "project_form", data)
}
