package web

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"taskboard/internal/service"
)

type taskForm struct {
	Title       string `form:"title"`
	Description string `form:"description"`
	Project     string `form:"project"`
	Status      string `form:"status"`
	Priority    string `form:"priority"`
	DueDate     string `form:"due_date"`
}

func (f taskForm) input() service.TaskInput {
	return service.TaskInput{
		Title:       f.Title,
		Description: f.Description,
		Project:     f.Project,
		Status:      f.Status,
		Priority:    f.Priority,
		DueDate:     f.DueDate,
	}
}

type taskFilterQuery struct {
	Status   string `form:"status"`
	Priority string `form:"priority"`
	Project  string `form:"project"`
}

// encode returns the non-empty filter values as a query string.
func (q taskFilterQuery) encode() string {
	v := url.Values{}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.Priority != "" {
		v.Set("priority", q.Priority)
	}
	if q.Project != "" {
		v.Set("project", q.Project)
	}
	return v.Encode()
}

func (s *Server) listTasks(c *gin.Context) {
	var q taskFilterQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.renderError(c, http.StatusBadRequest)
		return
	}
	filter, err := service.ParseTaskFilter(q.Status, q.Priority, q.Project)
	if err != nil {
		s.fail(c, err)
		return
	}
	number, err := pageParam(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	listing, err := s.svc.Tasks.List(c.Request.Context(), currentUser(c), filter, number)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.html(c, http.StatusOK, "task_list", gin.H{
		"Listing": listing,
		"Page":    listing.Page,
		"Filter":  q,
		"Query":   q.encode(),
	})
}

func (s *Server) newTask(c *gin.Context) {
	form := taskForm{Status: "todo", Priority: "2", Project: c.Query("project")}
	s.renderTaskForm(c, http.StatusOK, form, nil, 0)
}

func (s *Server) createTask(c *gin.Context) {
	var form taskForm
	if err := c.ShouldBind(&form); err != nil {
		s.renderError(c, http.StatusBadRequest)
		return
	}
	task, err := s.svc.Tasks.Create(c.Request.Context(), currentUser(c), form.input())
	if fields, ok := validationErrors(err); ok {
		s.renderTaskForm(c, http.StatusUnprocessableEntity, form, fields, 0)
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, taskURL(task.ID))
}

func (s *Server) taskDetail(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		s.fail(c, err)
		return
	}
	detail, err := s.svc.Tasks.Detail(c.Request.Context(), currentUser(c), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.html(c, http.StatusOK, "task_detail", gin.H{"Detail": detail})
}

func (s *Server) editTask(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		s.fail(c, err)
		return
	}
	task, err := s.svc.Tasks.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	form := taskForm{
		Title:       task.Title,
		Description: task.Description,
		Project:     strconv.FormatUint(uint64(task.ProjectID), 10),
		Status:      string(task.Status),
		Priority:    strconv.Itoa(int(task.Priority)),
		DueDate:     s.svc.Tasks.FormatDueDate(task.DueDate),
	}
	s.renderTaskForm(c, http.StatusOK, form, nil, task.ID)
}

func (s *Server) updateTask(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		s.fail(c, err)
		return
	}
	var form taskForm
	if err := c.ShouldBind(&form); err != nil {
		s.renderError(c, http.StatusBadRequest)
		return
	}
	task, err := s.svc.Tasks.Update(c.Request.Context(), currentUser(c), id, form.input())
	if fields, ok := validationErrors(err); ok {
		s.renderTaskForm(c, http.StatusUnprocessableEntity, form, fields, id)
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, taskURL(task.ID))
}

func (s *Server) confirmDeleteTask(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		s.fail(c, err)
		return
	}
	task, err := s.svc.Tasks.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.html(c, http.StatusOK, "task_confirm_delete", gin.H{"Task": task})
}

func (s *Server) deleteTask(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.svc.Tasks.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		s.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/tasks/")
}

func (s *Server) assignTask(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		s.fail(c, err)
		return
	}
	userID, err := strconv.ParseUint(c.PostForm("user_id"), 10, 64)
	if err != nil {
		s.renderError(c, http.StatusBadRequest)
		return
	}
	if _, err := s.svc.Assignments.AssignTask(c.Request.Context(), currentUser(c), id, uint(userID)); err != nil {
		s.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, taskURL(id))
}

func (s *Server) completeAssignment(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		s.fail(c, err)
		return
	}
	assignment, err := s.svc.Assignments.CompleteAssignment(c.Request.Context(), currentUser(c), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, taskURL(assignment.TaskID))
}

func (s *Server) addComment(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		s.fail(c, err)
		return
	}
	if _, err := s.svc.Comments.AddComment(c.Request.Context(), currentUser(c), id, c.PostForm("content")); err != nil {
		s.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, taskURL(id))
}

// renderTaskForm shows the create form when taskID is zero and the update
// form otherwise.
func (s *Server) renderTaskForm(c *gin.Context, status int, form taskForm, fields map[string]string, taskID uint) {
	projects, err := s.svc.Projects.All(c.Request.Context(), currentUser(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	data := gin.H{"Form": form, "Projects": projects, "TaskID": taskID}
	if fields != nil {
		data["Errors"] = fields
	}
	s.html(c, status, "task_form", data)
}
