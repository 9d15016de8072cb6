package web

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/multitemplate"
	"github.com/gin-gonic/gin"

	"taskboard/internal/model"
	"taskboard/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{
	"login", "register", "profile", "edit_profile", "change_password",
	"dashboard",
	"team_list", "team_form", "team_detail",
	"project_list", "project_form", "project_detail",
	"task_list", "task_form", "task_detail", "task_confirm_delete",
	"error",
}

const displayLayout = "Jan 2, 2006 15:04"

// templateFuncs shows times in loc and classifies urgency against now.
func templateFuncs(loc *time.Location, now func() time.Time) template.FuncMap {
	return template.FuncMap{
		"dateTime": func(t time.Time) string {
			return t.In(loc).Format(displayLayout)
		},
		"dueDate": func(t *time.Time) string {
			if t == nil {
				return "No due date"
			}
			return t.In(loc).Format(displayLayout)
		},
		"urgency": func(task model.Task) string {
			return string(service.TaskUrgency(task, now()))
		},
		"hasID":       hasID,
		"canComplete": canComplete,
		"pageLink":    pageLink,
		"itoa": func(v any) string {
			return fmt.Sprintf("%d", v)
		},
		"statuses":   func() []model.TaskStatus { return model.Statuses },
		"priorities": func() []model.Priority { return model.Priorities },
	}
}

func hasID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func canComplete(a model.TaskAssignment, task *model.Task, user *model.User) bool {
	if a.IsCompleted || user == nil {
		return false
	}
	return a.AssignedToID == user.ID || task.CreatedByUser(user.ID)
}

func pageLink(query string, n int) string {
	if query == "" {
		return "?page=" + strconv.Itoa(n)
	}
	return "?" + query + "&page=" + strconv.Itoa(n)
}

// newRenderer parses every page together with the shared layout.
func newRenderer(loc *time.Location, now func() time.Time) (multitemplate.Render, error) {
	funcs := templateFuncs(loc, now)
	r := multitemplate.New()
	for _, name := range pages {
		tmpl, err := template.New("base.html").Funcs(funcs).
			ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.Add(name, tmpl)
	}
	return r, nil
}

// html renders a page with the layout data every page needs.
func (s *Server) html(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["User"] = currentUser(c)
	data["Flashes"] = takeFlashes(c)
	data["Path"] = c.Request.URL.Path
	if _, ok := data["Errors"]; !ok {
		data["Errors"] = map[string]string{}
	}
	c.HTML(status, name, data)
}

var errorMessages = map[int]string{
	http.StatusBadRequest:          "The request could not be understood.",
	http.StatusForbidden:           "You do not have permission to do that.",
	http.StatusNotFound:            "The page you were looking for does not exist.",
	http.StatusInternalServerError: "Something went wrong on our side.",
}

func (s *Server) renderError(c *gin.Context, status int) {
	s.html(c, status, "error", gin.H{
		"Status":  status,
		"Message": errorMessages[status],
	})
	c.Abort()
}

// fail maps a service error onto an error page.
func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		s.renderError(c, http.StatusNotFound)
	case errors.Is(err, service.ErrForbidden):
		s.renderError(c, http.StatusForbidden)
	case errors.Is(err, service.ErrBadRequest):
		s.renderError(c, http.StatusBadRequest)
	default:
		s.logger.Error("request failed", "error", err, "path", c.Request.URL.Path, "request_id", c.GetString(ctxRequestID))
		s.renderError(c, http.StatusInternalServerError)
	}
}

// validationErrors extracts field messages from err, if it is a ValidationError.
func validationErrors(err error) (map[string]string, bool) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return verr.Fields, true
	}
	return nil, false
}

// idParam reads a positive numeric path parameter; anything else is not found.
func idParam(c *gin.Context, name string) (uint, error) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%s %q: %w", name, c.Param(name), service.ErrNotFound)
	}
	return uint(n), nil
}

// pageParam reads ?page=, treating malformed values as not found.
func pageParam(c *gin.Context) (int, error) {
	return service.ParsePage(c.Query("page"))
}
