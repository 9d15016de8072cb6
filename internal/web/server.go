package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taskboard/internal/service"
)

// Services bundles the business operations the handlers call.
type Services struct {
	Auth        *service.AuthService
	Teams       *service.TeamService
	Projects    *service.ProjectService
	Tasks       *service.TaskService
	Assignments *service.AssignmentService
	Comments    *service.CommentService
	Dashboard   *service.DashboardService
}

// Options holds the HTTP-facing settings.
type Options struct {
	CookieName   string
	CookieSecure bool
	SessionTTL   time.Duration
	// Health reports whether backing stores are reachable; nil means always healthy.
	Health func(context.Context) error
}

// Server renders the task board over HTTP.
type Server struct {
	svc     Services
	opts    Options
	logger  *slog.Logger
	metrics *metrics
}

func New(svc Services, opts Options, logger *slog.Logger) *Server {
	if opts.CookieName == "" {
		opts.CookieName = "sessionid"
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 14 * 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		svc:     svc,
		opts:    opts,
		logger:  logger,
		metrics: newMetrics(),
	}
}

// Router builds the gin engine with every route and middleware attached.
func (s *Server) Router() (*gin.Engine, error) {
	renderer, err := newRenderer(s.svc.Tasks.Location(), s.svc.Tasks.Now)
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.HTMLRender = renderer
	r.Use(requestID())
	r.Use(s.requestLogger())
	r.Use(s.metrics.middleware())
	r.Use(gin.CustomRecovery(s.recovered))
	r.Use(s.loadFlashes())
	r.Use(s.loadSession())

	r.GET("/healthz", s.healthz)
	r.GET("/metrics", gin.WrapH(s.metrics.handler()))

	r.GET("/login/", s.loginForm)
	r.POST("/login/", s.login)
	r.POST("/logout/", s.logout)
	r.GET("/register/", s.registerForm)
	r.POST("/register/", s.register)

	app := r.Group("/", s.requireLogin())
	{
		app.GET("/", s.dashboard)

		app.GET("/profile/", s.profile)
		app.GET("/profile/edit/", s.editProfileForm)
		app.POST("/profile/edit/", s.editProfile)
		app.GET("/change-password/", s.changePasswordForm)
		app.POST("/change-password/", s.changePassword)

		app.GET("/teams/", s.listTeams)
		app.GET("/teams/create/", s.newTeam)
		app.POST("/teams/create/", s.createTeam)
		app.GET("/teams/:id/", s.teamDetail)
		app.POST("/teams/:id/members/", s.addTeamMember)
		app.POST("/teams/:id/delete/", s.deleteTeam)

		app.GET("/projects/", s.listProjects)
		app.GET("/projects/create/", s.newProject)
		app.POST("/projects/create/", s.createProject)
		app.GET("/projects/:id/", s.projectDetail)
		app.GET("/projects/:id/update/", s.editProject)
		app.POST("/projects/:id/update/", s.updateProject)
		app.POST("/projects/:id/delete/", s.deleteProject)

		app.GET("/tasks/", s.listTasks)
		app.GET("/tasks/create/", s.newTask)
		app.POST("/tasks/create/", s.createTask)
		app.GET("/tasks/:id/", s.taskDetail)
		app.GET("/tasks/:id/update/", s.editTask)
		app.POST("/tasks/:id/update/", s.updateTask)
		app.GET("/tasks/:id/delete/", s.confirmDeleteTask)
		app.POST("/tasks/:id/delete/", s.deleteTask)
		app.POST("/tasks/:id/assign/", s.assignTask)
		app.POST("/tasks/:id/comment/", s.addComment)

		app.POST("/assignments/:id/complete/", s.completeAssignment)
	}

	r.NoRoute(func(c *gin.Context) {
		s.renderError(c, http.StatusNotFound)
	})
	return r, nil
}

func (s *Server) healthz(c *gin.Context) {
	if s.opts.Health != nil {
		if err := s.opts.Health(c.Request.Context()); err != nil {
			s.logger.Error("health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) recovered(c *gin.Context, err any) {
	s.logger.Error("panic recovered", "error", err, "path", c.Request.URL.Path, "request_id", c.GetString(ctxRequestID))
	s.renderError(c, http.StatusInternalServerError)
}
