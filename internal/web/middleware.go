package web

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taskboard/internal/model"
	"taskboard/internal/service"
)

const (
	ctxRequestID    = "request_id"
	ctxUser         = "user"
	ctxSessionToken = "session_token"
)

// requestID tags every request with an id, reusing an incoming X-Request-ID.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader("X-Request-ID"))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"bytes", c.Writer.Size(),
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", c.ClientIP(),
			"request_id", c.GetString(ctxRequestID),
		}
		if user := currentUser(c); user != nil {
			fields = append(fields, "user_id", user.ID)
		}

		switch {
		case status >= http.StatusInternalServerError:
			s.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			s.logger.Warn("http_request", fields...)
		default:
			s.logger.Info("http_request", fields...)
		}
	}
}

// loadSession resolves the session cookie to a user. Requests without a valid
// session continue anonymously.
func (s *Server) loadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(s.opts.CookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}
		user, _, err := s.svc.Auth.Authenticate(c.Request.Context(), token)
		switch {
		case err == nil:
			c.Set(ctxUser, user)
			c.Set(ctxSessionToken, token)
		case errors.Is(err, service.ErrNotFound):
			s.clearSessionCookie(c)
		default:
			s.logger.Error("load session", "error", err, "request_id", c.GetString(ctxRequestID))
			s.renderError(c, http.StatusInternalServerError)
			return
		}
		c.Next()
	}
}

// requireLogin sends anonymous visitors to the login page, remembering where
// they were headed.
func (s *Server) requireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentUser(c) != nil {
			c.Next()
			return
		}
		c.Redirect(http.StatusFound, "/login/?next="+url.QueryEscape(c.Request.URL.RequestURI()))
		c.Abort()
	}
}

func currentUser(c *gin.Context) *model.User {
	v, ok := c.Get(ctxUser)
	if !ok {
		return nil
	}
	user, _ := v.(*model.User)
	return user
}

func (s *Server) setSessionCookie(c *gin.Context, session *model.Session) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.opts.CookieName, session.Token, int(s.opts.SessionTTL.Seconds()), "/", "", s.opts.CookieSecure, true)
}

func (s *Server) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.opts.CookieName, "", -1, "/", "", s.opts.CookieSecure, true)
}

// safeNext keeps redirects on this site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
