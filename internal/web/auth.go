package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/service"
)

type loginForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
	Next     string `form:"next"`
}

type registerForm struct {
	Username  string `form:"username"`
	Password1 string `form:"password1"`
	Password2 string `form:"password2"`
}

type profileForm struct {
	FirstName string `form:"first_name"`
	LastName  string `form:"last_name"`
	Email     string `form:"email"`
}

type passwordForm struct {
	OldPassword  string `form:"old_password"`
	NewPassword1 string `form:"new_password1"`
	NewPassword2 string `form:"new_password2"`
}

func (s *Server) loginForm(c *gin.Context) {
	s.html(c, http.StatusOK, "login", gin.H{"Form": loginForm{Next: c.Query("next")}})
}

func (s *Server) login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		s.renderError(c, http.StatusBadRequest)
		return
	}
	user, session, err := s.svc.Auth.Login(c.Request.Context(), form.Username, form.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		form.Password = ""
		s.html(c, http.StatusOK, "login", gin.H{
			"Form":  form,
			"Error": "Please enter a correct username and password. Note that both fields may be case-sensitive.",
		})
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	s.setSessionCookie(c, session)
	s.addFlash(c, "success", "Welcome back, "+user.Username+"!")
	c.Redirect(http.StatusFound, safeNext(form.Next))
}

func (s *Server) logout(c *gin.Context) {
	if token := c.GetString(ctxSessionToken); token != "" {
		if err := s.svc.Auth.Logout(c.Request.Context(), token); err != nil {
			s.fail(c, err)
			return
		}
	}
	s.clearSessionCookie(c)
	s.addFlash(c, "success", "You have been logged out successfully!")
	c.Redirect(http.StatusFound, "/login/")
}

func (s *Server) registerForm(c *gin.Context) {
	if currentUser(c) != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	s.html(c, http.StatusOK, "register", gin.H{"Form": registerForm{}})
}

func (s *Server) register(c *gin.Context) {
	if currentUser(c) != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	var form registerForm
	if err := c.ShouldBind(&form); err != nil {
		s.renderError(c, http.StatusBadRequest)
		return
	}
	_, err := s.svc.Auth.Register(c.Request.Context(), service.RegisterInput{
		Username:  form.Username,
		Password1: form.Password1,
		Password2: form.Password2,
	})
	if fields, ok := validationErrors(err); ok {
		s.html(c, http.StatusUnprocessableEntity, "register", gin.H{
			"Form":   registerForm{Username: form.Username},
			"Errors": fields,
		})
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	s.addFlash(c, "success", "Account created successfully! Please log in.")
	c.Redirect(http.StatusFound, "/login/")
}

func (s *Server) profile(c *gin.Context) {
	user := currentUser(c)
	stats, err := s.svc.Dashboard.Profile(c.Request.Context(), user)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.html(c, http.StatusOK, "profile", gin.H{"Profile": user, "Stats": stats})
}

func (s *Server) editProfileForm(c *gin.Context) {
	user := currentUser(c)
	s.html(c, http.StatusOK, "edit_profile", gin.H{"Form": profileForm{
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
	}})
}

func (s *Server) editProfile(c *gin.Context) {
	var form profileForm
	if err := c.ShouldBind(&form); err != nil {
		s.renderError(c, http.StatusBadRequest)
		return
	}
	err := s.svc.Auth.UpdateProfile(c.Request.Context(), currentUser(c), service.ProfileInput{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
	})
	if fields, ok := validationErrors(err); ok {
		s.html(c, http.StatusUnprocessableEntity, "edit_profile", gin.H{"Form": form, "Errors": fields})
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	s.addFlash(c, "success", "Your profile has been updated successfully!")
	c.Redirect(http.StatusFound, "/profile/")
}

func (s *Server) changePasswordForm(c *gin.Context) {
	s.html(c, http.StatusOK, "change_password", nil)
}

func (s *Server) changePassword(c *gin.Context) {
	var form passwordForm
	if err := c.ShouldBind(&form); err != nil {
		s.renderError(c, http.StatusBadRequest)
		return
	}
	err := s.svc.Auth.ChangePassword(c.Request.Context(), currentUser(c), c.GetString(ctxSessionToken), service.ChangePasswordInput{
		OldPassword:  form.OldPassword,
		NewPassword1: form.NewPassword1,
		NewPassword2: form.NewPassword2,
	})
	if fields, ok := validationErrors(err); ok {
		s.html(c, http.StatusUnprocessableEntity, "change_password", gin.H{"Errors": fields})
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	s.addFlash(c, "success", "Your password has been changed successfully!")
	c.Redirect(http.StatusFound, "/profile/")
}

func (s *Server) dashboard(c *gin.Context) {
	dash, err := s.svc.Dashboard.Dashboard(c.Request.Context(), currentUser(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	s.html(c, http.StatusOK, "dashboard", gin.H{"Dashboard": dash})
}
