package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"taskboard/internal/model"
	"taskboard/internal/repository"
)

const minPasswordLength = 8

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

var commonPasswords = map[string]struct{}{
	"password": {}, "password1": {}, "12345678": {}, "123456789": {}, "qwertyuiop": {},
	"iloveyou": {}, "11111111": {}, "abc12345": {}, "letmein1": {}, "sunshine": {},
}

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Username  string
	Password1 string
	Password2 string
}

// ProfileInput is the profile edit form.
type ProfileInput struct {
	FirstName string
	LastName  string
	Email     string
}

// ChangePasswordInput is the password change form.
type ChangePasswordInput struct {
	OldPassword  string
	NewPassword1 string
	NewPassword2 string
}

// AuthService owns accounts, credentials and login sessions.
type AuthService struct {
	users    *repository.UserRepository
	sessions *repository.SessionRepository
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

func NewAuthService(users *repository.UserRepository, sessions *repository.SessionRepository, ttl time.Duration, logger *slog.Logger) *AuthService {
	if ttl <= 0 {
		ttl = 14 * 24 * time.Hour
	}
	return &AuthService{
		users:    users,
		sessions: sessions,
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}
}

// Register creates an account after validating the username and password pair.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(input.Username)
	verr := &ValidationError{}
	switch {
	case username == "":
		verr.Add("username", "This field is required.")
	case len(username) > 150:
		verr.Add("username", "Ensure this value has at most 150 characters.")
	case !usernamePattern.MatchString(username):
		verr.Add("username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	default:
		taken, err := s.users.UsernameTaken(ctx, username)
		if err != nil {
			return nil, err
		}
		if taken {
			verr.Add("username", "A user with that username already exists.")
		}
	}
	if input.Password1 == "" {
		verr.Add("password1", "This field is required.")
	}
	if input.Password2 == "" {
		verr.Add("password2", "This field is required.")
	} else if input.Password1 != input.Password2 {
		verr.Add("password2", "The two password fields didn't match.")
	} else if msg := checkPassword(input.Password1, username); msg != "" {
		verr.Add("password2", msg)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password1), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &model.User{Username: username, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Login checks credentials and opens a new session.
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.User, *model.Session, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	now := s.now()
	session := &model.Session{
		Token:      uuid.NewString(),
		UserID:     user.ID,
		ExpiresAt:  now.Add(s.ttl),
		LastSeenAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, nil, err
	}
	if err := s.users.TouchLastLogin(ctx, user, now); err != nil {
		return nil, nil, err
	}
	s.logger.Info("user logged in", "user_id", user.ID)
	return user, session, nil
}

// Authenticate resolves a session token to its user. Unknown and expired
// tokens yield ErrNotFound; expired sessions are removed.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.User, *model.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil, ErrNotFound
	}
	session, err := s.sessions.FindByToken(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	now := s.now()
	if session.Expired(now) {
		if err := s.sessions.DeleteByToken(ctx, token); err != nil {
			s.logger.Warn("drop expired session", "error", err)
		}
		return nil, nil, ErrNotFound
	}
	if now.Sub(session.LastSeenAt) > time.Minute {
		if err := s.sessions.Touch(ctx, session, now); err != nil {
			s.logger.Warn("touch session", "error", err)
		}
	}
	user := session.User
	return &user, session, nil
}

// Logout ends the session identified by token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	return s.sessions.DeleteByToken(ctx, token)
}

// UpdateProfile changes the user's name and email; an email owned by another
// account is rejected and nothing is stored.
func (s *AuthService) UpdateProfile(ctx context.Context, user *model.User, input ProfileInput) error {
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Email = strings.TrimSpace(input.Email)

	verr := &ValidationError{}
	if len(input.FirstName) > 150 {
		verr.Add("first_name", "Ensure this value has at most 150 characters.")
	}
	if len(input.LastName) > 150 {
		verr.Add("last_name", "Ensure this value has at most 150 characters.")
	}
	if input.Email != "" {
		if addr, err := mail.ParseAddress(input.Email); err != nil || addr.Address != input.Email {
			verr.Add("email", "Enter a valid email address.")
		} else {
			taken, err := s.users.EmailTakenByOther(ctx, input.Email, user.ID)
			if err != nil {
				return err
			}
			if taken {
				verr.Add("email", "This email address is already in use.")
			}
		}
	}
	if err := verr.OrNil(); err != nil {
		return err
	}

	updated := *user
	updated.FirstName = input.FirstName
	updated.LastName = input.LastName
	updated.Email = input.Email
	if err := s.users.UpdateProfile(ctx, &updated); err != nil {
		return err
	}
	*user = updated
	return nil
}

// ChangePassword replaces the password and revokes every other session of the
// user, keeping keepToken valid.
func (s *AuthService) ChangePassword(ctx context.Context, user *model.User, keepToken string, input ChangePasswordInput) error {
	verr := &ValidationError{}
	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(input.OldPassword)) != nil {
		verr.Add("old_password", "Your old password was entered incorrectly. Please enter it again.")
	}
	switch {
	case input.NewPassword1 == "":
		verr.Add("new_password1", "This field is required.")
	case input.NewPassword1 != input.NewPassword2:
		verr.Add("new_password2", "The two password fields didn't match.")
	default:
		if msg := checkPassword(input.NewPassword1, user.Username); msg != "" {
			verr.Add("new_password2", msg)
		}
	}
	if err := verr.OrNil(); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword1), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user, hash); err != nil {
		return err
	}
	if err := s.sessions.DeleteOtherSessions(ctx, user.ID, keepToken); err != nil {
		return err
	}
	s.logger.Info("password changed", "user_id", user.ID)
	return nil
}

// SweepExpiredSessions deletes sessions past their expiry.
func (s *AuthService) SweepExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("expired sessions removed", "count", n)
	}
	return n, nil
}

// checkPassword returns a message describing why password is too weak, or "".
func checkPassword(password, username string) string {
	if len(password) < minPasswordLength {
		return fmt.Sprintf("This password is too short. It must contain at least %d characters.", minPasswordLength)
	}
	if username != "" && strings.EqualFold(password, username) {
		return "The password is too similar to the username."
	}
	if _, ok := commonPasswords[strings.ToLower(password)]; ok {
		return "This password is too common."
	}
	numeric := true
	for _, r := range password {
		if !unicode.IsDigit(r) {
			numeric = false
			break
		}
	}
	if numeric {
		return "This password is entirely numeric."
	}
	return ""
}
