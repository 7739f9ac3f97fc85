package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"expensify/internal/auth"
	"expensify/internal/cache"
	"expensify/internal/core"
	"expensify/internal/storage"
)

// bcrypt ignores input past 72 bytes
const maxPasswordBytes = 72

// Profile is the public view of a user.
type Profile struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func profileOf(u core.User) Profile {
	return Profile{ID: u.ID, Name: u.Name, Email: u.Email}
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is the outcome of a successful login.
type Session struct {
	User  Profile
	Token string
}

// AuthService registers users, checks credentials and issues session tokens.
type AuthService struct {
	users    storage.UserStore
	tokens   *auth.TokenIssuer
	profiles cache.Cache[int64, Profile]
}

// NewAuthService builds the service; profiles may be nil to disable caching.
func NewAuthService(users storage.UserStore, tokens *auth.TokenIssuer, profiles cache.Cache[int64, Profile]) *AuthService {
	return &AuthService{users: users, tokens: tokens, profiles: profiles}
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (Profile, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return Profile{}, invalid("All fields are required", nil)
	}
	if len(req.Password) > maxPasswordBytes {
		return Profile{}, invalid("Password is too long", nil)
	}

	user := core.User{Name: name, Email: core.NormalizeEmail(req.Email)}
	if err := user.Validate(); err != nil {
		if errors.Is(err, core.ErrInvalidEmail) {
			return Profile{}, invalid("Invalid email address", err)
		}
		return Profile{}, invalid("Invalid name", err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return Profile{}, err
	}
	user.PasswordHash = hash

	created, err := s.users.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			return Profile{}, err
		}
		return Profile{}, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User registered", "component", "auth", "user_id", created.ID)
	return profileOf(created), nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (Session, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return Session{}, invalid("Email and password are required", nil)
	}

	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, storage.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			slog.InfoContext(ctx, "Login rejected", "component", "auth", "user_id", user.ID)
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return Session{}, err
	}

	profile := profileOf(user)
	if s.profiles != nil {
		s.profiles.Set(user.ID, profile)
	}
	return Session{User: profile, Token: token}, nil
}

// CurrentUser returns the profile of an authenticated user id.
func (s *AuthService) CurrentUser(ctx context.Context, userID int64) (Profile, error) {
	if s.profiles != nil {
		if p, ok := s.profiles.Get(userID); ok {
			return p, nil
		}
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return Profile{}, err
	}

	profile := profileOf(user)
	if s.profiles != nil {
		s.profiles.Set(userID, profile)
	}
	return profile, nil
}

// TokenTTL is the lifetime of issued session tokens.
func (s *AuthService) TokenTTL() time.Duration {
	return s.tokens.TTL()
}
