package domain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// UserService owns registration, profile lookup and the ban set.
type UserService struct {
	users  UserRepository
	bans   BanRepository
	now    func() time.Time
	logger *slog.Logger
}

// NewUserService creates a UserService.
func NewUserService(users UserRepository, bans BanRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, bans: bans, now: time.Now, logger: logger}
}

// WithClock replaces the service clock. Test hook.
func (s *UserService) WithClock(now func() time.Time) *UserService {
	s.now = now
	return s
}

// Register creates a User for the platform identity. Duplicate
// registration attempts return ErrAlreadyRegistered and change nothing.
func (s *UserService) Register(ctx context.Context, id int64, username, firstName, lastName string) (User, error) {
	user := User{
		ID:           id,
		Username:     strings.ToLower(username),
		FirstName:    firstName,
		LastName:     lastName,
		RegisteredAt: s.now().UTC().Format(time.RFC3339),
	}
	if err := s.users.AddUser(ctx, user); err != nil {
		return User{}, err
	}
	s.logger.Info("user registered", "id", id, "username", user.Username)
	return user, nil
}

// Profile returns the public profile for a lowercased username, or
// ErrNotFound.
func (s *UserService) Profile(ctx context.Context, username string) (User, error) {
	return s.users.GetUserByUsername(ctx, strings.ToLower(username))
}

// ListUsers returns all registered users.
func (s *UserService) ListUsers(ctx context.Context) ([]User, error) {
	return s.users.ListUsers(ctx)
}

// Ban adds a username to the ban set.
func (s *UserService) Ban(ctx context.Context, username string) error {
	username = strings.ToLower(strings.TrimPrefix(username, "@"))
	if username == "" {
		return fmt.Errorf("empty username")
	}
	if err := s.bans.AddBan(ctx, username); err != nil {
		return fmt.Errorf("add ban: %w", err)
	}
	s.logger.Info("user banned", "username", username)
	return nil
}

// Unban removes a username from the ban set.
func (s *UserService) Unban(ctx context.Context, username string) error {
	username = strings.ToLower(strings.TrimPrefix(username, "@"))
	if username == "" {
		return fmt.Errorf("empty username")
	}
	if err := s.bans.RemoveBan(ctx, username); err != nil {
		return fmt.Errorf("remove ban: %w", err)
	}
	s.logger.Info("user unbanned", "username", username)
	return nil
}
