package service

import (
	"context"
	"errors"
	"strings"

	"github.com/braillearn/backend/internal/auth"
	"github.com/braillearn/backend/internal/domain/entities"
	"github.com/braillearn/backend/internal/repository"
)

var (
	ErrUsernameRequired   = errors.New("username required")
	ErrUserIDRequired     = errors.New("user_id required")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// defaultPassword is assigned to accounts created without one, matching the
// admin bulk-provisioning behavior.
const defaultPassword = "password"

type UserRepository interface {
	Create(ctx context.Context, u *entities.User) error
	GetByID(ctx context.Context, id int64) (*entities.User, error)
	GetByUsername(ctx context.Context, username string) (*entities.User, error)
	UsernameTakenByOther(ctx context.Context, username string, excludeID int64) (bool, error)
	Update(ctx context.Context, id int64, username, fullName string, active bool, passwordHash string) error
	Delete(ctx context.Context, id int64) error
	ListAll(ctx context.Context) ([]*entities.User, error)
	ListByRole(ctx context.Context, role string) ([]*entities.User, error)
	CountByRole(ctx context.Context, role string) (int, error)
}

// ClassCleanup drops a removed user's class references.
type ClassCleanup interface {
	RemoveStudentFromAll(ctx context.Context, studentID int64) error
	UnassignTeacherFromAll(ctx context.Context, teacherID int64) error
}

// UserService covers account creation, login and admin user management.
type UserService struct {
	users   UserRepository
	classes ClassCleanup
	tokens  *auth.TokenManager
}

func NewUserService(users UserRepository, classes ClassCleanup, tokens *auth.TokenManager) *UserService {
	return &UserService{users: users, classes: classes, tokens: tokens}
}

type CreateUserInput struct {
	Username  string  `json:"username"`
	FullName  string  `json:"full_name"`
	Role      string  `json:"role"`
	Password  string  `json:"password"`
	CI        *string `json:"ci"`
	Active    *bool   `json:"active"`
	CreatedBy *int64  `json:"created_by"`
}

// Create registers a new account with a hashed password.
// Returns repository.ErrUsernameExists on a duplicate username.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*entities.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, ErrUsernameRequired
	}

	role := strings.TrimSpace(in.Role)
	if role == "" {
		role = entities.RoleStudent
	}

	password := in.Password
	if password == "" {
		password = defaultPassword
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := entities.NewUser(username, strings.TrimSpace(in.FullName), role)
	user.PasswordHash = hash
	user.CI = in.CI
	user.CreatedBy = in.CreatedBy
	if in.Active != nil {
		user.Active = *in.Active
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login checks credentials and issues an access token.
func (s *UserService) Login(ctx context.Context, username, password string) (string, *entities.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}

		return "", nil, err
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Username, user.Role)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

type UpdateUserInput struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
	Active   *bool  `json:"active"`
}

// Update rewrites an account's editable fields; a non-empty password replaces
// the stored hash.
func (s *UserService) Update(ctx context.Context, in UpdateUserInput) error {
	if in.UserID == 0 {
		return ErrUserIDRequired
	}
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return ErrUsernameRequired
	}

	if _, err := s.users.GetByID(ctx, in.UserID); err != nil {
		return err
	}

	taken, err := s.users.UsernameTakenByOther(ctx, username, in.UserID)
	if err != nil {
		return err
	}
	if taken {
		return repository.ErrUsernameExists
	}

	var hash string
	if in.Password != "" {
		hash, err = auth.HashPassword(in.Password)
		if err != nil {
			return err
		}
	}

	active := true
	if in.Active != nil {
		active = *in.Active
	}

	return s.users.Update(ctx, in.UserID, username, strings.TrimSpace(in.FullName), active, hash)
}

// Delete removes an account after dropping its class references: students
// leave their classes, teachers are unassigned from theirs.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if id == 0 {
		return ErrUserIDRequired
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}

	switch user.Role {
	case entities.RoleStudent:
		if err := s.classes.RemoveStudentFromAll(ctx, id); err != nil {
			return err
		}
	case entities.RoleTeacher:
		if err := s.classes.UnassignTeacherFromAll(ctx, id); err != nil {
			return err
		}
	}

	return s.users.Delete(ctx, id)
}

// GetByID returns a single account.
func (s *UserService) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	return s.users.GetByID(ctx, id)
}

// ListAll returns every account, newest first.
func (s *UserService) ListAll(ctx context.Context) ([]*entities.User, error) {
	return s.users.ListAll(ctx)
}

// ListByRole returns accounts with the given role.
func (s *UserService) ListByRole(ctx context.Context, role string) ([]*entities.User, error) {
	return s.users.ListByRole(ctx, role)
}

// CountByRole returns the number of accounts with the given role.
func (s *UserService) CountByRole(ctx context.Context, role string) (int, error) {
	return s.users.CountByRole(ctx, role)
}
