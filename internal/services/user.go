package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studybridge-backend/internal/platform/apierr"
	"github.com/yungbote/studybridge-backend/internal/platform/logger"
	"github.com/yungbote/studybridge-backend/internal/repos"
	"github.com/yungbote/studybridge-backend/internal/types"
)

type UserService interface {
	Register(ctx context.Context, req types.CreateUserRequest) (*types.AuthResponse, error)
	Login(ctx context.Context, req types.LoginRequest) (*types.AuthResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*types.User, error)
}

type userService struct {
	users repos.UserRepo
	auth  AuthService
	log   *logger.Logger
}

func NewUserService(users repos.UserRepo, auth AuthService, log *logger.Logger) UserService {
	return &userService{users: users, auth: auth, log: log.With("service", "user")}
}

func (s *userService) Register(ctx context.Context, req types.CreateUserRequest) (*types.AuthResponse, error) {
	if req.Password != req.ConfirmPassword {
		return nil, apierr.Validation("passwords do not match")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.users.GetByEmail(ctx, nil, email); err == nil {
		return nil, apierr.Validation("email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.Internal(err)
	}
	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	user := &types.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(req.Name),
		Role:         types.RoleUser,
	}
	if err := s.users.Create(ctx, nil, user); err != nil {
		return nil, apierr.Internal(err)
	}
	s.log.Info("user registered", "user_id", user.ID.String())
	return s.respond(user)
}

func (s *userService) Login(ctx context.Context, req types.LoginRequest) (*types.AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, nil, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.Unauthorized("invalid email or password")
		}
		return nil, apierr.Internal(err)
	}
	if !s.auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, apierr.Unauthorized("invalid email or password")
	}
	return s.respond(user)
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*types.User, error) {
	user, err := s.users.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("user %s not found", id)
		}
		return nil, apierr.Internal(err)
	}
	user.Role = types.NormalizeRole(user.Role)
	return user, nil
}

func (s *userService) respond(user *types.User) (*types.AuthResponse, error) {
	user.Role = types.NormalizeRole(user.Role)
	token, expiresAt, err := s.auth.IssueToken(user)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return &types.AuthResponse{Token: token, ExpiresAt: expiresAt, User: *user}, nil
}
