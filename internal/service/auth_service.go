package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"artgen-go/internal/apperr"
	"artgen-go/internal/dto"
	"artgen-go/internal/models"
	"artgen-go/internal/repository"
	"artgen-go/internal/utils"

	"github.com/sirupsen/logrus"
)

// ErrInvalidCredentials is returned by Login for an unknown user or a wrong password.
var ErrInvalidCredentials = errors.New("invalid username or password")

// AuthService registers users and issues tokens.
type AuthService struct {
	store      repository.Store
	jwtManager *utils.JWTManager
}

// NewAuthService creates an AuthService.
func NewAuthService(store repository.Store, jwtManager *utils.JWTManager) *AuthService {
	return &AuthService{
		store:      store,
		jwtManager: jwtManager,
	}
}

// Register creates a user. Duplicate usernames or emails fail with a validation error.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserInfo, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		DisplayName:  req.DisplayName,
		Avatar:       req.Avatar,
		PasswordHash: hashedPassword,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	logrus.WithField("user_id", user.ID).Info("user registered")
	info := dto.NewUserInfo(user)
	return &info, nil
}

// Login checks the password and issues an access token.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := utils.CheckPassword(req.Password, user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwtManager.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	return &dto.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        dto.NewUserInfo(user),
	}, nil
}

// GetMe returns the public view of a user.
func (s *AuthService) GetMe(ctx context.Context, userID uint) (*dto.UserInfo, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	info := dto.NewUserInfo(user)
	return &info, nil
}
