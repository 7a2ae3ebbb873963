package dto

import (
	"time"

	"artgen-go/internal/models"
)

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	Username    string  `json:"username" validate:"required,username"`
	Email       string  `json:"email" validate:"required,email,max=255"`
	Password    string  `json:"password" validate:"required,min=6,max=72"`
	DisplayName *string `json:"displayName" validate:"omitempty,max=100"`
	Avatar      *string `json:"avatar" validate:"omitempty,max=500"`
}

// LoginRequest is the sign-in payload.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	User        UserInfo `json:"user"`
}

// UserInfo is the public view of a user; it never includes the password hash.
type UserInfo struct {
	ID          uint      `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	DisplayName *string   `json:"displayName"`
	Avatar      *string   `json:"avatar"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewUserInfo strips secrets from u.
func NewUserInfo(u *models.User) UserInfo {
	return UserInfo{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Avatar:      u.Avatar,
		CreatedAt:   u.CreatedAt,
	}
}
