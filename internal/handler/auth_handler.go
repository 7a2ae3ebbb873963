package handler

import (
	"errors"

	"artgen-go/internal/dto"
	"artgen-go/internal/middleware"
	"artgen-go/internal/service"
	"artgen-go/internal/utils"

	"github.com/gin-gonic/gin"
)

// AuthHandler serves registration, login and user lookups.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register creates a user account
// @Summary Register
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "account"
// @Success 201 {object} utils.Response{data=dto.UserInfo}
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		utils.AppError(c, err)
		return
	}

	utils.CreatedResponse(c, user)
}

// Login issues an access token
// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "credentials"
// @Success 200 {object} utils.Response{data=dto.LoginResponse}
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			utils.Unauthorized(c, err.Error())
			return
		}
		utils.AppError(c, err)
		return
	}

	utils.SuccessWithMessage(c, "login successful", resp)
}

// GetMe returns the authenticated user
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.Response{data=dto.UserInfo}
// @Router /api/auth/me [get]
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "authentication required")
		return
	}

	userInfo, err := h.authService.GetMe(c.Request.Context(), userID)
	if err != nil {
		utils.AppError(c, err)
		return
	}

	utils.SuccessResponse(c, userInfo)
}

// GetUser returns a user without credentials
// @Summary Get user
// @Tags auth
// @Produce json
// @Param id path int true "user id"
// @Success 200 {object} utils.Response{data=dto.UserInfo}
// @Router /api/users/{id} [get]
func (h *AuthHandler) GetUser(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		utils.AppError(c, err)
		return
	}

	userInfo, err := h.authService.GetMe(c.Request.Context(), id)
	if err != nil {
		utils.AppError(c, err)
		return
	}

	utils.SuccessResponse(c, userInfo)
}

// Logout is a no-op; tokens are stateless and dropped by the client.
func (h *AuthHandler) Logout(c *gin.Context) {
	utils.SuccessWithMessage(c, "logged out", nil)
}
