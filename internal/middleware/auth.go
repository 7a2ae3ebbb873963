package middleware

import (
	"errors"
	"strings"

	"artgen-go/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	contextUserID   = "user_id"
	contextUsername = "username"
)

// AuthMiddleware rejects requests without a valid bearer token.
func AuthMiddleware(jwtManager *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Unauthorized(c, "authentication required")
			c.Abort()
			return
		}

		claims, err := parseBearer(jwtManager, authHeader)
		if err != nil {
			utils.Unauthorized(c, err.Error())
			c.Abort()
			return
		}

		c.Set(contextUserID, claims.UserID)
		c.Set(contextUsername, claims.Username)

		c.Next()
	}
}

// OptionalAuth attaches the caller when a valid bearer token is present and
// lets anonymous requests through otherwise. A malformed or expired token is
// still rejected.
func OptionalAuth(jwtManager *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		claims, err := parseBearer(jwtManager, authHeader)
		if err != nil {
			utils.Unauthorized(c, err.Error())
			c.Abort()
			return
		}

		c.Set(contextUserID, claims.UserID)
		c.Set(contextUsername, claims.Username)

		c.Next()
	}
}

var (
	errMalformedHeader = errors.New("invalid authorization header")
	errInvalidToken    = errors.New("invalid or expired token")
)

func parseBearer(jwtManager *utils.JWTManager, header string) (*utils.JWTClaims, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, errMalformedHeader
	}

	claims, err := jwtManager.ValidateToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, errInvalidToken
	}
	return claims, nil
}

// GetUserID returns the authenticated caller, if any.
func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(contextUserID)
	if !exists {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok
}

// CallerID returns the authenticated caller as a pointer, nil for anonymous requests.
func CallerID(c *gin.Context) *uint {
	id, ok := GetUserID(c)
	if !ok {
		return nil
	}
	return &id
}

// GetUsername returns the authenticated caller's username.
func GetUsername(c *gin.Context) (string, bool) {
	username, exists := c.Get(contextUsername)
	if !exists {
		return "", false
	}
	name, ok := username.(string)
	return name, ok
}
