package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/profitboard/backend/internal/application/identity"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService *identity.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *identity.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// RegisterRoutes registers auth routes on the API group
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	auth.POST("/login", h.Login)
	auth.GET("/verify", h.Verify)
}

// Login authenticates a dashboard user and issues an access token.
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.authService.Login(c.Request.Context(), identity.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	response := LoginResponse{
		Token: TokenResponse{
			AccessToken: result.AccessToken,
			ExpiresAt:   result.ExpiresAt,
			TokenType:   result.TokenType,
		},
		User: AuthUserResponse{
			ID:          result.User.ID.String(),
			Username:    result.User.Username,
			LastLoginAt: result.User.LastLoginAt,
		},
	}

	h.Success(c, response)
}

// Verify reports whether the presented token is valid and returns the
// authenticated user. The JWT middleware has already rejected invalid tokens
// before this handler runs.
// GET /api/auth/verify
func (h *AuthHandler) Verify(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, VerifyResponse{
		Valid: true,
		User: AuthUserResponse{
			ID:          user.ID.String(),
			Username:    user.Username,
			LastLoginAt: user.LastLoginAt,
		},
	})
}
