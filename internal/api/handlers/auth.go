package handlers

import (
	"net/http"

	"github.com/Rao-Faizan/my-gamil-automation/internal/api/middleware"
	"github.com/Rao-Faizan/my-gamil-automation/internal/database/models"
	"github.com/Rao-Faizan/my-gamil-automation/internal/services"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// adminUsername is the only account; the service is single-operator
const adminUsername = "admin"

// AuthHandler handles the admin login
type AuthHandler struct {
	jwtManager        *middleware.JWTManager
	adminPasswordHash string
	logService        *services.LogService
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(jwtManager *middleware.JWTManager, adminPasswordHash string, logService *services.LogService) *AuthHandler {
	return &AuthHandler{
		jwtManager:        jwtManager,
		adminPasswordHash: adminPasswordHash,
		logService:        logService,
	}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates the admin and issues a JWT
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Username and password are required",
			},
		})
		return
	}

	if h.adminPasswordHash == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_CONFIGURED",
				"message": "Admin password is not configured; run 'admin set-password' first",
			},
		})
		return
	}

	if req.Username != adminUsername ||
		bcrypt.CompareHashAndPassword([]byte(h.adminPasswordHash), []byte(req.Password)) != nil {
		h.logService.LogWarn(models.LogModuleAuth, "login", "Login failed", map[string]string{
			"username":  req.Username,
			"client_ip": c.ClientIP(),
		})
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "AUTH_FAILED",
				"message": "Invalid username or password",
			},
		})
		return
	}

	token, expiresAt, err := h.jwtManager.GenerateToken(req.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to generate token",
			},
		})
		return
	}

	h.logService.LogInfo(models.LogModuleAuth, "login", "Login succeeded", map[string]string{
		"username":  req.Username,
		"client_ip": c.ClientIP(),
	})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"token":      token,
			"expires_at": expiresAt,
		},
	})
}
