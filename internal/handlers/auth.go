package handlers

import (
	"net/http"
	"strings"

	"atelier-backend/internal/auth"
	"atelier-backend/internal/database"
	"atelier-backend/internal/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, map[string][]string{"body": {"username and password are required"}})
		return
	}

	var user models.User
	if err := database.DB.Where("username = ?", strings.TrimSpace(req.Username)).First(&user).Error; err != nil {
		respondError(c, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		respondError(c, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	token, err := auth.GenerateToken(cfg.JWTSecret, user.ID, user.Username, user.Role)
	if err != nil {
		internalError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required"`
}

// Register creates a user; admin only.
func Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, map[string][]string{"body": {err.Error()}})
		return
	}

	role := models.UserRole(req.Role)
	switch role {
	case models.RoleAdmin, models.RoleManager, models.RoleAccountant, models.RoleWorker:
	default:
		validationFailed(c, map[string][]string{"role": {"unknown role"}})
		return
	}

	req.Username = strings.TrimSpace(req.Username)

	var count int64
	database.DB.Model(&models.User{}).Where("username = ?", req.Username).Count(&count)
	if count > 0 {
		validationFailed(c, map[string][]string{"username": {"username already taken"}})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		internalError(c)
		return
	}

	user := models.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		internalError(c)
		return
	}

	logAction(c, "user", user.ID, "create", "created user "+user.Username)
	c.JSON(http.StatusCreated, user)
}
