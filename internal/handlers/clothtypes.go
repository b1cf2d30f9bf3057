package handlers

import (
	"net/http"
	"strings"

	"atelier-backend/internal/database"
	"atelier-backend/internal/models"

	"github.com/gin-gonic/gin"
)

func ListClothTypes(c *gin.Context) {
	var types []models.ClothType
	if err := database.DB.Order("name asc").Find(&types).Error; err != nil {
		internalError(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": types})
}

func CreateClothType(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required,min=2"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, map[string][]string{"name": {"name is required"}})
		return
	}

	req.Name = strings.TrimSpace(req.Name)

	var count int64
	database.DB.Model(&models.ClothType{}).Where("LOWER(name) = LOWER(?)", req.Name).Count(&count)
	if count > 0 {
		validationFailed(c, map[string][]string{"name": {"cloth type already exists"}})
		return
	}

	clothType := models.ClothType{Name: req.Name}
	if err := database.DB.Create(&clothType).Error; err != nil {
		internalError(c)
		return
	}

	c.JSON(http.StatusCreated, clothType)
}
