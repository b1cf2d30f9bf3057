package handlers

import (
	"net/http"
	"strings"

	"atelier-backend/internal/database"
	"atelier-backend/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type entityRequest struct {
	Name    string `json:"name" binding:"required,min=2"`
	Kind    string `json:"kind" binding:"required"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

func ListEntities(c *gin.Context) {
	q := database.DB.Model(&models.Entity{})
	if kind := c.Query("kind"); kind != "" {
		q = q.Where("kind = ?", kind)
	}

	var entities []models.Entity
	if err := q.Preload("Inventory").Order("name asc").Find(&entities).Error; err != nil {
		internalError(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entities})
}

func GetEntity(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var entity models.Entity
	if err := database.DB.Preload("Inventory").First(&entity, id).Error; err != nil {
		notFound(c, "entity")
		return
	}
	c.JSON(http.StatusOK, entity)
}

func CreateEntity(c *gin.Context) {
	var req entityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, map[string][]string{"body": {err.Error()}})
		return
	}

	kind := models.EntityKind(req.Kind)
	switch kind {
	case models.EntityBranch, models.EntityWorkshop, models.EntityFactory:
	default:
		validationFailed(c, map[string][]string{"kind": {"kind must be branch, workshop or factory"}})
		return
	}

	entity := models.Entity{
		Name:    strings.TrimSpace(req.Name),
		Kind:    kind,
		Address: req.Address,
		Phone:   req.Phone,
	}

	// the entity and its inventory are created together
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&entity).Error; err != nil {
			return err
		}
		return tx.Create(&models.Inventory{EntityID: entity.ID}).Error
	})
	if err != nil {
		internalError(c)
		return
	}

	logAction(c, "entity", entity.ID, "create", "created "+string(kind)+" "+entity.Name)
	c.JSON(http.StatusCreated, entity)
}

func UpdateEntity(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var entity models.Entity
	if err := database.DB.First(&entity, id).Error; err != nil {
		notFound(c, "entity")
		return
	}

	var req entityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, map[string][]string{"body": {err.Error()}})
		return
	}

	// kind is fixed after creation; inventories and assignments depend on it
	if req.Kind != "" && models.EntityKind(req.Kind) != entity.Kind {
		validationFailed(c, map[string][]string{"kind": {"entity kind cannot be changed"}})
		return
	}

	entity.Name = strings.TrimSpace(req.Name)
	entity.Address = req.Address
	entity.Phone = req.Phone

	if err := database.DB.Save(&entity).Error; err != nil {
		internalError(c)
		return
	}

	logAction(c, "entity", entity.ID, "update", "updated entity "+entity.Name)
	c.JSON(http.StatusOK, entity)
}

func DeleteEntity(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var entity models.Entity
	if err := database.DB.Preload("Inventory").First(&entity, id).Error; err != nil {
		notFound(c, "entity")
		return
	}

	var cloths int64
	database.DB.Model(&models.Cloth{}).Where("inventory_id = ?", entity.Inventory.ID).Count(&cloths)
	if cloths > 0 {
		unprocessable(c, "cannot delete entity", []string{"inventory is not empty"})
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Inventory{}, entity.Inventory.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&entity).Error
	})
	if err != nil {
		internalError(c)
		return
	}

	logAction(c, "entity", entity.ID, "delete", "deleted entity "+entity.Name)
	c.JSON(http.StatusOK, gin.H{"message": "entity deleted"})
}

// GetEntityInventory lists the cloths currently held by the entity.
func GetEntityInventory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var entity models.Entity
	if err := database.DB.Preload("Inventory").First(&entity, id).Error; err != nil {
		notFound(c, "entity")
		return
	}

	if !entityScopeAllowed(c, entity.ID) {
		forbidden(c, "no access to this entity")
		return
	}

	var cloths []models.Cloth
	if err := database.DB.Preload("Type").
		Where("inventory_id = ?", entity.Inventory.ID).
		Order("code asc").
		Find(&cloths).Error; err != nil {
		internalError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entity": entity, "cloths": cloths})
}
