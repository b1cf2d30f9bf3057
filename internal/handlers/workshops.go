package handlers

import (
	"net/http"

	"atelier-backend/internal/database"
	"atelier-backend/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func ListWorkshops(c *gin.Context) {
	var workshops []models.Entity
	if err := database.DB.Preload("Inventory").
		Where("kind = ?", models.EntityWorkshop).
		Order("name asc").
		Find(&workshops).Error; err != nil {
		internalError(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": workshops})
}

type createRepairRequest struct {
	ClothID uint   `json:"cloth_id" binding:"required"`
	Notes   string `json:"notes"`
}

// CreateRepairJob sends a cloth to a workshop: the piece moves into the
// workshop inventory and is marked repairing until the job completes.
func CreateRepairJob(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var workshop models.Entity
	if err := database.DB.Preload("Inventory").
		Where("id = ? AND kind = ?", id, models.EntityWorkshop).
		First(&workshop).Error; err != nil {
		notFound(c, "workshop")
		return
	}

	var req createRepairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, map[string][]string{"body": {err.Error()}})
		return
	}

	var cloth models.Cloth
	if err := database.DB.First(&cloth, req.ClothID).Error; err != nil {
		notFound(c, "cloth")
		return
	}

	var reasons []string
	if cloth.InventoryID == nil {
		reasons = append(reasons, "cloth is not in any inventory")
	}
	switch cloth.Status {
	case models.ClothRented, models.ClothSold, models.ClothRepairing, models.ClothReserved:
		reasons = append(reasons, "cloth status is "+string(cloth.Status))
	}
	if len(reasons) > 0 {
		unprocessable(c, "cannot start repair", reasons)
		return
	}

	job := models.RepairJob{
		ClothID:           cloth.ID,
		WorkshopID:        workshop.ID,
		SourceInventoryID: *cloth.InventoryID,
		Notes:             req.Notes,
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&job).Error; err != nil {
			return err
		}
		return tx.Model(&cloth).Updates(map[string]any{
			"status":       models.ClothRepairing,
			"inventory_id": workshop.Inventory.ID,
		}).Error
	})
	if err != nil {
		internalError(c)
		return
	}

	logAction(c, "repair", job.ID, "create", "cloth "+cloth.Code+" sent to "+workshop.Name)
	c.JSON(http.StatusCreated, job)
}

func ListRepairJobs(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	q := database.DB.Model(&models.RepairJob{}).Where("workshop_id = ?", id)
	if c.Query("open") == "true" {
		q = q.Where("completed = ?", false)
	}

	var jobs []models.RepairJob
	if err := q.Preload("Cloth").Order("id desc").Find(&jobs).Error; err != nil {
		internalError(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": jobs})
}

// CompleteRepairJob returns the cloth to its source inventory.
func CompleteRepairJob(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	rid, ok := parseID(c, "rid")
	if !ok {
		return
	}

	var job models.RepairJob
	if err := database.DB.Where("id = ? AND workshop_id = ?", rid, id).First(&job).Error; err != nil {
		notFound(c, "repair job")
		return
	}
	if job.Completed {
		unprocessable(c, "cannot complete repair", []string{"repair job is already completed"})
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&job).Update("completed", true).Error; err != nil {
			return err
		}
		return tx.Model(&models.Cloth{}).Where("id = ?", job.ClothID).
			Updates(map[string]any{
				"status":       models.ClothReadyForRent,
				"inventory_id": job.SourceInventoryID,
			}).Error
	})
	if err != nil {
		internalError(c)
		return
	}

	logAction(c, "repair", job.ID, "complete", "repair completed")
	c.JSON(http.StatusOK, gin.H{"message": "repair completed"})
}
