package handlers

import (
	"fmt"
	"net/http"

	"atelier-backend/internal/database"
	"atelier-backend/internal/models"
	"atelier-backend/internal/services"

	"github.com/gin-gonic/gin"
)

// ListFactoryItems lists tailoring items currently in the factory pipeline.
func ListFactoryItems(c *gin.Context) {
	offset, limit := pagination(c)

	q := database.DB.Model(&models.OrderItem{}).
		Where("type = ?", models.ItemTailoring)
	if status := c.Query("status"); status != "" {
		q = q.Where("factory_status = ?", status)
	}

	var total int64
	q.Count(&total)

	var items []models.OrderItem
	if err := q.Preload("Cloth").Order("id asc").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		internalError(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items, "total": total})
}

type factoryStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateFactoryItemStatus moves a tailoring item along the pipeline. The
// target must be adjacent to the current status.
func UpdateFactoryItemStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var item models.OrderItem
	if err := database.DB.First(&item, id).Error; err != nil {
		notFound(c, "order item")
		return
	}
	if item.Type != models.ItemTailoring {
		unprocessable(c, "cannot update factory status", []string{"item is not a tailoring item"})
		return
	}

	var req factoryStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, map[string][]string{"status": {"status is required"}})
		return
	}

	target := models.FactoryStatus(req.Status)
	if !services.CanTransitionFactory(item.FactoryStatus, target) {
		next := services.NextFactoryStatuses(item.FactoryStatus)
		unprocessable(c, "invalid factory status transition", []string{
			fmt.Sprintf("cannot move from %s to %s, allowed: %v", item.FactoryStatus, target, next),
		})
		return
	}

	if err := database.DB.Model(&item).Update("factory_status", target).Error; err != nil {
		internalError(c)
		return
	}

	logAction(c, "order_item", item.ID, "factory_status",
		fmt.Sprintf("%s -> %s", item.FactoryStatus, target))
	item.FactoryStatus = target
	c.JSON(http.StatusOK, item)
}
