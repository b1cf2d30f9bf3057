package handlers

import (
	"net/http"

	"atelier-backend/internal/database"
	"atelier-backend/internal/models"

	"github.com/gin-gonic/gin"
)

func ListHistory(c *gin.Context) {
	offset, limit := pagination(c)

	q := database.DB.Model(&models.HistoryLog{})
	if entity := c.Query("entity"); entity != "" {
		q = q.Where("entity = ?", entity)
	}
	if entityID := c.Query("entity_id"); entityID != "" {
		q = q.Where("entity_id = ?", entityID)
	}
	if userID := c.Query("user_id"); userID != "" {
		q = q.Where("user_id = ?", userID)
	}

	var total int64
	q.Count(&total)

	var logs []models.HistoryLog
	if err := q.Preload("User").Order("id desc").Offset(offset).Limit(limit).Find(&logs).Error; err != nil {
		internalError(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": logs, "total": total})
}

func ListNotifications(c *gin.Context) {
	userID := currentUserID(c)

	var notifications []models.Notification
	err := database.DB.
		Where("user_id IS NULL OR user_id = ?", userID).
		Where("read = ?", false).
		Order("id desc").
		Limit(100).
		Find(&notifications).Error
	if err != nil {
		internalError(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": notifications})
}

func MarkNotificationRead(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var notification models.Notification
	if err := database.DB.First(&notification, id).Error; err != nil {
		notFound(c, "notification")
		return
	}

	if err := database.DB.Model(&notification).Update("read", true).Error; err != nil {
		internalError(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notification read"})
}
