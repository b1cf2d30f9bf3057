package database

import "atelier-backend/internal/models"

// CreateHistoryLog is a best-effort helper for the audit journal.
func CreateHistoryLog(userID uint, entity string, entityID uint, action, details string) {
	if DB == nil {
		return
	}
	record := models.HistoryLog{
		UserID:   userID,
		Entity:   entity,
		EntityID: entityID,
		Action:   action,
		Details:  details,
	}
	_ = DB.Create(&record).Error
}

// CreateNotification records a notification row; nil userID means broadcast.
func CreateNotification(userID *uint, kind, message string) {
	if DB == nil {
		return
	}
	record := models.Notification{
		UserID:  userID,
		Kind:    kind,
		Message: message,
	}
	_ = DB.Create(&record).Error
}
