package models

import "time"

type HistoryLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	UserID uint `json:"user_id"`
	User   User `json:"user,omitempty"`

	Entity   string `gorm:"size:50;not null" json:"entity"` // "order", "transfer", "custody"
	EntityID uint   `json:"entity_id"`
	Action   string `gorm:"size:50;not null" json:"action"` // "create", "status_change" etc.
	Details  string `gorm:"type:text" json:"details"`
}

type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	UserID  *uint  `gorm:"index" json:"user_id,omitempty"` // nil = broadcast
	Kind    string `gorm:"size:50;not null" json:"kind"`   // "transfer_request", "return_due"
	Message string `gorm:"size:255;not null" json:"message"`
	Read    bool   `gorm:"not null;default:false" json:"read"`
}
