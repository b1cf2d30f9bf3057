package models

import "gorm.io/gorm"

type TransferStatus string

const (
	TransferPending           TransferStatus = "pending"
	TransferApproved          TransferStatus = "approved"
	TransferRejected          TransferStatus = "rejected"
	TransferPartiallyPending  TransferStatus = "partially_pending"
	TransferPartiallyApproved TransferStatus = "partially_approved"
)

type TransferItemStatus string

const (
	TransferItemPending  TransferItemStatus = "pending"
	TransferItemApproved TransferItemStatus = "approved"
	TransferItemRejected TransferItemStatus = "rejected"
)

// Transfer is a request to move cloth pieces between two entities, approved
// per item. Transfer-level status is derived from its items after every
// item mutation.
type Transfer struct {
	gorm.Model
	FromEntityID uint   `gorm:"index;not null" json:"from_entity_id"`
	FromEntity   Entity `json:"from_entity,omitempty"`
	ToEntityID   uint   `gorm:"index;not null" json:"to_entity_id"`
	ToEntity     Entity `json:"to_entity,omitempty"`
	CreatedByID  uint   `json:"created_by_id"`

	Status TransferStatus `gorm:"type:varchar(30);not null;default:'pending'" json:"status"`
	Notes  string         `gorm:"size:255" json:"notes"`

	Items   []TransferItem   `json:"items,omitempty"`
	Actions []TransferAction `json:"actions,omitempty"`
}

type TransferItem struct {
	gorm.Model
	TransferID uint  `gorm:"index;not null" json:"transfer_id"`
	ClothID    uint  `gorm:"index;not null" json:"cloth_id"`
	Cloth      Cloth `json:"cloth,omitempty"`

	Status TransferItemStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
}

// TransferAction is the audit trail row for transfer mutations.
type TransferAction struct {
	gorm.Model
	TransferID uint   `gorm:"index;not null" json:"transfer_id"`
	ItemID     *uint  `json:"item_id,omitempty"`
	UserID     uint   `json:"user_id"`
	Action     string `gorm:"size:50;not null" json:"action"` // created, item_approved, item_rejected
	Details    string `gorm:"size:255" json:"details"`
}
