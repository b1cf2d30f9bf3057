package models

import "gorm.io/gorm"

type CustodyKind string

const (
	CustodyMoney        CustodyKind = "money"
	CustodyPhysicalItem CustodyKind = "physical_item"
	CustodyDocument     CustodyKind = "document"
)

type CustodyDisposition string

const (
	CustodyReturned  CustodyDisposition = "returned"
	CustodyForfeited CustodyDisposition = "forfeited"
)

// Custody is a deposit held from a client against an order. It stays pending
// until a CustodyReturn records its disposition.
type Custody struct {
	gorm.Model
	OrderID     uint        `gorm:"index;not null" json:"order_id"`
	Kind        CustodyKind `gorm:"type:varchar(20);not null" json:"kind"`
	Amount      float64     `json:"amount"` // money custody only
	Description string      `gorm:"size:255" json:"description"`
	UserID      *uint       `gorm:"index" json:"user_id"` // who registered it

	Photos []CustodyPhoto `json:"photos,omitempty"`
	Return *CustodyReturn `json:"return,omitempty"`
}

type CustodyPhoto struct {
	gorm.Model
	CustodyID uint   `gorm:"index;not null" json:"custody_id"`
	FileName  string `gorm:"size:255;not null" json:"file_name"`
	ThumbName string `gorm:"size:255" json:"thumb_name"`
}

type CustodyReturn struct {
	gorm.Model
	CustodyID   uint               `gorm:"uniqueIndex;not null" json:"custody_id"`
	Disposition CustodyDisposition `gorm:"type:varchar(20);not null" json:"disposition"`
	Notes       string             `gorm:"size:255" json:"notes"`
	ProofPhoto  string             `gorm:"size:255" json:"proof_photo"`
	UserID      uint               `json:"user_id"` // who decided it
}
