package models

import "gorm.io/gorm"

type ClothStatus string

const (
	ClothReadyForRent ClothStatus = "ready_for_rent"
	ClothRented       ClothStatus = "rented"
	ClothRepairing    ClothStatus = "repairing"
	ClothSold         ClothStatus = "sold"
	ClothDamaged      ClothStatus = "damaged"
	ClothReserved     ClothStatus = "reserved"
)

type ClothType struct {
	gorm.Model
	Name string `gorm:"uniqueIndex;size:100;not null" json:"name"`
}

// Cloth is a single garment piece. It belongs to at most one inventory at a
// time; membership is moved by detach-then-attach inside a transaction.
type Cloth struct {
	gorm.Model
	Code   string    `gorm:"uniqueIndex;size:50;not null" json:"code"`
	Name   string    `gorm:"size:255" json:"name"`
	TypeID uint      `gorm:"index" json:"type_id"`
	Type   ClothType `json:"type,omitempty"`
	Size   string    `gorm:"size:20" json:"size"`
	Color  string    `gorm:"size:50" json:"color"`

	PurchasePrice float64 `json:"purchase_price"`
	SalePrice     float64 `json:"sale_price"`
	RentPrice     float64 `json:"rent_price"`

	Status      ClothStatus `gorm:"type:varchar(30);not null;default:'ready_for_rent'" json:"status"`
	InventoryID *uint       `gorm:"index" json:"inventory_id"`
}

// RepairJob tracks a cloth sent to a workshop for repair. The source
// inventory is remembered so the piece returns where it came from.
type RepairJob struct {
	gorm.Model
	ClothID           uint   `gorm:"index;not null" json:"cloth_id"`
	Cloth             Cloth  `json:"cloth,omitempty"`
	WorkshopID        uint   `gorm:"index;not null" json:"workshop_id"` // Entity of kind workshop
	SourceInventoryID uint   `json:"source_inventory_id"`
	Notes             string `gorm:"size:255" json:"notes"`
	Completed         bool   `gorm:"not null;default:false" json:"completed"`
}
