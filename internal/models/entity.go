package models

import "gorm.io/gorm"

type EntityKind string

const (
	EntityBranch   EntityKind = "branch"
	EntityWorkshop EntityKind = "workshop"
	EntityFactory  EntityKind = "factory"
)

// Entity is a physical location (branch, workshop or factory) that owns
// exactly one Inventory.
type Entity struct {
	gorm.Model
	Name    string     `gorm:"size:255;not null" json:"name"`
	Kind    EntityKind `gorm:"type:varchar(20);not null" json:"kind"`
	Address string     `gorm:"size:255" json:"address"`
	Phone   string     `gorm:"size:50" json:"phone"`

	Inventory Inventory `json:"inventory,omitempty"`
}

type Inventory struct {
	gorm.Model
	EntityID uint `gorm:"uniqueIndex;not null" json:"entity_id"`

	Cloths []Cloth `json:"cloths,omitempty"`
}
