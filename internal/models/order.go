package models

import (
	"time"

	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderCreated       OrderStatus = "created"
	OrderPartiallyPaid OrderStatus = "partially_paid"
	OrderPaid          OrderStatus = "paid"
	OrderDelivered     OrderStatus = "delivered"
	OrderFinished      OrderStatus = "finished"
	OrderCanceled      OrderStatus = "canceled"
)

type OrderItemType string

const (
	ItemBuy       OrderItemType = "buy"
	ItemRent      OrderItemType = "rent"
	ItemTailoring OrderItemType = "tailoring"
)

type FactoryStatus string

const (
	FactoryNew              FactoryStatus = "new"
	FactoryPendingApproval  FactoryStatus = "pending_factory_approval"
	FactoryAccepted         FactoryStatus = "accepted"
	FactoryRejected         FactoryStatus = "rejected"
	FactoryInProgress       FactoryStatus = "in_progress"
	FactoryReadyForDelivery FactoryStatus = "ready_for_delivery"
	FactoryDeliveredAtelier FactoryStatus = "delivered_to_atelier"
	FactoryClosed           FactoryStatus = "closed"
)

type Order struct {
	gorm.Model
	ClientID    uint   `gorm:"index;not null" json:"client_id"`
	Client      Client `json:"client,omitempty"`
	InventoryID uint   `gorm:"index;not null" json:"inventory_id"`
	UserID      *uint  `gorm:"index" json:"user_id"` // who registered the order

	Status OrderStatus `gorm:"type:varchar(30);not null;default:'created'" json:"status"`
	Notes  string      `gorm:"type:text" json:"notes"`

	// Payment rows are the source of truth; these aggregates are recomputed
	// from them after every mutation.
	TotalPrice float64 `json:"total_price"`
	Paid       float64 `json:"paid"`
	Remaining  float64 `json:"remaining"`

	Items     []OrderItem `json:"items,omitempty"`
	Payments  []Payment   `json:"payments,omitempty"`
	Custodies []Custody   `json:"custodies,omitempty"`
}

type OrderItem struct {
	gorm.Model
	OrderID uint  `gorm:"index;not null" json:"order_id"`
	ClothID uint  `gorm:"index;not null" json:"cloth_id"`
	Cloth   Cloth `json:"cloth,omitempty"`

	Type     OrderItemType `gorm:"type:varchar(20);not null" json:"type"`
	Price    float64       `json:"price"`
	Discount float64       `json:"discount"`

	// rent items only
	DaysOfRent   int        `json:"days_of_rent,omitempty"`
	DeliveryDate *time.Time `json:"delivery_date,omitempty"`

	// tailoring items only
	FactoryStatus FactoryStatus `gorm:"type:varchar(30)" json:"factory_status,omitempty"`

	Rent *Rent `json:"rent,omitempty"`
}

// Total is the line total after discount.
func (i OrderItem) Total() float64 {
	t := i.Price - i.Discount
	if t < 0 {
		return 0
	}
	return t
}

type Payment struct {
	gorm.Model
	OrderID  uint    `gorm:"index;not null" json:"order_id"`
	Amount   float64 `gorm:"not null" json:"amount"`
	Method   string  `gorm:"size:30;not null" json:"method"` // cash, card, transfer
	Canceled bool    `gorm:"not null;default:false" json:"canceled"`
}

// Rent is one rental period for a cloth, created when the order is
// delivered. Availability checks buffer its window by two days on each side.
type Rent struct {
	gorm.Model
	OrderItemID  uint      `gorm:"uniqueIndex;not null" json:"order_item_id"`
	ClothID      uint      `gorm:"index;not null" json:"cloth_id"`
	DeliveryDate time.Time `gorm:"index;not null" json:"delivery_date"`
	ReturnDate   time.Time `gorm:"index;not null" json:"return_date"`
	Returned     bool      `gorm:"not null;default:false" json:"returned"`
	Canceled     bool      `gorm:"not null;default:false" json:"canceled"`
}
