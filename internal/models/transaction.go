package models

import "gorm.io/gorm"

type TransactionDirection string

const (
	DirectionIn  TransactionDirection = "in"
	DirectionOut TransactionDirection = "out"
)

type TransactionKind string

const (
	TxPayment        TransactionKind = "payment"
	TxCustodyTaken   TransactionKind = "custody_taken"
	TxCustodyReturn  TransactionKind = "custody_return"
	TxCustodyForfeit TransactionKind = "custody_forfeit"
	TxManual         TransactionKind = "manual"
)

// Transaction is a ledger row against an entity's cashbox. The cashbox
// balance of an entity is the signed sum of its rows.
type Transaction struct {
	gorm.Model
	EntityID  uint                 `gorm:"index;not null" json:"entity_id"`
	Direction TransactionDirection `gorm:"type:varchar(5);not null" json:"direction"`
	Kind      TransactionKind      `gorm:"type:varchar(30);not null" json:"kind"`
	Amount    float64              `gorm:"not null" json:"amount"`
	OrderID   *uint                `gorm:"index" json:"order_id,omitempty"`
	CustodyID *uint                `gorm:"index" json:"custody_id,omitempty"`
	Details   string               `gorm:"size:255" json:"details"`
}
