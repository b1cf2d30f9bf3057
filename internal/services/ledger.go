package services

import (
	"errors"

	"atelier-backend/internal/models"

	"gorm.io/gorm"
)

// ErrInsufficientBalance is returned when a cashbox withdrawal exceeds the
// entity's balance. Custody return catches it and reports a 422.
var ErrInsufficientBalance = errors.New("insufficient cashbox balance")

// EntityBalance returns the cashbox balance of an entity: the signed sum of
// its ledger rows.
func EntityBalance(db *gorm.DB, entityID uint) (float64, error) {
	var in, out float64

	row := db.Model(&models.Transaction{}).
		Where("entity_id = ? AND direction = ?", entityID, models.DirectionIn).
		Select("COALESCE(SUM(amount), 0)").
		Row()
	if err := row.Scan(&in); err != nil {
		return 0, err
	}

	row = db.Model(&models.Transaction{}).
		Where("entity_id = ? AND direction = ?", entityID, models.DirectionOut).
		Select("COALESCE(SUM(amount), 0)").
		Row()
	if err := row.Scan(&out); err != nil {
		return 0, err
	}

	return in - out, nil
}

// RecordIncome writes an incoming ledger row.
func RecordIncome(db *gorm.DB, tx models.Transaction) error {
	tx.Direction = models.DirectionIn
	return db.Create(&tx).Error
}

// Withdraw writes an outgoing ledger row after checking the balance.
func Withdraw(db *gorm.DB, tx models.Transaction) error {
	balance, err := EntityBalance(db, tx.EntityID)
	if err != nil {
		return err
	}
	if balance < tx.Amount {
		return ErrInsufficientBalance
	}

	tx.Direction = models.DirectionOut
	return db.Create(&tx).Error
}
