package services

import (
	"fmt"

	"atelier-backend/internal/models"

	"gorm.io/gorm"
)

// RecalculateOrder recomputes the order's aggregates from its items and
// non-canceled payment rows and persists them. Payment rows are the single
// source of truth for paid money; the columns on the order are a cache.
func RecalculateOrder(db *gorm.DB, order *models.Order) error {
	var items []models.OrderItem
	if err := db.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
		return err
	}

	total := 0.0
	for _, it := range items {
		total += it.Total()
	}

	var paid float64
	row := db.Model(&models.Payment{}).
		Where("order_id = ? AND canceled = ?", order.ID, false).
		Select("COALESCE(SUM(amount), 0)").
		Row()
	if err := row.Scan(&paid); err != nil {
		return err
	}

	order.TotalPrice = total
	order.Paid = paid
	order.Remaining = total - paid
	if order.Remaining < 0 {
		order.Remaining = 0
	}

	// delivered/finished/canceled are set explicitly by their operations and
	// must not be overwritten by payment math
	switch order.Status {
	case models.OrderDelivered, models.OrderFinished, models.OrderCanceled:
	default:
		switch {
		case paid <= 0:
			order.Status = models.OrderCreated
		case paid < total:
			order.Status = models.OrderPartiallyPaid
		default:
			order.Status = models.OrderPaid
		}
	}

	return db.Model(order).Updates(map[string]any{
		"total_price": order.TotalPrice,
		"paid":        order.Paid,
		"remaining":   order.Remaining,
		"status":      order.Status,
	}).Error
}

// DeliverReasons lists everything that blocks delivering the order.
// An empty slice means delivery is allowed.
func DeliverReasons(db *gorm.DB, order *models.Order) ([]string, error) {
	var reasons []string

	switch order.Status {
	case models.OrderDelivered, models.OrderFinished, models.OrderCanceled:
		return []string{fmt.Sprintf("order is already %s", order.Status)}, nil
	}

	var decided int64
	err := db.Model(&models.CustodyReturn{}).
		Joins("JOIN custodies ON custodies.id = custody_returns.custody_id").
		Where("custodies.order_id = ?", order.ID).
		Count(&decided).Error
	if err != nil {
		return nil, err
	}
	if decided > 0 {
		reasons = append(reasons, "order has custodies that are already decided")
	}

	var items []models.OrderItem
	if err := db.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
		return nil, err
	}

	buyOnly := len(items) > 0
	for _, it := range items {
		if it.Type != models.ItemBuy {
			buyOnly = false
		}
	}
	if buyOnly && order.Remaining > 0 {
		reasons = append(reasons, fmt.Sprintf("buy order must be fully paid before delivery (remaining %.2f)", order.Remaining))
	}

	// another order may have delivered into the same window since this one
	// was created; its Rent rows win
	for _, it := range items {
		if it.Type != models.ItemRent || it.DeliveryDate == nil {
			continue
		}
		overlaps, err := rentOverlapReasons(db, it.ClothID,
			*it.DeliveryDate, it.DeliveryDate.AddDate(0, 0, it.DaysOfRent))
		if err != nil {
			return nil, err
		}
		for _, o := range overlaps {
			reasons = append(reasons, fmt.Sprintf("cloth %d: %s", it.ClothID, o))
		}
	}

	return reasons, nil
}

// FinishReasons lists everything that blocks finishing the order.
func FinishReasons(db *gorm.DB, order *models.Order) ([]string, error) {
	var reasons []string

	if order.Status != models.OrderDelivered {
		return []string{fmt.Sprintf("only delivered orders can be finished, order is %s", order.Status)}, nil
	}

	var custodies []models.Custody
	if err := db.Preload("Return").Where("order_id = ?", order.ID).Find(&custodies).Error; err != nil {
		return nil, err
	}
	for _, cu := range custodies {
		if cu.Return == nil {
			reasons = append(reasons, fmt.Sprintf("custody %d is still pending", cu.ID))
			continue
		}
		if cu.Return.Disposition == models.CustodyReturned && cu.Return.ProofPhoto == "" {
			reasons = append(reasons, fmt.Sprintf("custody %d was returned without proof", cu.ID))
		}
	}

	if order.Remaining > 0 {
		reasons = append(reasons, fmt.Sprintf("order has unpaid balance %.2f", order.Remaining))
	}

	var openRents int64
	err := db.Model(&models.Rent{}).
		Joins("JOIN order_items ON order_items.id = rents.order_item_id").
		Where("order_items.order_id = ? AND rents.canceled = ? AND rents.returned = ?", order.ID, false, false).
		Count(&openRents).Error
	if err != nil {
		return nil, err
	}
	if openRents > 0 {
		reasons = append(reasons, fmt.Sprintf("%d rented item(s) not yet returned", openRents))
	}

	return reasons, nil
}
