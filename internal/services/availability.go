package services

import (
	"time"

	"atelier-backend/internal/models"

	"gorm.io/gorm"
)

// RentBufferDays pads each side of a booked rental window: the piece needs
// time to come back, be cleaned and go out again.
const RentBufferDays = 2

// ClothAvailability is the result of an availability check for one cloth
// and one candidate rental window.
type ClothAvailability struct {
	Available bool     `json:"available"`
	Reasons   []string `json:"reasons,omitempty"`
}

// CheckClothAvailability reports whether a cloth can be rented for the
// window [delivery, delivery+days]. A cloth is unavailable while repairing,
// sold or damaged, and whenever the buffered window [delivery-2d, return+2d]
// of any non-canceled rent, or of a rent item on a still-undelivered order,
// overlaps the candidate window (inclusive). Pass excludeOrderID to ignore
// the rent items of one order, for checks made on that order's behalf.
func CheckClothAvailability(db *gorm.DB, cloth *models.Cloth, delivery time.Time, days int, excludeOrderID uint) (ClothAvailability, error) {
	res := ClothAvailability{Available: true}

	switch cloth.Status {
	case models.ClothRepairing, models.ClothSold, models.ClothDamaged:
		res.Available = false
		res.Reasons = append(res.Reasons, "cloth status is "+string(cloth.Status))
	}

	start := delivery
	end := delivery.AddDate(0, 0, days)

	rented, err := rentOverlapReasons(db, cloth.ID, start, end)
	if err != nil {
		return res, err
	}
	booked, err := pendingBookingReasons(db, cloth.ID, start, end, excludeOrderID)
	if err != nil {
		return res, err
	}

	if len(rented)+len(booked) > 0 {
		res.Available = false
		res.Reasons = append(res.Reasons, rented...)
		res.Reasons = append(res.Reasons, booked...)
	}

	return res, nil
}

// rentOverlapReasons lists every non-canceled rent whose buffered window
// overlaps [start, end]. Returned rents still block their window.
func rentOverlapReasons(db *gorm.DB, clothID uint, start, end time.Time) ([]string, error) {
	var rents []models.Rent
	if err := db.Where("cloth_id = ? AND canceled = ?", clothID, false).Find(&rents).Error; err != nil {
		return nil, err
	}

	buffer := time.Duration(RentBufferDays) * 24 * time.Hour

	var reasons []string
	for _, r := range rents {
		if windowsOverlap(start, end, r.DeliveryDate.Add(-buffer), r.ReturnDate.Add(buffer)) {
			reasons = append(reasons,
				"rented from "+r.DeliveryDate.Format("2006-01-02")+" to "+r.ReturnDate.Format("2006-01-02"))
		}
	}
	return reasons, nil
}

// pendingBookingReasons lists rent items on undelivered orders whose
// buffered window overlaps [start, end]. Those items have no Rent row yet
// but already hold their window.
func pendingBookingReasons(db *gorm.DB, clothID uint, start, end time.Time, excludeOrderID uint) ([]string, error) {
	q := db.Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_items.cloth_id = ? AND order_items.type = ?", clothID, models.ItemRent).
		Where("order_items.delivery_date IS NOT NULL").
		Where("orders.status IN ?", []models.OrderStatus{
			models.OrderCreated, models.OrderPartiallyPaid, models.OrderPaid,
		})
	if excludeOrderID != 0 {
		q = q.Where("order_items.order_id <> ?", excludeOrderID)
	}

	var items []models.OrderItem
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}

	buffer := time.Duration(RentBufferDays) * 24 * time.Hour

	var reasons []string
	for _, it := range items {
		busyStart := it.DeliveryDate.Add(-buffer)
		busyEnd := it.DeliveryDate.AddDate(0, 0, it.DaysOfRent).Add(buffer)
		if windowsOverlap(start, end, busyStart, busyEnd) {
			reasons = append(reasons,
				"booked from "+it.DeliveryDate.Format("2006-01-02")+" for another order")
		}
	}
	return reasons, nil
}

// windowsOverlap reports whether [aStart, aEnd] and [bStart, bEnd] share at
// least one instant. Boundaries touching counts as overlap.
func windowsOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aEnd.Before(bStart) && !bEnd.Before(aStart)
}
