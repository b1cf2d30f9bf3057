package handlers

import (
	"net/http"
	"time"

	"atelier-backend/internal/database"
	"atelier-backend/internal/export"
	"atelier-backend/internal/models"
	"atelier-backend/internal/services"

	"github.com/gin-gonic/gin"
)

func reportRange(c *gin.Context) (from, to time.Time, ok bool) {
	var err error
	from, err = time.Parse("2006-01-02", c.DefaultQuery("from", time.Now().AddDate(0, -1, 0).Format("2006-01-02")))
	if err != nil {
		validationFailed(c, map[string][]string{"from": {"expected YYYY-MM-DD"}})
		return from, to, false
	}
	to, err = time.Parse("2006-01-02", c.DefaultQuery("to", time.Now().Format("2006-01-02")))
	if err != nil {
		validationFailed(c, map[string][]string{"to": {"expected YYYY-MM-DD"}})
		return from, to, false
	}
	if to.Before(from) {
		validationFailed(c, map[string][]string{"to": {"to must not be before from"}})
		return from, to, false
	}
	return from, to, true
}

type revenueBucket struct {
	Day    string  `json:"day"`
	Method string  `json:"method"`
	Total  float64 `json:"total"`
}

// RevenueReport buckets non-canceled payments by day and method.
func RevenueReport(c *gin.Context) {
	from, to, ok := reportRange(c)
	if !ok {
		return
	}

	q := database.DB.Model(&models.Payment{}).
		Joins("JOIN orders ON orders.id = payments.order_id").
		Where("payments.canceled = ?", false).
		Where("payments.created_at >= ? AND payments.created_at < ?", from, to.AddDate(0, 0, 1))
	if entityID := c.Query("entity_id"); entityID != "" {
		q = q.Joins("JOIN inventories ON inventories.id = orders.inventory_id").
			Where("inventories.entity_id = ?", entityID)
	}

	var buckets []revenueBucket
	err := q.Select("DATE(payments.created_at) AS day, payments.method AS method, SUM(payments.amount) AS total").
		Group("DATE(payments.created_at), payments.method").
		Order("day asc").
		Scan(&buckets).Error
	if err != nil {
		internalError(c)
		return
	}

	grand := 0.0
	for _, b := range buckets {
		grand += b.Total
	}

	if c.Query("format") != "" {
		t := &export.Table{Name: "revenue", Header: []string{"day", "method", "total"}}
		for _, b := range buckets {
			t.AddRow(b.Day, b.Method, b.Total)
		}
		writeExport(c, t)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": buckets, "total": grand})
}

type receivableRow struct {
	OrderID   uint    `json:"order_id"`
	Client    string  `json:"client"`
	Remaining float64 `json:"remaining"`
	AgeDays   int     `json:"age_days"`
	Bucket    string  `json:"bucket"`
}

// ReceivablesReport lists open balances aged into 30-day buckets.
func ReceivablesReport(c *gin.Context) {
	var orders []models.Order
	err := database.DB.Preload("Client").
		Where("remaining > 0 AND status NOT IN ?", []models.OrderStatus{models.OrderCanceled}).
		Order("created_at asc").
		Find(&orders).Error
	if err != nil {
		internalError(c)
		return
	}

	now := time.Now()
	rows := make([]receivableRow, 0, len(orders))
	totals := map[string]float64{}
	for _, o := range orders {
		age := int(now.Sub(o.CreatedAt).Hours() / 24)
		bucket := "0-30"
		switch {
		case age > 90:
			bucket = "90+"
		case age > 60:
			bucket = "61-90"
		case age > 30:
			bucket = "31-60"
		}
		rows = append(rows, receivableRow{
			OrderID:   o.ID,
			Client:    o.Client.Name,
			Remaining: o.Remaining,
			AgeDays:   age,
			Bucket:    bucket,
		})
		totals[bucket] += o.Remaining
	}

	if c.Query("format") != "" {
		t := &export.Table{Name: "receivables", Header: []string{"order_id", "client", "remaining", "age_days", "bucket"}}
		for _, r := range rows {
			t.AddRow(r.OrderID, r.Client, r.Remaining, r.AgeDays, r.Bucket)
		}
		writeExport(c, t)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rows, "totals": totals})
}

type occupancyRow struct {
	ClothID    uint    `json:"cloth_id"`
	Code       string  `json:"code"`
	RentedDays int     `json:"rented_days"`
	TotalDays  int     `json:"total_days"`
	Occupancy  float64 `json:"occupancy"`
}

// OccupancyReport computes, per cloth, how many days of the requested range
// the piece was out on rent.
func OccupancyReport(c *gin.Context) {
	from, to, ok := reportRange(c)
	if !ok {
		return
	}
	totalDays := int(to.Sub(from).Hours()/24) + 1

	var cloths []models.Cloth
	if err := database.DB.Order("code asc").Find(&cloths).Error; err != nil {
		internalError(c)
		return
	}

	var rents []models.Rent
	if err := database.DB.
		Where("canceled = ? AND delivery_date <= ? AND return_date >= ?", false, to, from).
		Find(&rents).Error; err != nil {
		internalError(c)
		return
	}

	rentedByCloth := map[uint]int{}
	for _, r := range rents {
		start := r.DeliveryDate
		if start.Before(from) {
			start = from
		}
		end := r.ReturnDate
		if end.After(to) {
			end = to
		}
		rentedByCloth[r.ClothID] += int(end.Sub(start).Hours()/24) + 1
	}

	rows := make([]occupancyRow, 0, len(cloths))
	for _, cl := range cloths {
		days := rentedByCloth[cl.ID]
		if days > totalDays {
			days = totalDays
		}
		rows = append(rows, occupancyRow{
			ClothID:    cl.ID,
			Code:       cl.Code,
			RentedDays: days,
			TotalDays:  totalDays,
			Occupancy:  float64(days) / float64(totalDays),
		})
	}

	if c.Query("format") != "" {
		t := &export.Table{Name: "occupancy", Header: []string{"cloth_id", "code", "rented_days", "total_days", "occupancy"}}
		for _, r := range rows {
			t.AddRow(r.ClothID, r.Code, r.RentedDays, r.TotalDays, r.Occupancy)
		}
		writeExport(c, t)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rows})
}

// CashboxReport shows the ledger balance per entity.
func CashboxReport(c *gin.Context) {
	var entities []models.Entity
	if err := database.DB.Order("name asc").Find(&entities).Error; err != nil {
		internalError(c)
		return
	}

	type balanceRow struct {
		EntityID uint    `json:"entity_id"`
		Name     string  `json:"name"`
		Balance  float64 `json:"balance"`
	}

	rows := make([]balanceRow, 0, len(entities))
	for _, e := range entities {
		balance, err := services.EntityBalance(database.DB, e.ID)
		if err != nil {
			internalError(c)
			return
		}
		rows = append(rows, balanceRow{EntityID: e.ID, Name: e.Name, Balance: balance})
	}

	c.JSON(http.StatusOK, gin.H{"data": rows})
}
