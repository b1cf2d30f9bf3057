package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"atelier-backend/internal/database"
	"atelier-backend/internal/export"
	"atelier-backend/internal/models"
	"atelier-backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type orderItemRequest struct {
	ClothID      uint    `json:"cloth_id" binding:"required"`
	Type         string  `json:"type" binding:"required"`
	Price        float64 `json:"price"`
	Discount     float64 `json:"discount"`
	DaysOfRent   int     `json:"days_of_rent"`
	DeliveryDate string  `json:"delivery_date"` // YYYY-MM-DD, rent items
}

type createOrderRequest struct {
	ClientID    uint               `json:"client_id" binding:"required"`
	InventoryID uint               `json:"inventory_id" binding:"required"`
	Notes       string             `json:"notes"`
	Items       []orderItemRequest `json:"items" binding:"required"`
}

// errDeliveryBlocked aborts the delivery transaction when the pre-delivery
// checks fail; the collected reasons surface as a 422.
var errDeliveryBlocked = errors.New("delivery blocked")

// orderEntityID resolves the entity owning the order's inventory, for
// ledger rows and scope checks.
func orderEntityID(order *models.Order) (uint, error) {
	var inv models.Inventory
	if err := database.DB.First(&inv, order.InventoryID).Error; err != nil {
		return 0, err
	}
	return inv.EntityID, nil
}

func ListOrders(c *gin.Context) {
	offset, limit := pagination(c)

	q := database.DB.Model(&models.Order{})
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if clientID := c.Query("client_id"); clientID != "" {
		q = q.Where("client_id = ?", clientID)
	}
	if invID := c.Query("inventory_id"); invID != "" {
		q = q.Where("inventory_id = ?", invID)
	}
	if from := c.Query("from"); from != "" {
		q = q.Where("created_at >= ?", from)
	}
	if to := c.Query("to"); to != "" {
		q = q.Where("created_at < ?", to)
	}

	var total int64
	q.Count(&total)

	var orders []models.Order
	if err := q.Preload("Client").Order("id desc").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		internalError(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": orders, "total": total})
}

func GetOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var order models.Order
	err := database.DB.
		Preload("Client").
		Preload("Items.Cloth").
		Preload("Items.Rent").
		Preload("Payments").
		Preload("Custodies.Photos").
		Preload("Custodies.Return").
		First(&order, id).Error
	if err != nil {
		notFound(c, "order")
		return
	}
	c.JSON(http.StatusOK, order)
}

func CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, map[string][]string{"body": {err.Error()}})
		return
	}

	var client models.Client
	if err := database.DB.First(&client, req.ClientID).Error; err != nil {
		validationFailed(c, map[string][]string{"client_id": {"unknown client"}})
		return
	}

	var inv models.Inventory
	if err := database.DB.First(&inv, req.InventoryID).Error; err != nil {
		validationFailed(c, map[string][]string{"inventory_id": {"unknown inventory"}})
		return
	}

	if !entityScopeAllowed(c, inv.EntityID) {
		forbidden(c, "no access to this entity")
		return
	}

	if len(req.Items) == 0 {
		validationFailed(c, map[string][]string{"items": {"order needs at least one item"}})
		return
	}

	hasBuy := false
	for _, it := range req.Items {
		if models.OrderItemType(it.Type) == models.ItemBuy {
			hasBuy = true
		}
	}
	if hasBuy && len(req.Items) != 1 {
		validationFailed(c, map[string][]string{"items": {"buy orders must have exactly one item"}})
		return
	}

	var reasons []string
	items := make([]models.OrderItem, 0, len(req.Items))
	seenCloths := make(map[uint]bool, len(req.Items))

	for i, it := range req.Items {
		if seenCloths[it.ClothID] {
			reasons = append(reasons, fmt.Sprintf("cloth %d appears more than once", it.ClothID))
			continue
		}
		seenCloths[it.ClothID] = true

		itemType := models.OrderItemType(it.Type)
		switch itemType {
		case models.ItemBuy, models.ItemRent, models.ItemTailoring:
		default:
			validationFailed(c, map[string][]string{
				fmt.Sprintf("items.%d.type", i): {"type must be buy, rent or tailoring"},
			})
			return
		}

		var cloth models.Cloth
		if err := database.DB.First(&cloth, it.ClothID).Error; err != nil {
			reasons = append(reasons, fmt.Sprintf("item %d: unknown cloth", i))
			continue
		}
		if cloth.InventoryID == nil || *cloth.InventoryID != inv.ID {
			reasons = append(reasons, fmt.Sprintf("cloth %s is not in the order's inventory", cloth.Code))
			continue
		}

		item := models.OrderItem{
			ClothID:  cloth.ID,
			Type:     itemType,
			Price:    it.Price,
			Discount: it.Discount,
		}

		switch itemType {
		case models.ItemRent:
			delivery, err := time.Parse("2006-01-02", it.DeliveryDate)
			if err != nil || it.DaysOfRent <= 0 {
				reasons = append(reasons, fmt.Sprintf("item %d: rent items need delivery_date and days_of_rent", i))
				continue
			}
			avail, err := services.CheckClothAvailability(database.DB, &cloth, delivery, it.DaysOfRent, 0)
			if err != nil {
				internalError(c)
				return
			}
			if !avail.Available {
				reasons = append(reasons, fmt.Sprintf("cloth %s: %v", cloth.Code, avail.Reasons))
				continue
			}
			item.DaysOfRent = it.DaysOfRent
			item.DeliveryDate = &delivery
		case models.ItemTailoring:
			item.FactoryStatus = models.FactoryNew
		}

		items = append(items, item)
	}

	if len(reasons) > 0 {
		unprocessable(c, "cannot create order", reasons)
		return
	}

	userID := currentUserID(c)
	order := models.Order{
		ClientID:    req.ClientID,
		InventoryID: req.InventoryID,
		UserID:      &userID,
		Notes:       req.Notes,
		Status:      models.OrderCreated,
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
			if err := tx.Create(&items[i]).Error; err != nil {
				return err
			}
			// buy and rent pieces are held for this order from now on
			if items[i].Type != models.ItemTailoring {
				if err := tx.Model(&models.Cloth{}).
					Where("id = ?", items[i].ClothID).
					Update("status", models.ClothReserved).Error; err != nil {
					return err
				}
			}
		}
		return services.RecalculateOrder(tx, &order)
	})
	if err != nil {
		internalError(c)
		return
	}

	logAction(c, "order", order.ID, "create", fmt.Sprintf("created order for client %s", client.Name))
	c.JSON(http.StatusCreated, order)
}

type addPaymentRequest struct {
	Amount float64 `json:"amount" binding:"required"`
	Method string  `json:"method" binding:"required"`
}

func AddPayment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var order models.Order
	if err := database.DB.First(&order, id).Error; err != nil {
		notFound(c, "order")
		return
	}

	var req addPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, map[string][]string{"body": {err.Error()}})
		return
	}

	var reasons []string
	if order.Status == models.OrderCanceled || order.Status == models.OrderFinished {
		reasons = append(reasons, fmt.Sprintf("order is %s", order.Status))
	}
	if req.Amount <= 0 {
		reasons = append(reasons, "amount must be positive")
	}
	if req.Amount > order.Remaining {
		reasons = append(reasons, fmt.Sprintf("amount exceeds remaining balance %.2f", order.Remaining))
	}
	if len(reasons) > 0 {
		unprocessable(c, "cannot add payment", reasons)
		return
	}

	entityID, err := orderEntityID(&order)
	if err != nil {
		internalError(c)
		return
	}

	payment := models.Payment{OrderID: order.ID, Amount: req.Amount, Method: req.Method}
	orderID := order.ID

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
		if err := services.RecordIncome(tx, models.Transaction{
			EntityID: entityID,
			Kind:     models.TxPayment,
			Amount:   req.Amount,
			OrderID:  &orderID,
			Details:  fmt.Sprintf("payment for order %d", order.ID),
		}); err != nil {
			return err
		}
		return services.RecalculateOrder(tx, &order)
	})
	if err != nil {
		internalError(c)
		return
	}

	logAction(c, "order", order.ID, "payment", fmt.Sprintf("payment %.2f (%s)", req.Amount, req.Method))
	c.JSON(http.StatusCreated, gin.H{"payment": payment, "order": order})
}

func CancelPayment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	pid, ok := parseID(c, "pid")
	if !ok {
		return
	}

	var order models.Order
	if err := database.DB.First(&order, id).Error; err != nil {
		notFound(c, "order")
		return
	}

	var payment models.Payment
	if err := database.DB.Where("id = ? AND order_id = ?", pid, order.ID).First(&payment).Error; err != nil {
		notFound(c, "payment")
		return
	}
	if payment.Canceled {
		unprocessable(c, "cannot cancel payment", []string{"payment is already canceled"})
		return
	}

	entityID, err := orderEntityID(&order)
	if err != nil {
		internalError(c)
		return
	}
	orderID := order.ID

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&payment).Update("canceled", true).Error; err != nil {
			return err
		}
		// refund row, no balance check: money already left the cashbox
		if err := tx.Create(&models.Transaction{
			EntityID:  entityID,
			Direction: models.DirectionOut,
			Kind:      models.TxPayment,
			Amount:    payment.Amount,
			OrderID:   &orderID,
			Details:   fmt.Sprintf("canceled payment %d", payment.ID),
		}).Error; err != nil {
			return err
		}
		return services.RecalculateOrder(tx, &order)
	})
	if err != nil {
		internalError(c)
		return
	}

	logAction(c, "order", order.ID, "payment_canceled", fmt.Sprintf("payment %d canceled", payment.ID))
	c.JSON(http.StatusOK, order)
}

func DeliverOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var order models.Order
	if err := database.DB.Preload("Items").First(&order, id).Error; err != nil {
		notFound(c, "order")
		return
	}

	// the checks run inside the transaction so a competing delivery cannot
	// slip its Rent rows in between check and write
	var blocked []string
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		reasons, err := services.DeliverReasons(tx, &order)
		if err != nil {
			return err
		}
		if len(reasons) > 0 {
			blocked = reasons
			return errDeliveryBlocked
		}

		for _, item := range order.Items {
			switch item.Type {
			case models.ItemRent:
				rent := models.Rent{
					OrderItemID:  item.ID,
					ClothID:      item.ClothID,
					DeliveryDate: *item.DeliveryDate,
					ReturnDate:   item.DeliveryDate.AddDate(0, 0, item.DaysOfRent),
				}
				if err := tx.Create(&rent).Error; err != nil {
					return err
				}
				if err := tx.Model(&models.Cloth{}).Where("id = ?", item.ClothID).
					Updates(map[string]any{"status": models.ClothRented, "inventory_id": nil}).Error; err != nil {
					return err
				}
			case models.ItemBuy:
				if err := tx.Model(&models.Cloth{}).Where("id = ?", item.ClothID).
					Updates(map[string]any{"status": models.ClothSold, "inventory_id": nil}).Error; err != nil {
					return err
				}
			}
		}
		return tx.Model(&order).Update("status", models.OrderDelivered).Error
	})
	if err != nil {
		if errors.Is(err, errDeliveryBlocked) {
			unprocessable(c, "cannot deliver order", blocked)
			return
		}
		internalError(c)
		return
	}

	for _, item := range order.Items {
		if item.Type == models.ItemRent && item.DeliveryDate != nil {
			due := item.DeliveryDate.AddDate(0, 0, item.DaysOfRent)
			database.CreateNotification(nil, "return_due",
				fmt.Sprintf("order %d: cloth %d due back %s", order.ID, item.ClothID, due.Format("2006-01-02")))
		}
	}

	order.Status = models.OrderDelivered
	logAction(c, "order", order.ID, "status_change", "order delivered")
	c.JSON(http.StatusOK, order)
}

type returnItemsRequest struct {
	ItemIDs []uint `json:"item_ids" binding:"required"`
}

// ReturnOrderItems marks rented items as physically returned and puts the
// cloths back into the order's inventory.
func ReturnOrderItems(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var order models.Order
	if err := database.DB.First(&order, id).Error; err != nil {
		notFound(c, "order")
		return
	}

	var req returnItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.ItemIDs) == 0 {
		validationFailed(c, map[string][]string{"item_ids": {"item_ids are required"}})
		return
	}

	var items []models.OrderItem
	if err := database.DB.Preload("Rent").
		Where("order_id = ? AND id IN ?", order.ID, req.ItemIDs).
		Find(&items).Error; err != nil {
		internalError(c)
		return
	}

	var reasons []string
	if len(items) != len(req.ItemIDs) {
		reasons = append(reasons, "some items do not belong to this order")
	}
	for _, item := range items {
		if item.Type != models.ItemRent {
			reasons = append(reasons, fmt.Sprintf("item %d is not a rent item", item.ID))
		} else if item.Rent == nil {
			reasons = append(reasons, fmt.Sprintf("item %d was never delivered", item.ID))
		} else if item.Rent.Returned {
			reasons = append(reasons, fmt.Sprintf("item %d is already returned", item.ID))
		}
	}
	if len(reasons) > 0 {
		unprocessable(c, "cannot return items", reasons)
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			if err := tx.Model(item.Rent).Update("returned", true).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Cloth{}).Where("id = ?", item.ClothID).
				Updates(map[string]any{
					"status":       models.ClothReadyForRent,
					"inventory_id": order.InventoryID,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		internalError(c)
		return
	}

	logAction(c, "order", order.ID, "items_returned", fmt.Sprintf("%d item(s) returned", len(items)))
	c.JSON(http.StatusOK, gin.H{"message": "items returned"})
}

func FinishOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var order models.Order
	if err := database.DB.First(&order, id).Error; err != nil {
		notFound(c, "order")
		return
	}

	reasons, err := services.FinishReasons(database.DB, &order)
	if err != nil {
		internalError(c)
		return
	}
	if len(reasons) > 0 {
		unprocessable(c, "cannot finish order", reasons)
		return
	}

	if err := database.DB.Model(&order).Update("status", models.OrderFinished).Error; err != nil {
		internalError(c)
		return
	}

	order.Status = models.OrderFinished
	logAction(c, "order", order.ID, "status_change", "order finished")
	c.JSON(http.StatusOK, order)
}

func CancelOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var order models.Order
	if err := database.DB.Preload("Items").Preload("Payments").First(&order, id).Error; err != nil {
		notFound(c, "order")
		return
	}

	switch order.Status {
	case models.OrderCreated, models.OrderPartiallyPaid, models.OrderPaid:
	default:
		unprocessable(c, "cannot cancel order", []string{fmt.Sprintf("order is %s, only undelivered orders can be canceled", order.Status)})
		return
	}

	entityID, err := orderEntityID(&order)
	if err != nil {
		internalError(c)
		return
	}
	orderID := order.ID

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		for _, p := range order.Payments {
			if p.Canceled {
				continue
			}
			if err := tx.Model(&models.Payment{}).Where("id = ?", p.ID).Update("canceled", true).Error; err != nil {
				return err
			}
			if err := tx.Create(&models.Transaction{
				EntityID:  entityID,
				Direction: models.DirectionOut,
				Kind:      models.TxPayment,
				Amount:    p.Amount,
				OrderID:   &orderID,
				Details:   "order canceled, payment refunded",
			}).Error; err != nil {
				return err
			}
		}
		// free the pieces held for this order
		for _, item := range order.Items {
			if item.Type == models.ItemTailoring {
				continue
			}
			if err := tx.Model(&models.Cloth{}).
				Where("id = ? AND status = ?", item.ClothID, models.ClothReserved).
				Update("status", models.ClothReadyForRent).Error; err != nil {
				return err
			}
		}
		order.Status = models.OrderCanceled
		return services.RecalculateOrder(tx, &order)
	})
	if err != nil {
		internalError(c)
		return
	}

	logAction(c, "order", order.ID, "status_change", "order canceled")
	c.JSON(http.StatusOK, order)
}

func ExportOrders(c *gin.Context) {
	var orders []models.Order
	if err := database.DB.Preload("Client").Order("id desc").Find(&orders).Error; err != nil {
		internalError(c)
		return
	}

	t := &export.Table{
		Name:   "orders",
		Header: []string{"id", "client", "status", "total_price", "paid", "remaining", "created_at"},
	}
	for _, o := range orders {
		t.AddRow(o.ID, o.Client.Name, o.Status, o.TotalPrice, o.Paid, o.Remaining, o.CreatedAt.Format("2006-01-02"))
	}
	writeExport(c, t)
}
