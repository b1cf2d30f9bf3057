package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"atelier-backend/internal/database"
	"atelier-backend/internal/export"
	"atelier-backend/internal/models"
	"atelier-backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type clothRequest struct {
	Code          string  `json:"code" binding:"required"`
	Name          string  `json:"name"`
	TypeID        uint    `json:"type_id" binding:"required"`
	Size          string  `json:"size"`
	Color         string  `json:"color"`
	PurchasePrice float64 `json:"purchase_price"`
	SalePrice     float64 `json:"sale_price"`
	RentPrice     float64 `json:"rent_price"`
	InventoryID   *uint   `json:"inventory_id"`
}

func clothListQuery(c *gin.Context) *gorm.DB {
	q := database.DB.Model(&models.Cloth{})
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if typeID := c.Query("type_id"); typeID != "" {
		q = q.Where("type_id = ?", typeID)
	}
	if invID := c.Query("inventory_id"); invID != "" {
		q = q.Where("inventory_id = ?", invID)
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(code) LIKE ? OR LOWER(name) LIKE ?", like, like)
	}
	return q
}

func ListClothes(c *gin.Context) {
	offset, limit := pagination(c)

	var total int64
	clothListQuery(c).Count(&total)

	var cloths []models.Cloth
	if err := clothListQuery(c).Preload("Type").Order("code asc").
		Offset(offset).Limit(limit).Find(&cloths).Error; err != nil {
		internalError(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": cloths, "total": total})
}

func GetCloth(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var cloth models.Cloth
	if err := database.DB.Preload("Type").First(&cloth, id).Error; err != nil {
		notFound(c, "cloth")
		return
	}
	c.JSON(http.StatusOK, cloth)
}

func CreateCloth(c *gin.Context) {
	var req clothRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, map[string][]string{"body": {err.Error()}})
		return
	}

	req.Code = strings.TrimSpace(req.Code)

	var count int64
	database.DB.Model(&models.Cloth{}).Where("code = ?", req.Code).Count(&count)
	if count > 0 {
		validationFailed(c, map[string][]string{"code": {"cloth with this code already exists"}})
		return
	}

	var clothType models.ClothType
	if err := database.DB.First(&clothType, req.TypeID).Error; err != nil {
		validationFailed(c, map[string][]string{"type_id": {"unknown cloth type"}})
		return
	}

	if req.InventoryID != nil {
		var inv models.Inventory
		if err := database.DB.First(&inv, *req.InventoryID).Error; err != nil {
			validationFailed(c, map[string][]string{"inventory_id": {"unknown inventory"}})
			return
		}
	}

	cloth := models.Cloth{
		Code:          req.Code,
		Name:          req.Name,
		TypeID:        req.TypeID,
		Size:          req.Size,
		Color:         req.Color,
		PurchasePrice: req.PurchasePrice,
		SalePrice:     req.SalePrice,
		RentPrice:     req.RentPrice,
		Status:        models.ClothReadyForRent,
		InventoryID:   req.InventoryID,
	}

	if err := database.DB.Create(&cloth).Error; err != nil {
		internalError(c)
		return
	}

	logAction(c, "cloth", cloth.ID, "create", "created cloth "+cloth.Code)
	c.JSON(http.StatusCreated, cloth)
}

func UpdateCloth(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var cloth models.Cloth
	if err := database.DB.First(&cloth, id).Error; err != nil {
		notFound(c, "cloth")
		return
	}

	var req clothRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, map[string][]string{"body": {err.Error()}})
		return
	}

	req.Code = strings.TrimSpace(req.Code)
	if req.Code != cloth.Code {
		var count int64
		database.DB.Model(&models.Cloth{}).
			Where("code = ? AND id <> ?", req.Code, cloth.ID).
			Count(&count)
		if count > 0 {
			validationFailed(c, map[string][]string{"code": {"cloth with this code already exists"}})
			return
		}
	}

	cloth.Code = req.Code
	cloth.Name = req.Name
	cloth.TypeID = req.TypeID
	cloth.Size = req.Size
	cloth.Color = req.Color
	cloth.PurchasePrice = req.PurchasePrice
	cloth.SalePrice = req.SalePrice
	cloth.RentPrice = req.RentPrice

	if err := database.DB.Save(&cloth).Error; err != nil {
		internalError(c)
		return
	}

	logAction(c, "cloth", cloth.ID, "update", "updated cloth "+cloth.Code)
	c.JSON(http.StatusOK, cloth)
}

func DeleteCloth(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var cloth models.Cloth
	if err := database.DB.First(&cloth, id).Error; err != nil {
		notFound(c, "cloth")
		return
	}

	var reasons []string
	if cloth.Status == models.ClothRented {
		reasons = append(reasons, "cloth is currently rented")
	}

	var openItems int64
	database.DB.Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_items.cloth_id = ? AND orders.status NOT IN ?", cloth.ID,
			[]models.OrderStatus{models.OrderFinished, models.OrderCanceled}).
		Count(&openItems)
	if openItems > 0 {
		reasons = append(reasons, "cloth belongs to an open order")
	}

	if len(reasons) > 0 {
		unprocessable(c, "cannot delete cloth", reasons)
		return
	}

	if err := database.DB.Delete(&cloth).Error; err != nil {
		internalError(c)
		return
	}

	logAction(c, "cloth", cloth.ID, "delete", "deleted cloth "+cloth.Code)
	c.JSON(http.StatusOK, gin.H{"message": "cloth deleted"})
}

// ClothAvailability answers GET /clothes/:id/available for a candidate
// rental window.
func ClothAvailability(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var cloth models.Cloth
	if err := database.DB.First(&cloth, id).Error; err != nil {
		notFound(c, "cloth")
		return
	}

	delivery, err := time.Parse("2006-01-02", c.Query("delivery_date"))
	if err != nil {
		validationFailed(c, map[string][]string{"delivery_date": {"expected YYYY-MM-DD"}})
		return
	}
	days, err := strconv.Atoi(c.Query("days_of_rent"))
	if err != nil || days <= 0 {
		validationFailed(c, map[string][]string{"days_of_rent": {"must be a positive integer"}})
		return
	}

	res, err := services.CheckClothAvailability(database.DB, &cloth, delivery, days, 0)
	if err != nil {
		internalError(c)
		return
	}
	c.JSON(http.StatusOK, res)
}

func ExportClothes(c *gin.Context) {
	var cloths []models.Cloth
	if err := clothListQuery(c).Preload("Type").Order("code asc").Find(&cloths).Error; err != nil {
		internalError(c)
		return
	}

	t := &export.Table{
		Name:   "clothes",
		Header: []string{"id", "code", "name", "type", "size", "color", "status", "sale_price", "rent_price"},
	}
	for _, cl := range cloths {
		t.AddRow(cl.ID, cl.Code, cl.Name, cl.Type.Name, cl.Size, cl.Color, cl.Status, cl.SalePrice, cl.RentPrice)
	}
	writeExport(c, t)
}
