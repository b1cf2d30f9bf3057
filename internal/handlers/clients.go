package handlers

import (
	"net/http"
	"strings"

	"atelier-backend/internal/database"
	"atelier-backend/internal/export"
	"atelier-backend/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type clientRequest struct {
	Name           string  `json:"name" binding:"required,min=2"`
	Address        string  `json:"address"`
	Phone          string  `json:"phone" binding:"required"`
	SecondaryPhone string  `json:"secondary_phone"`
	Notes          string  `json:"notes"`
	Height         float64 `json:"height"`
	Weight         float64 `json:"weight"`
	Chest          float64 `json:"chest"`
	Waist          float64 `json:"waist"`
	Hips           float64 `json:"hips"`
	Shoulder       float64 `json:"shoulder"`
	Sleeve         float64 `json:"sleeve"`
	Inseam         float64 `json:"inseam"`
}

func clientListQuery(c *gin.Context) *gorm.DB {
	q := database.DB.Model(&models.Client{})
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR phone LIKE ? OR secondary_phone LIKE ?", like, like, like)
	}
	return q
}

func ListClients(c *gin.Context) {
	offset, limit := pagination(c)

	var total int64
	clientListQuery(c).Count(&total)

	var clients []models.Client
	if err := clientListQuery(c).Order("name asc").Offset(offset).Limit(limit).Find(&clients).Error; err != nil {
		internalError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": clients, "total": total})
}

func GetClient(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var client models.Client
	if err := database.DB.Preload("Orders").First(&client, id).Error; err != nil {
		notFound(c, "client")
		return
	}
	c.JSON(http.StatusOK, client)
}

func CreateClient(c *gin.Context) {
	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, map[string][]string{"body": {err.Error()}})
		return
	}

	req.Phone = strings.TrimSpace(req.Phone)

	var count int64
	database.DB.Model(&models.Client{}).Where("phone = ?", req.Phone).Count(&count)
	if count > 0 {
		validationFailed(c, map[string][]string{"phone": {"client with this phone already exists"}})
		return
	}

	client := models.Client{
		Name:           strings.TrimSpace(req.Name),
		Address:        req.Address,
		Phone:          req.Phone,
		SecondaryPhone: req.SecondaryPhone,
		Notes:          req.Notes,
		Height:         req.Height,
		Weight:         req.Weight,
		Chest:          req.Chest,
		Waist:          req.Waist,
		Hips:           req.Hips,
		Shoulder:       req.Shoulder,
		Sleeve:         req.Sleeve,
		Inseam:         req.Inseam,
	}

	if err := database.DB.Create(&client).Error; err != nil {
		internalError(c)
		return
	}

	logAction(c, "client", client.ID, "create", "created client "+client.Name)
	c.JSON(http.StatusCreated, client)
}

func UpdateClient(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var client models.Client
	if err := database.DB.First(&client, id).Error; err != nil {
		notFound(c, "client")
		return
	}

	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, map[string][]string{"body": {err.Error()}})
		return
	}

	req.Phone = strings.TrimSpace(req.Phone)
	if req.Phone != client.Phone {
		var count int64
		database.DB.Model(&models.Client{}).
			Where("phone = ? AND id <> ?", req.Phone, client.ID).
			Count(&count)
		if count > 0 {
			validationFailed(c, map[string][]string{"phone": {"client with this phone already exists"}})
			return
		}
	}

	client.Name = strings.TrimSpace(req.Name)
	client.Address = req.Address
	client.Phone = req.Phone
	client.SecondaryPhone = req.SecondaryPhone
	client.Notes = req.Notes
	client.Height = req.Height
	client.Weight = req.Weight
	client.Chest = req.Chest
	client.Waist = req.Waist
	client.Hips = req.Hips
	client.Shoulder = req.Shoulder
	client.Sleeve = req.Sleeve
	client.Inseam = req.Inseam

	if err := database.DB.Save(&client).Error; err != nil {
		internalError(c)
		return
	}

	logAction(c, "client", client.ID, "update", "updated client "+client.Name)
	c.JSON(http.StatusOK, client)
}

func DeleteClient(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var client models.Client
	if err := database.DB.First(&client, id).Error; err != nil {
		notFound(c, "client")
		return
	}

	var open int64
	database.DB.Model(&models.Order{}).
		Where("client_id = ? AND status NOT IN ?", client.ID,
			[]models.OrderStatus{models.OrderFinished, models.OrderCanceled}).
		Count(&open)
	if open > 0 {
		unprocessable(c, "cannot delete client", []string{"client has orders that are not finished"})
		return
	}

	if err := database.DB.Delete(&client).Error; err != nil {
		internalError(c)
		return
	}

	logAction(c, "client", client.ID, "delete", "deleted client "+client.Name)
	c.JSON(http.StatusOK, gin.H{"message": "client deleted"})
}

func ExportClients(c *gin.Context) {
	var clients []models.Client
	if err := clientListQuery(c).Order("name asc").Find(&clients).Error; err != nil {
		internalError(c)
		return
	}

	t := &export.Table{
		Name:   "clients",
		Header: []string{"id", "name", "phone", "secondary_phone", "address", "height", "chest", "waist", "hips", "created_at"},
	}
	for _, cl := range clients {
		t.AddRow(cl.ID, cl.Name, cl.Phone, cl.SecondaryPhone, cl.Address,
			cl.Height, cl.Chest, cl.Waist, cl.Hips, cl.CreatedAt.Format("2006-01-02"))
	}
	writeExport(c, t)
}
