package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"atelier-backend/internal/database"
	"atelier-backend/internal/models"
	"atelier-backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type createCustodyRequest struct {
	Kind        string  `json:"kind" binding:"required"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

func CreateCustody(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var order models.Order
	if err := database.DB.First(&order, id).Error; err != nil {
		notFound(c, "order")
		return
	}

	var req createCustodyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, map[string][]string{"body": {err.Error()}})
		return
	}

	kind := models.CustodyKind(req.Kind)
	switch kind {
	case models.CustodyMoney, models.CustodyPhysicalItem, models.CustodyDocument:
	default:
		validationFailed(c, map[string][]string{"kind": {"kind must be money, physical_item or document"}})
		return
	}

	var reasons []string
	if kind == models.CustodyMoney && req.Amount <= 0 {
		reasons = append(reasons, "money custody needs a positive amount")
	}
	if kind != models.CustodyMoney && req.Description == "" {
		reasons = append(reasons, "item and document custody need a description")
	}
	switch order.Status {
	case models.OrderFinished, models.OrderCanceled:
		reasons = append(reasons, fmt.Sprintf("order is %s", order.Status))
	}
	if len(reasons) > 0 {
		unprocessable(c, "cannot create custody", reasons)
		return
	}

	userID := currentUserID(c)
	custody := models.Custody{
		OrderID:     order.ID,
		Kind:        kind,
		Amount:      req.Amount,
		Description: req.Description,
		UserID:      &userID,
	}

	entityID, err := orderEntityID(&order)
	if err != nil {
		internalError(c)
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&custody).Error; err != nil {
			return err
		}
		// money deposits enter the cashbox when taken
		if kind == models.CustodyMoney {
			custodyID := custody.ID
			return services.RecordIncome(tx, models.Transaction{
				EntityID:  entityID,
				Kind:      models.TxCustodyTaken,
				Amount:    req.Amount,
				CustodyID: &custodyID,
				Details:   fmt.Sprintf("money custody taken for order %d", order.ID),
			})
		}
		return nil
	})
	if err != nil {
		internalError(c)
		return
	}

	logAction(c, "custody", custody.ID, "create", fmt.Sprintf("custody (%s) for order %d", kind, order.ID))
	c.JSON(http.StatusCreated, custody)
}

func ListCustody(c *gin.Context) {
	offset, limit := pagination(c)

	q := database.DB.Model(&models.Custody{})
	if orderID := c.Query("order_id"); orderID != "" {
		q = q.Where("order_id = ?", orderID)
	}
	if kind := c.Query("kind"); kind != "" {
		q = q.Where("kind = ?", kind)
	}
	if c.Query("pending") == "true" {
		q = q.Where("id NOT IN (?)", database.DB.Model(&models.CustodyReturn{}).Select("custody_id"))
	}

	var total int64
	q.Count(&total)

	var custodies []models.Custody
	if err := q.Preload("Photos").Preload("Return").Order("id desc").
		Offset(offset).Limit(limit).Find(&custodies).Error; err != nil {
		internalError(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": custodies, "total": total})
}

func GetCustody(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var custody models.Custody
	if err := database.DB.Preload("Photos").Preload("Return").First(&custody, id).Error; err != nil {
		notFound(c, "custody")
		return
	}

	// photos are served through signed, time-limited links
	links := make([]gin.H, 0, len(custody.Photos))
	for _, p := range custody.Photos {
		links = append(links, gin.H{
			"id":    p.ID,
			"url":   files.SignURL(p.FileName, 15*time.Minute),
			"thumb": files.SignURL(p.ThumbName, 15*time.Minute),
		})
	}

	c.JSON(http.StatusOK, gin.H{"custody": custody, "photo_urls": links})
}

type returnCustodyRequest struct {
	Disposition string `json:"disposition" binding:"required"`
	Notes       string `json:"notes"`
	ProofPhoto  string `json:"proof_photo"`
}

func ReturnCustody(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var custody models.Custody
	if err := database.DB.Preload("Return").First(&custody, id).Error; err != nil {
		notFound(c, "custody")
		return
	}

	var req returnCustodyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, map[string][]string{"body": {err.Error()}})
		return
	}

	disposition := models.CustodyDisposition(req.Disposition)
	switch disposition {
	case models.CustodyReturned, models.CustodyForfeited:
	default:
		validationFailed(c, map[string][]string{"disposition": {"disposition must be returned or forfeited"}})
		return
	}

	if custody.Return != nil {
		unprocessable(c, "cannot return custody", []string{"custody is already decided"})
		return
	}

	var order models.Order
	if err := database.DB.First(&order, custody.OrderID).Error; err != nil {
		internalError(c)
		return
	}
	entityID, err := orderEntityID(&order)
	if err != nil {
		internalError(c)
		return
	}

	ret := models.CustodyReturn{
		CustodyID:   custody.ID,
		Disposition: disposition,
		Notes:       req.Notes,
		ProofPhoto:  req.ProofPhoto,
		UserID:      currentUserID(c),
	}
	custodyID := custody.ID

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&ret).Error; err != nil {
			return err
		}
		if custody.Kind != models.CustodyMoney {
			return nil
		}
		if disposition == models.CustodyReturned {
			// pay the deposit back out of the cashbox
			return services.Withdraw(tx, models.Transaction{
				EntityID:  entityID,
				Kind:      models.TxCustodyReturn,
				Amount:    custody.Amount,
				CustodyID: &custodyID,
				Details:   fmt.Sprintf("custody %d returned to client", custody.ID),
			})
		}
		// forfeited money already sits in the cashbox; reclassify it so the
		// ledger shows it as income rather than a held deposit
		return tx.Model(&models.Transaction{}).
			Where("custody_id = ? AND kind = ?", custodyID, models.TxCustodyTaken).
			Update("kind", models.TxCustodyForfeit).Error
	})
	if err != nil {
		if errors.Is(err, services.ErrInsufficientBalance) {
			unprocessable(c, "cannot return custody", []string{"insufficient cashbox balance"})
			return
		}
		internalError(c)
		return
	}

	logAction(c, "custody", custody.ID, "return", string(disposition))
	c.JSON(http.StatusOK, ret)
}

// UploadCustodyPhoto attaches a photo to a custody record.
func UploadCustodyPhoto(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var custody models.Custody
	if err := database.DB.First(&custody, id).Error; err != nil {
		notFound(c, "custody")
		return
	}

	file, err := c.FormFile("photo")
	if err != nil {
		validationFailed(c, map[string][]string{"photo": {"photo file is required"}})
		return
	}

	src, err := file.Open()
	if err != nil {
		internalError(c)
		return
	}
	defer src.Close()

	fileName, thumbName, err := files.Save(src)
	if err != nil {
		validationFailed(c, map[string][]string{"photo": {err.Error()}})
		return
	}

	photo := models.CustodyPhoto{CustodyID: custody.ID, FileName: fileName, ThumbName: thumbName}
	if err := database.DB.Create(&photo).Error; err != nil {
		internalError(c)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"photo": photo,
		"url":   files.SignURL(fileName, 15*time.Minute),
	})
}

// UploadReturnProof stores a proof photo for a pending custody and returns
// its file name, to be sent with the return request.
func UploadReturnProof(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var custody models.Custody
	if err := database.DB.Preload("Return").First(&custody, id).Error; err != nil {
		notFound(c, "custody")
		return
	}
	if custody.Return != nil {
		unprocessable(c, "cannot attach proof", []string{"custody is already decided"})
		return
	}

	file, err := c.FormFile("photo")
	if err != nil {
		validationFailed(c, map[string][]string{"photo": {"photo file is required"}})
		return
	}

	src, err := file.Open()
	if err != nil {
		internalError(c)
		return
	}
	defer src.Close()

	fileName, _, err := files.Save(src)
	if err != nil {
		validationFailed(c, map[string][]string{"photo": {err.Error()}})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"proof_photo": fileName})
}
