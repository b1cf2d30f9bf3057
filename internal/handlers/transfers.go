package handlers

import (
	"fmt"
	"net/http"

	"atelier-backend/internal/database"
	"atelier-backend/internal/models"
	"atelier-backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type createTransferRequest struct {
	FromEntityID uint   `json:"from_entity_id" binding:"required"`
	ToEntityID   uint   `json:"to_entity_id" binding:"required"`
	ClothIDs     []uint `json:"cloth_ids" binding:"required"`
	Notes        string `json:"notes"`
}

func ListTransfers(c *gin.Context) {
	offset, limit := pagination(c)

	q := database.DB.Model(&models.Transfer{})
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if entityID := c.Query("entity_id"); entityID != "" {
		q = q.Where("from_entity_id = ? OR to_entity_id = ?", entityID, entityID)
	}

	var total int64
	q.Count(&total)

	var transfers []models.Transfer
	if err := q.Preload("FromEntity").Preload("ToEntity").Order("id desc").
		Offset(offset).Limit(limit).Find(&transfers).Error; err != nil {
		internalError(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": transfers, "total": total})
}

func GetTransfer(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var transfer models.Transfer
	err := database.DB.
		Preload("FromEntity").
		Preload("ToEntity").
		Preload("Items.Cloth").
		Preload("Actions").
		First(&transfer, id).Error
	if err != nil {
		notFound(c, "transfer")
		return
	}
	c.JSON(http.StatusOK, transfer)
}

func CreateTransfer(c *gin.Context) {
	var req createTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, map[string][]string{"body": {err.Error()}})
		return
	}

	if req.FromEntityID == req.ToEntityID {
		validationFailed(c, map[string][]string{"to_entity_id": {"cannot transfer to the same entity"}})
		return
	}
	if len(req.ClothIDs) == 0 {
		validationFailed(c, map[string][]string{"cloth_ids": {"at least one cloth is required"}})
		return
	}

	var from, to models.Entity
	if err := database.DB.Preload("Inventory").First(&from, req.FromEntityID).Error; err != nil {
		notFound(c, "source entity")
		return
	}
	if err := database.DB.Preload("Inventory").First(&to, req.ToEntityID).Error; err != nil {
		notFound(c, "destination entity")
		return
	}

	if !entityScopeAllowed(c, from.ID) {
		forbidden(c, "no access to the source entity")
		return
	}

	var reasons []string
	var cloths []models.Cloth
	for _, clothID := range req.ClothIDs {
		var cloth models.Cloth
		if err := database.DB.First(&cloth, clothID).Error; err != nil {
			reasons = append(reasons, fmt.Sprintf("cloth %d not found", clothID))
			continue
		}
		if cloth.InventoryID == nil || *cloth.InventoryID != from.Inventory.ID {
			reasons = append(reasons, fmt.Sprintf("cloth %s is not in the source inventory", cloth.Code))
			continue
		}
		switch cloth.Status {
		case models.ClothRented, models.ClothSold:
			reasons = append(reasons, fmt.Sprintf("cloth %s is %s", cloth.Code, cloth.Status))
			continue
		}
		cloths = append(cloths, cloth)
	}
	if len(reasons) > 0 {
		unprocessable(c, "cannot create transfer", reasons)
		return
	}

	transfer := models.Transfer{
		FromEntityID: from.ID,
		ToEntityID:   to.ID,
		CreatedByID:  currentUserID(c),
		Status:       models.TransferPending,
		Notes:        req.Notes,
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&transfer).Error; err != nil {
			return err
		}
		for _, cloth := range cloths {
			item := models.TransferItem{
				TransferID: transfer.ID,
				ClothID:    cloth.ID,
				Status:     models.TransferItemPending,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		}
		return tx.Create(&models.TransferAction{
			TransferID: transfer.ID,
			UserID:     currentUserID(c),
			Action:     "created",
			Details:    fmt.Sprintf("%d item(s) from %s to %s", len(cloths), from.Name, to.Name),
		}).Error
	})
	if err != nil {
		internalError(c)
		return
	}

	database.CreateNotification(nil, "transfer_request",
		fmt.Sprintf("transfer %d requested from %s to %s", transfer.ID, from.Name, to.Name))
	logAction(c, "transfer", transfer.ID, "create", "transfer created")
	c.JSON(http.StatusCreated, transfer)
}

type transferItemsRequest struct {
	ItemIDs []uint `json:"item_ids" binding:"required"`
}

// decideTransferItems applies an approve or reject decision to the given
// pending items and recomputes the derived transfer status.
func decideTransferItems(c *gin.Context, approve bool, itemIDs []uint) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var transfer models.Transfer
	if err := database.DB.Preload("Items").Preload("ToEntity.Inventory").First(&transfer, id).Error; err != nil {
		notFound(c, "transfer")
		return
	}

	if !entityScopeAllowed(c, transfer.ToEntityID) {
		forbidden(c, "no access to the destination entity")
		return
	}

	// nil means every still-pending item
	targets := map[uint]bool{}
	if itemIDs == nil {
		for _, it := range transfer.Items {
			if it.Status == models.TransferItemPending {
				targets[it.ID] = true
			}
		}
	} else {
		for _, id := range itemIDs {
			targets[id] = true
		}
	}

	var reasons []string
	var toDecide []models.TransferItem
	for _, it := range transfer.Items {
		if !targets[it.ID] {
			continue
		}
		delete(targets, it.ID)
		if it.Status != models.TransferItemPending {
			reasons = append(reasons, fmt.Sprintf("item %d is already %s", it.ID, it.Status))
			continue
		}
		toDecide = append(toDecide, it)
	}
	for id := range targets {
		reasons = append(reasons, fmt.Sprintf("item %d does not belong to this transfer", id))
	}
	if len(toDecide) == 0 {
		reasons = append(reasons, "no pending items to decide")
	}
	if len(reasons) > 0 {
		unprocessable(c, "cannot update transfer items", reasons)
		return
	}

	action := "item_rejected"
	itemStatus := models.TransferItemRejected
	if approve {
		action = "item_approved"
		itemStatus = models.TransferItemApproved
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		for _, it := range toDecide {
			if err := tx.Model(&models.TransferItem{}).
				Where("id = ?", it.ID).
				Update("status", itemStatus).Error; err != nil {
				return err
			}
			if approve {
				// detach from wherever it sits, attach to the destination
				if err := tx.Model(&models.Cloth{}).
					Where("id = ?", it.ClothID).
					Update("inventory_id", transfer.ToEntity.Inventory.ID).Error; err != nil {
					return err
				}
			}
			itemID := it.ID
			if err := tx.Create(&models.TransferAction{
				TransferID: transfer.ID,
				ItemID:     &itemID,
				UserID:     currentUserID(c),
				Action:     action,
			}).Error; err != nil {
				return err
			}
		}

		var items []models.TransferItem
		if err := tx.Where("transfer_id = ?", transfer.ID).Find(&items).Error; err != nil {
			return err
		}
		transfer.Status = services.DeriveTransferStatus(items)
		return tx.Model(&transfer).Update("status", transfer.Status).Error
	})
	if err != nil {
		internalError(c)
		return
	}

	logAction(c, "transfer", transfer.ID, action, fmt.Sprintf("%d item(s)", len(toDecide)))
	c.JSON(http.StatusOK, gin.H{"status": transfer.Status})
}

func ApproveTransfer(c *gin.Context) {
	decideTransferItems(c, true, nil)
}

func RejectTransfer(c *gin.Context) {
	decideTransferItems(c, false, nil)
}

func ApproveTransferItems(c *gin.Context) {
	var req transferItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.ItemIDs) == 0 {
		validationFailed(c, map[string][]string{"item_ids": {"item_ids are required"}})
		return
	}
	decideTransferItems(c, true, req.ItemIDs)
}

func RejectTransferItems(c *gin.Context) {
	var req transferItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.ItemIDs) == 0 {
		validationFailed(c, map[string][]string{"item_ids": {"item_ids are required"}})
		return
	}
	decideTransferItems(c, false, req.ItemIDs)
}
