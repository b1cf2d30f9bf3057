package services

import "atelier-backend/internal/models"

// DeriveTransferStatus computes the transfer-level status from its items.
// It is a pure function of the item statuses: all pending -> pending, all
// approved -> approved, all rejected -> rejected, mixed with pending items
// -> partially_pending, mixed fully decided -> partially_approved.
func DeriveTransferStatus(items []models.TransferItem) models.TransferStatus {
	if len(items) == 0 {
		return models.TransferPending
	}

	var pending, approved, rejected int
	for _, it := range items {
		switch it.Status {
		case models.TransferItemApproved:
			approved++
		case models.TransferItemRejected:
			rejected++
		default:
			pending++
		}
	}

	switch {
	case pending == len(items):
		return models.TransferPending
	case approved == len(items):
		return models.TransferApproved
	case rejected == len(items):
		return models.TransferRejected
	case pending > 0:
		return models.TransferPartiallyPending
	default:
		return models.TransferPartiallyApproved
	}
}
