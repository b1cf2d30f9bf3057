package services

import "atelier-backend/internal/models"

// factoryTransitions is the adjacency list for the per-item tailoring
// pipeline. A transition is legal iff the target appears under the source.
var factoryTransitions = map[models.FactoryStatus][]models.FactoryStatus{
	models.FactoryNew:              {models.FactoryPendingApproval},
	models.FactoryPendingApproval:  {models.FactoryAccepted, models.FactoryRejected},
	models.FactoryAccepted:         {models.FactoryInProgress},
	models.FactoryInProgress:       {models.FactoryReadyForDelivery},
	models.FactoryReadyForDelivery: {models.FactoryDeliveredAtelier},
	models.FactoryDeliveredAtelier: {models.FactoryClosed},
	models.FactoryRejected:         {},
	models.FactoryClosed:           {},
}

// CanTransitionFactory reports whether a tailoring item may move from one
// factory status to another.
func CanTransitionFactory(from, to models.FactoryStatus) bool {
	for _, next := range factoryTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextFactoryStatuses returns the legal targets from the given status.
func NextFactoryStatuses(from models.FactoryStatus) []models.FactoryStatus {
	return factoryTransitions[from]
}
