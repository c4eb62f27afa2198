package repository

import "github.com/GTDGit/pdv_api/internal/models"

// ItemMerge is the plan for reconciling stored items with a fresh payload.
type ItemMerge struct {
	// Update pairs a stored item id with its incoming counterpart.
	Update []ItemUpdate
	Insert []models.ExternalOrderItem
	Delete []int
}

// ItemUpdate is one stored item refreshed from the payload.
type ItemUpdate struct {
	ID       int
	Incoming models.ExternalOrderItem
	// Classify is set when the stored item is unclassified and the incoming one
	// carries an automatic classification.
	Classify bool
}

// PlanItemMerge matches stored and incoming items by external item id. Matched
// items keep their row (and so their classification and attendance), unmatched
// stored items are deleted and unmatched incoming items inserted. Items without
// an external id cannot be matched and are always replaced. A nil incoming
// slice means the payload carried no items at all and yields an empty plan.
func PlanItemMerge(stored, incoming []models.ExternalOrderItem) ItemMerge {
	if incoming == nil {
		return ItemMerge{}
	}
	byExternalID := make(map[int64]models.ExternalOrderItem, len(stored))
	for _, it := range stored {
		if it.ExternalItemID != 0 {
			byExternalID[it.ExternalItemID] = it
		}
	}

	var plan ItemMerge
	seen := make(map[int64]bool, len(incoming))
	for _, in := range incoming {
		cur, ok := byExternalID[in.ExternalItemID]
		if in.ExternalItemID == 0 || !ok || seen[in.ExternalItemID] {
			plan.Insert = append(plan.Insert, in)
			continue
		}
		seen[in.ExternalItemID] = true
		plan.Update = append(plan.Update, ItemUpdate{
			ID:       cur.ID,
			Incoming: in,
			Classify: !cur.Classified && in.Classified && in.ProductID != nil && in.AttractionID != nil,
		})
	}

	for _, it := range stored {
		if it.ExternalItemID == 0 || !seen[it.ExternalItemID] {
			plan.Delete = append(plan.Delete, it.ID)
		}
	}
	return plan
}
