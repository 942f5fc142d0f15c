// Package portfolio holds the pure core: ledger mutations, valuation and
// alert evaluation. Nothing here performs I/O; every function returns new
// values and leaves its inputs untouched, so a caller that fails partway
// through never exposes a half-written collection.
package portfolio

import (
	"fmt"
	"strings"

	"coinpulse/internal/models"
)

// AddOrMerge inserts a new holding, or folds the purchase into an existing
// one using a weighted-average cost basis:
//
//	newAvg = (oldQty*oldAvg + qty*unitCost) / (oldQty + qty)
func AddOrMerge(holdings []models.Holding, assetID string, quantity, unitCost float64) ([]models.Holding, error) {
	assetID = normalizeID(assetID)
	if assetID == "" {
		return nil, fmt.Errorf("%w: asset id is required", models.ErrValidation)
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", models.ErrValidation)
	}
	if unitCost < 0 {
		return nil, fmt.Errorf("%w: unit cost must not be negative", models.ErrValidation)
	}

	out := make([]models.Holding, len(holdings))
	copy(out, holdings)

	for i, h := range out {
		if h.AssetID != assetID {
			continue
		}
		total := h.Quantity + quantity
		out[i].AvgCost = (h.Quantity*h.AvgCost + quantity*unitCost) / total
		out[i].Quantity = total
		return out, nil
	}

	return append(out, models.Holding{AssetID: assetID, Quantity: quantity, AvgCost: unitCost}), nil
}

// Edit overwrites quantity and cost basis of an existing holding. This is a
// correction, not an addition: no averaging. Quantity zero is allowed and
// zeroes the position out; it stays in the collection but disappears from
// every derived view.
func Edit(holdings []models.Holding, assetID string, quantity, unitCost float64) ([]models.Holding, error) {
	assetID = normalizeID(assetID)
	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must not be negative", models.ErrValidation)
	}
	if unitCost < 0 {
		return nil, fmt.Errorf("%w: unit cost must not be negative", models.ErrValidation)
	}

	out := make([]models.Holding, len(holdings))
	copy(out, holdings)

	for i, h := range out {
		if h.AssetID == assetID {
			out[i].Quantity = quantity
			out[i].AvgCost = unitCost
			return out, nil
		}
	}
	return nil, fmt.Errorf("%w: holding %q", models.ErrNotFound, assetID)
}

// Remove drops a holding. Removing an absent id is a no-op success.
func Remove(holdings []models.Holding, assetID string) []models.Holding {
	assetID = normalizeID(assetID)
	out := make([]models.Holding, 0, len(holdings))
	for _, h := range holdings {
		if h.AssetID != assetID {
			out = append(out, h)
		}
	}
	return out
}

// HeldIDs returns the asset ids of active holdings, in ledger order.
func HeldIDs(holdings []models.Holding) []string {
	ids := make([]string, 0, len(holdings))
	for _, h := range holdings {
		if h.Active() {
			ids = append(ids, h.AssetID)
		}
	}
	return ids
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
