package models

import "time"

// Holding is one owned position. AssetID is the catalog identifier
// (e.g. "bitcoin") and is the unique key within the holdings collection.
type Holding struct {
	AssetID  string  `json:"assetId"`
	Quantity float64 `json:"quantity"`
	AvgCost  float64 `json:"avgCost"`
}

// Active reports whether the holding should appear in derived views.
// Zero-quantity holdings stay in storage but are hidden everywhere.
func (h Holding) Active() bool {
	return h.Quantity > 0
}

type AlertDirection string

const (
	AlertAbove AlertDirection = "above"
	AlertBelow AlertDirection = "below"
)

// Alert is a one-shot price threshold watch. Triggered only ever moves
// false -> true; the user rearms by deleting and recreating the alert.
type Alert struct {
	ID          string         `json:"id"`
	AssetID     string         `json:"assetId"`
	TargetPrice float64        `json:"targetPrice"`
	Direction   AlertDirection `json:"direction"`
	Triggered   bool           `json:"triggered"`
	CreatedAt   time.Time      `json:"createdAt"`
	TriggeredAt *time.Time     `json:"triggeredAt,omitempty"`
}

// Quote is the latest fetched price for one asset. Change24h is nil when
// the source did not report a 24h change.
type Quote struct {
	Price     float64  `json:"price"`
	Change24h *float64 `json:"change24hPct,omitempty"`
}

// CatalogEntry is immutable reference data used for display and search.
type CatalogEntry struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// Position is a holding joined with its quote and catalog entry.
// CurrentPrice and CurrentValue are nil when no price is known; a missing
// price is distinguishable from a zero price.
type Position struct {
	AssetID      string   `json:"assetId"`
	Name         string   `json:"name"`
	Symbol       string   `json:"symbol"`
	Quantity     float64  `json:"quantity"`
	CurrentPrice *float64 `json:"currentPrice,omitempty"`
	CurrentValue *float64 `json:"currentValue,omitempty"`
	AvgCost      float64  `json:"avgCost"`
	CostBasis    float64  `json:"costBasis"`
	PnL          float64  `json:"pnl"`
	PnLPct       float64  `json:"pnlPct"`
	Change24h    *float64 `json:"change24hPct,omitempty"`
}

// DistributionSlice is one wedge of the allocation view: a position's
// symbol and its current value. Only values > 0 are included.
type DistributionSlice struct {
	Symbol string  `json:"symbol"`
	Value  float64 `json:"value"`
}

// PortfolioSummary is the full derived state pushed to clients.
type PortfolioSummary struct {
	Positions    []Position          `json:"positions"`
	TotalValue   float64             `json:"totalValue"`
	TotalCost    float64             `json:"totalCost"`
	TotalPnL     float64             `json:"totalPnl"`
	TotalPnLPct  float64             `json:"totalPnlPct"`
	Distribution []DistributionSlice `json:"distribution"`
	TopGainers   []Position          `json:"topGainers"`
	TopLosers    []Position          `json:"topLosers"`
	PriceWarning string              `json:"priceWarning,omitempty"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}
