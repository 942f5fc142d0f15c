package portfolio

import (
	"math"
	"sort"

	"coinpulse/internal/models"
)

const moversLimit = 3

// CatalogLookup resolves an asset id to its catalog entry. A miss is fine:
// the catalog may still be loading, in which case the raw id is displayed.
type CatalogLookup interface {
	Lookup(id string) (models.CatalogEntry, bool)
}

// Valuate derives positions, aggregate totals, the allocation view and the
// ranked movers from (holdings, quotes, catalog). It is a pure function:
// identical inputs always produce identical output.
//
// An asset with no quote keeps nil CurrentPrice/CurrentValue and contributes
// zero to the totals; it is never shown as a literal zero price.
func Valuate(holdings []models.Holding, quotes map[string]models.Quote, catalog CatalogLookup) models.PortfolioSummary {
	sum := models.PortfolioSummary{
		Positions:    make([]models.Position, 0, len(holdings)),
		Distribution: make([]models.DistributionSlice, 0, len(holdings)),
		TopGainers:   []models.Position{},
		TopLosers:    []models.Position{},
	}

	for _, h := range holdings {
		if !h.Active() {
			continue
		}

		pos := models.Position{
			AssetID:   h.AssetID,
			Name:      h.AssetID,
			Symbol:    h.AssetID,
			Quantity:  h.Quantity,
			AvgCost:   h.AvgCost,
			CostBasis: h.Quantity * h.AvgCost,
		}
		if catalog != nil {
			if entry, ok := catalog.Lookup(h.AssetID); ok {
				pos.Name = entry.Name
				pos.Symbol = entry.Symbol
			}
		}

		if q, ok := quotes[h.AssetID]; ok {
			price := q.Price
			value := h.Quantity * price
			pos.CurrentPrice = &price
			pos.CurrentValue = &value
			pos.Change24h = q.Change24h
			sum.TotalValue += value
		}

		pos.PnL = valueOrZero(pos.CurrentValue) - pos.CostBasis
		if pos.CostBasis > 0 {
			pos.PnLPct = pos.PnL / pos.CostBasis * 100
		}

		sum.TotalCost += pos.CostBasis
		sum.Positions = append(sum.Positions, pos)

		if pos.CurrentValue != nil && *pos.CurrentValue > 0 {
			sum.Distribution = append(sum.Distribution, models.DistributionSlice{
				Symbol: pos.Symbol,
				Value:  *pos.CurrentValue,
			})
		}
	}

	sum.TotalPnL = sum.TotalValue - sum.TotalCost
	if sum.TotalCost > 0 {
		sum.TotalPnLPct = sum.TotalPnL / sum.TotalCost * 100
	}

	sum.TopGainers, sum.TopLosers = movers(sum.Positions)
	return sum
}

// movers ranks positions by 24h change. Unknown change sorts last (treated
// as -inf); the sort is stable so equal changes keep ledger order. Gainers
// are the up-to-3 best positive movers, losers the up-to-3 worst negative
// movers with the worst first.
func movers(positions []models.Position) (gainers, losers []models.Position) {
	ranked := make([]models.Position, len(positions))
	copy(ranked, positions)
	sort.SliceStable(ranked, func(i, j int) bool {
		return changeOf(ranked[i]) > changeOf(ranked[j])
	})

	gainers = []models.Position{}
	for _, p := range ranked {
		if len(gainers) == moversLimit || p.Change24h == nil || *p.Change24h <= 0 {
			break
		}
		gainers = append(gainers, p)
	}

	losers = []models.Position{}
	for i := len(ranked) - 1; i >= 0 && len(losers) < moversLimit; i-- {
		p := ranked[i]
		if p.Change24h == nil {
			continue
		}
		if *p.Change24h >= 0 {
			break
		}
		losers = append(losers, p)
	}
	return gainers, losers
}

func changeOf(p models.Position) float64 {
	if p.Change24h == nil {
		return math.Inf(-1)
	}
	return *p.Change24h
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
