// Package tracker owns the application state: holdings, alerts, the current
// quote snapshot and the loaded catalog. Every mutation runs the same
// sequence under one lock: mutate, revaluate, evaluate alerts, persist, then
// notify clients. Views never reach the state except through it.
package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"coinpulse/internal/metrics"
	"coinpulse/internal/models"
	"coinpulse/internal/notify"
	"coinpulse/internal/portfolio"
	"coinpulse/internal/store"
)

// QuoteFetcher fetches one consolidated snapshot for the given asset ids.
type QuoteFetcher interface {
	FetchQuotes(ctx context.Context, ids []string) (map[string]models.Quote, error)
}

// Broadcaster pushes typed events to connected clients.
type Broadcaster interface {
	Broadcast(eventType string, data any)
}

type Tracker struct {
	store    store.Store
	fetcher  QuoteFetcher
	catalog  portfolio.CatalogLookup
	notifier *notify.Notifier
	hub      Broadcaster
	logger   *zap.Logger

	mu           sync.Mutex
	holdings     []models.Holding
	alerts       []models.Alert
	quotes       map[string]models.Quote
	priceWarning string
	updatedAt    time.Time
}

// New loads both collections from the store and returns a ready tracker.
// A corrupt or missing store slot simply comes back empty.
func New(ctx context.Context, st store.Store, fetcher QuoteFetcher, catalog portfolio.CatalogLookup,
	notifier *notify.Notifier, hub Broadcaster, logger *zap.Logger) *Tracker {
	return &Tracker{
		store:    st,
		fetcher:  fetcher,
		catalog:  catalog,
		notifier: notifier,
		hub:      hub,
		logger:   logger,
		holdings: st.LoadHoldings(ctx),
		alerts:   st.LoadAlerts(ctx),
		quotes:   map[string]models.Quote{},
	}
}

// AddHolding inserts or merges a position and kicks off an immediate price
// refresh, since a newly added asset may not have a cached quote yet.
func (t *Tracker) AddHolding(ctx context.Context, assetID string, quantity, unitCost float64) error {
	t.mu.Lock()
	next, err := portfolio.AddOrMerge(t.holdings, assetID, quantity, unitCost)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	t.holdings = next
	t.persistHoldingsLocked(ctx)
	summary := t.summaryLocked()
	t.mu.Unlock()

	t.broadcastSummary(summary)
	// Fresh context so the cycle completes even if the caller goes away;
	// a refresh failure is not the mutation's failure.
	_ = t.RefreshNow(context.Background())
	return nil
}

// EditHolding overwrites quantity and cost basis. Editing to quantity zero
// hides the position without purging it.
func (t *Tracker) EditHolding(ctx context.Context, assetID string, quantity, unitCost float64) error {
	t.mu.Lock()
	next, err := portfolio.Edit(t.holdings, assetID, quantity, unitCost)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	t.holdings = next
	t.clearQuotesIfEmptyLocked()
	t.persistHoldingsLocked(ctx)
	summary := t.summaryLocked()
	t.mu.Unlock()

	t.broadcastSummary(summary)
	return nil
}

// RemoveHolding deletes a position. Removing an unknown id is a no-op
// success.
func (t *Tracker) RemoveHolding(ctx context.Context, assetID string) {
	t.mu.Lock()
	t.holdings = portfolio.Remove(t.holdings, assetID)
	t.clearQuotesIfEmptyLocked()
	t.persistHoldingsLocked(ctx)
	summary := t.summaryLocked()
	t.mu.Unlock()

	t.broadcastSummary(summary)
}

// AddAlert registers a new armed alert. It is evaluated against the next
// quote snapshot, not retroactively against the current one.
func (t *Tracker) AddAlert(ctx context.Context, assetID string, targetPrice float64, direction models.AlertDirection) (models.Alert, error) {
	if assetID == "" {
		return models.Alert{}, fmt.Errorf("%w: asset id is required", models.ErrValidation)
	}
	if targetPrice <= 0 {
		return models.Alert{}, fmt.Errorf("%w: target price must be positive", models.ErrValidation)
	}
	if direction != models.AlertAbove && direction != models.AlertBelow {
		return models.Alert{}, fmt.Errorf("%w: direction must be above or below", models.ErrValidation)
	}

	alert := models.Alert{
		ID:          uuid.NewString(),
		AssetID:     assetID,
		TargetPrice: targetPrice,
		Direction:   direction,
		CreatedAt:   time.Now().UTC(),
	}

	t.mu.Lock()
	t.alerts = append(t.alerts, alert)
	t.persistAlertsLocked(ctx)
	t.mu.Unlock()
	return alert, nil
}

// RemoveAlert deletes an alert; deleting an unknown id is a no-op success.
// Delete and recreate is the only way to rearm a triggered alert.
func (t *Tracker) RemoveAlert(ctx context.Context, id string) {
	t.mu.Lock()
	kept := make([]models.Alert, 0, len(t.alerts))
	for _, a := range t.alerts {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	t.alerts = kept
	t.persistAlertsLocked(ctx)
	t.mu.Unlock()
}

// RefreshNow runs one fetch cycle for the currently held assets. An empty
// holdings set clears the snapshot without a network round trip. A failed
// fetch keeps the previous snapshot intact and records a warning that is
// cleared by the next successful cycle.
func (t *Tracker) RefreshNow(ctx context.Context) error {
	t.mu.Lock()
	ids := portfolio.HeldIDs(t.holdings)
	t.mu.Unlock()

	if len(ids) == 0 {
		t.mu.Lock()
		t.quotes = map[string]models.Quote{}
		t.priceWarning = ""
		t.updatedAt = time.Now().UTC()
		summary := t.summaryLocked()
		t.mu.Unlock()
		t.broadcastSummary(summary)
		return nil
	}

	metrics.FetchCycles.Inc()
	quotes, err := t.fetcher.FetchQuotes(ctx, ids)
	if err != nil {
		metrics.FetchFailures.Inc()
		t.logger.Warn("price refresh failed, keeping previous snapshot", zap.Error(err))

		t.mu.Lock()
		t.priceWarning = "price refresh failed; showing last known prices"
		summary := t.summaryLocked()
		t.mu.Unlock()
		t.broadcastSummary(summary)
		return err
	}

	t.ApplyQuotes(ctx, quotes)
	return nil
}

// ApplyQuotes replaces the snapshot wholesale (never merged), evaluates
// alerts against it, persists any newly-triggered latches and fans out one
// notification per firing. A late result from a stale holdings set is
// harmless: valuation joins by held asset id only.
func (t *Tracker) ApplyQuotes(ctx context.Context, quotes map[string]models.Quote) {
	now := time.Now().UTC()

	t.mu.Lock()
	t.quotes = quotes
	t.priceWarning = ""
	t.updatedAt = now
	updated, fired := portfolio.EvaluateAlerts(t.alerts, quotes, now)
	if len(fired) > 0 {
		t.alerts = updated
		t.persistAlertsLocked(ctx)
	}
	summary := t.summaryLocked()
	t.mu.Unlock()

	t.broadcastSummary(summary)
	for _, a := range fired {
		metrics.AlertsFired.Inc()
		if t.notifier != nil {
			t.notifier.AlertFired(ctx, a, quotes[a.AssetID].Price)
		}
	}
}

// Summary returns the current derived state.
func (t *Tracker) Summary() models.PortfolioSummary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.summaryLocked()
}

// Holdings returns a copy of the raw holdings collection, zero-quantity
// entries included.
func (t *Tracker) Holdings() []models.Holding {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.Holding, len(t.holdings))
	copy(out, t.holdings)
	return out
}

// Alerts returns a copy of the alert collection.
func (t *Tracker) Alerts() []models.Alert {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.Alert, len(t.alerts))
	copy(out, t.alerts)
	return out
}

func (t *Tracker) summaryLocked() models.PortfolioSummary {
	sum := portfolio.Valuate(t.holdings, t.quotes, t.catalog)
	sum.PriceWarning = t.priceWarning
	sum.UpdatedAt = t.updatedAt
	return sum
}

func (t *Tracker) clearQuotesIfEmptyLocked() {
	if len(portfolio.HeldIDs(t.holdings)) == 0 {
		t.quotes = map[string]models.Quote{}
		t.priceWarning = ""
	}
}

// Persistence is fire-and-forget: a failed write is logged, never surfaced,
// and the in-memory state stays authoritative.
func (t *Tracker) persistHoldingsLocked(ctx context.Context) {
	if err := t.store.SaveHoldings(ctx, t.holdings); err != nil {
		t.logger.Error("persist holdings failed", zap.Error(err))
	}
}

func (t *Tracker) persistAlertsLocked(ctx context.Context) {
	if err := t.store.SaveAlerts(ctx, t.alerts); err != nil {
		t.logger.Error("persist alerts failed", zap.Error(err))
	}
}

func (t *Tracker) broadcastSummary(summary models.PortfolioSummary) {
	if t.hub != nil {
		t.hub.Broadcast("summary", summary)
	}
}
