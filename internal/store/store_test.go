package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"coinpulse/internal/db"
	"coinpulse/internal/models"
)

func setupStore(t *testing.T) (*SQLiteStore, *sql.DB) {
	t.Helper()
	dbFile := filepath.Join(t.TempDir(), "test.db")
	sqlDB, err := db.Open(dbFile)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return NewSQLiteStore(sqlDB, zap.NewNop()), sqlDB
}

func TestHoldingsRoundTrip(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	holdings := []models.Holding{
		{AssetID: "bitcoin", Quantity: 1.5, AvgCost: 20000},
		{AssetID: "ethereum", Quantity: 0, AvgCost: 1000}, // zero-quantity rows persist
	}
	if err := s.SaveHoldings(ctx, holdings); err != nil {
		t.Fatalf("save holdings: %v", err)
	}

	loaded := s.LoadHoldings(ctx)
	if len(loaded) != 2 {
		t.Fatalf("expected 2 holdings, got %d", len(loaded))
	}
	if loaded[0] != holdings[0] || loaded[1] != holdings[1] {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
}

func TestAlertsRoundTripIncludesTriggered(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	alerts := []models.Alert{
		{ID: "a1", AssetID: "bitcoin", TargetPrice: 50000, Direction: models.AlertAbove, Triggered: true, TriggeredAt: &ts},
		{ID: "a2", AssetID: "ethereum", TargetPrice: 900, Direction: models.AlertBelow},
	}
	if err := s.SaveAlerts(ctx, alerts); err != nil {
		t.Fatalf("save alerts: %v", err)
	}

	loaded := s.LoadAlerts(ctx)
	if len(loaded) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(loaded))
	}
	if !loaded[0].Triggered || loaded[0].TriggeredAt == nil || !loaded[0].TriggeredAt.Equal(ts) {
		t.Fatalf("triggered state lost: %+v", loaded[0])
	}
	if loaded[1].Triggered {
		t.Fatalf("armed alert came back triggered: %+v", loaded[1])
	}
}

func TestSaveOverwritesSlot(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	if err := s.SaveHoldings(ctx, []models.Holding{{AssetID: "bitcoin", Quantity: 1}}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := s.SaveHoldings(ctx, []models.Holding{{AssetID: "ethereum", Quantity: 2}}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	loaded := s.LoadHoldings(ctx)
	if len(loaded) != 1 || loaded[0].AssetID != "ethereum" {
		t.Fatalf("slot not replaced: %+v", loaded)
	}
}

func TestLoadMissingSlotIsEmpty(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	if got := s.LoadHoldings(ctx); len(got) != 0 {
		t.Fatalf("expected empty holdings on first run, got %+v", got)
	}
	if got := s.LoadAlerts(ctx); len(got) != 0 {
		t.Fatalf("expected empty alerts on first run, got %+v", got)
	}
}

func TestLoadCorruptSlotIsEmpty(t *testing.T) {
	s, sqlDB := setupStore(t)
	ctx := context.Background()

	_, err := sqlDB.Exec(`INSERT INTO slots(name, payload) VALUES ('holdings', '{not json'), ('alerts', '42')`)
	if err != nil {
		t.Fatalf("seed corrupt slots: %v", err)
	}

	if got := s.LoadHoldings(ctx); len(got) != 0 {
		t.Fatalf("corrupt holdings slot should degrade to empty, got %+v", got)
	}
	if got := s.LoadAlerts(ctx); len(got) != 0 {
		t.Fatalf("corrupt alerts slot should degrade to empty, got %+v", got)
	}

	// The store must still accept writes afterwards.
	if err := s.SaveHoldings(ctx, []models.Holding{{AssetID: "bitcoin", Quantity: 1}}); err != nil {
		t.Fatalf("save after corruption: %v", err)
	}
	if got := s.LoadHoldings(ctx); len(got) != 1 {
		t.Fatalf("expected recovery after save, got %+v", got)
	}
}
