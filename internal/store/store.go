package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"coinpulse/internal/models"
)

const (
	slotHoldings = "holdings"
	slotAlerts   = "alerts"
)

// Store mirrors the two durable collections. Loads never fail from the
// caller's point of view: a missing or unparsable slot yields the empty
// collection, so a first run and a corrupted file are indistinguishable.
type Store interface {
	LoadHoldings(ctx context.Context) []models.Holding
	SaveHoldings(ctx context.Context, holdings []models.Holding) error
	LoadAlerts(ctx context.Context) []models.Alert
	SaveAlerts(ctx context.Context, alerts []models.Alert) error
}

type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewSQLiteStore(db *sql.DB, logger *zap.Logger) *SQLiteStore {
	return &SQLiteStore{db: db, logger: logger}
}

func (s *SQLiteStore) LoadHoldings(ctx context.Context) []models.Holding {
	var holdings []models.Holding
	raw, ok := s.readSlot(ctx, slotHoldings)
	if ok {
		if err := json.Unmarshal(raw, &holdings); err != nil {
			s.logger.Warn("holdings slot unparsable, starting empty", zap.Error(err))
			holdings = nil
		}
	}
	if holdings == nil {
		holdings = []models.Holding{}
	}
	return holdings
}

func (s *SQLiteStore) SaveHoldings(ctx context.Context, holdings []models.Holding) error {
	return s.saveSlot(ctx, slotHoldings, holdings)
}

func (s *SQLiteStore) LoadAlerts(ctx context.Context) []models.Alert {
	var alerts []models.Alert
	raw, ok := s.readSlot(ctx, slotAlerts)
	if ok {
		if err := json.Unmarshal(raw, &alerts); err != nil {
			s.logger.Warn("alerts slot unparsable, starting empty", zap.Error(err))
			alerts = nil
		}
	}
	if alerts == nil {
		alerts = []models.Alert{}
	}
	return alerts
}

func (s *SQLiteStore) SaveAlerts(ctx context.Context, alerts []models.Alert) error {
	return s.saveSlot(ctx, slotAlerts, alerts)
}

func (s *SQLiteStore) readSlot(ctx context.Context, name string) ([]byte, bool) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM slots WHERE name = ?`, name).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		s.logger.Warn("slot read failed, starting empty", zap.String("slot", name), zap.Error(err))
		return nil, false
	}
	return []byte(payload), true
}

func (s *SQLiteStore) saveSlot(ctx context.Context, name string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode slot %s: %w", name, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO slots(name, payload, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = CURRENT_TIMESTAMP`,
		name, string(payload))
	if err != nil {
		return fmt.Errorf("write slot %s: %w", name, err)
	}
	return nil
}
