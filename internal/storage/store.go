package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"finreport/internal/core"
	"finreport/internal/log"

	_ "modernc.org/sqlite"
)

const (
	KindCurrency = "currency"
	KindStock    = "stock"

	// DefaultHistoryLimit caps History when no limit is given.
	DefaultHistoryLimit = 50

	recordedAtLayout = "2006-01-02T15:04:05.000000000Z"
)

// Snapshot is one recorded quote. Value is nil for a stock without a price.
type Snapshot struct {
	ID         int64     `json:"id"`
	Kind       string    `json:"kind"`
	Symbol     string    `json:"symbol"`
	Base       string    `json:"base,omitempty"`
	Value      *float64  `json:"value"`
	RecordedAt time.Time `json:"recorded_at"`
}

// HistoryFilter narrows History. Zero fields match everything.
type HistoryFilter struct {
	Kind   string
	Symbol string
	Limit  int
}

// QuoteStore keeps a history of fetched currency rates and stock prices.
type QuoteStore struct {
	db      *sql.DB
	queries *Queries
	base    string
	logger  *log.Logger
}

// Open creates or migrates the database at dbPath. base is recorded with
// every currency rate.
func Open(dbPath, base string, logger *log.Logger) (*QuoteStore, error) {
	logger = log.OrDiscard(logger).WithComponent(log.ComponentStorage)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Debug("Quote store ready", log.FieldFile, dbPath, "schema_version", version)

	return &QuoteStore{
		db:      db,
		queries: New(db),
		base:    base,
		logger:  logger,
	}, nil
}

func (s *QuoteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordQuotes stores every rate and price under one timestamp, atomically.
func (s *QuoteStore) RecordQuotes(ctx context.Context, at time.Time, rates []core.CurrencyRate, prices []core.StockPrice) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := s.queries.WithTx(tx)
	stamp := at.UTC().Format(recordedAtLayout)
	for _, r := range rates {
		if err := q.InsertSnapshot(ctx, InsertSnapshotParams{
			Kind:       KindCurrency,
			Symbol:     r.Currency,
			Base:       s.base,
			Value:      sql.NullFloat64{Float64: r.Rate, Valid: true},
			RecordedAt: stamp,
		}); err != nil {
			return fmt.Errorf("insert rate %s: %w", r.Currency, err)
		}
	}
	for _, p := range prices {
		v := sql.NullFloat64{}
		if p.Price != nil {
			v = sql.NullFloat64{Float64: *p.Price, Valid: true}
		}
		if err := q.InsertSnapshot(ctx, InsertSnapshotParams{
			Kind:       KindStock,
			Symbol:     p.Stock,
			Value:      v,
			RecordedAt: stamp,
		}); err != nil {
			return fmt.Errorf("insert price %s: %w", p.Stock, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit quotes: %w", err)
	}
	s.logger.DebugContext(ctx, "Quotes recorded",
		log.FieldOperation, log.OpRecord, "rates", len(rates), "prices", len(prices))
	return nil
}

// History returns the most recent snapshots first.
func (s *QuoteStore) History(ctx context.Context, f HistoryFilter) ([]Snapshot, error) {
	switch f.Kind {
	case "", KindCurrency, KindStock:
	default:
		return nil, fmt.Errorf("invalid kind %q: must be %s or %s", f.Kind, KindCurrency, KindStock)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	rows, err := s.queries.ListSnapshots(ctx, ListSnapshotsParams{
		Kind:   f.Kind,
		Symbol: f.Symbol,
		Limit:  int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	out := make([]Snapshot, 0, len(rows))
	for _, r := range rows {
		at, err := time.Parse(recordedAtLayout, r.RecordedAt)
		if err != nil {
			return nil, fmt.Errorf("parse recorded_at %q: %w", r.RecordedAt, err)
		}
		snap := Snapshot{
			ID:         r.ID,
			Kind:       r.Kind,
			Symbol:     r.Symbol,
			Base:       r.Base,
			RecordedAt: at,
		}
		if r.Value.Valid {
			v := r.Value.Float64
			snap.Value = &v
		}
		out = append(out, snap)
	}
	return out, nil
}
