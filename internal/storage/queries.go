package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const insertSnapshot = `INSERT INTO quote_snapshots (kind, symbol, base, value, recorded_at)
VALUES (?, ?, ?, ?, ?)`

type InsertSnapshotParams struct {
	Kind       string
	Symbol     string
	Base       string
	Value      sql.NullFloat64
	RecordedAt string
}

func (q *Queries) InsertSnapshot(ctx context.Context, arg InsertSnapshotParams) error {
	_, err := q.db.ExecContext(ctx, insertSnapshot, arg.Kind, arg.Symbol, arg.Base, arg.Value, arg.RecordedAt)
	return err
}

const listSnapshots = `SELECT id, kind, symbol, base, value, recorded_at
FROM quote_snapshots
WHERE (? = '' OR kind = ?)
  AND (? = '' OR symbol = ?)
ORDER BY recorded_at DESC, id DESC
LIMIT ?`

type ListSnapshotsParams struct {
	Kind   string
	Symbol string
	Limit  int64
}

type SnapshotRow struct {
	ID         int64
	Kind       string
	Symbol     string
	Base       string
	Value      sql.NullFloat64
	RecordedAt string
}

func (q *Queries) ListSnapshots(ctx context.Context, arg ListSnapshotsParams) ([]SnapshotRow, error) {
	rows, err := q.db.QueryContext(ctx, listSnapshots, arg.Kind, arg.Kind, arg.Symbol, arg.Symbol, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SnapshotRow
	for rows.Next() {
		var i SnapshotRow
		if err := rows.Scan(&i.ID, &i.Kind, &i.Symbol, &i.Base, &i.Value, &i.RecordedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
