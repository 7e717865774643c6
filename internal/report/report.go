// Package report persists transaction tables as JSON record arrays.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"finreport/internal/core"
	"finreport/internal/log"
)

// FilenameTimeLayout is appended to the report name when no filename is given.
const FilenameTimeLayout = "20060102_150405"

// Writer saves reports under a directory.
type Writer struct {
	dir    string
	now    func() time.Time
	logger *log.Logger
}

func NewWriter(dir string, logger *log.Logger) *Writer {
	return &Writer{
		dir:    dir,
		now:    time.Now,
		logger: log.OrDiscard(logger).WithComponent(log.ComponentReports),
	}
}

// WithClock replaces the clock used for derived filenames.
func (w *Writer) WithClock(now func() time.Time) *Writer {
	w.now = now
	return w
}

// Path returns where Save would write. A blank filename derives
// "<name>_<YYYYMMDD_HHMMSS>.json"; a relative filename is placed in the
// writer's directory.
func (w *Writer) Path(name, filename string) string {
	if filename == "" {
		filename = fmt.Sprintf("%s_%s.json", name, w.now().Format(FilenameTimeLayout))
	}
	if filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(w.dir, filename)
}

// Save writes t as an array of objects keyed by the source column labels and
// returns the written path.
func (w *Writer) Save(name, filename string, t *core.Table) (string, error) {
	path := w.Path(name, filename)
	data, err := Encode(t)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	w.logger.Info("Report saved",
		log.FieldOperation, log.OpSave, log.FieldFile, path, log.FieldRows, t.Len())
	return path, nil
}

// Persisted runs compute and saves a successful result. A failed save is
// logged; the computed table and error are returned unchanged either way.
func Persisted(ctx context.Context, w *Writer, name, filename string, compute func() (*core.Table, error)) (*core.Table, error) {
	t, err := compute()
	if err != nil {
		return t, err
	}
	if _, saveErr := w.Save(name, filename, t); saveErr != nil {
		w.logger.ErrorContext(ctx, "Failed to save report",
			log.FieldOperation, log.OpSave, "report", name, log.FieldError, saveErr)
	}
	return t, nil
}

// Encode renders t as indented JSON records. Only the table's columns are
// emitted, in source order.
func Encode(t *core.Table) ([]byte, error) {
	cols := t.Columns()
	records := make([]orderedRecord, 0, t.Len())
	for _, tx := range t.Rows() {
		rec := make(orderedRecord, 0, len(cols))
		for _, c := range cols {
			rec = append(rec, field{key: string(c), value: cellValue(tx, c)})
		}
		records = append(records, rec)
	}
	data, err := core.MarshalReport(records)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return data, nil
}

func cellValue(tx core.Transaction, c core.Column) any {
	switch c {
	case core.ColOperationDate:
		if !tx.HasOperationDate() {
			return nil
		}
		return tx.OperationDate.Format(core.DateTimeLayout)
	case core.ColPaymentDate:
		if !tx.HasPaymentDate() {
			if tx.PaymentDateRaw == "" {
				return nil
			}
			return tx.PaymentDateRaw
		}
		return tx.PaymentDate.Format(core.DateLayout)
	case core.ColCard:
		return nullable(tx.Card)
	case core.ColStatus:
		return nullable(tx.Status)
	case core.ColOperationAmount:
		return json.Number(tx.OperationAmount.String())
	case core.ColOperationCurrency:
		return nullable(tx.OperationCurrency)
	case core.ColPaymentAmount:
		return json.Number(tx.Amount.String())
	case core.ColPaymentCurrency:
		return nullable(tx.PaymentCurrency)
	case core.ColCashback:
		if tx.Cashback == nil {
			return nil
		}
		return json.Number(tx.Cashback.String())
	case core.ColBonuses:
		if tx.Bonuses == nil {
			return nil
		}
		return json.Number(tx.Bonuses.String())
	case core.ColCategory:
		return nullable(tx.Category)
	case core.ColMCC:
		return nullable(tx.MCC)
	case core.ColDescription:
		return nullable(tx.Description)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type field struct {
	key   string
	value any
}

// orderedRecord marshals to an object preserving field order.
type orderedRecord []field

func (r orderedRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := core.MarshalCompact(f.key)
		if err != nil {
			return nil, err
		}
		val, err := core.MarshalCompact(f.value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
