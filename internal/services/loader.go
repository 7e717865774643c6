package services

import (
	"context"
	"time"

	"finreport/internal/core"
	"finreport/internal/log"
	"finreport/internal/sheets"
)

// Loader reads the transactions table from a source and applies the
// month-to-date window.
type Loader struct {
	source sheets.TransactionSource
	logger *log.Logger
}

func NewLoader(source sheets.TransactionSource, logger *log.Logger) *Loader {
	return &Loader{
		source: source,
		logger: log.OrDiscard(logger).WithComponent(log.ComponentLoader),
	}
}

// Load returns the full table when asOf is nil, otherwise the rows whose
// operation date lies in [first day of asOf's month 00:00:00, asOf].
// Rows with an unparseable operation date are only in the full table.
func (l *Loader) Load(ctx context.Context, asOf *time.Time) (*core.Table, error) {
	start := time.Now()
	table, err := l.source.Load(ctx)
	if err != nil {
		l.logger.ErrorContext(ctx, "Failed to load transactions",
			log.FieldOperation, log.OpLoad,
			log.FieldSource, l.source.Name(),
			log.FieldError, err)
		return nil, err
	}

	if asOf != nil {
		from, to := core.MonthStart(*asOf), *asOf
		table = table.Filter(func(tx core.Transaction) bool {
			return core.Within(tx.OperationDate, from, to)
		})
	}

	l.logger.InfoContext(ctx, "Transactions loaded",
		log.FieldOperation, log.OpLoad,
		log.FieldSource, l.source.Name(),
		log.FieldRows, table.Len(),
		log.FieldDuration, time.Since(start).Milliseconds())
	return table, nil
}
