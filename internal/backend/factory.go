package backend

import (
	"context"
	"fmt"
	"time"

	"finreport/internal/cache"
	"finreport/internal/core"
	"finreport/internal/log"
	"finreport/internal/sheets"
	"finreport/internal/sheets/excel"
	gsheet "finreport/internal/sheets/google"
)

// tableCacheSize is the number of sources a process can read; one per backend.
const tableCacheSize = 4

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
	caches *cache.Manager
}

// NewFactory creates a new backend factory. When caches is non-nil every
// table cache is registered with it for periodic cleanup.
func NewFactory(logger *log.Logger, caches *cache.Manager) Factory {
	return &DefaultFactory{
		logger: log.OrDiscard(logger).WithComponent(log.ComponentLoader),
		caches: caches,
	}
}

// CreateSource implements Factory.CreateSource
func (f *DefaultFactory) CreateSource(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		src sheets.TransactionSource
		err error
	)
	switch config.Type {
	case ExcelBackend:
		src = excel.New(config.TransactionsPath)
		f.logger.Info("Initialized excel source", log.FieldFile, config.TransactionsPath)
	case SheetsBackend:
		src, err = gsheet.New(ctx, config.GoogleSpreadsheetID, config.GoogleSheetName, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		f.logger.Info("Initialized Google Sheets source", log.FieldSource, src.Name())
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	return &Result{Source: f.withCache(src, config.TableCacheTTL)}, nil
}

func (f *DefaultFactory) withCache(src sheets.TransactionSource, ttl time.Duration) sheets.TransactionSource {
	if ttl <= 0 {
		return src
	}
	lru := cache.NewLRUCache[*core.Table](tableCacheSize, ttl)
	if f.caches != nil {
		f.caches.Register(lru)
	}
	f.logger.Debug("Table cache enabled", "ttl", ttl.String())
	return sheets.NewCachedSource(src, lru)
}
