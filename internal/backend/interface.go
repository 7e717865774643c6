package backend

import (
	"context"
	"time"

	"finreport/internal/sheets"
)

// Result contains the transactions source
type Result struct {
	Source sheets.TransactionSource
}

// Factory creates transaction sources based on configuration
type Factory interface {
	CreateSource(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for source creation
type Config struct {
	Type BackendType

	// Excel specific
	TransactionsPath string

	// Google Sheets specific
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// TableCacheTTL > 0 memoizes loaded tables for that long.
	TableCacheTTL time.Duration
}

// BackendType represents the type of backend
type BackendType string

const (
	ExcelBackend  BackendType = "excel"
	SheetsBackend BackendType = "sheets"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case ExcelBackend, SheetsBackend:
		return true
	default:
		return false
	}
}
