package sheets

import (
	"context"

	"finreport/internal/core"
)

// Ports for inbound transaction sources.
type (
	// TransactionSource loads the full, unfiltered transactions table.
	TransactionSource interface {
		Load(ctx context.Context) (*core.Table, error)
		// Name identifies the source in logs (file path, sheet range).
		Name() string
	}
)
