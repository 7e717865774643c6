package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldSource     = "source"
	FieldRows       = "rows"
	FieldYear       = "year"
	FieldMonth      = "month"
	FieldCategory   = "category"
	FieldCurrency   = "currency"
	FieldSymbol     = "symbol"
	FieldFile       = "file"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentLoader   = "loader"
	ComponentReports  = "reports"
	ComponentViews    = "views"
	ComponentRates    = "rates"
	ComponentSettings = "settings"
	ComponentStorage  = "storage"
	ComponentSheets   = "sheets"
	ComponentCache    = "cache"
	ComponentTrace    = "trace"
)

// Operations defines standard operation names
const (
	OpLoad     = "load"
	OpSpending = "spending_by_category"
	OpCashback = "cashback_by_category"
	OpCurrency = "currency_rates"
	OpStocks   = "stock_prices"
	OpHome     = "home"
	OpSave     = "save_report"
	OpRecord   = "record_quotes"
	OpHistory  = "quote_history"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
