package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Column identifies a spreadsheet column by its header label.
type Column string

const (
	ColOperationDate     Column = "Дата операции"
	ColPaymentDate       Column = "Дата платежа"
	ColCard              Column = "Номер карты"
	ColStatus            Column = "Статус"
	ColOperationAmount   Column = "Сумма операции"
	ColOperationCurrency Column = "Валюта операции"
	ColPaymentAmount     Column = "Сумма платежа"
	ColPaymentCurrency   Column = "Валюта платежа"
	ColCashback          Column = "Кэшбэк"
	ColCategory          Column = "Категория"
	ColMCC               Column = "MCC"
	ColDescription       Column = "Описание"
	ColBonuses           Column = "Бонусы (включая кэшбэк)"
)

// KnownColumns lists every column the loader understands, in sheet order.
var KnownColumns = []Column{
	ColOperationDate,
	ColPaymentDate,
	ColCard,
	ColStatus,
	ColOperationAmount,
	ColOperationCurrency,
	ColPaymentAmount,
	ColPaymentCurrency,
	ColCashback,
	ColCategory,
	ColMCC,
	ColDescription,
	ColBonuses,
}

// NoCategory labels cashback rows without a category.
const NoCategory = "Без категории"

type (
	// Transaction is one spreadsheet row. Zero dates mean the cell could not
	// be parsed; such rows never match a date-ranged query.
	Transaction struct {
		OperationDate     time.Time
		PaymentDate       time.Time
		PaymentDateRaw    string
		Card              string
		Status            string
		OperationAmount   decimal.Decimal
		OperationCurrency string
		Amount            decimal.Decimal // payment amount, negative for debits
		PaymentCurrency   string
		Cashback          *decimal.Decimal
		Category          string
		MCC               string
		Description       string
		Bonuses           *decimal.Decimal
	}

	// Settings is the user settings document.
	Settings struct {
		Currencies []string `json:"user_currencies"`
		Stocks     []string `json:"user_stocks"`
	}

	CurrencyRate struct {
		Currency string  `json:"currency"`
		Rate     float64 `json:"rate"`
	}

	// StockPrice has a nil Price when the provider returned no quote.
	StockPrice struct {
		Stock string   `json:"stock"`
		Price *float64 `json:"price"`
	}
)

// HasOperationDate reports whether the operation date was parsed.
func (t Transaction) HasOperationDate() bool {
	return !t.OperationDate.IsZero()
}

// HasPaymentDate reports whether the payment date was parsed.
func (t Transaction) HasPaymentDate() bool {
	return !t.PaymentDate.IsZero()
}

// IsEmpty returns true if the settings carry neither currencies nor stocks.
func (s Settings) IsEmpty() bool {
	return len(s.Currencies) == 0 && len(s.Stocks) == 0
}
