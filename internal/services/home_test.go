package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"finreport/internal/config"
	"finreport/internal/core"
	"finreport/internal/log"
	"finreport/internal/sheets/memory"
)

var sampleRows = [][]string{
	{"Дата операции", "Дата платежа", "Номер карты", "Сумма платежа", "Кэшбэк", "Категория", "Описание"},
	{"20.12.2021 10:00:00", "21.12.2021", "*7197", "-160,89", "", "Супермаркеты", "Колхоз"},
	{"15.12.2021 12:30:00", "16.12.2021", "*5091", "-1200", "12", "Переводы", "Иван"},
	{"01.12.2021 00:00:00", "01.12.2021", "*7197", "-5", "", "Такси", "Яндекс"},
	{"30.11.2021 23:59:59", "01.12.2021", "*7197", "-999", "", "Такси", "Вчера"},
	{"26.12.2021 09:00:00", "26.12.2021", "*7197", "-50", "", "Такси", "Завтра"},
	{"битая дата", "", "*7197", "-10000", "", "", ""},
}

func TestLoader_Load(t *testing.T) {
	var buf bytes.Buffer
	loader := NewLoader(memory.New(sampleRows), log.NewWriter(&buf, slog.LevelInfo))

	full, err := loader.Load(context.Background(), nil)
	if err != nil {
		t.Fatalf("Load(nil) error = %v", err)
	}
	if full.Len() != 6 {
		t.Fatalf("Load(nil) len = %d, want 6", full.Len())
	}

	asOf := time.Date(2021, 12, 25, 23, 0, 0, 0, time.Local)
	win, err := loader.Load(context.Background(), &asOf)
	if err != nil {
		t.Fatalf("Load(asOf) error = %v", err)
	}
	if win.Len() != 3 {
		t.Fatalf("Load(asOf) len = %d, want 3 (month to date only)", win.Len())
	}
	if !strings.Contains(buf.String(), "Transactions loaded") {
		t.Errorf("expected load log, got %q", buf.String())
	}
}

func TestLoader_OffFormatOperationDates(t *testing.T) {
	rows := [][]string{
		{"Дата операции", "Дата платежа", "Номер карты", "Сумма платежа", "Категория", "Описание"},
		{"2021-11-05", "05.11.2021", "*7197", "-1", "Такси", "iso"},
		{"05.11.2021", "05.11.2021", "*7197", "-2", "Такси", "date only"},
		{"05/11/2021 10:00:00", "05.11.2021", "*7197", "-3", "Такси", "slashes"},
		{"05.11.2021 10:00:00", "05.11.2021", "*7197", "-4", "Такси", "exact"},
	}
	loader := NewLoader(memory.New(rows), nil)

	asOf := time.Date(2021, 11, 30, 23, 0, 0, 0, time.Local)
	win, err := loader.Load(context.Background(), &asOf)
	if err != nil {
		t.Fatalf("Load(asOf) error = %v", err)
	}
	if win.Len() != 1 || win.Rows()[0].Description != "exact" {
		t.Fatalf("Load(asOf) = %+v, want only the DD.MM.YYYY HH:MM:SS row", win.Rows())
	}

	full, err := loader.Load(context.Background(), nil)
	if err != nil {
		t.Fatalf("Load(nil) error = %v", err)
	}
	if full.Len() != 4 {
		t.Fatalf("Load(nil) len = %d, want 4 (off-format rows kept)", full.Len())
	}
	for _, tx := range full.Rows()[:3] {
		if tx.HasOperationDate() {
			t.Errorf("%s: operation date should not parse, got %v", tx.Description, tx.OperationDate)
		}
	}
}

func TestLoader_LoadStructuralError(t *testing.T) {
	var buf bytes.Buffer
	loader := NewLoader(memory.New([][]string{{"Категория"}}), log.NewWriter(&buf, slog.LevelInfo))

	_, err := loader.Load(context.Background(), nil)
	if !errors.Is(err, core.ErrStructural) {
		t.Fatalf("expected ErrStructural, got %v", err)
	}
	if !strings.Contains(buf.String(), "level=ERROR") {
		t.Errorf("expected error log, got %q", buf.String())
	}
}

type fakeCurrency struct {
	rates []core.CurrencyRate
	err   error
	calls int
	api   config.APIConfig
	base  string
}

func (f *fakeCurrency) Rates(_ context.Context, api config.APIConfig, s core.Settings, base string) ([]core.CurrencyRate, error) {
	f.calls++
	f.api = api
	f.base = base
	return f.rates, f.err
}

type fakeStocks struct {
	prices []core.StockPrice
	err    error
	seen   core.Settings
}

func (f *fakeStocks) Prices(_ context.Context, _ config.APIConfig, s core.Settings) ([]core.StockPrice, error) {
	f.seen = s
	return f.prices, f.err
}

type fakeRecorder struct {
	mu     sync.Mutex
	calls  int
	rates  []core.CurrencyRate
	prices []core.StockPrice
	err    error
}

func (f *fakeRecorder) RecordQuotes(_ context.Context, _ time.Time, rates []core.CurrencyRate, prices []core.StockPrice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.rates, f.prices = rates, prices
	return f.err
}

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "user_settings.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}
	return path
}

func fixedClock(hour int) func() time.Time {
	return func() time.Time { return time.Date(2024, 3, 1, hour, 0, 0, 0, time.Local) }
}

func TestHomeView_Build(t *testing.T) {
	price := 150.12
	cur := &fakeCurrency{rates: []core.CurrencyRate{{Currency: "USD", Rate: 0.0111}}}
	stk := &fakeStocks{prices: []core.StockPrice{{Stock: "AAPL", Price: &price}, {Stock: "AMZN"}}}
	rec := &fakeRecorder{}
	opts := HomeOptions{
		SettingsPath: writeSettings(t, `{"user_currencies": ["USD"], "user_stocks": ["AAPL", "AMZN"]}`),
		BaseCurrency: "RUB",
		CurrencyAPI:  config.APIConfig{Key: "k", BaseURL: "https://rates.example.com"},
	}

	view := NewHomeView(NewLoader(memory.New(sampleRows), nil), cur, stk, opts, nil).
		WithClock(fixedClock(9)).
		WithRecorder(rec)

	out, err := view.Build(context.Background(), time.Date(2021, 12, 25, 23, 0, 0, 0, time.Local))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	for _, key := range []string{"greeting", "cards", "top_transaction", "currency_rates", "stock_prices"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
	if !strings.Contains(out, `"greeting": "Доброе утро"`) {
		t.Errorf("greeting not rendered unescaped: %s", out)
	}
	if !strings.HasPrefix(out, "{\n  \"greeting\"") {
		t.Errorf("expected 2-space indented output with greeting first, got %s", out)
	}
	if !strings.Contains(out, `"price": null`) {
		t.Errorf("missing stock price should be null: %s", out)
	}

	var parsed HomeDocument
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(parsed.Cards) != 2 || parsed.Cards[0].LastDigits != "7197" || parsed.Cards[0].TotalSpent != 165.89 {
		t.Errorf("unexpected cards: %+v", parsed.Cards)
	}
	if len(parsed.TopTransaction) != 3 || parsed.TopTransaction[0].Description != "Иван" {
		t.Errorf("unexpected top transactions: %+v", parsed.TopTransaction)
	}

	if cur.base != "RUB" || cur.api.Key != "k" {
		t.Errorf("config not threaded to fetcher: base=%q api=%+v", cur.base, cur.api)
	}
	if fmt.Sprint(stk.seen.Stocks) != "[AAPL AMZN]" {
		t.Errorf("settings not passed to stock fetcher: %+v", stk.seen)
	}
	if rec.calls != 1 || len(rec.rates) != 1 || len(rec.prices) != 2 {
		t.Errorf("quotes not recorded: %+v", rec)
	}
}

func TestHomeView_FetchersDegrade(t *testing.T) {
	var buf bytes.Buffer
	cur := &fakeCurrency{err: fmt.Errorf("%w: API key is not set", core.ErrConfiguration)}
	stk := &fakeStocks{}
	rec := &fakeRecorder{}
	opts := HomeOptions{SettingsPath: filepath.Join(t.TempDir(), "missing.json")}

	view := NewHomeView(NewLoader(memory.New(sampleRows), nil), cur, stk, opts, log.NewWriter(&buf, slog.LevelInfo)).
		WithClock(fixedClock(3)).
		WithRecorder(rec)

	out, err := view.Build(context.Background(), time.Date(2021, 12, 25, 0, 0, 0, 0, time.Local))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !strings.Contains(out, `"currency_rates": []`) || !strings.Contains(out, `"stock_prices": []`) {
		t.Errorf("degraded fetchers should render empty lists: %s", out)
	}
	if !strings.Contains(out, "Доброй ночи") {
		t.Errorf("unexpected greeting: %s", out)
	}
	if rec.calls != 0 {
		t.Errorf("nothing to record, got %d calls", rec.calls)
	}
	logs := buf.String()
	if !strings.Contains(logs, "Quote provider is not configured") || !strings.Contains(logs, "Failed to read user settings") {
		t.Errorf("expected degradation logs, got %q", logs)
	}
}

func TestHomeView_LoaderErrorAborts(t *testing.T) {
	cur := &fakeCurrency{}
	view := NewHomeView(NewLoader(memory.New([][]string{{"MCC"}}), nil), cur, &fakeStocks{}, HomeOptions{}, nil)

	_, err := view.Build(context.Background(), time.Now())
	if !errors.Is(err, core.ErrStructural) {
		t.Fatalf("expected ErrStructural, got %v", err)
	}
	if cur.calls != 0 {
		t.Errorf("fetchers must not run after a load failure")
	}
}

func TestHomeView_MissingColumnsFail(t *testing.T) {
	rows := [][]string{
		{"Дата операции", "Категория"},
		{"20.12.2021 10:00:00", "Супермаркеты"},
	}
	cur := &fakeCurrency{}
	view := NewHomeView(NewLoader(memory.New(rows), nil), cur, &fakeStocks{}, HomeOptions{}, nil)

	out, err := view.Build(context.Background(), time.Date(2021, 12, 25, 23, 0, 0, 0, time.Local))
	if !errors.Is(err, core.ErrStructural) {
		t.Fatalf("expected ErrStructural, got %v (output %q)", err, out)
	}
	for _, col := range []core.Column{core.ColCard, core.ColPaymentAmount} {
		if !strings.Contains(err.Error(), string(col)) {
			t.Errorf("error %q should name %s", err, col)
		}
	}
	if cur.calls != 0 {
		t.Errorf("fetchers must not run when the table is incomplete")
	}
}

func TestHomeView_RecorderFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	cur := &fakeCurrency{rates: []core.CurrencyRate{{Currency: "EUR", Rate: 0.01}}}
	rec := &fakeRecorder{err: errors.New("disk full")}
	view := NewHomeView(NewLoader(memory.New(sampleRows), nil), cur, &fakeStocks{}, HomeOptions{}, log.NewWriter(&buf, slog.LevelInfo)).
		WithRecorder(rec)

	if _, err := view.Build(context.Background(), time.Now()); err != nil {
		t.Fatalf("recorder failure must not fail the view: %v", err)
	}
	if !strings.Contains(buf.String(), "Failed to record quotes") {
		t.Errorf("expected recorder warning, got %q", buf.String())
	}
}
