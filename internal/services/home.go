package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finreport/internal/config"
	"finreport/internal/core"
	"finreport/internal/log"
	"finreport/internal/settings"

	"golang.org/x/sync/errgroup"
)

type (
	// CurrencyFetcher returns the value of one base unit in each user currency.
	CurrencyFetcher interface {
		Rates(ctx context.Context, api config.APIConfig, s core.Settings, base string) ([]core.CurrencyRate, error)
	}

	// StockFetcher returns the latest price of each user stock.
	StockFetcher interface {
		Prices(ctx context.Context, api config.APIConfig, s core.Settings) ([]core.StockPrice, error)
	}

	// QuoteRecorder keeps a history of fetched quotes.
	QuoteRecorder interface {
		RecordQuotes(ctx context.Context, at time.Time, rates []core.CurrencyRate, prices []core.StockPrice) error
	}
)

// HomeOptions carries the configuration threaded into a home view build.
type HomeOptions struct {
	SettingsPath string
	BaseCurrency string
	CurrencyAPI  config.APIConfig
	StockAPI     config.APIConfig
}

// HomeDocument is the home page payload.
type HomeDocument struct {
	Greeting       string                `json:"greeting"`
	Cards          []core.CardSummary    `json:"cards"`
	TopTransaction []core.TopTransaction `json:"top_transaction"`
	CurrencyRates  []core.CurrencyRate   `json:"currency_rates"`
	StockPrices    []core.StockPrice     `json:"stock_prices"`
}

// HomeView assembles the home page document.
type HomeView struct {
	loader   *Loader
	currency CurrencyFetcher
	stocks   StockFetcher
	recorder QuoteRecorder
	opts     HomeOptions
	now      func() time.Time
	logger   *log.Logger
}

func NewHomeView(loader *Loader, currency CurrencyFetcher, stocks StockFetcher, opts HomeOptions, logger *log.Logger) *HomeView {
	return &HomeView{
		loader:   loader,
		currency: currency,
		stocks:   stocks,
		opts:     opts,
		now:      time.Now,
		logger:   log.OrDiscard(logger).WithComponent(log.ComponentViews),
	}
}

// WithRecorder makes Build store every fetched quote set.
func (v *HomeView) WithRecorder(r QuoteRecorder) *HomeView {
	v.recorder = r
	return v
}

// WithClock replaces the wall clock used for the greeting.
func (v *HomeView) WithClock(now func() time.Time) *HomeView {
	v.now = now
	return v
}

// Document builds the home payload for the month of asOf. Loader failures and
// missing card or amount columns abort the build; fetcher failures leave
// their list empty.
func (v *HomeView) Document(ctx context.Context, asOf time.Time) (*HomeDocument, error) {
	table, err := v.loader.Load(ctx, &asOf)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	cards, err := CardSummaries(table)
	if err != nil {
		return nil, fmt.Errorf("card summaries: %w", err)
	}
	top, err := TopTransactions(table, DefaultTopCount)
	if err != nil {
		return nil, fmt.Errorf("top transactions: %w", err)
	}
	userSettings := settings.Read(v.opts.SettingsPath, v.logger)

	doc := &HomeDocument{
		Greeting:       Greeting(v.now()),
		Cards:          cards,
		TopTransaction: top,
		CurrencyRates:  []core.CurrencyRate{},
		StockPrices:    []core.StockPrice{},
	}

	// Both fetchers degrade instead of failing, so the group never errors.
	var g errgroup.Group
	g.Go(func() error {
		rates, err := v.currency.Rates(ctx, v.opts.CurrencyAPI, userSettings, v.opts.BaseCurrency)
		if err != nil {
			v.logFetchError(ctx, log.OpCurrency, err)
			return nil
		}
		if rates != nil {
			doc.CurrencyRates = rates
		}
		return nil
	})
	g.Go(func() error {
		prices, err := v.stocks.Prices(ctx, v.opts.StockAPI, userSettings)
		if err != nil {
			v.logFetchError(ctx, log.OpStocks, err)
			return nil
		}
		if prices != nil {
			doc.StockPrices = prices
		}
		return nil
	})
	_ = g.Wait()

	if v.recorder != nil && (len(doc.CurrencyRates) > 0 || len(doc.StockPrices) > 0) {
		if err := v.recorder.RecordQuotes(ctx, v.now(), doc.CurrencyRates, doc.StockPrices); err != nil {
			v.logger.WarnContext(ctx, "Failed to record quotes",
				log.FieldOperation, log.OpRecord, log.FieldError, err)
		}
	}

	v.logger.InfoContext(ctx, "Home view built",
		log.FieldOperation, log.OpHome,
		log.FieldRows, table.Len(),
		"cards", len(doc.Cards),
		"currency_rates", len(doc.CurrencyRates),
		"stock_prices", len(doc.StockPrices))
	return doc, nil
}

// Build returns the home document as indented JSON text.
func (v *HomeView) Build(ctx context.Context, asOf time.Time) (string, error) {
	doc, err := v.Document(ctx, asOf)
	if err != nil {
		return "", err
	}
	data, err := core.MarshalReport(doc)
	if err != nil {
		return "", fmt.Errorf("encode home view: %w", err)
	}
	return string(data), nil
}

func (v *HomeView) logFetchError(ctx context.Context, op string, err error) {
	msg := "Quote fetch failed"
	if errors.Is(err, core.ErrConfiguration) {
		msg = "Quote provider is not configured"
	}
	v.logger.ErrorContext(ctx, msg, log.FieldOperation, op, log.FieldError, err)
}
