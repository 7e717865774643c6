// Command finreport builds personal finance reports from a bank export.
//
// Usage:
//
//	finreport home     [-date "YYYY-MM-DD HH:MM:SS"]
//	finreport spending -category NAME [-date YYYY-MM-DD] [-save] [-out FILE]
//	finreport cashback [-year N] [-month N]
//	finreport history  [-kind currency|stock] [-symbol S] [-limit N]
//	finreport serve
//
// Configuration is read from the environment and an optional .env file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"finreport/internal/backend"
	"finreport/internal/cache"
	"finreport/internal/cli"
	"finreport/internal/config"
	"finreport/internal/log"
	"finreport/internal/rates"
	"finreport/internal/report"
	"finreport/internal/services"
	"finreport/internal/storage"
)

const usage = `usage: finreport <command> [flags]

commands:
  home      home page summary for the month of -date
  spending  three months of spending in one category
  cashback  cashback per category for a month
  history   recorded currency rates and stock prices
  serve     JSON API over the same reports
`

// errUsage reports a malformed command line.
var errUsage = errors.New("usage error")

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if err != errUsage {
			fmt.Fprintln(os.Stderr, "finreport:", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errUsage
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return errUsage
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(stderr)
	exec := cmd(fs)
	if err := fs.Parse(args[1:]); err != nil {
		return errUsage
	}

	if err := cli.LoadEnvFile(); err != nil {
		return err
	}
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	return exec(ctx, a, stdout)
}

// app holds the components every command shares.
type app struct {
	cfg     *config.Config
	logger  *log.Logger
	caches  *cache.Manager
	loader  *services.Loader
	home    *services.HomeView
	reports *report.Writer
	store   *storage.QuoteStore
	now     func() time.Time

	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger, closeLog, err := cli.SetupLogger(cfg)
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:     cfg,
		logger:  logger,
		caches:  cache.NewManager(logger),
		now:     time.Now,
		closers: []func() error{closeLog},
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		a.close()
		return nil, err
	}
	res, err := backend.NewFactory(logger, a.caches).CreateSource(ctx, backendCfg)
	if err != nil {
		a.close()
		return nil, err
	}
	a.loader = services.NewLoader(res.Source, logger)

	store, err := cli.OpenQuoteStore(cfg, logger)
	if err != nil {
		a.close()
		return nil, err
	}
	if store != nil {
		a.store = store
		a.closers = append([]func() error{store.Close}, a.closers...)
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	currency := rates.NewCurrencyClient(httpClient, logger).WithCache(cfg.QuoteCacheTTL)
	stocks := rates.NewStockClient(httpClient, cfg.StockConcurrency, cfg.StockRPS, logger).WithCache(cfg.QuoteCacheTTL)

	a.home = services.NewHomeView(a.loader, currency, stocks, services.HomeOptions{
		SettingsPath: cfg.UserSettingsPath,
		BaseCurrency: cfg.BaseCurrency,
		CurrencyAPI:  cfg.CurrencyAPI,
		StockAPI:     cfg.StockAPI,
	}, logger)
	if a.store != nil {
		a.home.WithRecorder(a.store)
	}

	a.reports = report.NewWriter(cfg.ReportsDir, logger)
	return a, nil
}

func (a *app) close() {
	a.caches.Stop()
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Warn("Close failed", log.FieldError, err)
		}
	}
}
