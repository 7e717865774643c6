package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"time"

	"finreport/internal/cli"
	"finreport/internal/core"
	apphttp "finreport/internal/http"
	"finreport/internal/log"
	"finreport/internal/report"
	"finreport/internal/services"
	"finreport/internal/storage"
)

// command registers its flags on fs and returns the function that runs it
// once flags are parsed.
type command func(fs *flag.FlagSet) func(ctx context.Context, a *app, out io.Writer) error

var commands = map[string]command{
	"home":     homeCommand,
	"spending": spendingCommand,
	"cashback": cashbackCommand,
	"history":  historyCommand,
	"serve":    serveCommand,
}

func homeCommand(fs *flag.FlagSet) func(context.Context, *app, io.Writer) error {
	date := fs.String("date", "", `reference date "YYYY-MM-DD HH:MM:SS" (default now)`)
	return func(ctx context.Context, a *app, out io.Writer) error {
		asOf, err := core.ParseReference(*date, a.now())
		if err != nil {
			return err
		}
		doc, err := a.home.Build(ctx, asOf)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, doc)
		return err
	}
}

func spendingCommand(fs *flag.FlagSet) func(context.Context, *app, io.Writer) error {
	category := fs.String("category", "", "category to report (required)")
	date := fs.String("date", "", "end of the three month window (default now)")
	save := fs.Bool("save", false, "also write the report to REPORTS_DIR")
	filename := fs.String("out", "", "report filename when -save is set (default derived from the time)")
	return func(ctx context.Context, a *app, out io.Writer) error {
		if *category == "" {
			return fmt.Errorf("%w: -category is required", errUsage)
		}
		var asOf *time.Time
		if *date != "" {
			t, err := core.ParseReference(*date, a.now())
			if err != nil {
				return err
			}
			asOf = &t
		}

		table, err := a.loader.Load(ctx, nil)
		if err != nil {
			return err
		}
		compute := func() (*core.Table, error) {
			return services.SpendingByCategory(table, *category, asOf, a.now())
		}

		var result *core.Table
		if *save {
			result, err = report.Persisted(ctx, a.reports, log.OpSpending, *filename, compute)
		} else {
			result, err = compute()
		}
		if err != nil {
			return err
		}

		data, err := report.Encode(result)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}
}

func cashbackCommand(fs *flag.FlagSet) func(context.Context, *app, io.Writer) error {
	year := fs.Int("year", 0, "year (default current)")
	month := fs.Int("month", 0, "month 1-12 (default current)")
	return func(ctx context.Context, a *app, out io.Writer) error {
		now := a.now()
		y, m := *year, time.Month(*month)
		if y == 0 {
			y = now.Year()
		}
		if m == 0 {
			m = now.Month()
		}

		table, err := a.loader.Load(ctx, nil)
		if err != nil {
			return err
		}
		doc, err := services.CashbackByCategory(table, y, m)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, doc)
		return err
	}
}

func historyCommand(fs *flag.FlagSet) func(context.Context, *app, io.Writer) error {
	kind := fs.String("kind", "", "currency or stock (default both)")
	symbol := fs.String("symbol", "", "only this currency or ticker")
	limit := fs.Int("limit", storage.DefaultHistoryLimit, "maximum number of snapshots")
	return func(ctx context.Context, a *app, out io.Writer) error {
		if a.store == nil {
			return fmt.Errorf("%w: quote history is disabled, set SNAPSHOT_DB_PATH", core.ErrConfiguration)
		}
		snaps, err := a.store.History(ctx, storage.HistoryFilter{Kind: *kind, Symbol: *symbol, Limit: *limit})
		if err != nil {
			return err
		}
		data, err := core.MarshalReport(snaps)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}
}

const (
	cacheCleanupInterval = 5 * time.Minute
	shutdownTimeout      = 30 * time.Second
)

func serveCommand(fs *flag.FlagSet) func(context.Context, *app, io.Writer) error {
	return func(ctx context.Context, a *app, out io.Writer) error {
		deps := apphttp.Deps{
			Loader:  a.loader,
			Home:    a.home,
			Reports: a.reports,
		}
		if a.store != nil {
			deps.History = a.store
		}

		srv := apphttp.NewServer(":"+a.cfg.Port, deps, apphttp.Options{
			RequestsPerMinute: a.cfg.RateLimitRPM,
			RequestTimeout:    a.cfg.HTTPTimeout + 10*time.Second,
		}, a.logger)
		srv.ReadTimeout = 10 * time.Second
		srv.WriteTimeout = a.cfg.HTTPTimeout + 15*time.Second
		srv.IdleTimeout = 60 * time.Second
		srv.MaxHeaderBytes = 1 << 16

		a.caches.StartCleanup(cacheCleanupInterval)

		_, done := cli.GracefulShutdown(a.logger, shutdownTimeout, func(ctx context.Context) {
			if err := srv.Shutdown(ctx); err != nil {
				a.logger.Error("Server shutdown error", log.FieldError, err)
			}
		})

		a.logger.Info("Starting finreport server",
			log.FieldOperation, log.OpStartup, "port", a.cfg.Port, "backend", a.cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

		<-done
		a.logger.Info("Server stopped gracefully")
		return nil
	}
}
