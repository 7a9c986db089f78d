package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatali-fataliyev/finance_tracker/api"
	appErrors "github.com/fatali-fataliyev/finance_tracker/customErrors"
	"github.com/fatali-fataliyev/finance_tracker/internal/config"
	"github.com/fatali-fataliyev/finance_tracker/internal/finance"
	"github.com/fatali-fataliyev/finance_tracker/logging"
	"github.com/google/subcommands"
	"github.com/rs/cors"
)

const SHUTDOWN_TIMEOUT = 10 * time.Second

var Commands = []subcommands.Command{
	&serveCmd{},
	&migrateCmd{},
	&refreshCmd{},
	&predictCmd{},
	&searchCmd{},
	&exportCmd{},
}

// --- SERVE --- //

type serveCmd struct{}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the HTTP API" }
func (*serveCmd) Usage() string {
	return `serve

  Starts the HTTP API on APP_PORT. Storage, oracle and logging are configured
  through the environment or a .env file.
`
}
func (*serveCmd) SetFlags(*flag.FlagSet) {}

func (*serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	logging.Logger.Info("application starting...")

	corsConf := cors.New(cors.Options{
		AllowedOrigins:   a.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", api.TraceIDHeader},
		ExposedHeaders:   []string{"Content-Disposition", api.TraceIDHeader},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           corsConf.Handler(api.NewApi(a.tracker).Routes()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Logger.Infof("Starting server on port: %s (storage: %s)", a.cfg.Port, a.tracker.StorageType)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Logger.Errorf("failed to start server: %v", err)
			return subcommands.ExitFailure
		}
	case <-ctx.Done():
		logging.Logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), SHUTDOWN_TIMEOUT)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logging.Logger.Errorf("failed to shut down server: %v", err)
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}

// --- MIGRATE --- //

type migrateCmd struct{}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply pending database migrations and exit" }
func (*migrateCmd) Usage() string {
	return `migrate

  Connects to the configured database and applies every pending migration.
`
}
func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (*migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := setup(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if a.cfg.StorageDriver == config.DriverMemory {
		fmt.Fprintln(os.Stderr, "memory storage has no migrations")
		return subcommands.ExitUsageError
	}
	fmt.Println("database schema is up to date")
	return subcommands.ExitSuccess
}

// --- REFRESH --- //

type refreshCmd struct{}

func (*refreshCmd) Name() string     { return "refresh" }
func (*refreshCmd) Synopsis() string { return "re-price every investment from the quote service" }
func (*refreshCmd) Usage() string {
	return `refresh

  Fetches the latest quote of every investment with a ticker and stores it as
  the current price. Lookups that fail are skipped.
`
}
func (*refreshCmd) SetFlags(*flag.FlagSet) {}

func (*refreshCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := setup(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	updated, err := a.tracker.RefreshInvestmentPrices(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, appErrors.MessageOf(err))
		return subcommands.ExitFailure
	}
	fmt.Printf("updated %d investments\n", updated)
	return subcommands.ExitSuccess
}

// --- PREDICT --- //

type predictCmd struct{}

func (*predictCmd) Name() string     { return "predict" }
func (*predictCmd) Synopsis() string { return "suggest a category for a description" }
func (*predictCmd) Usage() string {
	return `predict <description>

  Trains the classifier on the seed corpus and the stored transactions and
  prints the most likely category.
`
}
func (*predictCmd) SetFlags(*flag.FlagSet) {}

func (*predictCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	description := strings.Join(f.Args(), " ")
	if strings.TrimSpace(description) == "" {
		fmt.Fprintln(os.Stderr, "a description is required")
		return subcommands.ExitUsageError
	}

	a, err := setup(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	category, err := a.tracker.PredictCategory(ctx, description)
	if err != nil {
		fmt.Fprintln(os.Stderr, appErrors.MessageOf(err))
		return subcommands.ExitFailure
	}
	fmt.Println(category)
	return subcommands.ExitSuccess
}

// --- SEARCH --- //

type searchCmd struct {
	limit int
}

func (*searchCmd) Name() string     { return "search" }
func (*searchCmd) Synopsis() string { return "look up stocks, crypto and gold by name or symbol" }
func (*searchCmd) Usage() string {
	return `search [-n <limit>] <query>
`
}

func (c *searchCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.limit, "n", finance.DEFAULT_SEARCH_LIMIT, "maximum number of results")
}

func (c *searchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	query := strings.Join(f.Args(), " ")

	a, err := setup(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	for _, r := range a.tracker.SearchAssets(ctx, query, c.limit) {
		fmt.Printf("%-12s %-8s %-10s %s\n", r.Symbol, r.Category, r.Exchange, r.Name)
	}
	return subcommands.ExitSuccess
}

// --- EXPORT --- //

type exportCmd struct {
	start  string
	end    string
	kind   string
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write transactions as CSV" }
func (*exportCmd) Usage() string {
	return `export [-s <start_date>] [-e <end_date>] [-t all|income|expense] [-o <file>]
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "s", finance.DefaultExportStart, "first date included (YYYY-MM-DD)")
	f.StringVar(&c.end, "e", finance.DefaultExportEnd, "last date included (YYYY-MM-DD)")
	f.StringVar(&c.kind, "t", finance.ExportTypeAll, "transaction type: all, income or expense")
	f.StringVar(&c.output, "o", "", "output file, stdout when empty")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := setup(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	txns, err := a.tracker.ExportTransactions(ctx, finance.TransactionFilter{StartDate: c.start, EndDate: c.end, Type: c.kind})
	if err != nil {
		fmt.Fprintln(os.Stderr, appErrors.MessageOf(err))
		return subcommands.ExitFailure
	}

	var w io.Writer = os.Stdout
	if c.output != "" {
		file, err := os.Create(c.output)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		defer file.Close()
		w = file
	}

	if err := finance.WriteTransactionsCSV(w, txns); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
