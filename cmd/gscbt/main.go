package main

import (
	"encoding/json"
	"log"
	"os"

	"go.uber.org/zap/zapcore"

	"github.com/priyam-gsc/gscbt/params"
	"github.com/priyam-gsc/gscbt/pkg/api"
	"github.com/priyam-gsc/gscbt/pkg/app"
	"github.com/priyam-gsc/gscbt/pkg/series"
	"github.com/priyam-gsc/gscbt/pkg/storage"
)

func main() {
	// Load config from .env file and environment variables
	cfg := params.LoadFromEnv("")

	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "data/gscbt.log"
	}
	level := zapcore.InfoLevel
	if os.Getenv("VERBOSE") == "true" {
		level = zapcore.DebugLevel
	}

	logger, err := newLogger(logFile, level)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", logFile)

	store, err := storage.NewRunStore(cfg.Store.Path)
	if err != nil {
		sugar.Fatalw("store_open_failed", "path", cfg.Store.Path, "err", err)
	}
	defer store.Close()

	application := app.NewApp(cfg, store, sugar)
	application.Verbose = os.Getenv("VERBOSE") == "true"

	// Optional fill journal
	if path := os.Getenv("JOURNAL_FILE"); path != "" {
		journal, err := storage.NewFileJournal(path)
		if err != nil {
			sugar.Fatalw("journal_open_failed", "path", path, "err", err)
		}
		defer journal.Close()
		application.Journal = journal
	}

	// One-shot run: SERIES_CSV + ORDERS_JSON execute a backtest and
	// persist the result before (optionally) serving the API.
	if csvPath := os.Getenv("SERIES_CSV"); csvPath != "" {
		bars, err := series.LoadCSV(csvPath)
		if err != nil {
			sugar.Fatalw("series_load_failed", "path", csvPath, "err", err)
		}

		var orders []app.OrderSpec
		if ordersPath := os.Getenv("ORDERS_JSON"); ordersPath != "" {
			orders, err = loadOrders(ordersPath)
			if err != nil {
				sugar.Fatalw("orders_load_failed", "path", ordersPath, "err", err)
			}
		}

		run, err := application.ExecuteRun(bars, orders, storage.RunParams{
			SettlementTime: cfg.Backtest.SettlementTime,
			TradeCost:      cfg.Backtest.TradeCost,
			Slippage:       cfg.Backtest.Slippage,
			ExecMode:       cfg.Backtest.ExecMode,
		})
		if err != nil {
			sugar.Fatalw("run_failed", "err", err)
		}

		if out := os.Getenv("TABLE_CSV"); out != "" {
			if err := series.WriteCSV(run.Table, out); err != nil {
				sugar.Fatalw("table_write_failed", "path", out, "err", err)
			}
			sugar.Infow("table_written", "path", out, "rows", len(run.Table))
		}
	}

	if os.Getenv("SERVE") == "true" {
		server := api.NewServer(application, cfg.Server.AllowedOrigins)
		sugar.Infow("api_starting", "addr", cfg.Server.Addr)
		if err := server.Start(cfg.Server.Addr); err != nil {
			sugar.Fatalw("api_failed", "err", err)
		}
	}
}

func loadOrders(path string) ([]app.OrderSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var orders []app.OrderSpec
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}
