package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/quantatrisk/voltrader/config"
	"github.com/quantatrisk/voltrader/internal/adapters/notify"
	"github.com/quantatrisk/voltrader/internal/adapters/storage"
	"github.com/quantatrisk/voltrader/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	backtest := flag.Bool("backtest", false, "replay a historical range instead of trading")
	startDate := flag.String("start", "", "backtest start date (YYYY-MM-DD)")
	endDate := flag.String("end", "", "backtest end date (YYYY-MM-DD, default today)")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print position and trade tables after backtest")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("voltrader starting",
		"config", *configPath,
		"instance", cfg.Strategy.Name,
		"products", cfg.Strategy.Products,
		"interval", cfg.Strategy.BarInterval,
		"window", cfg.Strategy.BarWindow,
		"backtest", *backtest,
	)

	states, err := storage.NewFileStateStore(cfg.Storage.StatePath, storage.DefaultMigrations())
	if err != nil {
		slog.Error("failed to open state store", "err", err, "path", cfg.Storage.StatePath)
		os.Exit(1)
	}

	history, err := storage.NewSQLiteHistory(cfg.Storage.HistoryDSN)
	if err != nil {
		slog.Error("failed to open history store", "err", err, "dsn", cfg.Storage.HistoryDSN)
		os.Exit(1)
	}
	defer history.Close()

	monitor, err := storage.NewSQLiteMonitor(cfg.Storage.MonitorDSN)
	if err != nil {
		slog.Error("failed to open monitor store", "err", err, "dsn", cfg.Storage.MonitorDSN)
		os.Exit(1)
	}
	defer monitor.Close()

	var notifiers []ports.Notifier
	if cfg.Notify.Console {
		notifiers = append(notifiers, notify.NewConsole())
	}
	if cfg.Notify.WebhookURL != "" {
		notifiers = append(notifiers,
			notify.NewWebhook(cfg.Notify.WebhookURL, cfg.Strategy.Name, cfg.Notify.WebhookEnabled))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *backtest {
		runBacktest(ctx, cfg, states, history, monitor, notifiers, *startDate, *endDate, *table)
		return
	}

	runLive(ctx, cfg, states, history, monitor, notifiers)
	slog.Info("voltrader stopped cleanly")
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
