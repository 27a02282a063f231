package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"steamrank/config"
	"steamrank/notify"
	"steamrank/output"
	"steamrank/pipeline"
	"steamrank/scheduler"
	"steamrank/steam"
	"steamrank/storage"
)

func main() {
	cfgPath := flag.String("config", "./config.yaml", "path to YAML config file")
	daemon := flag.Bool("daemon", false, "run the scan daily on a schedule instead of once")
	flag.Parse()

	// Structured JSON logging to stdout
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("config loaded",
		"max_apps", cfg.MaxApps,
		"save_every", cfg.SaveEvery,
		"min_jp_reviews", cfg.MinJPReviews,
		"include_details", cfg.IncludeDetails,
		"output", cfg.OutputPath)

	switch cfg.LogLevel {
	case "debug":
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})))
	case "warn":
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn})))
	case "error":
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})))
	}

	client := steam.NewClient(steam.NewHTTPClient(cfg.FetchTimeout()), cfg.SteamAPIKey)
	writer := output.NewWriter(cfg.OutputPath, cfg.CheckpointPath)
	runner := pipeline.NewRunner(client, writer, pipeline.Config{
		MinJPReviews:   cfg.MinJPReviews,
		MaxApps:        cfg.MaxApps,
		SaveEvery:      cfg.SaveEvery,
		RequestDelay:   cfg.RequestDelay(),
		IncludeDetails: cfg.IncludeDetails,
		IncludePrice:   cfg.IncludePrice,
	})

	var store *storage.Store
	if cfg.DBPath != "" {
		store, err = storage.New(cfg.DBPath)
		if err != nil {
			slog.Error("failed to initialize run history", "error", err)
			os.Exit(1)
		}
		defer store.Close()
		slog.Info("run history enabled", "db_path", cfg.DBPath)
	}

	var notifier *notify.Notifier
	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		notifier, err = notify.New(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			slog.Error("failed to initialize telegram notifier", "error", err)
			os.Exit(1)
		}
		slog.Info("telegram notifications enabled", "chat_id", cfg.TelegramChatID)
	}

	runOnce := func(ctx context.Context) error {
		result, err := runner.Run(ctx)
		if err != nil {
			return err
		}

		// History and notification are best-effort: the output artifact
		// is already written by the time these run.
		if store != nil {
			if _, err := store.RecordRun(result.StartedAt, result.FinishedAt, result.Scanned, result.Entries); err != nil {
				slog.Error("failed to record run", "error", err)
			}
		}
		if notifier != nil {
			elapsed := result.FinishedAt.Sub(result.StartedAt)
			if err := notifier.RunCompleted(result.Entries, result.Scanned, elapsed); err != nil {
				slog.Error("failed to send completion notice", "error", err)
			}
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !*daemon {
		if err := runOnce(ctx); err != nil {
			slog.Error("scan failed", "error", err)
			os.Exit(1)
		}
		return
	}

	sched, err := scheduler.New(cfg.Timezone)
	if err != nil {
		slog.Error("failed to create scheduler", "error", err)
		os.Exit(1)
	}
	if err := sched.Schedule(cfg.RunTime, func() {
		if err := runOnce(context.Background()); err != nil {
			slog.Error("scheduled scan failed", "error", err)
		}
	}); err != nil {
		slog.Error("failed to schedule scan", "error", err)
		os.Exit(1)
	}
	sched.Start()
	slog.Info("daemon started", "run_time", cfg.RunTime, "timezone", cfg.Timezone)

	<-ctx.Done()
	sched.Stop()
	slog.Info("shutdown complete")
}
