package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"calaudit/internal/audit"
	"calaudit/internal/config"
	"calaudit/internal/fetch"
	appLog "calaudit/internal/log"
	"calaudit/internal/refresh"
	"calaudit/internal/store"
	"calaudit/internal/web"
)

func newServeCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scheduled source refresh",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, listen)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	return cmd
}

func runServe(cmd *cobra.Command, listen string) error {
	configPath, _ := cmd.Flags().GetString("config")
	conf, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyLogging(cmd, conf)
	gin.SetMode(gin.ReleaseMode)

	if listen != "" {
		conf.Listen = listen
	}

	appLog.Info("calaudit starting", "version", version)
	appLog.Info("effective config",
		"listen", conf.Listen,
		"refresh", conf.RefreshCron,
		"database", conf.Database,
		"top_n", conf.TopN,
		"long_meeting_threshold", conf.LongMeetingThreshold,
		"exclude_all_day", conf.Filters.ExcludeAllDay,
		"source_count", len(conf.Sources),
	)

	db, err := store.Open(conf.Database)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	runs := store.NewRunRepo(db)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			appLog.Info("signal received, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	base := audit.Options{
		Filters:       conf.Filters.Options(),
		TopN:          conf.TopN,
		LongThreshold: conf.LongMeetingThreshold,
	}
	refresher := refresh.New(conf.Sources, base, fetch.NewFetcher(conf.CacheDir), runs)
	if len(conf.Sources) > 0 {
		if err := refresher.RefreshAll(ctx); err != nil {
			appLog.Error("initial refresh incomplete", err)
		}
		if err := refresher.Start(conf.RefreshCron); err != nil {
			return err
		}
		defer refresher.Stop()
	}

	err = web.StartServer(ctx, conf, refresher, runs)
	appLog.Info("calaudit exiting")
	return err
}
