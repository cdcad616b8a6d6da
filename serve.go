package main

import (
	"context"
	"fmt"
	"form_guard/internal/cache"
	"form_guard/internal/config"
	"form_guard/internal/geo"
	"form_guard/internal/server"
	"form_guard/internal/store"
	"form_guard/internal/updater"
	"form_guard/internal/utils"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the guarding proxy and the admin API",
		RunE:  runServe,
	}
}

// loadConfig falls back to the defaults when the config file is missing or
// invalid, so a bare binary still starts.
func loadConfig(logger *zap.Logger) *config.MainConfig {
	cfg, err := config.LoadMainConfig(basePath)
	if err != nil {
		logger.Warn("using default config", zap.Error(err))
	}
	return cfg
}

func newUpdateClient(cfg *config.MainConfig, transients cache.Store) *updater.Client {
	return updater.New(cfg.Update.Method, cfg.Update.GitHubRepo, cfg.Update.Server, transients)
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger := utils.NewAppLogger(debug)
	defer logger.Sync()

	cfg := loadConfig(logger)
	utils.InitLogx(cfg.LogPath)

	rules, err := config.LoadRules(cfg.RulePath)
	if err != nil {
		return fmt.Errorf("load rules failed: %w", err)
	}

	st, err := store.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	transients, err := cache.NewOtterStore(cfg.CacheCapacity)
	if err != nil {
		return fmt.Errorf("failed to build cache: %w", err)
	}
	defer transients.Close()

	var countryDB geo.CountryDB
	if cfg.GeoIPDatabase != "" {
		mmdb, err := geo.OpenMMDB(cfg.GeoIPDatabase)
		if err != nil {
			logger.Warn("geo database unavailable", zap.String("path", cfg.GeoIPDatabase), zap.Error(err))
		} else {
			defer mmdb.Close()
			countryDB = mmdb
		}
	}

	resolver, err := server.NewResolver(cfg, rules, st, transients, countryDB)
	if err != nil {
		return err
	}

	activity := server.NewActivityTracker(time.Minute, logger)
	activity.Start()
	defer activity.Stop()

	guardServer, err := server.New(server.Options{
		Config:   cfg,
		Rules:    rules,
		Store:    st,
		Resolver: resolver,
		Cache:    transients,
		Activity: activity,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	adminOpts := server.AdminOptions{Config: cfg, Store: st, Activity: activity, Logger: logger}
	client := newUpdateClient(cfg, transients)
	if reason := client.DisabledReason(); reason != "" {
		logger.Warn("update checks disabled", zap.String("method", cfg.Update.Method), zap.String("reason", reason))
	} else {
		scheduler, err := updater.NewScheduler(client, cfg.Update.Schedule, logger)
		if err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
		go scheduler.RunOnce(cmd.Context())
		adminOpts.Updates = client
		adminOpts.Scheduler = scheduler
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.StartServer(ctx, ":"+cfg.Port, guardServer, logger)
	})
	if cfg.AdminListen != "" {
		admin := server.NewAdminAPI(adminOpts)
		g.Go(func() error {
			return server.StartServer(ctx, cfg.AdminListen, admin.Router(), logger)
		})
	}

	logger.Info("form guard started",
		zap.String("port", cfg.Port),
		zap.String("upstream", cfg.Upstream),
		zap.String("admin", cfg.AdminListen))
	err = g.Wait()
	logger.Info("server stopped")
	return err
}
