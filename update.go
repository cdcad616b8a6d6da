package main

import (
	"context"
	"encoding/json"
	"fmt"
	"form_guard/internal/cache"
	"form_guard/internal/server"
	"form_guard/internal/updateserver"
	"form_guard/internal/utils"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCheckUpdateCommand() *cobra.Command {
	var showInfo bool
	cmd := &cobra.Command{
		Use:   "check-update",
		Short: "Check the configured source for a newer release",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := utils.NewAppLogger(debug)
			defer logger.Sync()

			cfg := loadConfig(logger)
			client := newUpdateClient(cfg, cache.NewMemoryStore())
			if !client.Enabled() {
				return fmt.Errorf("updates are disabled (method %q)", cfg.Update.Method)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			var out interface{} = client.Check(ctx)
			if showInfo {
				out = client.Info(ctx)
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().BoolVar(&showInfo, "info", false, "Print plugin information instead of the version check")
	return cmd
}

func newUpdateServerCommand() *cobra.Command {
	var (
		listen     string
		releaseDir string
	)
	cmd := &cobra.Command{
		Use:   "update-server",
		Short: "Serve check-version, plugin-info and download endpoints",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := utils.NewAppLogger(debug)
			defer logger.Sync()

			if !debug {
				gin.SetMode(gin.ReleaseMode)
			}
			handler := updateserver.New(updateserver.DefaultCatalog(releaseDir), logger)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			logger.Info("update server started", zap.String("listen", listen), zap.String("releases", releaseDir))
			return server.StartServer(ctx, listen, handler.Router(), logger)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", ":8090", "Listen address")
	cmd.Flags().StringVar(&releaseDir, "releases", "releases", "Directory holding <slug>-<version>.zip files")
	return cmd
}
