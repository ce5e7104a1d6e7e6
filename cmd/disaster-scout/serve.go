package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/mr1hm/disaster-scout/internal/api"
	"github.com/mr1hm/disaster-scout/internal/logging"
)

func serveCMD() *cobra.Command {
	var debug bool
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if debug {
				cfg.Debug = true
			}

			slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port, "debug", cfg.Debug)

			var handler *api.Handler
			if cfg.Debug {
				handler = api.NewHandler(nil, true)
			} else {
				p, cleanup, err := buildPipeline(cfg)
				if err != nil {
					return err
				}
				defer cleanup()
				handler = api.NewHandler(p, false)
			}

			gin.SetMode(gin.ReleaseMode)
			router := gin.New()
			router.Use(gin.Recovery())
			router.Use(cors.New(cors.Config{
				AllowOrigins:     []string{"*"},
				AllowMethods:     []string{"GET", "POST", "OPTIONS"},
				AllowHeaders:     []string{"Origin", "Content-Type"},
				ExposeHeaders:    []string{"Content-Length"},
				AllowCredentials: false, // must stay false with wildcard origins
			}))
			handler.RegisterRoutes(router)

			srv := &http.Server{
				Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
				Handler: router,
			}

			go func() {
				slog.Info("server listening", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logging.Fatalf("server error: %v", err)
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			slog.Info("shutting down...")

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("server shutdown error", "error", err)
			}

			slog.Info("shutdown complete")
			return nil
		},
	}
	serve.Flags().BoolVar(&debug, "debug", false, "serve fixed sample records without calling upstream services")

	return serve
}
