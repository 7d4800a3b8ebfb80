package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kehilathaz/receipts-automation/internal/app"
	"github.com/kehilathaz/receipts-automation/internal/scheduler"
	"github.com/kehilathaz/receipts-automation/internal/server"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	application, err := app.New(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	logger := application.Logger
	cfg := application.Config

	logger.Info("Starting receipts automation server",
		zap.Int("port", cfg.Server.Port))

	if cfg.Logger.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	handler := server.NewHandler(application.Runner, application.History, logger)
	srv := server.New(cfg.Server, handler, logger)

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(application.Runner, cfg.Scheduler.Schedule, logger)
		if err := sched.Start(); err != nil {
			logger.Fatal("Failed to start scheduler", zap.Error(err))
		}
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")

	if sched != nil {
		<-sched.Stop().Done()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
}
