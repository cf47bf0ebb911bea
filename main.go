package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rnaseqde/internal"
	"rnaseqde/internal/api"
	"rnaseqde/internal/config"
	"rnaseqde/internal/container"
	"rnaseqde/ui"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load application configuration
	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := internal.NewLogger(internal.ParseLogLevel(appConfig.LogLevel))
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Create dependency injection container
	appContainer, err := container.New(appConfig, logger)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	if err := appContainer.Init(ctx, true); err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())

	// Expire idle dashboard sessions
	go appContainer.Sessions.Run(ctx, appConfig.Session.SweepInterval)

	apiHandler := api.NewHandler(appContainer.Service, appContainer.Reader, appContainer.Metrics, logger, appConfig.Server.MaxUploadBytes)

	server, err := ui.NewServer(ui.Config{
		GinMode:        appConfig.Server.GinMode,
		CookieName:     appConfig.Session.CookieName,
		MaxUploadBytes: appConfig.Server.MaxUploadBytes,
		SecureCookie:   appConfig.Server.GinMode == "release",
	}, ui.Dependencies{
		Sessions: appContainer.Sessions,
		Service:  appContainer.Service,
		Heatmaps: appContainer.Heatmaps,
		Reader:   appContainer.Reader,
		Metrics:  appContainer.Metrics,
		Logger:   logger,
		API:      apiHandler,
	})
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}

	// Start pprof server for performance profiling
	if appConfig.Profiling.Enabled {
		go func() {
			logger.Info("performance profiling server starting on :%s", appConfig.Profiling.Port)
			if err := http.ListenAndServe(":"+appConfig.Profiling.Port, nil); err != nil {
				logger.Error("pprof server failed: %v", err)
			}
		}()
	}

	httpServer := &http.Server{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting RNA-seq DE dashboard on port %s", appConfig.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed: %v", err)
	}
}
