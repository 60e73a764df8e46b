package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erp/catalogsync/internal/bootstrap"
	"github.com/erp/catalogsync/internal/infrastructure/config"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

//go:generate swag init -d ../.. -g cmd/server/main.go -o ../../docs --parseInternal

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Catalog Sync API
//	@version		1.0
//	@description	Reconciles tenant catalog source files into the store

//	@contact.name	API Support

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	app, err := bootstrap.New(context.Background(), cfg, bootstrap.WithVersion(version))
	if err != nil {
		panic("Failed to initialize application: " + err.Error())
	}
	log := app.Logger

	log.Info("Starting catalog sync service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	// the scheduler outlives any request, so it gets its own context
	runCtx, stopRun := context.WithCancel(context.Background())
	defer stopRun()
	if err := app.Start(runCtx); err != nil {
		log.Fatal("Failed to start background jobs", zap.Error(err))
	}

	srv := app.Server()
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	stopRun()
	if err := app.Shutdown(ctx); err != nil {
		log.Error("Error during shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
