package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/doorline/backend/docs"
	"github.com/doorline/backend/internal/app"
	"github.com/doorline/backend/internal/config"
	"github.com/doorline/backend/internal/logger"
)

// @title Doorline Backend API
// @version 1.0
// @description Access tokens, revenue splits, wallets and payouts for venue entry
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	boot, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("bootstrap logger: %v", err)
	}
	config.Init(boot)

	zl, err := logger.New(viper.GetString("app.env"))
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zl.Sync()

	port := viper.GetString("server.port")
	docs.SwaggerInfo.Host = "localhost:" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, zl)
	if err != nil {
		zl.Fatal("startup failed", zap.Error(err))
	}
	defer a.Close()

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      a.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zl.Info("server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()

	zl.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zl.Error("server forced to shutdown", zap.Error(err))
		return
	}
	zl.Info("server stopped")
}
