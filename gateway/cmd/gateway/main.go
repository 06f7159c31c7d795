package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/partners_pos/gateway/internal/config"
	"github.com/Skotchmaster/partners_pos/gateway/internal/httpserver"
	"github.com/Skotchmaster/partners_pos/pkg/logging"
	loggingmw "github.com/Skotchmaster/partners_pos/pkg/middleware/logging"
)

func main() {
	if err := godotenv.Load("gateway/.env"); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := config.Load()
	cfg.MustValidate()

	logger := logging.NewWithOptions(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile}).
		With("service", "gateway")
	slog.SetDefault(logger)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.Secure())
	e.Use(echomw.CORS())

	if err := httpserver.Register(e, &httpserver.Deps{
		AuthURL:     cfg.AuthURL,
		PartnersURL: cfg.PartnersURL,
		JWTSecret:   cfg.JWTSecret,
	}); err != nil {
		log.Fatal(err)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("gateway listening", "addr", srv.Addr, "auth", cfg.AuthURL, "partners", cfg.PartnersURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown_failed", "error", err)
	}
}
