package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	pkgdb "github.com/Skotchmaster/partners_pos/pkg/db"
	"github.com/Skotchmaster/partners_pos/pkg/logging"
	loggingmw "github.com/Skotchmaster/partners_pos/pkg/middleware/logging"
	"github.com/Skotchmaster/partners_pos/pkg/validate"

	authcfg "github.com/Skotchmaster/partners_pos/services/auth/internal/config"
	"github.com/Skotchmaster/partners_pos/services/auth/internal/httpserver"
	"github.com/Skotchmaster/partners_pos/services/auth/internal/repo"
	"github.com/Skotchmaster/partners_pos/services/auth/internal/service"
)

func main() {
	if err := godotenv.Load("services/auth/.env"); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := authcfg.Load()
	cfg.MustValidate()

	logger := logging.NewWithOptions(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile}).
		With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(initCtx, cfg.DBDriver, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	r := &repo.GormRepo{DB: db}
	migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = r.Migrate(migrateCtx)
	cancel()
	if err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	svc := &service.AuthService{
		Repo:          r,
		AccessSecret:  cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	}

	bootCtx, cancel := context.WithTimeout(logging.IntoContext(context.Background(), logger), 10*time.Second)
	created, err := svc.BootstrapAdmin(bootCtx, cfg.BootstrapUsername, cfg.BootstrapPassword)
	cancel()
	if err != nil {
		log.Fatalf("bootstrap admin: %v", err)
	}
	if created {
		logger.Info("bootstrap_admin_created", "username", cfg.BootstrapUsername)
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = validate.New()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{Svc: svc},
		JWTSecret:   cfg.JWTAccessSecret,
		Ready:       r.Ping,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("auth listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown_failed", "error", err)
	}
	_ = pkgdb.Close(db)
	logger.Info("auth stopped")
}
