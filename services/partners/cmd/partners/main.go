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

	"github.com/bwmarrin/snowflake"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	pkgdb "github.com/Skotchmaster/partners_pos/pkg/db"
	"github.com/Skotchmaster/partners_pos/pkg/events"
	"github.com/Skotchmaster/partners_pos/pkg/logging"
	loggingmw "github.com/Skotchmaster/partners_pos/pkg/middleware/logging"
	"github.com/Skotchmaster/partners_pos/pkg/validate"

	partnerscfg "github.com/Skotchmaster/partners_pos/services/partners/internal/config"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/devices"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/httpserver"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/jobs"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/pricing"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/repo"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/search"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/service"
)

func main() {
	if err := godotenv.Load("services/partners/.env"); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg, err := partnerscfg.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	cfg.MustValidate()

	logger := logging.NewWithOptions(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile}).
		With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}

	r := &repo.GormRepo{DB: db}
	migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = r.Migrate(migrateCtx)
	cancel()
	if err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	publisher, err := events.NewPublisher(cfg.KafkaBrokers, logger)
	if err != nil {
		log.Fatalf("kafka: %v", err)
	}

	var dispatcher devices.Dispatcher = &devices.LogDispatcher{Logger: logger}
	if len(cfg.KafkaBrokers) > 0 {
		dispatcher = &devices.KafkaDispatcher{Publisher: publisher, TerminalID: cfg.TerminalID}
	}

	var index search.Index
	if cfg.Search.URL != "" {
		esCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		es, err := search.NewESIndex(esCtx, cfg.Search)
		cancel()
		if err != nil {
			logger.Warn("search_disabled", "reason", "elasticsearch unavailable", "error", err)
		} else {
			index = es
		}
	}

	calc, err := pricing.NewCalculator(cfg.TaxRate)
	if err != nil {
		log.Fatalf("pricing: %v", err)
	}
	ids, err := snowflake.NewNode(cfg.NodeID)
	if err != nil {
		log.Fatalf("snowflake: %v", err)
	}

	catalogSvc := &service.CatalogService{Repo: r, Index: index, Events: publisher, Devices: dispatcher}
	cartSvc := &service.CartService{Repo: r, Calc: calc}
	checkoutSvc := &service.CheckoutService{
		Repo:      r,
		Calc:      calc,
		Devices:   dispatcher,
		Events:    publisher,
		IDs:       ids,
		StoreName: cfg.StoreName,
		Index:     index,
	}
	orderSvc := &service.OrderService{Repo: r, Calc: calc, Devices: dispatcher, Events: publisher, StoreName: cfg.StoreName}
	customerSvc := &service.CustomerService{Repo: r}
	refundSvc := &service.RefundService{Repo: r, Events: publisher, Devices: dispatcher, IDs: ids}
	shiftSvc := &service.ShiftService{Repo: r, Events: publisher, Devices: dispatcher}

	runner := &jobs.Runner{Repo: r, Devices: dispatcher, Logger: logger, CartTTL: cfg.CartTTL}
	if err := runner.Start(cfg.LowStockCron); err != nil {
		log.Fatalf("jobs: %v", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = validate.New()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{
		Catalog:   &httpserver.CatalogHTTP{Svc: catalogSvc},
		Cart:      &httpserver.CartHTTP{Svc: cartSvc, Checkout: checkoutSvc},
		Orders:    &httpserver.OrderHTTP{Svc: orderSvc},
		Customers: &httpserver.CustomerHTTP{Svc: customerSvc},
		Refunds:   &httpserver.RefundHTTP{Svc: refundSvc},
		Shifts:    &httpserver.ShiftHTTP{Svc: shiftSvc},
		Devices:   &httpserver.DeviceHTTP{Devices: dispatcher},
		JWTSecret: cfg.JWTAccessSecret,
		Ready:     r.Ping,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("partners listening", "addr", srv.Addr, "db_driver", cfg.DBDriver, "search", index != nil)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	runner.Stop(shutdownCtx)
	if err := publisher.Close(); err != nil {
		logger.Warn("publisher_close_failed", "error", err)
	}
	_ = pkgdb.Close(db)

	logger.Info("partners stopped")
}
