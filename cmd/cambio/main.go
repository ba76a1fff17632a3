package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/cambial/cambio/internal/auth"
	"github.com/cambial/cambio/internal/config"
	"github.com/cambial/cambio/internal/domain"
	"github.com/cambial/cambio/internal/engine"
	"github.com/cambial/cambio/internal/handler"
	"github.com/cambial/cambio/internal/rate"
	"github.com/cambial/cambio/internal/service"
	"github.com/cambial/cambio/internal/store"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	// Handle -healthcheck flag: HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up slog logger with configured level.
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Open the journal when a path is configured; otherwise the ledger
	// runs purely in memory.
	var journal *store.Journal
	if cfg.JournalPath != "" {
		journal, err = store.OpenJournal(cfg.JournalPath)
		if err != nil {
			logger.Error("failed to open journal", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer journal.Close()
	}

	// Instantiate stores.
	accountStore := store.NewAccountStore()
	holdStore := store.NewHoldStore()
	offerStore := store.NewOfferStore()
	ledgerLog := store.NewLedgerLog(journal)
	snapshotStore := store.NewSnapshotStore()
	alertStore := store.NewAlertStore()
	watchlistStore := store.NewWatchlistStore()
	notificationStore := store.NewNotificationStore()
	auditStore := store.NewAuditStore()

	if journal != nil {
		records, err := journal.Load()
		if err != nil {
			logger.Error("failed to load journal", slog.String("error", err.Error()))
			os.Exit(1)
		}
		ledgerLog.Preload(records)
		logger.Info("journal loaded", slog.Int("records", len(records)))
	}

	// Treasury house account: the counterparty of every direct swap.
	treasury, err := newTreasuryAccount(cfg)
	if err != nil {
		logger.Error("failed to create treasury account", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := accountStore.Create(treasury); err != nil {
		logger.Error("failed to store treasury account", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Engines.
	swapEngine := engine.NewSwapEngine(accountStore, ledgerLog)
	escrowMgr := engine.NewEscrowManager(accountStore, holdStore, ledgerLog)
	offerBook := engine.NewOfferBook()
	offerCtrl := engine.NewOfferController(offerStore, escrowMgr, offerBook)

	// Services.
	tokens := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL)
	auditSvc := service.NewAuditService(auditStore)
	notifSvc := service.NewNotificationService(notificationStore)
	alertSvc := service.NewAlertService(alertStore, notifSvc, auditSvc)

	seed, err := seedBalances(cfg)
	if err != nil {
		logger.Error("invalid seed balances", slog.String("error", err.Error()))
		os.Exit(1)
	}
	accountSvc := service.NewAccountService(accountStore, holdStore, tokens, auditSvc, seed)

	rateClient := rate.NewClient(cfg.RateURL, 10*time.Second)
	rateSvc := service.NewRateService(rateClient, snapshotStore, alertSvc)
	exchangeSvc := service.NewExchangeService(swapEngine, rateSvc, ledgerLog, auditSvc, treasury.UserID)
	marketSvc := service.NewMarketService(offerCtrl, offerStore, offerBook, ledgerLog, notifSvc, auditSvc)
	watchlistSvc := service.NewWatchlistService(watchlistStore)
	adminSvc := service.NewAdminService(
		accountStore, offerStore, ledgerLog, auditSvc, journal, cfg.BackupPath, treasury.UserID)

	// Router.
	router := handler.NewRouter(handler.Services{
		Accounts:      accountSvc,
		Exchange:      exchangeSvc,
		Market:        marketSvc,
		Rates:         rateSvc,
		Alerts:        alertSvc,
		Watchlist:     watchlistSvc,
		Notifications: notifSvc,
		Audit:         auditSvc,
		Admin:         adminSvc,
	}, tokens, accountStore, handler.RouterConfig{
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}, logger)

	// Start rate poller with cancellable context.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	poller := rate.NewPoller(cfg.RatePollInterval, rateSvc, logger)
	poller.Start(ctx)

	// Configure HTTP server.
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Start HTTP server in a goroutine.
	go func() {
		logger.Info("server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	// Graceful shutdown: stop HTTP server, cancel context (stops poller).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
	cancel()

	logger.Info("server stopped")
}

// newTreasuryAccount builds the house account from configured balances.
func newTreasuryAccount(cfg *config.Config) (*domain.Account, error) {
	usd, err := domain.ToMinor(cfg.TreasuryUSD)
	if err != nil {
		return nil, err
	}
	lbp, err := domain.ToMinor(cfg.TreasuryLBP)
	if err != nil {
		return nil, err
	}
	return &domain.Account{
		UserID: uuid.New().String(),
		Email:  "treasury@cambio.internal",
		Role:   domain.RoleAdmin,
		Status: domain.AccountStatusActive,
		Prefs:  domain.Preferences{TimeRangeDays: 7, GraphInterval: "DAILY"},
		Balances: map[string]int64{
			domain.CurrencyUSD: usd,
			domain.CurrencyLBP: lbp,
		},
		CreatedAt: time.Now().UTC(),
	}, nil
}

// seedBalances converts configured per-currency starting balances to
// minor units.
func seedBalances(cfg *config.Config) (map[string]int64, error) {
	usd, err := domain.ToMinor(cfg.SeedUSD)
	if err != nil {
		return nil, err
	}
	lbp, err := domain.ToMinor(cfg.SeedLBP)
	if err != nil {
		return nil, err
	}
	return map[string]int64{
		domain.CurrencyUSD: usd,
		domain.CurrencyLBP: lbp,
	}, nil
}
