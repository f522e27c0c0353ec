package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rk-goldtrade/internal/admin"
	"rk-goldtrade/internal/auth"
	"rk-goldtrade/internal/cache"
	"rk-goldtrade/internal/cashier"
	"rk-goldtrade/internal/config"
	"rk-goldtrade/internal/db"
	"rk-goldtrade/internal/health"
	"rk-goldtrade/internal/httpserver"
	"rk-goldtrade/internal/ledger"
	"rk-goldtrade/internal/notify"
	"rk-goldtrade/internal/pricefeed"
	"rk-goldtrade/internal/withdrawals"
)

func main() {
	startedAt := time.Now().UTC()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.UIDist != "" {
		if _, err := os.Stat(cfg.UIDist); err != nil {
			log.Fatal(err)
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	store := cache.Disabled()
	if cfg.RedisAddr != "" {
		store = cache.New(cfg.RedisAddr, cfg.RedisPassword)
	}
	defer store.Close()

	notifier := notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID)
	if notifier == nil {
		log.Printf("telegram notifications disabled")
	}

	bus := pricefeed.NewBus()
	feedClient := pricefeed.NewClient(cfg.PriceFeedURL)
	markupStore := pricefeed.NewStore(pool)
	quoteWS := pricefeed.NewQuoteWS(bus, cfg.WebSocketOrigin)
	marketHandler := pricefeed.NewHandler(feedClient, markupStore, store, quoteWS)
	pricefeed.StartPublisher(ctx, bus, feedClient, markupStore, cfg.PriceFeedEvery)

	ledgerStore := ledger.NewStore()
	ledgerSvc := ledger.NewService(pool, ledgerStore)
	ledgerHandler := ledger.NewHandler(ledgerSvc, store, notifier)

	authSvc := auth.NewService(pool, cfg.JWTIssuer, []byte(cfg.JWTSecret), cfg.JWTTTL)
	authHandler := auth.NewHandler(authSvc)

	slipVerifier := cashier.NewEasySlipClient(cfg.SlipAPIBaseURL, cfg.SlipAPIKey)
	cashierSvc := cashier.NewService(pool, slipVerifier)
	cashierHandler := cashier.NewHandler(cashierSvc, store, notifier)

	goldWithdrawals := withdrawals.NewService(pool, ledgerSvc)
	withdrawalsHandler := withdrawals.NewHandler(goldWithdrawals, notifier)

	adminHandler := admin.NewHandler(pool, markupStore, goldWithdrawals, cashierSvc, store, notifier)
	healthHandler := health.NewHandler(pool, startedAt, cfg.HTTPAddr, cfg.PriceFeedURL)

	router := httpserver.NewRouter(httpserver.RouterDeps{
		AuthHandler:        authHandler,
		LedgerHandler:      ledgerHandler,
		MarketHandler:      marketHandler,
		CashierHandler:     cashierHandler,
		WithdrawalsHandler: withdrawalsHandler,
		AdminHandler:       adminHandler,
		HealthHandler:      healthHandler,
		AuthService:        authSvc,
		InternalToken:      cfg.InternalToken,
		UIDist:             cfg.UIDist,
	})
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	log.Printf("server listening on %s", cfg.HTTPAddr)
	log.Printf("price feed: %s every %s", cfg.PriceFeedURL, cfg.PriceFeedEvery)
	if cfg.UIDist != "" {
		log.Printf("ui dist: %s", cfg.UIDist)
	}
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
