package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rewired-gh/auctionledger/internal/api"
	"github.com/rewired-gh/auctionledger/internal/config"
	"github.com/rewired-gh/auctionledger/internal/ledger"
	"github.com/rewired-gh/auctionledger/internal/logger"
	"github.com/rewired-gh/auctionledger/internal/reconcile"
	"github.com/rewired-gh/auctionledger/internal/settlement"
	"github.com/rewired-gh/auctionledger/internal/sheets"
	"github.com/rewired-gh/auctionledger/internal/storage"
	"github.com/rewired-gh/auctionledger/internal/telegram"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	book := ledger.New()
	if cfg.Storage.JournalEnabled {
		store, err := storage.New(cfg.Storage.DBPath)
		if err != nil {
			logger.Fatal("Failed to initialize storage: %v", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("Failed to close storage: %v", err)
			}
		}()
		book, err = ledger.NewWithJournal(store)
		if err != nil {
			logger.Fatal("Failed to restore ledger: %v", err)
		}
		logger.Info("Fulfillment journal enabled")
	} else {
		logger.Debug("Fulfillment journal disabled; ledger resets on restart")
	}
	logger.Info("Ledger session %s", book.Session())

	var cache sheets.Cache = sheets.NewMemoryCache()
	if cfg.Sheets.RedisAddr != "" {
		rdb, err := sheets.DialRedis(ctx, cfg.Sheets.RedisAddr, cfg.Sheets.RedisPassword, cfg.Sheets.RedisDB)
		if err != nil {
			logger.Warn("Redis unavailable at %s, using in-process cache: %v", cfg.Sheets.RedisAddr, err)
		} else {
			defer rdb.Close()
			cache = sheets.NewRedisCache(rdb)
			logger.Info("Snapshot cache backed by Redis at %s", cfg.Sheets.RedisAddr)
		}
	}

	source := sheets.NewClient(cfg.Sheets.TransactionsURL, cfg.Sheets.MembersURL, cache, sheets.ClientConfig{
		Timeout:        cfg.Sheets.Timeout,
		MaxRetries:     cfg.Sheets.MaxRetries,
		RetryDelayBase: cfg.Sheets.RetryDelayBase,
		CacheTTL:       cfg.Sheets.CacheTTL,
	})

	fees, err := settlement.NewFeeSchedule(cfg.Settlement.SellFeeRate, cfg.Settlement.BuyFeeRate)
	if err != nil {
		logger.Fatal("Invalid fee schedule: %v", err)
	}
	svc := reconcile.New(source, reconcile.Config{
		Fees:               fees,
		IncludeCarriedDebt: cfg.Settlement.IncludeCarriedDebt,
		ExemptMarker:       cfg.Settlement.ExemptMarker,
	})

	var telegramClient *telegram.Client
	if cfg.Telegram.Enabled {
		telegramClient, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		telegramClient.AttachReports(svc, book)
		telegramClient.ListenForCommands(ctx)
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	var srv *http.Server
	if cfg.Server.Enabled {
		srv = &http.Server{
			Addr: cfg.Server.Addr,
			Handler: api.SetupRouter(api.RouterDeps{
				Reports: svc,
				Ledger:  book,
				Mode:    cfg.Server.Mode,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("HTTP API listening on %s", cfg.Server.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("HTTP server failed: %v", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		if srv != nil {
			shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
			defer done()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("HTTP server shutdown: %v", err)
			}
		}
		cancel()
	}()

	ticker := time.NewTicker(cfg.Sheets.RefreshInterval)
	defer ticker.Stop()

	consecutiveFailures := 0

	handleRefreshResult := func(err error) {
		if err != nil {
			consecutiveFailures++
			logger.Error("Snapshot refresh failed: %v", err)
			if consecutiveFailures == 1 && telegramClient != nil {
				if sendErr := telegramClient.SendError(err); sendErr != nil {
					logger.Warn("Failed to send error notification to Telegram: %v", sendErr)
				}
			}
		} else {
			if consecutiveFailures > 0 && telegramClient != nil {
				if sendErr := telegramClient.SendRecovery(consecutiveFailures); sendErr != nil {
					logger.Warn("Failed to send recovery notification to Telegram: %v", sendErr)
				}
			}
			consecutiveFailures = 0
		}
	}

	logger.Info("Starting settlement service (refresh interval: %v)", cfg.Sheets.RefreshInterval)
	handleRefreshResult(refresh(ctx, svc))

	for {
		select {
		case <-ctx.Done():
			logger.Info("Service stopped")
			return
		case <-ticker.C:
			handleRefreshResult(refresh(ctx, svc))
		}
	}
}

// refresh loads a snapshot to surface source problems between queries.
// Reports never read from it; every query reloads on its own.
func refresh(ctx context.Context, svc *reconcile.Service) error {
	ds, err := svc.Load(ctx)
	if err != nil {
		return err
	}
	logger.Info("Snapshot healthy: %d transactions, %d members, %d recoverable problems",
		len(ds.Transactions), len(ds.Directory), ds.Diagnostics.Total())
	return nil
}
