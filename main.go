package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	bidding "auction-escrow/internal/biddingService"
	"auction-escrow/internal/clock"
	"auction-escrow/internal/config"
	"auction-escrow/internal/escrow"
	"auction-escrow/internal/events"
	"auction-escrow/internal/notify"
	"auction-escrow/internal/proofs"
	"auction-escrow/internal/repository"
	"auction-escrow/internal/reputation"
	"auction-escrow/internal/scheduler"
	"auction-escrow/internal/server"
	"auction-escrow/utils"

	"github.com/gin-gonic/gin"
)

// storage is satisfied by every repository implementation
type storage interface {
	repository.AuctionDB
	repository.TransactionDB
	repository.ReputationDB
}

func main() {
	configPath := flag.String("config", os.Getenv("AUCTION_CONFIG"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := utils.SetLevel(cfg.Logging.Level); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set log level: %v\n", err)
		os.Exit(1)
	}

	repo, closeRepo, err := openStorage(cfg)
	if err != nil {
		utils.Fatal("failed to open storage", map[string]any{"driver": cfg.Storage.Driver, "error": err.Error()})
	}
	defer closeRepo()

	resolver, err := proofs.NewURLResolver(cfg.Proofs.BaseURL)
	if err != nil {
		utils.Fatal("failed to create proof resolver", map[string]any{"error": err.Error()})
	}

	hub := notify.NewHub()
	defer hub.Close()
	notifier := events.Multi{notify.LogNotifier{}, hub}
	if cfg.Events.AMQPURL != "" {
		publisher, err := notify.DialAMQP(cfg.Events.AMQPURL, cfg.Events.Exchange)
		if err != nil {
			utils.Fatal("failed to connect event broker", map[string]any{"exchange": cfg.Events.Exchange, "error": err.Error()})
		}
		defer publisher.Close()
		notifier = append(notifier, publisher)
	}

	clk := clock.Real{}
	ledger := reputation.NewRepoLedger(repo)
	machine := escrow.NewMachine(repo, clk, resolver, ledger, notifier)
	biddingSvc := bidding.NewBiddingService(repo, machine, clk, notifier, bidding.Policy{
		ExtensionWindow: cfg.Auction.ExtensionWindow,
		MaxExtensions:   cfg.Auction.MaxExtensions,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeper := scheduler.NewSweeper(biddingSvc, clk, scheduler.Config{
		Interval:   cfg.Scheduler.SweepInterval,
		MaxRetries: cfg.Scheduler.MaxRetries,
		BaseDelay:  cfg.Scheduler.BaseDelay,
		MaxDelay:   cfg.Scheduler.MaxDelay,
	})
	sweeperDone := make(chan struct{})
	go func() {
		defer close(sweeperDone)
		_ = sweeper.Run(ctx)
	}()

	router := server.SetupRouter(server.Services{
		Bidding:    biddingSvc,
		Escrow:     machine,
		Reputation: ledger,
		Events:     gin.WrapF(hub.ServeWS),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.Info("starting auction server", map[string]any{
			"addr":    srv.Addr,
			"storage": cfg.Storage.Driver,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Error("server stopped unexpectedly", map[string]any{"error": err.Error()})
			stop()
		}
	}()

	<-ctx.Done()
	utils.Info("shutting down", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Error("graceful shutdown failed", map[string]any{"error": err.Error()})
	}
	<-sweeperDone
}

// openStorage returns the configured repository and a func releasing it
func openStorage(cfg *config.Config) (storage, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		repo, err := repository.NewSQLiteRepo(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() {
			if err := repo.Close(); err != nil {
				utils.Error("failed to close sqlite", map[string]any{"error": err.Error()})
			}
		}, nil
	default:
		return repository.NewMemoryRepo(), func() {}, nil
	}
}
