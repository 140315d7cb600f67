package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"stakevault/config"
	"stakevault/core/events"
	"stakevault/core/state"
	nativecommon "stakevault/native/common"
	"stakevault/native/pricefeed"
	"stakevault/native/rebalance"
	"stakevault/native/staking"
	"stakevault/native/vault"
	"stakevault/observability"
	"stakevault/observability/logging"
	"stakevault/rpc"
	"stakevault/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	var logOutput io.Writer = os.Stdout
	if strings.TrimSpace(cfg.LogFile) != "" {
		logOutput = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
		}
	}
	logger := logging.Setup("stakevaultd", cfg.Environment, logOutput)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Error("Failed to create data directory", slog.Any("error", err))
		os.Exit(1)
	}
	db, err := storage.NewBoltDB(filepath.Join(cfg.DataDir, "ledger.db"))
	if err != nil {
		logger.Error("Failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	manager := state.NewManager(db)
	ring := events.NewRing(cfg.EventRingSize)
	emitter := observability.NewCountingEmitter(ring)
	pauses := nativecommon.StaticPauses{}
	for _, module := range cfg.PausedModules {
		pauses[strings.TrimSpace(module)] = true
	}

	admin := cfg.PriceAdminAddress()
	prices := pricefeed.NewEngine(admin)
	prices.SetState(manager)
	prices.SetEmitter(emitter)
	prices.SetPauses(pauses)

	stakingEngine := staking.NewEngine()
	stakingEngine.SetState(manager)
	stakingEngine.SetEmitter(emitter)
	stakingEngine.SetPauses(pauses)

	vaultEngine := vault.NewEngine(prices)
	vaultEngine.SetState(manager)
	vaultEngine.SetEmitter(emitter)
	vaultEngine.SetPauses(pauses)

	rebalanceEngine := rebalance.NewEngine(stakingEngine, vaultEngine)
	rebalanceEngine.SetState(manager)
	rebalanceEngine.SetEmitter(emitter)
	rebalanceEngine.SetPauses(pauses)

	nowMs := func() uint64 { return uint64(time.Now().UnixMilli()) }

	if _, err := stakingEngine.InitPool(cfg.PoolAsset, cfg.RewardRatePerInterval, cfg.RewardIntervalMs, nowMs()); err != nil {
		if !errors.Is(err, staking.ErrPoolExists) {
			logger.Error("Failed to initialise staking pool", slog.Any("error", err))
			os.Exit(1)
		}
	} else {
		logger.Info("Staking pool initialised",
			"asset", cfg.PoolAsset,
			"ratePerInterval", cfg.RewardRatePerInterval,
			"intervalMs", cfg.RewardIntervalMs,
		)
	}

	server := rpc.NewServer(rpc.Config{
		Staking:   stakingEngine,
		Vaults:    vaultEngine,
		Rebalance: rebalanceEngine,
		Prices:    prices,
		Ring:      ring,
		Accounts:  manager,
		Admin:     admin,
		Now:       nowMs,
		Logger:    logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Ledger RPC listening", "address", cfg.ListenAddress)
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("Shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			logger.Error("Graceful shutdown failed", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
