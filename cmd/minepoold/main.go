package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"minepool/config"
	"minepool/core/state"
	"minepool/native/claiming"
	nativecommon "minepool/native/common"
	"minepool/native/liquidity"
	"minepool/native/staking"
	"minepool/rpc"
	"minepool/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	devMode := flag.Bool("dev", false, "DEV ONLY: in-memory database, static oracle and local constant-product pair")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.LogFile)

	var db storage.Database
	if *devMode {
		db = storage.NewMemDB()
	} else {
		leveldb, err := storage.NewLevelDB(cfg.DataDir)
		if err != nil {
			logger.Error("failed to open database", "dir", cfg.DataDir, "err", err)
			os.Exit(1)
		}
		db = leveldb
	}
	defer db.Close()

	manager := state.NewManager(db)

	server, err := buildServer(logger, manager, cfg, *devMode)
	if err != nil {
		logger.Error("failed to wire modules", "err", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:              cfg.RPCAddress,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("rpc listening", "addr", cfg.RPCAddress, "dev", *devMode)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "err", err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("rpc server failed", "err", err)
			os.Exit(1)
		}
	}
}

func setupLogger(logFile string) *slog.Logger {
	var out = os.Stdout
	handlerOpts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var handler slog.Handler
	if logFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		handler = slog.NewJSONHandler(rotator, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(out, handlerOpts)
	}
	logger := slog.New(handler).With("service", "minepoold")
	slog.SetDefault(logger)
	return logger
}

func buildServer(logger *slog.Logger, manager *state.Manager, cfg *config.Config, devMode bool) (*rpc.Server, error) {
	liquidityVault, err := config.ParseAddress(cfg.LiquidityVault)
	if err != nil {
		return nil, err
	}
	treasury, err := config.ParseAddress(cfg.Treasury)
	if err != nil {
		return nil, err
	}
	stakingVault, err := config.ParseAddress(cfg.StakingVault)
	if err != nil {
		return nil, err
	}
	claimingVault, err := config.ParseAddress(cfg.ClaimingVault)
	if err != nil {
		return nil, err
	}

	pauses := nativecommon.PauseSet{}
	for _, module := range cfg.PausedModules {
		pauses[module] = true
	}

	tiers := make([]staking.Tier, 0, len(cfg.StakingTiers))
	for _, tier := range cfg.StakingTiers {
		tiers = append(tiers, staking.Tier{LockDays: tier.LockDays, APYBps: tier.APYBps})
	}

	stakingEngine := staking.NewEngine(stakingVault, tiers)
	stakingEngine.SetState(manager)
	stakingEngine.SetPauses(pauses)

	vestingStart := cfg.Vesting.StartAt
	if vestingStart == 0 {
		vestingStart = time.Now().Unix()
	}
	claimingEngine := claiming.NewEngine(claimingVault, claiming.VestingSchedule{
		StartAt:          vestingStart,
		InitialUnlockBps: cfg.Vesting.InitialUnlockBps,
		MonthlyUnlockBps: cfg.Vesting.MonthlyUnlockBps,
	})
	claimingEngine.SetState(manager)
	claimingEngine.SetStaker(stakingEngine, stakingVault)
	claimingEngine.SetPauses(pauses)

	liquidityEngine := liquidity.NewEngine(liquidityVault, treasury)
	liquidityEngine.SetState(manager)
	liquidityEngine.SetRegistry(claimingEngine)
	liquidityEngine.SetPauses(pauses)

	oracle, err := buildOracle(cfg, devMode)
	if err != nil {
		return nil, err
	}
	liquidityEngine.SetOracle(oracle)

	exchange, err := buildExchange(cfg)
	if err != nil {
		return nil, err
	}
	liquidityEngine.SetExchange(exchange)

	return rpc.NewServer(logger, manager, liquidityEngine, stakingEngine, claimingEngine, cfg.AuthToken), nil
}

func buildOracle(cfg *config.Config, devMode bool) (liquidity.PriceOracle, error) {
	if !devMode && cfg.Oracle.URL != "" {
		return liquidity.NewHTTPOracle(cfg.Oracle.URL, time.Duration(cfg.Oracle.TTLSeconds)*time.Second), nil
	}
	price, ok := new(big.Int).SetString(cfg.Oracle.StaticPrice, 10)
	if !ok || price.Sign() <= 0 {
		return nil, fmt.Errorf("invalid static oracle price %q", cfg.Oracle.StaticPrice)
	}
	return &liquidity.StaticOracle{Price: price, Decimals: cfg.Oracle.PriceDecimals}, nil
}

func buildExchange(cfg *config.Config) (liquidity.Exchange, error) {
	ethReserve, ok := new(big.Int).SetString(cfg.Exchange.EthReserve, 10)
	if !ok || ethReserve.Sign() <= 0 {
		return nil, fmt.Errorf("invalid exchange ETH reserve %q", cfg.Exchange.EthReserve)
	}
	tokenReserve, ok := new(big.Int).SetString(cfg.Exchange.TokenReserve, 10)
	if !ok || tokenReserve.Sign() <= 0 {
		return nil, fmt.Errorf("invalid exchange token reserve %q", cfg.Exchange.TokenReserve)
	}
	return liquidity.NewDevExchange(tokenReserve, ethReserve), nil
}
