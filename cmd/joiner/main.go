package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"stableJoin/internal/chain"
	"stableJoin/internal/config"
	"stableJoin/internal/model"
	"stableJoin/internal/storage"
	"stableJoin/internal/storage/postgres"
	"stableJoin/internal/vault"
)

const defaultVault = "0xBA12222222228d8Ba445958a75a0704d566BF2C8"

func main() {
	root := &cobra.Command{
		Use:          "joiner",
		Short:        "Stable pool join payload builder",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Fetch a pool snapshot and write it to a JSON file",
		RunE:  runSnapshot,
	}

	snapshotCmd.Flags().String("rpc", "", "EVM RPC URL")
	snapshotCmd.Flags().String("pool", "", "stable pool address")
	snapshotCmd.Flags().String("vault", defaultVault, "vault address")
	snapshotCmd.Flags().Uint64("block", 0, "block number to pin, 0 means latest")
	snapshotCmd.Flags().String("out", "./data/snapshot.json", "output snapshot path")
	snapshotCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for snapshot upserts")
	snapshotCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	snapshotCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	snapshotCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(snapshotCmd)

	joinCmd := &cobra.Command{
		Use:   "join",
		Short: "Build a join transaction payload",
		RunE:  runJoin,
	}

	joinCmd.Flags().String("rpc", "", "EVM RPC URL (used when no snapshot file is given)")
	joinCmd.Flags().String("snapshot", "", "snapshot JSON file to join against")
	joinCmd.Flags().String("pool", "", "stable pool address")
	joinCmd.Flags().String("vault", defaultVault, "vault address")
	joinCmd.Flags().Uint64("block", 0, "block number to pin, 0 means latest")
	joinCmd.Flags().String("sender", "", "depositor address")
	joinCmd.Flags().StringSlice("amounts", nil, "deposit amounts in token-native units, pool token order")
	joinCmd.Flags().String("slippage", "0", "slippage tolerance in basis points")
	joinCmd.Flags().String("out", "", "optional JSONL path for the built record")
	joinCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for join records")
	joinCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	joinCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	joinCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(joinCmd)

	impactCmd := &cobra.Command{
		Use:   "impact",
		Short: "Compute price impact for a deposit or withdrawal",
		RunE:  runImpact,
	}

	impactCmd.Flags().String("snapshot", "", "snapshot JSON file")
	impactCmd.Flags().String("vault", defaultVault, "vault address")
	impactCmd.Flags().StringSlice("amounts", nil, "amounts in token-native units, pool token order")
	impactCmd.Flags().String("min-bpt-out", "", "minimum pool-share amount the transaction enforces")
	impactCmd.Flags().Bool("exit", false, "evaluate the withdrawal side instead of the deposit side")
	impactCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(impactCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSnapshot(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if !common.IsHexAddress(cfg.Pool) {
		return fmt.Errorf("valid pool address is required")
	}
	if !common.IsHexAddress(cfg.Vault) {
		return fmt.Errorf("valid vault address is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	fetcher := vault.NewFetcher(vault.FetcherConfig{
		Vault:        common.HexToAddress(cfg.Vault),
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, chainClient, logger)

	block := cfg.Block
	if block == 0 {
		latest, err := chainClient.LatestBlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("get latest block: %w", err)
		}
		block = latest
	}

	snapshot, err := fetcher.FetchPoolSnapshot(ctx, common.HexToAddress(cfg.Pool), block)
	if err != nil {
		return fmt.Errorf("fetch snapshot: %w", err)
	}

	if err := storage.NewSnapshotFileStore(cfg.Out).Save(snapshot); err != nil {
		return err
	}

	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.UpsertSnapshots(ctx, []model.PoolSnapshot{snapshot}); err != nil {
			return fmt.Errorf("upsert snapshot: %w", err)
		}
	}

	logger.Info("snapshot written",
		zap.String("pool", snapshot.Address),
		zap.String("pool_id", snapshot.ID),
		zap.Uint64("block", snapshot.BlockNumber),
		zap.Int("tokens", len(snapshot.Tokens)),
		zap.String("out", cfg.Out),
	)

	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
