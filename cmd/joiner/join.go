package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stableJoin/internal/chain"
	"stableJoin/internal/config"
	"stableJoin/internal/join"
	"stableJoin/internal/model"
	"stableJoin/internal/storage"
	"stableJoin/internal/storage/postgres"
	"stableJoin/internal/vault"
)

func runJoin(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadJoin(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if !common.IsHexAddress(cfg.Sender) {
		return fmt.Errorf("valid sender address is required")
	}
	if len(cfg.Amounts) == 0 {
		return fmt.Errorf("amounts are required")
	}
	if !common.IsHexAddress(cfg.Vault) {
		return fmt.Errorf("valid vault address is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snapshot, err := loadSnapshot(ctx, cfg, logger)
	if err != nil {
		return err
	}

	controller, err := join.New(snapshot, join.NetworkConfig{
		ChainID: snapshot.ChainID,
		Vault:   common.HexToAddress(cfg.Vault),
	}, logger)
	if err != nil {
		return fmt.Errorf("build controller: %w", err)
	}

	result, err := controller.BuildJoin(cfg.Sender, snapshot.TokensList, cfg.Amounts, cfg.Slippage)
	if err != nil {
		return err
	}

	impact, err := controller.CalcPriceImpact(cfg.Amounts, result.MinBPTOut, true)
	if err != nil {
		return err
	}

	record := model.JoinRecord{
		ChainID:     snapshot.ChainID,
		PoolID:      snapshot.ID,
		PoolAddress: snapshot.Address,
		Sender:      common.HexToAddress(cfg.Sender).Hex(),
		AmountsIn:   cfg.Amounts,
		Slippage:    cfg.Slippage,
		MinBPTOut:   result.MinBPTOut,
		PriceImpact: impact,
		To:          result.To,
		Data:        result.Data,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339Nano),
	}

	out, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	fmt.Println(string(out))

	if cfg.Out != "" {
		if err := storage.NewJsonlStorage(cfg.Out).PutJoinBatch([]model.JoinRecord{record}); err != nil {
			return err
		}
	}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.InsertJoinRecords(ctx, []model.JoinRecord{record}); err != nil {
			return fmt.Errorf("insert join record: %w", err)
		}
	}

	logger.Info("join built",
		zap.String("pool", snapshot.Address),
		zap.String("min_bpt_out", result.MinBPTOut),
		zap.String("price_impact", impact),
	)

	return nil
}

func loadSnapshot(ctx context.Context, cfg config.JoinConfig, logger *zap.Logger) (model.PoolSnapshot, error) {
	if cfg.SnapshotPath != "" {
		snapshot, ok, err := storage.NewSnapshotFileStore(cfg.SnapshotPath).Load()
		if err != nil {
			return model.PoolSnapshot{}, err
		}
		if !ok {
			return model.PoolSnapshot{}, fmt.Errorf("snapshot file not found: %s", cfg.SnapshotPath)
		}
		return snapshot, nil
	}

	if cfg.RPCURL == "" {
		return model.PoolSnapshot{}, fmt.Errorf("either a snapshot file or an rpc url is required")
	}
	if !common.IsHexAddress(cfg.Pool) {
		return model.PoolSnapshot{}, fmt.Errorf("valid pool address is required")
	}

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("connect rpc: %w", err)
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
			return model.PoolSnapshot{}, fmt.Errorf("get latest block: %w", err)
		}
		block = latest
	}

	return fetcher.FetchPoolSnapshot(ctx, common.HexToAddress(cfg.Pool), block)
}
