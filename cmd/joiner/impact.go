package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stableJoin/internal/config"
	"stableJoin/internal/join"
	"stableJoin/internal/storage"
)

func runImpact(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadImpact(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.SnapshotPath == "" {
		return fmt.Errorf("snapshot file is required")
	}
	if len(cfg.Amounts) == 0 {
		return fmt.Errorf("amounts are required")
	}
	if cfg.MinBPTOut == "" {
		return fmt.Errorf("min-bpt-out is required")
	}
	if !common.IsHexAddress(cfg.Vault) {
		return fmt.Errorf("valid vault address is required")
	}

	snapshot, ok, err := storage.NewSnapshotFileStore(cfg.SnapshotPath).Load()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("snapshot file not found: %s", cfg.SnapshotPath)
	}

	controller, err := join.New(snapshot, join.NetworkConfig{
		ChainID: snapshot.ChainID,
		Vault:   common.HexToAddress(cfg.Vault),
	}, logger)
	if err != nil {
		return fmt.Errorf("build controller: %w", err)
	}

	impact, err := controller.CalcPriceImpact(cfg.Amounts, cfg.MinBPTOut, !cfg.Exit)
	if err != nil {
		return err
	}

	fmt.Println(impact)

	logger.Info("price impact computed",
		zap.String("pool", snapshot.Address),
		zap.String("impact", impact),
		zap.Bool("exit", cfg.Exit),
	)

	return nil
}
