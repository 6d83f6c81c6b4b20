package vault

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"stableJoin/internal/chain"
	"stableJoin/internal/model"
)

// FetcherConfig holds retry settings for snapshot reads.
type FetcherConfig struct {
	Vault        common.Address
	MaxRetries   int
	RetryBackoff time.Duration
}

// Fetcher reads a pool's state over eth_call and assembles an immutable
// snapshot. The snapshot is trusted as-is by the join core; nothing here
// revalidates it against live chain state.
type Fetcher struct {
	cfg      FetcherConfig
	chain    *chain.Client
	decimals *DecimalsCache
	logger   *zap.Logger
}

// NewFetcher builds a Fetcher with its dependencies.
func NewFetcher(cfg FetcherConfig, chainClient *chain.Client, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		cfg:      cfg,
		chain:    chainClient,
		decimals: NewDecimalsCache(),
		logger:   logger,
	}
}

// FetchPoolSnapshot assembles the snapshot of pool at blockNumber. A zero
// blockNumber reads the latest state.
func (f *Fetcher) FetchPoolSnapshot(ctx context.Context, pool common.Address, blockNumber uint64) (model.PoolSnapshot, error) {
	if f.chain == nil {
		return model.PoolSnapshot{}, fmt.Errorf("chain client is nil")
	}

	var blockPtr *big.Int
	if blockNumber != 0 {
		blockPtr = new(big.Int).SetUint64(blockNumber)
	}

	chainID, err := f.chain.GetChainID(ctx)
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("get chain id: %w", err)
	}

	var header *types.Header
	err = withRetry(ctx, f.cfg.MaxRetries, f.cfg.RetryBackoff, func(ctx context.Context) error {
		var headerErr error
		header, headerErr = f.chain.HeaderByNumber(ctx, blockPtr)
		return headerErr
	})
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("get block header: %w", err)
	}

	poolABI, err := StablePoolABI()
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("parse pool abi: %w", err)
	}

	values, err := f.call(ctx, pool, poolABI, "getPoolId", blockPtr)
	if err != nil {
		return model.PoolSnapshot{}, err
	}
	poolID, ok := values[0].([32]byte)
	if !ok {
		return model.PoolSnapshot{}, fmt.Errorf("getPoolId unexpected type %T", values[0])
	}

	values, err = f.call(ctx, pool, poolABI, "totalSupply", blockPtr)
	if err != nil {
		return model.PoolSnapshot{}, err
	}
	totalSupply, err := asBigInt(values[0])
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("totalSupply: %w", err)
	}

	values, err = f.call(ctx, pool, poolABI, "getSwapFeePercentage", blockPtr)
	if err != nil {
		return model.PoolSnapshot{}, err
	}
	swapFee, err := asBigInt(values[0])
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("getSwapFeePercentage: %w", err)
	}

	values, err = f.call(ctx, pool, poolABI, "getAmplificationParameter", blockPtr)
	if err != nil {
		return model.PoolSnapshot{}, err
	}
	amp, err := asBigInt(values[0])
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("getAmplificationParameter: %w", err)
	}

	vaultABI, err := VaultReadABI()
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("parse vault abi: %w", err)
	}
	values, err = f.call(ctx, f.cfg.Vault, vaultABI, "getPoolTokens", blockPtr, poolID)
	if err != nil {
		return model.PoolSnapshot{}, err
	}
	if len(values) != 3 {
		return model.PoolSnapshot{}, fmt.Errorf("getPoolTokens return size %d", len(values))
	}
	tokenAddrs, ok := values[0].([]common.Address)
	if !ok {
		return model.PoolSnapshot{}, fmt.Errorf("getPoolTokens tokens unexpected type %T", values[0])
	}
	balances, ok := values[1].([]*big.Int)
	if !ok {
		return model.PoolSnapshot{}, fmt.Errorf("getPoolTokens balances unexpected type %T", values[1])
	}
	if len(tokenAddrs) != len(balances) {
		return model.PoolSnapshot{}, fmt.Errorf("getPoolTokens returned %d tokens but %d balances", len(tokenAddrs), len(balances))
	}

	tokensList := make([]string, len(tokenAddrs))
	tokens := make([]model.Token, len(tokenAddrs))
	for i, addr := range tokenAddrs {
		decimals, err := f.fetchDecimals(ctx, addr, blockPtr)
		if err != nil {
			return model.PoolSnapshot{}, fmt.Errorf("decimals of %s: %w", addr.Hex(), err)
		}
		tokensList[i] = addr.Hex()
		tokens[i] = model.Token{
			Address:  addr.Hex(),
			Decimals: decimals,
			Balance:  balances[i].String(),
		}
	}

	snapshot := model.PoolSnapshot{
		ID:          hexutil.Encode(poolID[:]),
		Address:     pool.Hex(),
		ChainID:     chainID.Uint64(),
		BlockNumber: blockNumber,
		BlockTime:   header.Time,
		TokensList:  tokensList,
		Tokens:      tokens,
		TotalShares: totalSupply.String(),
		SwapFee:     swapFee.String(),
		Amp:         amp.String(),
	}

	f.logger.Debug("snapshot fetched",
		zap.String("pool", snapshot.Address),
		zap.String("pool_id", snapshot.ID),
		zap.Int("tokens", len(tokens)),
		zap.Uint64("block", blockNumber),
	)

	return snapshot, nil
}

func (f *Fetcher) fetchDecimals(ctx context.Context, token common.Address, blockPtr *big.Int) (uint8, error) {
	if decimals, ok := f.decimals.Get(token); ok {
		return decimals, nil
	}

	erc20, err := erc20DecimalsABI()
	if err != nil {
		return 0, fmt.Errorf("parse erc20 abi: %w", err)
	}
	values, err := f.call(ctx, token, erc20, "decimals", blockPtr)
	if err != nil {
		return 0, err
	}
	decimals, ok := values[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("decimals unexpected type %T", values[0])
	}

	f.decimals.Set(token, decimals)
	return decimals, nil
}

func (f *Fetcher) call(ctx context.Context, to common.Address, parsed abi.ABI, method string, blockPtr *big.Int, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	msg := ethereum.CallMsg{To: &to, Data: data}
	var resp []byte
	err = withRetry(ctx, f.cfg.MaxRetries, f.cfg.RetryBackoff, func(ctx context.Context) error {
		var callErr error
		resp, callErr = f.chain.CallContract(ctx, msg, blockPtr)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}

	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s returned no values", method)
	}
	return values, nil
}

func asBigInt(value interface{}) (*big.Int, error) {
	out, ok := value.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected type %T", value)
	}
	return out, nil
}
