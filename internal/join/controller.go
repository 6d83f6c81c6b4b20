package join

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"stableJoin/internal/model"
	"stableJoin/internal/stablemath"
)

// NetworkConfig identifies the vault a join targets.
type NetworkConfig struct {
	ChainID uint64
	Vault   common.Address
}

// Controller binds an immutable pool snapshot plus network configuration and
// builds join payloads against it. All methods are pure: no network, no I/O,
// byte-identical output for identical inputs.
type Controller struct {
	snapshot model.PoolSnapshot
	network  NetworkConfig
	logger   *zap.Logger

	poolID         [32]byte
	assets         []common.Address
	scaledBalances []*big.Int
	amp            *big.Int
	swapFee        *big.Int
	totalShares    *big.Int
}

// New validates the snapshot once and returns a controller bound to it.
func New(snapshot model.PoolSnapshot, network NetworkConfig, logger *zap.Logger) (*Controller, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(snapshot.Tokens) == 0 {
		return nil, fmt.Errorf("snapshot has no tokens")
	}
	if len(snapshot.TokensList) != len(snapshot.Tokens) {
		return nil, fmt.Errorf("snapshot token list length %d does not match tokens length %d",
			len(snapshot.TokensList), len(snapshot.Tokens))
	}

	idBytes, err := hexutil.Decode(snapshot.ID)
	if err != nil {
		return nil, fmt.Errorf("parse pool id: %w", err)
	}
	if len(idBytes) != 32 {
		return nil, fmt.Errorf("pool id length %d, want 32 bytes", len(idBytes))
	}
	var poolID [32]byte
	copy(poolID[:], idBytes)

	assets := make([]common.Address, len(snapshot.TokensList))
	for i, addr := range snapshot.TokensList {
		if !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("invalid token address: %s", addr)
		}
		assets[i] = common.HexToAddress(addr)
	}

	scaledBalances := make([]*big.Int, len(snapshot.Tokens))
	for i, token := range snapshot.Tokens {
		balance, err := ScaleTo18(token.Balance, token.Decimals)
		if err != nil {
			return nil, fmt.Errorf("scale balance of %s: %w", token.Address, err)
		}
		scaledBalances[i] = balance
	}

	amp, err := parsePositive(snapshot.Amp, "amp")
	if err != nil {
		return nil, err
	}
	totalShares, err := parseNonNegative(snapshot.TotalShares, "total shares")
	if err != nil {
		return nil, err
	}
	swapFee, err := parseNonNegative(snapshot.SwapFee, "swap fee")
	if err != nil {
		return nil, err
	}
	if swapFee.Cmp(stablemath.ONE) >= 0 {
		return nil, fmt.Errorf("swap fee %s is not below 1", snapshot.SwapFee)
	}

	return &Controller{
		snapshot:       snapshot,
		network:        network,
		logger:         logger,
		poolID:         poolID,
		assets:         assets,
		scaledBalances: scaledBalances,
		amp:            amp,
		swapFee:        swapFee,
		totalShares:    totalShares,
	}, nil
}

// BuildJoin builds the transaction payload for an exact-tokens-in deposit.
// tokenAddresses and amountsIn must cover the pool's full token list in pool
// order; amounts are base-10 integers in each token's native precision.
func (c *Controller) BuildJoin(userAddress string, tokenAddresses, amountsIn []string, slippage string) (model.JoinResult, error) {
	// Cardinality is checked before any scaling or invariant work runs.
	if len(tokenAddresses) != len(c.snapshot.TokensList) || len(amountsIn) != len(tokenAddresses) {
		return model.JoinResult{}, newError(CodeInputLengthMismatch,
			"got %d token addresses and %d amounts for a pool of %d tokens",
			len(tokenAddresses), len(amountsIn), len(c.snapshot.TokensList))
	}
	if !common.IsHexAddress(userAddress) {
		return model.JoinResult{}, newError(CodeInvalidAddress, "invalid user address: %s", userAddress)
	}
	for i, addr := range tokenAddresses {
		if !strings.EqualFold(addr, c.snapshot.TokensList[i]) {
			return model.JoinResult{}, newError(CodeTokenMismatch,
				"token %s at index %d does not match pool token %s", addr, i, c.snapshot.TokensList[i])
		}
	}

	scaledAmounts, err := c.scaleAmounts(amountsIn)
	if err != nil {
		return model.JoinResult{}, err
	}

	exact, err := stablemath.CalcBptOutGivenExactTokensIn(c.amp, c.scaledBalances, scaledAmounts, c.totalShares, c.swapFee)
	if err != nil {
		return model.JoinResult{}, newError(CodeMathError, "compute bpt out: %v", err)
	}

	minBPTOut, err := ApplySlippage(exact, slippage)
	if err != nil {
		return model.JoinResult{}, newError(CodeInvalidAmount, "%v", err)
	}

	userData, err := encodeUserData(scaledAmounts, minBPTOut)
	if err != nil {
		return model.JoinResult{}, fmt.Errorf("encode user data: %w", err)
	}
	data, err := encodeJoinCall(c.poolID, common.HexToAddress(userAddress), c.assets, scaledAmounts, userData)
	if err != nil {
		return model.JoinResult{}, fmt.Errorf("encode join call: %w", err)
	}

	c.logger.Debug("join built",
		zap.String("pool", c.snapshot.Address),
		zap.String("min_bpt_out", minBPTOut.String()),
		zap.String("slippage_bps", slippage),
	)

	return model.JoinResult{
		To:        c.network.Vault.Hex(),
		Data:      hexutil.Encode(data),
		MinBPTOut: minBPTOut.String(),
	}, nil
}

// CalcPriceImpact compares the guaranteed worst-case mint against the
// frictionless valuation of the same deposit: 1 - minBPTOut/ideal for a
// join, minBPTOut/ideal - 1 for an exit. The result is an 18-decimal
// fixed-point fraction.
func (c *Controller) CalcPriceImpact(amountsIn []string, minBPTOut string, isJoin bool) (string, error) {
	if len(amountsIn) != len(c.snapshot.TokensList) {
		return "", newError(CodeInputLengthMismatch,
			"got %d amounts for a pool of %d tokens", len(amountsIn), len(c.snapshot.TokensList))
	}

	scaledAmounts, err := c.scaleAmounts(amountsIn)
	if err != nil {
		return "", err
	}
	minBPT, ok := new(big.Int).SetString(strings.TrimSpace(minBPTOut), 10)
	if !ok || minBPT.Sign() < 0 {
		return "", newError(CodeInvalidAmount, "invalid min bpt out: %q", minBPTOut)
	}

	ideal := new(big.Int)
	for i, amount := range scaledAmounts {
		price, err := stablemath.BptSpotPrice(c.amp, c.scaledBalances, c.totalShares, i)
		if err != nil {
			return "", newError(CodeMathError, "bpt spot price: %v", err)
		}
		term := new(big.Int).Mul(price, amount)
		ideal.Add(ideal, term.Div(term, stablemath.ONE))
	}
	if ideal.Sign() == 0 {
		return "", newError(CodeMathError, "frictionless deposit value is zero")
	}

	ratio := new(big.Int).Mul(minBPT, stablemath.ONE)
	ratio.Div(ratio, ideal)

	impact := new(big.Int)
	if isJoin {
		impact.Sub(stablemath.ONE, ratio)
	} else {
		impact.Sub(ratio, stablemath.ONE)
	}
	return impact.String(), nil
}

// Snapshot returns the bound pool snapshot.
func (c *Controller) Snapshot() model.PoolSnapshot {
	return c.snapshot
}

func (c *Controller) scaleAmounts(amountsIn []string) ([]*big.Int, error) {
	scaled := make([]*big.Int, len(amountsIn))
	for i, amount := range amountsIn {
		value, err := ScaleTo18(amount, c.snapshot.Tokens[i].Decimals)
		if err != nil {
			return nil, newError(CodeInvalidAmount, "amount at index %d: %v", i, err)
		}
		scaled[i] = value
	}
	return scaled, nil
}

func parsePositive(value, name string) (*big.Int, error) {
	parsed, err := parseNonNegative(value, name)
	if err != nil {
		return nil, err
	}
	if parsed.Sign() == 0 {
		return nil, fmt.Errorf("%s must be positive", name)
	}
	return parsed, nil
}

func parseNonNegative(value, name string) (*big.Int, error) {
	parsed, ok := new(big.Int).SetString(strings.TrimSpace(value), 10)
	if !ok || parsed.Sign() < 0 {
		return nil, fmt.Errorf("invalid %s: %q", name, value)
	}
	return parsed, nil
}
