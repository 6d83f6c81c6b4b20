package join

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

const bpsDenominator = 10000

// ApplySlippage derives the minimum acceptable output from an exact amount
// and a basis-points tolerance: floor(exact * (10000 - bps) / 10000). A
// tolerance of zero returns the exact amount unchanged; larger tolerances
// strictly relax the minimum downward.
func ApplySlippage(exact *big.Int, slippageBps string) (*big.Int, error) {
	bps, err := strconv.ParseUint(strings.TrimSpace(slippageBps), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse slippage: %w", err)
	}
	if bps > bpsDenominator {
		return nil, fmt.Errorf("slippage %d exceeds %d bps", bps, bpsDenominator)
	}
	out := new(big.Int).Mul(exact, big.NewInt(bpsDenominator-int64(bps)))
	return out.Div(out, big.NewInt(bpsDenominator)), nil
}
