package join

import (
	"fmt"
	"math/big"
	"strings"
)

// ScaleTo18 converts a base-10 integer amount denominated in the token's
// native precision into the pool's 18-decimal scale. Upscaling is exact
// multiplication by a power of ten; downscaling (decimals > 18) truncates
// toward zero. No floating point is involved at any step.
func ScaleTo18(amount string, decimals uint8) (*big.Int, error) {
	value, ok := new(big.Int).SetString(strings.TrimSpace(amount), 10)
	if !ok {
		return nil, fmt.Errorf("not a base-10 integer: %q", amount)
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("negative amount: %q", amount)
	}
	if decimals <= 18 {
		return value.Mul(value, pow10(18-decimals)), nil
	}
	return value.Quo(value, pow10(decimals-18)), nil
}

func pow10(n uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
