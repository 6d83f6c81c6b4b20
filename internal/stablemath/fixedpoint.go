package stablemath

import "math/big"

// ONE is the 18-decimal fixed-point unit used by the pool math.
var ONE = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

var oneInt = big.NewInt(1)

func mulDown(a, b *big.Int) *big.Int {
	product := new(big.Int).Mul(a, b)
	return product.Div(product, ONE)
}

func divDown(a, b *big.Int) *big.Int {
	scaled := new(big.Int).Mul(a, ONE)
	return scaled.Div(scaled, b)
}

// complement returns ONE - a, floored at zero.
func complement(a *big.Int) *big.Int {
	if a.Cmp(ONE) >= 0 {
		return new(big.Int)
	}
	return new(big.Int).Sub(ONE, a)
}

// divRound is plain integer division with selectable rounding direction.
func divRound(a, b *big.Int, roundUp bool) *big.Int {
	if !roundUp || a.Sign() == 0 {
		return new(big.Int).Div(a, b)
	}
	out := new(big.Int).Sub(a, oneInt)
	out.Div(out, b)
	return out.Add(out, oneInt)
}

func sum(values []*big.Int) *big.Int {
	total := new(big.Int)
	for _, v := range values {
		total.Add(total, v)
	}
	return total
}
