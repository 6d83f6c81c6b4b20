package stablemath

import (
	"errors"
	"fmt"
	"math/big"
)

// AmpPrecision is the scale the amplification coefficient is stored at.
const AmpPrecision = 1000

// maxIterations bounds the invariant solve; callers never see a partially
// converged value.
const maxIterations = 255

var (
	ErrNotConverged  = errors.New("stable invariant did not converge")
	ErrZeroSupply    = errors.New("pool has zero total supply")
	ErrZeroInvariant = errors.New("pool invariant is zero")
	ErrZeroBalance   = errors.New("pool balance is zero")
)

// CalculateInvariant solves the StableSwap invariant D for the given
// balances by fixed-point iteration:
//
//	A * n^n * sum(x_i) + D = A * D * n^n + D^(n+1) / (n^n * prod(x_i))
//
// Balances must be upscaled to 18 decimals. amp carries AmpPrecision extra
// digits. Convergence is |D - Dprev| <= 1; hitting the iteration ceiling is
// an error.
func CalculateInvariant(amp *big.Int, balances []*big.Int, roundUp bool) (*big.Int, error) {
	total := sum(balances)
	if total.Sign() == 0 {
		return new(big.Int), nil
	}
	for _, balance := range balances {
		if balance.Sign() == 0 {
			return nil, ErrZeroBalance
		}
	}

	n := int64(len(balances))
	nBig := big.NewInt(n)
	nPlusOne := big.NewInt(n + 1)
	ampPrec := big.NewInt(AmpPrecision)
	ampTimesTotal := new(big.Int).Mul(amp, nBig)

	invariant := new(big.Int).Set(total)
	prev := new(big.Int)

	for i := 0; i < maxIterations; i++ {
		pD := new(big.Int).Mul(balances[0], nBig)
		for j := 1; j < len(balances); j++ {
			pD.Mul(pD, balances[j])
			pD.Mul(pD, nBig)
			pD = divRound(pD, invariant, roundUp)
		}
		prev.Set(invariant)

		num := new(big.Int).Mul(nBig, invariant)
		num.Mul(num, invariant)
		feeTerm := new(big.Int).Mul(ampTimesTotal, total)
		feeTerm.Mul(feeTerm, pD)
		num.Add(num, divRound(feeTerm, ampPrec, roundUp))

		den := new(big.Int).Mul(nPlusOne, invariant)
		ampTerm := new(big.Int).Sub(ampTimesTotal, ampPrec)
		ampTerm.Mul(ampTerm, pD)
		den.Add(den, divRound(ampTerm, ampPrec, !roundUp))

		invariant = divRound(num, den, roundUp)

		diff := new(big.Int).Sub(invariant, prev)
		if diff.CmpAbs(oneInt) <= 0 {
			return invariant, nil
		}
	}

	return nil, ErrNotConverged
}

// CalcBptOutGivenExactTokensIn computes the exact pool-share mint for a
// multi-token deposit. A proportional swap fee is charged on the portion of
// each deposit that deviates from the pool's current composition; the mint is
// totalSupply * (D'/D - 1), rounded down.
func CalcBptOutGivenExactTokensIn(amp *big.Int, balances, amountsIn []*big.Int, totalSupply, swapFee *big.Int) (*big.Int, error) {
	if len(amountsIn) != len(balances) {
		return nil, fmt.Errorf("amounts length %d does not match balances length %d", len(amountsIn), len(balances))
	}
	if totalSupply.Sign() == 0 {
		return nil, ErrZeroSupply
	}

	sumBalances := sum(balances)
	if sumBalances.Sign() == 0 {
		return nil, ErrZeroInvariant
	}

	// Weighted average of the per-token balance growth, used to split each
	// deposit into a proportional part and a taxable remainder.
	ratiosWithFee := make([]*big.Int, len(balances))
	invariantRatioWithFees := new(big.Int)
	for i, balance := range balances {
		if balance.Sign() == 0 {
			return nil, ErrZeroBalance
		}
		grown := new(big.Int).Add(balance, amountsIn[i])
		ratiosWithFee[i] = divDown(grown, balance)
		weight := divDown(balance, sumBalances)
		invariantRatioWithFees.Add(invariantRatioWithFees, mulDown(ratiosWithFee[i], weight))
	}

	feeMultiplier := complement(swapFee)
	newBalances := make([]*big.Int, len(balances))
	for i, balance := range balances {
		if ratiosWithFee[i].Cmp(invariantRatioWithFees) > 0 {
			nonTaxable := new(big.Int)
			if invariantRatioWithFees.Cmp(ONE) > 0 {
				growth := new(big.Int).Sub(invariantRatioWithFees, ONE)
				nonTaxable = mulDown(balance, growth)
			}
			taxable := new(big.Int).Sub(amountsIn[i], nonTaxable)
			if taxable.Sign() < 0 {
				taxable.SetInt64(0)
			}
			newBalances[i] = new(big.Int).Add(balance, nonTaxable)
			newBalances[i].Add(newBalances[i], mulDown(taxable, feeMultiplier))
		} else {
			newBalances[i] = new(big.Int).Add(balance, amountsIn[i])
		}
	}

	currentInvariant, err := CalculateInvariant(amp, balances, true)
	if err != nil {
		return nil, err
	}
	if currentInvariant.Sign() == 0 {
		return nil, ErrZeroInvariant
	}
	newInvariant, err := CalculateInvariant(amp, newBalances, false)
	if err != nil {
		return nil, err
	}

	invariantRatio := divDown(newInvariant, currentInvariant)
	if invariantRatio.Cmp(ONE) <= 0 {
		return new(big.Int), nil
	}
	growth := new(big.Int).Sub(invariantRatio, ONE)
	return mulDown(totalSupply, growth), nil
}

// BptSpotPrice returns the marginal pool-share value of one unit of token
// tokenIndex, as supply/D times the partial derivative of D. This is the
// frictionless valuation used for price impact.
func BptSpotPrice(amp *big.Int, balances []*big.Int, totalSupply *big.Int, tokenIndex int) (*big.Int, error) {
	if tokenIndex < 0 || tokenIndex >= len(balances) {
		return nil, fmt.Errorf("token index %d out of range for %d balances", tokenIndex, len(balances))
	}

	d, err := CalculateInvariant(amp, balances, true)
	if err != nil {
		return nil, err
	}
	if d.Sign() == 0 {
		return nil, ErrZeroInvariant
	}

	n := int64(len(balances))
	nBig := big.NewInt(n)

	// dP = D^(n+1) / (n^n * prod(x_j))
	dP := new(big.Int).Set(d)
	for _, balance := range balances {
		if balance.Sign() == 0 {
			return nil, ErrZeroBalance
		}
		dP.Mul(dP, d)
		dP.Div(dP, new(big.Int).Mul(nBig, balance))
	}

	// dD/dx_i = (Ann/ampPrec + dP/x_i) / (Ann/ampPrec + (n+1)*dP/D - 1)
	ampTerm := new(big.Int).Mul(amp, nBig)
	ampTerm.Mul(ampTerm, ONE)
	ampTerm.Div(ampTerm, big.NewInt(AmpPrecision))

	num := new(big.Int).Add(ampTerm, divDown(dP, balances[tokenIndex]))

	den := new(big.Int).Mul(big.NewInt(n+1), dP)
	den = divDown(den, d)
	den.Add(den, ampTerm)
	den.Sub(den, ONE)

	partial := divDown(num, den)
	price := new(big.Int).Mul(totalSupply, partial)
	return price.Div(price, d), nil
}
