package amm

import (
	"fmt"

	"ammLedger/internal/fixedpoint"
)

// MinLiquidity is withheld from the genesis mint and never issued.
const MinLiquidity uint64 = 1000

const (
	feeNumerator   = 997
	feeDenominator = 1000
)

// FeeFactor is the share of a swap input that reaches the curve (0.997).
var FeeFactor = mustRatio(feeNumerator, feeDenominator)

func mustRatio(num, den uint64) fixedpoint.UFixed {
	f, err := fixedpoint.FromRatio(num, den)
	if err != nil {
		panic(err)
	}
	return f
}

// QuoteGenesisLiquidity returns floor(sqrt(amountA*amountB)). The caller
// mints the quote minus MinLiquidity.
func QuoteGenesisLiquidity(amountA, amountB uint64) (uint64, error) {
	liquidity := fixedpoint.SqrtMul(fixedpoint.FromUint64(amountA), fixedpoint.FromUint64(amountB)).Floor()
	if liquidity <= MinLiquidity {
		return 0, fmt.Errorf("%w: liquidity %d <= %d", ErrDepositTooSmall, liquidity, MinLiquidity)
	}
	return liquidity, nil
}

// QuoteWithdrawal returns floor(liquidity*reserve/(totalSupply+MinLiquidity)).
// The withheld MinLiquidity stays in the denominator so the reserve can
// never be fully drained.
func QuoteWithdrawal(liquidity, totalSupply, reserve uint64) (uint64, error) {
	denom, err := fixedpoint.FromUint64(totalSupply).Add(fixedpoint.FromUint64(MinLiquidity))
	if err != nil {
		return 0, fmt.Errorf("withdrawal: %w", err)
	}
	amount, err := mulDiv(liquidity, reserve, denom)
	if err != nil {
		return 0, fmt.Errorf("withdrawal: %w", err)
	}
	return amount, nil
}

// QuoteSwapOutput returns floor(input*0.997*reserveOut/(input*0.997+reserveIn)).
func QuoteSwapOutput(input, reserveIn, reserveOut uint64) (uint64, error) {
	inWithFee, err := fixedpoint.FromUint64(input).Mul(FeeFactor)
	if err != nil {
		return 0, fmt.Errorf("swap output: %w", err)
	}
	denominator, err := inWithFee.Add(fixedpoint.FromUint64(reserveIn))
	if err != nil {
		return 0, fmt.Errorf("swap output: %w", err)
	}
	out, err := fixedpoint.MulDiv(inWithFee, fixedpoint.FromUint64(reserveOut), denominator)
	if err != nil {
		return 0, fmt.Errorf("swap output: %w", err)
	}
	return out.Floor(), nil
}

// QuoteProportionalLiquidity returns floor(totalSupply*min(actualA/reserveA, actualB/reserveB)).
// Each side is evaluated as totalSupply*actual/reserve so the smaller ratio
// is not truncated before it is scaled.
func QuoteProportionalLiquidity(totalSupply, actualA, reserveA, actualB, reserveB uint64) (uint64, error) {
	supply := fixedpoint.FromUint64(totalSupply)
	viaA, err := fixedpoint.MulDiv(supply, fixedpoint.FromUint64(actualA), fixedpoint.FromUint64(reserveA))
	if err != nil {
		return 0, fmt.Errorf("proportional liquidity a: %w", err)
	}
	viaB, err := fixedpoint.MulDiv(supply, fixedpoint.FromUint64(actualB), fixedpoint.FromUint64(reserveB))
	if err != nil {
		return 0, fmt.Errorf("proportional liquidity b: %w", err)
	}
	return fixedpoint.Min(viaA, viaB).Floor(), nil
}

// QuoteOptimal returns floor(amount*reserveTo/reserveFrom), the amount of the
// other asset that matches amount at the current pool ratio.
func QuoteOptimal(amount, reserveFrom, reserveTo uint64) (uint64, error) {
	out, err := mulDiv(amount, reserveTo, fixedpoint.FromUint64(reserveFrom))
	if err != nil {
		return 0, fmt.Errorf("optimal amount: %w", err)
	}
	return out, nil
}

func mulDiv(x, y uint64, denom fixedpoint.UFixed) (uint64, error) {
	q, err := fixedpoint.MulDiv(fixedpoint.FromUint64(x), fixedpoint.FromUint64(y), denom)
	if err != nil {
		return 0, err
	}
	return q.Floor(), nil
}
