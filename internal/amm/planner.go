package amm

import "fmt"

// DepositPlan is the pair of amounts a deposit actually consumes and the
// liquidity it mints.
type DepositPlan struct {
	AmountA   uint64
	AmountB   uint64
	Liquidity uint64
}

// PlanDeposit reconciles the requested amounts against the pool ratio for a
// pool that already holds reserves. Asset A is tried as the binding side
// first; if the matching B is too large or below minAmountB, all of B is
// used and A is derived from it.
func PlanDeposit(reserveA, reserveB, totalSupply, amountA, amountB, minAmountA, minAmountB uint64) (DepositPlan, error) {
	optimalB, err := QuoteOptimal(amountA, reserveA, reserveB)
	if err != nil {
		return DepositPlan{}, err
	}

	actualA, actualB := amountA, optimalB
	if optimalB > amountB || optimalB < minAmountB {
		optimalA, err := QuoteOptimal(amountB, reserveB, reserveA)
		if err != nil {
			return DepositPlan{}, err
		}
		if optimalA >= amountA {
			return DepositPlan{}, fmt.Errorf("%w: optimal %d >= supplied %d", ErrInsufficientInputTokenA, optimalA, amountA)
		}
		if optimalA < minAmountA {
			return DepositPlan{}, fmt.Errorf("%w: optimal %d < minimum %d", ErrInsufficientOutputTokenA, optimalA, minAmountA)
		}
		actualA, actualB = optimalA, amountB
	}

	liquidity, err := QuoteProportionalLiquidity(totalSupply, actualA, reserveA, actualB, reserveB)
	if err != nil {
		return DepositPlan{}, err
	}

	return DepositPlan{AmountA: actualA, AmountB: actualB, Liquidity: liquidity}, nil
}
