package amm

import (
	"fmt"

	"ammLedger/internal/model"
)

// DepositResult is what the settlement layer must realize for a deposit:
// move AmountA and AmountB into the pool and mint Liquidity to the depositor.
// Locked is the genesis portion that is withheld and never minted.
type DepositResult struct {
	AmountA   uint64 `json:"amount_a"`
	AmountB   uint64 `json:"amount_b"`
	Liquidity uint64 `json:"liquidity"`
	Locked    uint64 `json:"locked,omitempty"`
	Genesis   bool   `json:"genesis"`
}

// WithdrawResult is what the settlement layer must realize for a
// redemption: burn Liquidity and pay out AmountA and AmountB.
type WithdrawResult struct {
	Liquidity uint64 `json:"liquidity"`
	AmountA   uint64 `json:"amount_a"`
	AmountB   uint64 `json:"amount_b"`
}

// SwapResult is what the settlement layer must realize for a swap.
type SwapResult struct {
	Input     uint64 `json:"input"`
	Output    uint64 `json:"output"`
	OutputIsB bool   `json:"output_is_b"`
}

// Bootstrap quotes the genesis deposit of an empty pool.
func Bootstrap(pool model.Pool, amountA, amountB uint64) (DepositResult, error) {
	if err := ValidatePool(pool); err != nil {
		return DepositResult{}, err
	}
	if !pool.IsEmpty() {
		return DepositResult{}, fmt.Errorf("bootstrap %s: %w", pool.ID, ErrPoolInitialized)
	}
	if amountA == 0 || amountB == 0 {
		return DepositResult{}, fmt.Errorf("bootstrap %s: %w", pool.ID, ErrZeroAmount)
	}

	liquidity, err := QuoteGenesisLiquidity(amountA, amountB)
	if err != nil {
		return DepositResult{}, fmt.Errorf("bootstrap %s: %w", pool.ID, err)
	}

	return DepositResult{
		AmountA:   amountA,
		AmountB:   amountB,
		Liquidity: liquidity - MinLiquidity,
		Locked:    MinLiquidity,
		Genesis:   true,
	}, nil
}

// AddLiquidity quotes a proportional deposit into a pool that already holds
// reserves.
func AddLiquidity(pool model.Pool, amountA, amountB, minAmountA, minAmountB uint64) (DepositResult, error) {
	if err := ValidatePool(pool); err != nil {
		return DepositResult{}, err
	}
	if pool.IsEmpty() {
		return DepositResult{}, fmt.Errorf("add liquidity %s: %w", pool.ID, ErrPoolNotInitialized)
	}
	if amountA == 0 || amountB == 0 {
		return DepositResult{}, fmt.Errorf("add liquidity %s: %w", pool.ID, ErrZeroAmount)
	}

	plan, err := PlanDeposit(pool.ReserveA, pool.ReserveB, pool.LiquiditySupply, amountA, amountB, minAmountA, minAmountB)
	if err != nil {
		return DepositResult{}, fmt.Errorf("add liquidity %s: %w", pool.ID, err)
	}

	return DepositResult{
		AmountA:   plan.AmountA,
		AmountB:   plan.AmountB,
		Liquidity: plan.Liquidity,
	}, nil
}

// Deposit bootstraps an empty pool and adds proportional liquidity
// otherwise. The minimums only apply to proportional deposits.
func Deposit(pool model.Pool, amountA, amountB, minAmountA, minAmountB uint64) (DepositResult, error) {
	if pool.IsEmpty() {
		return Bootstrap(pool, amountA, amountB)
	}
	return AddLiquidity(pool, amountA, amountB, minAmountA, minAmountB)
}

// RemoveLiquidity quotes a redemption of liquidity units.
func RemoveLiquidity(pool model.Pool, liquidity, minAmountA, minAmountB uint64) (WithdrawResult, error) {
	if err := ValidatePool(pool); err != nil {
		return WithdrawResult{}, err
	}
	if liquidity == 0 {
		return WithdrawResult{}, fmt.Errorf("remove liquidity %s: %w", pool.ID, ErrZeroAmount)
	}
	if liquidity > pool.LiquiditySupply {
		return WithdrawResult{}, fmt.Errorf("remove liquidity %s: %w: %d > %d",
			pool.ID, ErrInsufficientLiquidity, liquidity, pool.LiquiditySupply)
	}

	amountA, err := QuoteWithdrawal(liquidity, pool.LiquiditySupply, pool.ReserveA)
	if err != nil {
		return WithdrawResult{}, fmt.Errorf("remove liquidity %s: %w", pool.ID, err)
	}
	amountB, err := QuoteWithdrawal(liquidity, pool.LiquiditySupply, pool.ReserveB)
	if err != nil {
		return WithdrawResult{}, fmt.Errorf("remove liquidity %s: %w", pool.ID, err)
	}
	if amountA < minAmountA {
		return WithdrawResult{}, fmt.Errorf("remove liquidity %s: %w: %d < %d", pool.ID, ErrInsufficientOutputTokenA, amountA, minAmountA)
	}
	if amountB < minAmountB {
		return WithdrawResult{}, fmt.Errorf("remove liquidity %s: %w: %d < %d", pool.ID, ErrInsufficientOutputTokenB, amountB, minAmountB)
	}

	return WithdrawResult{Liquidity: liquidity, AmountA: amountA, AmountB: amountB}, nil
}

// Swap quotes an exact-input swap. outputIsB selects the A→B direction.
func Swap(pool model.Pool, input, minOutput uint64, outputIsB bool) (SwapResult, error) {
	if err := ValidatePool(pool); err != nil {
		return SwapResult{}, err
	}
	if pool.ReserveA == 0 || pool.ReserveB == 0 {
		return SwapResult{}, fmt.Errorf("swap %s: %w", pool.ID, ErrEmptyReserves)
	}
	if input == 0 {
		return SwapResult{}, fmt.Errorf("swap %s: %w", pool.ID, ErrZeroAmount)
	}

	reserveIn, reserveOut := reserves(pool, outputIsB)
	output, err := QuoteSwapOutput(input, reserveIn, reserveOut)
	if err != nil {
		return SwapResult{}, fmt.Errorf("swap %s: %w", pool.ID, err)
	}
	if output < minOutput {
		return SwapResult{}, fmt.Errorf("swap %s: %w: %d < %d", pool.ID, ErrInsufficientOutputAmount, output, minOutput)
	}

	return SwapResult{Input: input, Output: output, OutputIsB: outputIsB}, nil
}
