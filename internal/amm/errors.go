package amm

import (
	"errors"

	"ammLedger/internal/fixedpoint"
)

var (
	// ErrDepositTooSmall is returned when a genesis deposit does not exceed MinLiquidity.
	ErrDepositTooSmall = errors.New("deposit too small")
	// ErrInsufficientInputTokenA is returned when the planner's fallback branch
	// finds that the supplied amount of A was never binding.
	ErrInsufficientInputTokenA = errors.New("insufficient input token a")
	// ErrInsufficientOutputTokenA is returned when a computed amount of A is below the caller's minimum.
	ErrInsufficientOutputTokenA = errors.New("insufficient output token a")
	// ErrInsufficientOutputTokenB is returned when a computed amount of B is below the caller's minimum.
	ErrInsufficientOutputTokenB = errors.New("insufficient output token b")
	// ErrInsufficientOutputAmount is returned when a swap output is below the caller's minimum.
	ErrInsufficientOutputAmount = errors.New("insufficient output amount")
	// ErrArithmetic is the fixed-point failure (overflow or division by zero).
	ErrArithmetic = fixedpoint.ErrArithmetic

	ErrZeroAmount            = errors.New("amount must be greater than zero")
	ErrPoolInitialized       = errors.New("pool already initialized")
	ErrPoolNotInitialized    = errors.New("pool not initialized")
	ErrEmptyReserves         = errors.New("empty reserves")
	ErrInsufficientLiquidity = errors.New("liquidity exceeds supply")
	ErrCorruptLedger         = errors.New("corrupt pool ledger")
)
