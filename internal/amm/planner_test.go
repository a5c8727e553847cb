package amm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanDeposit(t *testing.T) {
	const (
		reserveA = 1_000_000
		reserveB = 4_000_000
		supply   = 1_999_000
	)

	testCases := []struct {
		name        string
		amountA     uint64
		amountB     uint64
		minA        uint64
		minB        uint64
		expected    DepositPlan
		expectedErr error
	}{
		{
			name:     "optimal b equals supplied b",
			amountA:  500,
			amountB:  2000,
			expected: DepositPlan{AmountA: 500, AmountB: 2000, Liquidity: 999},
		},
		{
			name:     "falls back to b",
			amountA:  3000,
			amountB:  4000,
			expected: DepositPlan{AmountA: 1000, AmountB: 4000, Liquidity: 1999},
		},
		{
			name:        "minimum b forces fallback",
			amountA:     1000,
			amountB:     5000,
			minB:        4500,
			expectedErr: ErrInsufficientInputTokenA,
		},
		{
			name:        "fallback a below minimum",
			amountA:     3000,
			amountB:     4000,
			minA:        1001,
			expectedErr: ErrInsufficientOutputTokenA,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := PlanDeposit(reserveA, reserveB, supply, tc.amountA, tc.amountB, tc.minA, tc.minB)
			if tc.expectedErr != nil {
				require.ErrorIs(t, err, tc.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestPlanDepositOverflow(t *testing.T) {
	_, err := PlanDeposit(1, 1<<40, 1000, 1<<40, 1<<62, 0, 0)
	require.ErrorIs(t, err, ErrArithmetic)
}
