package main

import (
	"context"

	"github.com/spf13/cobra"

	"ammLedger/internal/amm"
	"ammLedger/internal/model"
	"ammLedger/internal/settlement"
)

type depositOutput struct {
	Result amm.DepositResult `json:"result"`
	Pool   model.Pool        `json:"pool"`
}

type withdrawOutput struct {
	Result amm.WithdrawResult `json:"result"`
	Pool   model.Pool         `json:"pool"`
}

type swapOutput struct {
	Result amm.SwapResult `json:"result"`
	Pool   model.Pool     `json:"pool"`
}

func newDepositCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deposit",
		Short: "Deposit both assets; the first deposit bootstraps the pool",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := settlement.DepositRequest{}
			req.PoolID, _ = cmd.Flags().GetString("pool")
			req.Owner, _ = cmd.Flags().GetString("owner")
			req.AmountA, _ = cmd.Flags().GetUint64("amount-a")
			req.AmountB, _ = cmd.Flags().GetUint64("amount-b")
			req.MinAmountA, _ = cmd.Flags().GetUint64("min-a")
			req.MinAmountB, _ = cmd.Flags().GetUint64("min-b")
			return withSettler(cmd, func(ctx context.Context, s *settlement.Settler) (any, error) {
				res, pool, err := s.Deposit(ctx, req)
				return depositOutput{Result: res, Pool: pool}, err
			})
		},
	}
	cmd.Flags().String("pool", "", "pool id")
	cmd.Flags().String("owner", "", "depositor address")
	cmd.Flags().Uint64("amount-a", 0, "maximum amount of asset A")
	cmd.Flags().Uint64("amount-b", 0, "maximum amount of asset B")
	cmd.Flags().Uint64("min-a", 0, "minimum amount of asset A to consume")
	cmd.Flags().Uint64("min-b", 0, "minimum amount of asset B to consume")
	for _, name := range []string{"pool", "owner", "amount-a", "amount-b"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newWithdrawCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Burn liquidity units for both assets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := settlement.WithdrawRequest{}
			req.PoolID, _ = cmd.Flags().GetString("pool")
			req.Owner, _ = cmd.Flags().GetString("owner")
			req.Liquidity, _ = cmd.Flags().GetUint64("liquidity")
			req.MinAmountA, _ = cmd.Flags().GetUint64("min-a")
			req.MinAmountB, _ = cmd.Flags().GetUint64("min-b")
			return withSettler(cmd, func(ctx context.Context, s *settlement.Settler) (any, error) {
				res, pool, err := s.Withdraw(ctx, req)
				return withdrawOutput{Result: res, Pool: pool}, err
			})
		},
	}
	cmd.Flags().String("pool", "", "pool id")
	cmd.Flags().String("owner", "", "liquidity owner address")
	cmd.Flags().Uint64("liquidity", 0, "liquidity units to burn")
	cmd.Flags().Uint64("min-a", 0, "minimum asset A to receive")
	cmd.Flags().Uint64("min-b", 0, "minimum asset B to receive")
	for _, name := range []string{"pool", "owner", "liquidity"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newSwapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Swap an exact input amount",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := settlement.SwapRequest{}
			req.PoolID, _ = cmd.Flags().GetString("pool")
			req.Trader, _ = cmd.Flags().GetString("trader")
			req.Input, _ = cmd.Flags().GetUint64("input")
			req.MinOutput, _ = cmd.Flags().GetUint64("min-output")
			req.OutputIsB, _ = cmd.Flags().GetBool("output-b")
			return withSettler(cmd, func(ctx context.Context, s *settlement.Settler) (any, error) {
				res, pool, err := s.Swap(ctx, req)
				return swapOutput{Result: res, Pool: pool}, err
			})
		},
	}
	cmd.Flags().String("pool", "", "pool id")
	cmd.Flags().String("trader", "", "trader address")
	cmd.Flags().Uint64("input", 0, "exact input amount")
	cmd.Flags().Uint64("min-output", 0, "minimum output amount")
	cmd.Flags().Bool("output-b", true, "pay asset A and receive asset B; false for the reverse")
	for _, name := range []string{"pool", "trader", "input"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
