package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ammLedger/internal/amm"
	"ammLedger/internal/chain"
	"ammLedger/internal/model"
	"ammLedger/internal/poolkey"
	"ammLedger/internal/report"
)

type quoteOutput struct {
	Source      string              `json:"source"`
	ChainID     uint64              `json:"chain_id,omitempty"`
	BlockNumber uint64              `json:"block_number,omitempty"`
	Pool        model.Pool          `json:"pool"`
	Assets      []assetView         `json:"assets,omitempty"`
	Swap        *amm.SwapResult     `json:"swap,omitempty"`
	Withdraw    *amm.WithdrawResult `json:"withdraw,omitempty"`
	Deposit     *amm.DepositResult  `json:"deposit,omitempty"`
}

type assetView struct {
	model.AssetMeta
	Reserve string `json:"reserve"`
}

type quoteRequest struct {
	swapIn    uint64
	outputIsB bool
	withdraw  uint64
	depositA  uint64
	depositB  uint64
}

func newQuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote swaps, withdrawals and deposits without settling them",
		Long: "Quote against a local pool (--pool) or a live Uniswap V2 compatible pair read " +
			"from contract storage over JSON-RPC (--pair with --rpc).",
		RunE: runQuote,
	}
	cmd.Flags().String("pool", "", "local pool id")
	cmd.Flags().String("pair", "", "on-chain pair address")
	cmd.Flags().String("rpc", "", "JSON-RPC URL for --pair")
	cmd.Flags().Int("max-retries", 5, "maximum retry attempts for RPC reads")
	cmd.Flags().Duration("retry-backoff", 0, "initial retry backoff")
	cmd.Flags().Uint64("swap-in", 0, "quote a swap of this input")
	cmd.Flags().Bool("output-b", true, "swap direction: pay A, receive B")
	cmd.Flags().Uint64("withdraw", 0, "quote burning this many liquidity units")
	cmd.Flags().Uint64("deposit-a", 0, "quote a deposit of this much asset A")
	cmd.Flags().Uint64("deposit-b", 0, "quote a deposit of this much asset B")
	cmd.MarkFlagsMutuallyExclusive("pool", "pair")
	return cmd
}

func runQuote(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	poolID, _ := cmd.Flags().GetString("pool")
	pair, _ := cmd.Flags().GetString("pair")
	var req quoteRequest
	req.swapIn, _ = cmd.Flags().GetUint64("swap-in")
	req.outputIsB, _ = cmd.Flags().GetBool("output-b")
	req.withdraw, _ = cmd.Flags().GetUint64("withdraw")
	req.depositA, _ = cmd.Flags().GetUint64("deposit-a")
	req.depositB, _ = cmd.Flags().GetUint64("deposit-b")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var out quoteOutput
	switch {
	case pair != "":
		out, err = pairSnapshot(ctx, a, pair)
	case poolID != "":
		out, err = localSnapshot(ctx, a, poolID)
	default:
		return errors.New("one of --pool or --pair is required")
	}
	if err != nil {
		return err
	}

	if err := fillQuotes(&out, req); err != nil {
		return err
	}
	return printJSON(cmd, out)
}

func pairSnapshot(ctx context.Context, a *app, pair string) (quoteOutput, error) {
	if a.cfg.RPCURL == "" {
		return quoteOutput{}, fmt.Errorf("rpc url is required")
	}
	addr, err := poolkey.ParseAddress("pair", pair)
	if err != nil {
		return quoteOutput{}, err
	}

	chainClient, err := chain.NewClient(ctx, a.cfg.RPCURL)
	if err != nil {
		return quoteOutput{}, fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	a.logger.Info("quote start",
		zap.String("rpc", a.cfg.RPCURL),
		zap.String("pair", addr.Hex()),
		zap.Int("max_retries", a.cfg.MaxRetries),
	)
	reader := chain.NewPairReader(chainClient, a.cfg.MaxRetries, a.cfg.RetryBackoff, a.logger)
	snap, err := reader.ReadPair(ctx, addr)
	if err != nil {
		return quoteOutput{}, err
	}

	out := quoteOutput{Source: "chain", ChainID: snap.ChainID, BlockNumber: snap.BlockNumber, Pool: snap.Pool}
	cache := chain.NewAssetCache()
	for _, asset := range []struct {
		address string
		reserve uint64
	}{
		{snap.Pool.AssetA, snap.Pool.ReserveA},
		{snap.Pool.AssetB, snap.Pool.ReserveB},
	} {
		meta, err := chain.FetchAssetMeta(ctx, chainClient, common.HexToAddress(asset.address), cache, a.logger)
		if err != nil {
			a.logger.Warn("asset metadata", zap.String("asset", asset.address), zap.Error(err))
			continue
		}
		out.Assets = append(out.Assets, assetView{AssetMeta: meta, Reserve: report.FormatUnits(asset.reserve, meta.Decimals)})
	}
	return out, nil
}

func localSnapshot(ctx context.Context, a *app, poolID string) (quoteOutput, error) {
	s, err := a.settler(ctx)
	if err != nil {
		return quoteOutput{}, err
	}
	pool, err := s.Pool(ctx, poolID)
	if err != nil {
		return quoteOutput{}, err
	}
	return quoteOutput{Source: "ledger", Pool: pool}, nil
}

// fillQuotes runs the requested quotes against one snapshot. At least one
// quote must be requested.
func fillQuotes(out *quoteOutput, req quoteRequest) error {
	if req.swapIn == 0 && req.withdraw == 0 && req.depositA == 0 && req.depositB == 0 {
		return errors.New("nothing to quote: set --swap-in, --withdraw or --deposit-a/--deposit-b")
	}
	if req.swapIn > 0 {
		res, err := amm.Swap(out.Pool, req.swapIn, 0, req.outputIsB)
		if err != nil {
			return err
		}
		out.Swap = &res
	}
	if req.withdraw > 0 {
		res, err := amm.RemoveLiquidity(out.Pool, req.withdraw, 0, 0)
		if err != nil {
			return err
		}
		out.Withdraw = &res
	}
	if req.depositA > 0 || req.depositB > 0 {
		res, err := amm.Deposit(out.Pool, req.depositA, req.depositB, 0, 0)
		if err != nil {
			return err
		}
		out.Deposit = &res
	}
	return nil
}
