package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ammLedger/internal/model"
	"ammLedger/internal/settlement"
)

// withSettler runs fn with a signal-aware context and a wired Settler.
func withSettler(cmd *cobra.Command, fn func(ctx context.Context, s *settlement.Settler) (any, error)) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := a.settler(ctx)
	if err != nil {
		return err
	}
	out, err := fn(ctx, s)
	if err != nil {
		return err
	}
	return printJSON(cmd, out)
}

func newCreateAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Register a pool authority",
		RunE: func(cmd *cobra.Command, _ []string) error {
			authority, _ := cmd.Flags().GetString("authority")
			return withSettler(cmd, func(ctx context.Context, s *settlement.Settler) (any, error) {
				return s.CreateAdmin(ctx, authority)
			})
		},
	}
	cmd.Flags().String("authority", "", "authority address")
	_ = cmd.MarkFlagRequired("authority")
	return cmd
}

func newCreatePoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-pool",
		Short: "Create an empty pool for an asset pair",
		RunE: func(cmd *cobra.Command, _ []string) error {
			authority, _ := cmd.Flags().GetString("authority")
			assetA, _ := cmd.Flags().GetString("asset-a")
			assetB, _ := cmd.Flags().GetString("asset-b")
			return withSettler(cmd, func(ctx context.Context, s *settlement.Settler) (any, error) {
				return s.CreatePool(ctx, authority, assetA, assetB)
			})
		},
	}
	cmd.Flags().String("authority", "", "registered authority address")
	cmd.Flags().String("asset-a", "", "asset A address")
	cmd.Flags().String("asset-b", "", "asset B address")
	for _, name := range []string{"authority", "asset-a", "asset-b"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

type poolView struct {
	Pool     model.Pool      `json:"pool"`
	Position *model.Position `json:"position,omitempty"`
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show one pool, or list pools",
		RunE: func(cmd *cobra.Command, _ []string) error {
			poolID, _ := cmd.Flags().GetString("pool")
			owner, _ := cmd.Flags().GetString("owner")
			authority, _ := cmd.Flags().GetString("authority")
			return withSettler(cmd, func(ctx context.Context, s *settlement.Settler) (any, error) {
				if poolID == "" {
					return s.Pools(ctx, authority)
				}
				pool, err := s.Pool(ctx, poolID)
				if err != nil {
					return nil, err
				}
				view := poolView{Pool: pool}
				if owner != "" {
					pos, err := s.Position(ctx, poolID, owner)
					if err != nil {
						return nil, err
					}
					view.Position = &pos
				}
				return view, nil
			})
		},
	}
	cmd.Flags().String("pool", "", "pool id; lists pools when empty")
	cmd.Flags().String("owner", "", "also show this owner's position")
	cmd.Flags().String("authority", "", "only list pools of this authority")
	return cmd
}
