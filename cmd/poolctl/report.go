package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ammLedger/internal/poolkey"
	"ammLedger/internal/report"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize the event journal per pool",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if a.cfg.Journal == "" {
				return fmt.Errorf("journal path is required")
			}
			poolID, _ := cmd.Flags().GetString("pool")
			if poolID != "" {
				id, err := poolkey.ParsePoolID(poolID)
				if err != nil {
					return err
				}
				poolID = id.Hex()
			}

			summary, err := report.FromJournal(a.cfg.Journal, poolID, a.logger)
			if err != nil {
				return err
			}
			return printJSON(cmd, summary)
		},
	}
	cmd.Flags().String("pool", "", "only report this pool id")
	return cmd
}
