package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "poolctl",
		Short:        "Constant-product pool ledger",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file path")
	flags.String("state-file", "./data/ledger.json", "local JSON ledger (used when pg-dsn is empty)")
	flags.String("pg-dsn", "", "Postgres DSN")
	flags.Bool("migrate", true, "create Postgres tables if missing")
	flags.String("journal", "./data/events.jsonl", "event journal JSONL path, empty to disable")
	flags.String("metrics-out", "", "write Prometheus metrics to this textfile on exit")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		newCreateAdminCmd(),
		newCreatePoolCmd(),
		newShowCmd(),
		newDepositCmd(),
		newWithdrawCmd(),
		newSwapCmd(),
		newQuoteCmd(),
		newReportCmd(),
	)
	return root
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
