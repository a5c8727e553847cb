package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ammLedger/internal/config"
	"ammLedger/internal/settlement"
	"ammLedger/internal/storage"
	"ammLedger/internal/storage/postgres"
)

// app holds what one command invocation needs. Stores are opened on demand.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	closers  []func()
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger}, nil
}

// settler opens the configured store and journal and wires a Settler with
// metrics.
func (a *app) settler(ctx context.Context) (*settlement.Settler, error) {
	store, sink, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}

	a.registry = prometheus.NewRegistry()
	metrics, err := settlement.NewMetrics(a.registry)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	return settlement.NewSettler(store, sink, metrics, a.logger), nil
}

func (a *app) openStore(ctx context.Context) (storage.LedgerStore, storage.EventSink, error) {
	var sinks storage.MultiSink
	if a.cfg.Journal != "" {
		sinks = append(sinks, storage.NewJsonlJournal(a.cfg.Journal))
	}

	if a.cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, a.cfg.PGDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		if a.cfg.Migrate {
			if err := store.Migrate(ctx); err != nil {
				return nil, nil, err
			}
		}
		a.logger.Info("ledger store", zap.String("backend", "postgres"))
		return store, append(sinks, store), nil
	}

	store, err := storage.OpenFileStore(a.cfg.StateFile)
	if err != nil {
		return nil, nil, err
	}
	a.logger.Info("ledger store", zap.String("backend", "file"), zap.String("path", a.cfg.StateFile))
	if len(sinks) == 0 {
		return store, nil, nil
	}
	return store, sinks, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	if a.cfg.MetricsOut != "" && a.registry != nil {
		if err := prometheus.WriteToTextfile(a.cfg.MetricsOut, a.registry); err != nil {
			a.logger.Warn("write metrics", zap.Error(err), zap.String("path", a.cfg.MetricsOut))
		}
	}
	_ = a.logger.Sync()
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
