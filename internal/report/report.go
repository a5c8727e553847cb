// Package report summarizes an event journal per pool.
package report

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"ammLedger/internal/model"
	"ammLedger/internal/storage"
)

// PoolReport is the printable summary of one pool.
type PoolReport struct {
	PoolID          string    `json:"pool_id"`
	FirstSeen       time.Time `json:"first_seen"`
	LastSeen        time.Time `json:"last_seen"`
	Deposits        uint64    `json:"deposits"`
	Withdrawals     uint64    `json:"withdrawals"`
	Swaps           uint64    `json:"swaps"`
	VolumeA         string    `json:"volume_a"`
	VolumeB         string    `json:"volume_b"`
	FeeA            string    `json:"fee_a"`
	FeeB            string    `json:"fee_b"`
	Minted          string    `json:"minted"`
	Burned          string    `json:"burned"`
	ReserveA        uint64    `json:"reserve_a"`
	ReserveB        uint64    `json:"reserve_b"`
	LiquiditySupply uint64    `json:"liquidity_supply"`
	FeeRateA        *string   `json:"fee_rate_a,omitempty"`
	FeeRateB        *string   `json:"fee_rate_b,omitempty"`
	APRA            *string   `json:"apr_a,omitempty"`
	APRB            *string   `json:"apr_b,omitempty"`
}

// Summary is the result of folding a journal.
type Summary struct {
	Total   int          `json:"total"`
	Skipped int          `json:"skipped"`
	Pools   []PoolReport `json:"pools"`
}

// Builder folds events into per-pool accumulators.
type Builder struct {
	poolFilter string
	accs       map[string]*Accumulator
	total      int
	skipped    int
	logger     *zap.Logger
}

// NewBuilder returns a Builder. A non-empty poolFilter keeps only that pool.
func NewBuilder(poolFilter string, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		poolFilter: poolFilter,
		accs:       make(map[string]*Accumulator),
		logger:     logger,
	}
}

// Add folds one event. Events without a pool are counted and skipped.
func (b *Builder) Add(ev model.Event) error {
	b.total++
	if ev.PoolID == "" || (b.poolFilter != "" && ev.PoolID != b.poolFilter) {
		b.skipped++
		return nil
	}
	acc, ok := b.accs[ev.PoolID]
	if !ok {
		acc = NewAccumulator(ev)
		b.accs[ev.PoolID] = acc
	}
	if err := acc.AddEvent(ev); err != nil {
		return fmt.Errorf("aggregate event: %w", err)
	}
	return nil
}

// Summary renders the accumulators, ordered by pool ID.
func (b *Builder) Summary() Summary {
	out := Summary{Total: b.total, Skipped: b.skipped, Pools: make([]PoolReport, 0, len(b.accs))}
	for _, acc := range b.accs {
		out.Pools = append(out.Pools, render(acc))
	}
	sort.Slice(out.Pools, func(i, j int) bool { return out.Pools[i].PoolID < out.Pools[j].PoolID })

	b.logger.Info("report complete",
		zap.Int("total", b.total),
		zap.Int("skipped", b.skipped),
		zap.Int("pools", len(out.Pools)),
	)
	return out
}

// FromJournal folds a JSONL journal file.
func FromJournal(path, poolFilter string, logger *zap.Logger) (Summary, error) {
	b := NewBuilder(poolFilter, logger)
	if err := storage.ReadEvents(path, b.Add); err != nil {
		return Summary{}, err
	}
	return b.Summary(), nil
}

func render(acc *Accumulator) PoolReport {
	rep := PoolReport{
		PoolID:          acc.PoolID,
		FirstSeen:       acc.FirstSeen,
		LastSeen:        acc.LastSeen,
		Deposits:        acc.Deposits,
		Withdrawals:     acc.Withdrawals,
		Swaps:           acc.Swaps,
		VolumeA:         acc.VolumeA.String(),
		VolumeB:         acc.VolumeB.String(),
		FeeA:            acc.FeeA.String(),
		FeeB:            acc.FeeB.String(),
		Minted:          acc.Minted.String(),
		Burned:          acc.Burned.String(),
		ReserveA:        acc.ReserveA,
		ReserveB:        acc.ReserveB,
		LiquiditySupply: acc.LiquiditySupply,
	}

	window := acc.LastSeen.Sub(acc.FirstSeen)
	if rate := computeRate(acc.FeeA, acc.ReserveA); rate != "" {
		rep.FeeRateA = &rate
		if apr := computeAPR(rate, window); apr != "" {
			rep.APRA = &apr
		}
	}
	if rate := computeRate(acc.FeeB, acc.ReserveB); rate != "" {
		rep.FeeRateB = &rate
		if apr := computeAPR(rate, window); apr != "" {
			rep.APRB = &apr
		}
	}
	return rep
}
