package report

import (
	"fmt"
	"math/big"
	"time"

	"ammLedger/internal/model"
)

const (
	feeNumerator   = 3
	feeDenominator = 1000
)

// Accumulator folds the journal events of one pool.
type Accumulator struct {
	PoolID          string
	FirstSeen       time.Time
	LastSeen        time.Time
	Deposits        uint64
	Withdrawals     uint64
	Swaps           uint64
	VolumeA         *big.Int
	VolumeB         *big.Int
	FeeA            *big.Int
	FeeB            *big.Int
	Minted          *big.Int
	Burned          *big.Int
	ReserveA        uint64
	ReserveB        uint64
	LiquiditySupply uint64
}

func NewAccumulator(ev model.Event) *Accumulator {
	return &Accumulator{
		PoolID:    ev.PoolID,
		FirstSeen: ev.Timestamp,
		LastSeen:  ev.Timestamp,
		VolumeA:   big.NewInt(0),
		VolumeB:   big.NewInt(0),
		FeeA:      big.NewInt(0),
		FeeB:      big.NewInt(0),
		Minted:    big.NewInt(0),
		Burned:    big.NewInt(0),
	}
}

func (a *Accumulator) AddEvent(ev model.Event) error {
	if ev.PoolID != a.PoolID {
		return fmt.Errorf("event for pool %s added to %s", ev.PoolID, a.PoolID)
	}
	if ev.Timestamp.Before(a.FirstSeen) {
		a.FirstSeen = ev.Timestamp
	}
	if !ev.Timestamp.Before(a.LastSeen) {
		a.LastSeen = ev.Timestamp
		a.ReserveA = ev.ReserveA
		a.ReserveB = ev.ReserveB
		a.LiquiditySupply = ev.LiquiditySupply
	}

	switch ev.Kind {
	case model.EventAddLiquidity:
		a.Deposits++
		addUint(a.Minted, ev.Liquidity)
	case model.EventRemoveLiquidity:
		a.Withdrawals++
		addUint(a.Burned, ev.Liquidity)
	case model.EventSwap:
		a.applySwap(ev)
	}
	return nil
}

// applySwap books the input side as volume and charges the fee on it; the
// output side is booked as volume only.
func (a *Accumulator) applySwap(ev model.Event) {
	a.Swaps++
	if ev.OutputIsB {
		addUint(a.VolumeA, ev.Input)
		addUint(a.VolumeB, ev.Output)
		a.FeeA.Add(a.FeeA, feeFromAmount(ev.Input))
		return
	}
	addUint(a.VolumeB, ev.Input)
	addUint(a.VolumeA, ev.Output)
	a.FeeB.Add(a.FeeB, feeFromAmount(ev.Input))
}

func addUint(target *big.Int, v uint64) {
	target.Add(target, new(big.Int).SetUint64(v))
}

func feeFromAmount(amountIn uint64) *big.Int {
	fee := new(big.Int).SetUint64(amountIn)
	fee.Mul(fee, big.NewInt(feeNumerator))
	fee.Div(fee, big.NewInt(feeDenominator))
	return fee
}
