package model

import "time"

// EventKind names a settled operation.
type EventKind string

const (
	EventAdminCreated    EventKind = "admin_created"
	EventPoolCreated     EventKind = "pool_created"
	EventAddLiquidity    EventKind = "add_liquidity"
	EventRemoveLiquidity EventKind = "remove_liquidity"
	EventSwap            EventKind = "swap"
)

// Event is the journal record of a settled operation. Amounts are in base
// units; reserve and supply fields hold the pool state after settlement.
type Event struct {
	Kind            EventKind `json:"kind"`
	PoolID          string    `json:"pool_id,omitempty"`
	Actor           string    `json:"actor"`
	AmountA         uint64    `json:"amount_a,omitempty"`
	AmountB         uint64    `json:"amount_b,omitempty"`
	Liquidity       uint64    `json:"liquidity,omitempty"`
	Input           uint64    `json:"input,omitempty"`
	Output          uint64    `json:"output,omitempty"`
	OutputIsB       bool      `json:"output_is_b,omitempty"`
	Genesis         bool      `json:"genesis,omitempty"`
	ReserveA        uint64    `json:"reserve_a"`
	ReserveB        uint64    `json:"reserve_b"`
	LiquiditySupply uint64    `json:"liquidity_supply"`
	Timestamp       time.Time `json:"timestamp"`
}
