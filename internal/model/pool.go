package model

import "time"

// Pool is the ledger record of one constant-product pool. Reserves and
// supply are only ever written by the settlement layer.
type Pool struct {
	ID              string    `json:"id"`
	Authority       string    `json:"authority"`
	AssetA          string    `json:"asset_a"`
	AssetB          string    `json:"asset_b"`
	LPToken         string    `json:"lp_token"`
	ReserveA        uint64    `json:"reserve_a"`
	ReserveB        uint64    `json:"reserve_b"`
	LiquiditySupply uint64    `json:"liquidity_supply"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// IsEmpty reports whether the pool has not received its genesis deposit.
func (p Pool) IsEmpty() bool {
	return p.ReserveA == 0 && p.ReserveB == 0 && p.LiquiditySupply == 0
}
