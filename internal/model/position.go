package model

// Position is an owner's liquidity-token balance in one pool.
type Position struct {
	PoolID    string `json:"pool_id"`
	Owner     string `json:"owner"`
	Liquidity uint64 `json:"liquidity"`
}
