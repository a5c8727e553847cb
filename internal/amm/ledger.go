package amm

import (
	"fmt"

	"ammLedger/internal/model"
)

// ValidatePool checks the reserve/supply invariants of a snapshot: either
// all three are zero or all three are positive.
func ValidatePool(pool model.Pool) error {
	if pool.IsEmpty() {
		return nil
	}
	if pool.ReserveA == 0 || pool.ReserveB == 0 || pool.LiquiditySupply == 0 {
		return fmt.Errorf("%w: pool %s reserves=(%d,%d) supply=%d",
			ErrCorruptLedger, pool.ID, pool.ReserveA, pool.ReserveB, pool.LiquiditySupply)
	}
	return nil
}

// reserves orders the pool reserves as (in, out) for a swap direction.
func reserves(pool model.Pool, outputIsB bool) (reserveIn, reserveOut uint64) {
	if outputIsB {
		return pool.ReserveA, pool.ReserveB
	}
	return pool.ReserveB, pool.ReserveA
}
