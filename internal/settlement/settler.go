// Package settlement realizes the quantities quoted by package amm against a
// LedgerStore. Each operation reads a pool snapshot, asks the pricing core
// what to move, and commits the new reserves, supply and position together.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"math/bits"
	"time"

	"go.uber.org/zap"

	"ammLedger/internal/amm"
	"ammLedger/internal/fixedpoint"
	"ammLedger/internal/model"
	"ammLedger/internal/poolkey"
	"ammLedger/internal/storage"
)

var (
	ErrInsufficientPosition = errors.New("insufficient liquidity position")
	ErrLastLiquidity        = errors.New("cannot burn the last outstanding liquidity")
	ErrAdminNotRegistered   = errors.New("admin not registered")
	ErrSameAsset            = poolkey.ErrSameAsset
	ErrInvalidIdentity      = poolkey.ErrInvalidIdentity
)

type DepositRequest struct {
	PoolID     string
	Owner      string
	AmountA    uint64
	AmountB    uint64
	MinAmountA uint64
	MinAmountB uint64
}

type WithdrawRequest struct {
	PoolID     string
	Owner      string
	Liquidity  uint64
	MinAmountA uint64
	MinAmountB uint64
}

type SwapRequest struct {
	PoolID    string
	Trader    string
	Input     uint64
	MinOutput uint64
	OutputIsB bool
}

// Settler applies pool operations to a store.
type Settler struct {
	store   storage.LedgerStore
	journal storage.EventSink
	metrics *Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewSettler wires a Settler. journal and metrics are optional.
func NewSettler(store storage.LedgerStore, journal storage.EventSink, metrics *Metrics, logger *zap.Logger) *Settler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Settler{
		store:   store,
		journal: journal,
		metrics: metrics,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateAdmin registers an authority that may own pools.
func (s *Settler) CreateAdmin(ctx context.Context, authority string) (admin model.Admin, err error) {
	defer s.track("create_admin")(&err)

	addr, err := poolkey.ParseAddress("authority", authority)
	if err != nil {
		return model.Admin{}, err
	}
	admin = model.Admin{Authority: addr.Hex(), CreatedAt: s.now()}
	if err := s.store.CreateAdmin(ctx, admin); err != nil {
		return model.Admin{}, err
	}

	s.logger.Info("admin created", zap.String("authority", admin.Authority))
	s.emit(ctx, model.Event{
		Kind:      model.EventAdminCreated,
		Actor:     admin.Authority,
		Timestamp: admin.CreatedAt,
	})
	return admin, nil
}

// CreatePool registers an empty pool for (authority, assetA, assetB). The
// authority must already be a registered admin.
func (s *Settler) CreatePool(ctx context.Context, authority, assetA, assetB string) (pool model.Pool, err error) {
	defer s.track("create_pool")(&err)

	key, err := poolkey.NewKey(authority, assetA, assetB)
	if err != nil {
		return model.Pool{}, err
	}
	if _, err := s.store.GetAdmin(ctx, key.Authority.Hex()); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Pool{}, fmt.Errorf("%w: %s", ErrAdminNotRegistered, key.Authority.Hex())
		}
		return model.Pool{}, err
	}

	now := s.now()
	pool = model.Pool{
		ID:        key.PoolID().Hex(),
		Authority: key.Authority.Hex(),
		AssetA:    key.AssetA.Hex(),
		AssetB:    key.AssetB.Hex(),
		LPToken:   key.LPToken().Hex(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreatePool(ctx, pool); err != nil {
		return model.Pool{}, err
	}

	s.logger.Info("pool created",
		zap.String("pool", pool.ID),
		zap.String("authority", pool.Authority),
		zap.String("asset_a", pool.AssetA),
		zap.String("asset_b", pool.AssetB),
	)
	s.emit(ctx, model.Event{
		Kind:      model.EventPoolCreated,
		PoolID:    pool.ID,
		Actor:     pool.Authority,
		Timestamp: now,
	})
	return pool, nil
}

// Deposit bootstraps an empty pool or adds proportional liquidity, and
// credits the minted units to the owner.
func (s *Settler) Deposit(ctx context.Context, req DepositRequest) (res amm.DepositResult, pool model.Pool, err error) {
	defer s.track("deposit")(&err)

	poolID, owner, err := normalize(req.PoolID, "owner", req.Owner)
	if err != nil {
		return amm.DepositResult{}, model.Pool{}, err
	}

	now := s.now()
	pool, _, err = s.store.Apply(ctx, poolID, owner, func(pool model.Pool, pos model.Position) (model.Pool, model.Position, error) {
		res, err = amm.Deposit(pool, req.AmountA, req.AmountB, req.MinAmountA, req.MinAmountB)
		if err != nil {
			return pool, pos, err
		}
		if pool.ReserveA, err = add("reserve a", pool.ReserveA, res.AmountA); err != nil {
			return pool, pos, err
		}
		if pool.ReserveB, err = add("reserve b", pool.ReserveB, res.AmountB); err != nil {
			return pool, pos, err
		}
		if pool.LiquiditySupply, err = add("liquidity supply", pool.LiquiditySupply, res.Liquidity); err != nil {
			return pool, pos, err
		}
		if pos.Liquidity, err = add("position", pos.Liquidity, res.Liquidity); err != nil {
			return pool, pos, err
		}
		pool.UpdatedAt = now
		return pool, pos, nil
	})
	if err != nil {
		s.logger.Warn("deposit rejected", zap.Error(err), zap.String("pool", poolID), zap.String("owner", owner))
		return amm.DepositResult{}, model.Pool{}, err
	}

	s.metrics.minted(poolID, res.Liquidity)
	s.logger.Info("deposit",
		zap.String("pool", poolID),
		zap.String("owner", owner),
		zap.Bool("genesis", res.Genesis),
		zap.Uint64("amount_a", res.AmountA),
		zap.Uint64("amount_b", res.AmountB),
		zap.Uint64("liquidity", res.Liquidity),
	)
	s.emit(ctx, model.Event{
		Kind:            model.EventAddLiquidity,
		PoolID:          poolID,
		Actor:           owner,
		AmountA:         res.AmountA,
		AmountB:         res.AmountB,
		Liquidity:       res.Liquidity,
		Genesis:         res.Genesis,
		ReserveA:        pool.ReserveA,
		ReserveB:        pool.ReserveB,
		LiquiditySupply: pool.LiquiditySupply,
		Timestamp:       now,
	})
	return res, pool, nil
}

// Withdraw burns liquidity units held by the owner and pays out both assets.
func (s *Settler) Withdraw(ctx context.Context, req WithdrawRequest) (res amm.WithdrawResult, pool model.Pool, err error) {
	defer s.track("withdraw")(&err)

	poolID, owner, err := normalize(req.PoolID, "owner", req.Owner)
	if err != nil {
		return amm.WithdrawResult{}, model.Pool{}, err
	}

	now := s.now()
	pool, _, err = s.store.Apply(ctx, poolID, owner, func(pool model.Pool, pos model.Position) (model.Pool, model.Position, error) {
		if req.Liquidity > pos.Liquidity {
			return pool, pos, fmt.Errorf("%w: %d > %d", ErrInsufficientPosition, req.Liquidity, pos.Liquidity)
		}
		res, err = amm.RemoveLiquidity(pool, req.Liquidity, req.MinAmountA, req.MinAmountB)
		if err != nil {
			return pool, pos, err
		}
		if res.Liquidity == pool.LiquiditySupply {
			return pool, pos, fmt.Errorf("%w: pool %s supply %d", ErrLastLiquidity, poolID, pool.LiquiditySupply)
		}
		if pool.ReserveA, err = sub("reserve a", pool.ReserveA, res.AmountA); err != nil {
			return pool, pos, err
		}
		if pool.ReserveB, err = sub("reserve b", pool.ReserveB, res.AmountB); err != nil {
			return pool, pos, err
		}
		pool.LiquiditySupply -= res.Liquidity
		pos.Liquidity -= res.Liquidity
		pool.UpdatedAt = now
		return pool, pos, nil
	})
	if err != nil {
		s.logger.Warn("withdraw rejected", zap.Error(err), zap.String("pool", poolID), zap.String("owner", owner))
		return amm.WithdrawResult{}, model.Pool{}, err
	}

	s.metrics.burned(poolID, res.Liquidity)
	s.logger.Info("withdraw",
		zap.String("pool", poolID),
		zap.String("owner", owner),
		zap.Uint64("liquidity", res.Liquidity),
		zap.Uint64("amount_a", res.AmountA),
		zap.Uint64("amount_b", res.AmountB),
	)
	s.emit(ctx, model.Event{
		Kind:            model.EventRemoveLiquidity,
		PoolID:          poolID,
		Actor:           owner,
		AmountA:         res.AmountA,
		AmountB:         res.AmountB,
		Liquidity:       res.Liquidity,
		ReserveA:        pool.ReserveA,
		ReserveB:        pool.ReserveB,
		LiquiditySupply: pool.LiquiditySupply,
		Timestamp:       now,
	})
	return res, pool, nil
}

// Swap exchanges an exact input. OutputIsB selects the A to B direction.
func (s *Settler) Swap(ctx context.Context, req SwapRequest) (res amm.SwapResult, pool model.Pool, err error) {
	defer s.track("swap")(&err)

	poolID, trader, err := normalize(req.PoolID, "trader", req.Trader)
	if err != nil {
		return amm.SwapResult{}, model.Pool{}, err
	}

	now := s.now()
	pool, _, err = s.store.Apply(ctx, poolID, trader, func(pool model.Pool, pos model.Position) (model.Pool, model.Position, error) {
		res, err = amm.Swap(pool, req.Input, req.MinOutput, req.OutputIsB)
		if err != nil {
			return pool, pos, err
		}
		in, out := &pool.ReserveB, &pool.ReserveA
		if res.OutputIsB {
			in, out = &pool.ReserveA, &pool.ReserveB
		}
		if *in, err = add("reserve in", *in, res.Input); err != nil {
			return pool, pos, err
		}
		if *out, err = sub("reserve out", *out, res.Output); err != nil {
			return pool, pos, err
		}
		pool.UpdatedAt = now
		return pool, pos, nil
	})
	if err != nil {
		s.logger.Warn("swap rejected", zap.Error(err), zap.String("pool", poolID), zap.String("trader", trader))
		return amm.SwapResult{}, model.Pool{}, err
	}

	s.metrics.swap(poolID, res.Input, res.Output, res.OutputIsB)
	s.logger.Info("swap",
		zap.String("pool", poolID),
		zap.String("trader", trader),
		zap.Bool("output_is_b", res.OutputIsB),
		zap.Uint64("input", res.Input),
		zap.Uint64("output", res.Output),
	)
	s.emit(ctx, model.Event{
		Kind:            model.EventSwap,
		PoolID:          poolID,
		Actor:           trader,
		Input:           res.Input,
		Output:          res.Output,
		OutputIsB:       res.OutputIsB,
		ReserveA:        pool.ReserveA,
		ReserveB:        pool.ReserveB,
		LiquiditySupply: pool.LiquiditySupply,
		Timestamp:       now,
	})
	return res, pool, nil
}

// Pool returns the current snapshot of one pool.
func (s *Settler) Pool(ctx context.Context, poolID string) (model.Pool, error) {
	id, err := poolkey.ParsePoolID(poolID)
	if err != nil {
		return model.Pool{}, err
	}
	return s.store.GetPool(ctx, id.Hex())
}

// Pools lists pools, optionally restricted to one authority.
func (s *Settler) Pools(ctx context.Context, authority string) ([]model.Pool, error) {
	if authority == "" {
		return s.store.ListPools(ctx, "")
	}
	addr, err := poolkey.ParseAddress("authority", authority)
	if err != nil {
		return nil, err
	}
	return s.store.ListPools(ctx, addr.Hex())
}

// Position returns the owner's liquidity balance in a pool.
func (s *Settler) Position(ctx context.Context, poolID, owner string) (model.Position, error) {
	id, addr, err := normalize(poolID, "owner", owner)
	if err != nil {
		return model.Position{}, err
	}
	return s.store.GetPosition(ctx, id, addr)
}

// emit journals an event after its ledger update has committed. A journal
// failure is logged but does not undo the committed update.
func (s *Settler) emit(ctx context.Context, ev model.Event) {
	if s.journal == nil {
		return
	}
	if err := s.journal.PutEventBatch(ctx, []model.Event{ev}); err != nil {
		s.logger.Error("journal event", zap.Error(err), zap.String("kind", string(ev.Kind)), zap.String("pool", ev.PoolID))
	}
}

func (s *Settler) track(op string) func(*error) {
	timer := s.metrics.timer(op)
	return func(errp *error) {
		timer.ObserveDuration()
		s.metrics.observe(op, *errp)
	}
}

func normalize(poolID, field, actor string) (string, string, error) {
	id, err := poolkey.ParsePoolID(poolID)
	if err != nil {
		return "", "", err
	}
	addr, err := poolkey.ParseAddress(field, actor)
	if err != nil {
		return "", "", err
	}
	return id.Hex(), addr.Hex(), nil
}

func add(field string, x, y uint64) (uint64, error) {
	sum, carry := bits.Add64(x, y, 0)
	if carry != 0 {
		return 0, fmt.Errorf("%s %d + %d: %w", field, x, y, fixedpoint.ErrOverflow)
	}
	return sum, nil
}

func sub(field string, x, y uint64) (uint64, error) {
	diff, borrow := bits.Sub64(x, y, 0)
	if borrow != 0 {
		return 0, fmt.Errorf("%s %d - %d: %w", field, x, y, fixedpoint.ErrUnderflow)
	}
	return diff, nil
}
