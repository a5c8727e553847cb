package storage

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ammLedger/internal/model"
)

func seedPool(t *testing.T, store LedgerStore, id string) {
	t.Helper()
	ctx := context.Background()
	if err := store.CreateAdmin(ctx, model.Admin{Authority: "auth"}); err != nil && !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("create admin: %v", err)
	}
	if err := store.CreatePool(ctx, model.Pool{ID: id, Authority: "auth", AssetA: "a", AssetB: "b"}); err != nil {
		t.Fatalf("create pool: %v", err)
	}
}

func credit(amount uint64) Mutation {
	return func(pool model.Pool, pos model.Position) (model.Pool, model.Position, error) {
		pool.ReserveA += amount
		pool.LiquiditySupply += amount
		pos.Liquidity += amount
		return pool, pos, nil
	}
}

func TestMemoryStoreCreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seedPool(t, store, "p1")

	if err := store.CreatePool(ctx, model.Pool{ID: "p1"}); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if err := store.CreateAdmin(ctx, model.Admin{Authority: "auth"}); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists for admin, got %v", err)
	}
	if _, err := store.GetPool(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.GetAdmin(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for admin, got %v", err)
	}

	pos, err := store.GetPosition(ctx, "p1", "alice")
	if err != nil {
		t.Fatalf("get position: %v", err)
	}
	if pos.PoolID != "p1" || pos.Owner != "alice" || pos.Liquidity != 0 {
		t.Fatalf("unexpected empty position: %+v", pos)
	}
}

func TestMemoryStoreListPools(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seedPool(t, store, "p2")
	seedPool(t, store, "p1")
	if err := store.CreatePool(ctx, model.Pool{ID: "p3", Authority: "other"}); err != nil {
		t.Fatalf("create pool: %v", err)
	}

	all, err := store.ListPools(ctx, "")
	if err != nil {
		t.Fatalf("list pools: %v", err)
	}
	if len(all) != 3 || all[0].ID != "p1" || all[1].ID != "p2" || all[2].ID != "p3" {
		t.Fatalf("unexpected pools: %+v", all)
	}

	mine, err := store.ListPools(ctx, "auth")
	if err != nil {
		t.Fatalf("list pools: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("expected 2 pools for auth, got %d", len(mine))
	}
}

func TestMemoryStoreApplyRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seedPool(t, store, "p1")

	if _, _, err := store.Apply(ctx, "p1", "alice", credit(10)); err != nil {
		t.Fatalf("apply: %v", err)
	}

	boom := errors.New("boom")
	_, _, err := store.Apply(ctx, "p1", "alice", func(pool model.Pool, pos model.Position) (model.Pool, model.Position, error) {
		pool.ReserveA = 999
		return pool, pos, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	pool, err := store.GetPool(ctx, "p1")
	if err != nil {
		t.Fatalf("get pool: %v", err)
	}
	if pool.ReserveA != 10 {
		t.Fatalf("failed mutation leaked: reserve %d", pool.ReserveA)
	}
}

func TestMemoryStoreApplyMissingPool(t *testing.T) {
	store := NewMemoryStore()
	if _, _, err := store.Apply(context.Background(), "nope", "alice", credit(1)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreApplySerializes(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seedPool(t, store, "p1")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := store.Apply(ctx, "p1", "alice", credit(1)); err != nil {
				t.Errorf("apply: %v", err)
			}
		}()
	}
	wg.Wait()

	pool, _ := store.GetPool(ctx, "p1")
	pos, _ := store.GetPosition(ctx, "p1", "alice")
	if pool.LiquiditySupply != 50 || pos.Liquidity != 50 {
		t.Fatalf("lost update: supply=%d position=%d", pool.LiquiditySupply, pos.Liquidity)
	}
}
