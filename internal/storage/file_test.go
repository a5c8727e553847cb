package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"ammLedger/internal/model"
)

func TestFileStorePersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "ledger.json")

	store, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	seedPool(t, store, "p1")
	if _, _, err := store.Apply(ctx, "p1", "alice", credit(42)); err != nil {
		t.Fatalf("apply: %v", err)
	}

	reopened, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if _, err := reopened.GetAdmin(ctx, "auth"); err != nil {
		t.Fatalf("admin lost: %v", err)
	}
	pool, err := reopened.GetPool(ctx, "p1")
	if err != nil {
		t.Fatalf("pool lost: %v", err)
	}
	if pool.ReserveA != 42 || pool.LiquiditySupply != 42 {
		t.Fatalf("unexpected pool: %+v", pool)
	}
	pos, _ := reopened.GetPosition(ctx, "p1", "alice")
	if pos.Liquidity != 42 {
		t.Fatalf("unexpected position: %+v", pos)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestFileStoreFailedMutationNotWritten(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.json")

	store, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	seedPool(t, store, "p1")

	boom := errors.New("boom")
	_, _, err = store.Apply(ctx, "p1", "alice", func(pool model.Pool, pos model.Position) (model.Pool, model.Position, error) {
		pool.ReserveB = 7
		return pool, pos, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	reopened, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	pool, _ := reopened.GetPool(ctx, "p1")
	if pool.ReserveB != 0 {
		t.Fatalf("failed mutation persisted: %+v", pool)
	}
}

func TestFileStoreMissingAndCorrupt(t *testing.T) {
	if _, err := OpenFileStore(""); err == nil {
		t.Fatalf("expected error for empty path")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := OpenFileStore(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestFileStoreSnapshotOrderIsStable(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.json")

	store, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for _, authority := range []string{"carol", "alice", "bob"} {
		if err := store.CreateAdmin(ctx, model.Admin{Authority: authority}); err != nil {
			t.Fatalf("create admin: %v", err)
		}
	}
	seedPool(t, store, "p2")
	seedPool(t, store, "p1")
	for _, owner := range []string{"zed", "amy", "max"} {
		for _, pool := range []string{"p2", "p1"} {
			if _, _, err := store.Apply(ctx, pool, owner, credit(1)); err != nil {
				t.Fatalf("apply: %v", err)
			}
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("parse: %v", err)
	}

	var admins []string
	for _, admin := range snap.Admins {
		admins = append(admins, admin.Authority)
	}
	if want := []string{"alice", "auth", "bob", "carol"}; !reflect.DeepEqual(admins, want) {
		t.Fatalf("admins out of order: %v", admins)
	}

	var positions []string
	for _, pos := range snap.Positions {
		positions = append(positions, pos.PoolID+"/"+pos.Owner)
	}
	want := []string{"p1/amy", "p1/max", "p1/zed", "p2/amy", "p2/max", "p2/zed"}
	if !reflect.DeepEqual(positions, want) {
		t.Fatalf("positions out of order: %v", positions)
	}
}
