package poolkey

import (
	"errors"
	"testing"
)

const (
	authority = "0x1111111111111111111111111111111111111111"
	assetA    = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	assetB    = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func TestPoolIDDeterministic(t *testing.T) {
	k1, err := NewKey(authority, assetA, assetB)
	if err != nil {
		t.Fatalf("new key: %v", err)
	}
	k2, err := NewKey(" "+authority+" ", assetA, assetB)
	if err != nil {
		t.Fatalf("new key: %v", err)
	}

	if k1.PoolID() != k2.PoolID() {
		t.Fatalf("pool id not deterministic: %s != %s", k1.PoolID().Hex(), k2.PoolID().Hex())
	}
	if k1.PoolID() == k1.LPToken() {
		t.Fatalf("pool id and lp token must differ")
	}
}

func TestPoolIDOrderMatters(t *testing.T) {
	ab, err := NewKey(authority, assetA, assetB)
	if err != nil {
		t.Fatalf("new key: %v", err)
	}
	ba, err := NewKey(authority, assetB, assetA)
	if err != nil {
		t.Fatalf("new key: %v", err)
	}
	if ab.PoolID() == ba.PoolID() {
		t.Fatalf("ordered pairs must map to different pools")
	}

	other, err := NewKey("0x2222222222222222222222222222222222222222", assetA, assetB)
	if err != nil {
		t.Fatalf("new key: %v", err)
	}
	if ab.PoolID() == other.PoolID() {
		t.Fatalf("authorities must namespace pools")
	}
}

func TestNewKeyInvalid(t *testing.T) {
	if _, err := NewKey("nope", assetA, assetB); !errors.Is(err, ErrInvalidIdentity) {
		t.Fatalf("expected ErrInvalidIdentity, got %v", err)
	}
	if _, err := NewKey(authority, assetA, assetA); !errors.Is(err, ErrSameAsset) {
		t.Fatalf("expected ErrSameAsset, got %v", err)
	}
}

func TestParsePoolID(t *testing.T) {
	k, err := NewKey(authority, assetA, assetB)
	if err != nil {
		t.Fatalf("new key: %v", err)
	}
	id := k.PoolID()

	got, err := ParsePoolID(id.Hex())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != id {
		t.Fatalf("round trip mismatch: %s != %s", got.Hex(), id.Hex())
	}

	for _, bad := range []string{"", "0x1234", assetA, "0x" + string(make([]byte, 64))} {
		if _, err := ParsePoolID(bad); !errors.Is(err, ErrInvalidIdentity) {
			t.Fatalf("expected ErrInvalidIdentity for %q, got %v", bad, err)
		}
	}
}
