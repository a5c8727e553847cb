// Package poolkey derives the deterministic identifiers used to locate pool
// records: a pool is keyed by (authority, asset A, asset B).
package poolkey

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	poolSeed = []byte("POOL")
	mintSeed = []byte("LP_MINT")

	ErrInvalidIdentity = errors.New("invalid identity")
	ErrSameAsset       = errors.New("asset a and asset b must differ")
)

// Key identifies a pool. The asset order is significant.
type Key struct {
	Authority common.Address
	AssetA    common.Address
	AssetB    common.Address
}

// ParseAddress validates and normalizes a hex identity.
func ParseAddress(field, input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("%w: %s %q", ErrInvalidIdentity, field, input)
	}
	return common.HexToAddress(input), nil
}

// ParsePoolID validates a pool identifier as produced by Key.PoolID.
func ParsePoolID(input string) (common.Hash, error) {
	input = strings.TrimSpace(input)
	raw := strings.TrimPrefix(strings.TrimPrefix(input, "0x"), "0X")
	if len(raw) != 2*common.HashLength {
		return common.Hash{}, fmt.Errorf("%w: pool id %q", ErrInvalidIdentity, input)
	}
	if _, err := hex.DecodeString(raw); err != nil {
		return common.Hash{}, fmt.Errorf("%w: pool id %q", ErrInvalidIdentity, input)
	}
	return common.HexToHash(raw), nil
}

// NewKey parses the three identities of a pool.
func NewKey(authority, assetA, assetB string) (Key, error) {
	auth, err := ParseAddress("authority", authority)
	if err != nil {
		return Key{}, err
	}
	a, err := ParseAddress("asset a", assetA)
	if err != nil {
		return Key{}, err
	}
	b, err := ParseAddress("asset b", assetB)
	if err != nil {
		return Key{}, err
	}
	if a == b {
		return Key{}, fmt.Errorf("%w: %s", ErrSameAsset, a.Hex())
	}
	return Key{Authority: auth, AssetA: a, AssetB: b}, nil
}

// PoolID is keccak256(authority || assetA || assetB || "POOL").
func (k Key) PoolID() common.Hash {
	return crypto.Keccak256Hash(k.Authority.Bytes(), k.AssetA.Bytes(), k.AssetB.Bytes(), poolSeed)
}

// LPToken is keccak256(poolID || "LP_MINT").
func (k Key) LPToken() common.Hash {
	id := k.PoolID()
	return crypto.Keccak256Hash(id.Bytes(), mintSeed)
}
