package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"ammLedger/internal/amm"
	"ammLedger/internal/model"
)

// Storage layout of a Uniswap V2 compatible pair.
const (
	slotTotalSupply = 0
	slotToken0      = 6
	slotToken1      = 7
	// uint112 reserve0 | uint112 reserve1 | uint32 blockTimestampLast,
	// packed from the low-order end of the word
	slotReserves = 8
)

var ErrValueOutOfRange = errors.New("on-chain value does not fit in 64 bits")

var mask112 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 112), big.NewInt(1))

// slotReader is the subset of Client used by PairReader.
type slotReader interface {
	GetChainID(ctx context.Context) (*big.Int, error)
	LatestBlockNumber(ctx context.Context) (uint64, error)
	StorageAt(ctx context.Context, account common.Address, slot uint64, blockNumber *big.Int) ([]byte, error)
}

// PairSnapshot is a pair's state at one block, mapped onto a pool record.
type PairSnapshot struct {
	ChainID     uint64
	Pair        common.Address
	BlockNumber uint64
	Timestamp   uint32
	Pool        model.Pool
}

// PairReader reads pair state straight from contract storage.
type PairReader struct {
	client       slotReader
	maxRetries   int
	retryBackoff time.Duration
	logger       *zap.Logger
}

func NewPairReader(client slotReader, maxRetries int, retryBackoff time.Duration, logger *zap.Logger) *PairReader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PairReader{
		client:       client,
		maxRetries:   maxRetries,
		retryBackoff: retryBackoff,
		logger:       logger,
	}
}

// ReadPair reads the chain id, token0, token1, the reserves and the total supply at the
// latest block. The pair's totalSupply includes the locked minimum, so the
// ledger supply is totalSupply - amm.MinLiquidity.
func (r *PairReader) ReadPair(ctx context.Context, pair common.Address) (PairSnapshot, error) {
	var chainID uint64
	err := withRetry(ctx, r.logger, "eth_chainId", r.maxRetries, r.retryBackoff, func(ctx context.Context) error {
		id, err := r.client.GetChainID(ctx)
		if err != nil {
			return err
		}
		chainID, err = toUint64("chainId", id)
		return err
	})
	if err != nil {
		return PairSnapshot{}, fmt.Errorf("chain id: %w", err)
	}

	var latest uint64
	err = withRetry(ctx, r.logger, "eth_blockNumber", r.maxRetries, r.retryBackoff, func(ctx context.Context) error {
		var err error
		latest, err = r.client.LatestBlockNumber(ctx)
		return err
	})
	if err != nil {
		return PairSnapshot{}, fmt.Errorf("block number: %w", err)
	}
	block := new(big.Int).SetUint64(latest)

	token0, err := r.readSlot(ctx, pair, block, slotToken0)
	if err != nil {
		return PairSnapshot{}, err
	}
	token1, err := r.readSlot(ctx, pair, block, slotToken1)
	if err != nil {
		return PairSnapshot{}, err
	}
	reserves, err := r.readSlot(ctx, pair, block, slotReserves)
	if err != nil {
		return PairSnapshot{}, err
	}
	supply, err := r.readUint(ctx, pair, block, slotTotalSupply, "totalSupply")
	if err != nil {
		return PairSnapshot{}, err
	}

	reserve0, reserve1, ts := parseReserves(reserves)
	snap := PairSnapshot{
		ChainID:     chainID,
		Pair:        pair,
		BlockNumber: latest,
		Timestamp:   ts,
		Pool: model.Pool{
			ID:     pair.Hex(),
			AssetA: common.BytesToAddress(token0).Hex(),
			AssetB: common.BytesToAddress(token1).Hex(),
			// the pair contract is its own liquidity token
			LPToken:   pair.Hex(),
			UpdatedAt: time.Unix(int64(ts), 0).UTC(),
		},
	}
	if snap.Pool.ReserveA, err = toUint64("reserve0", reserve0); err != nil {
		return PairSnapshot{}, err
	}
	if snap.Pool.ReserveB, err = toUint64("reserve1", reserve1); err != nil {
		return PairSnapshot{}, err
	}
	if supply > amm.MinLiquidity {
		snap.Pool.LiquiditySupply = supply - amm.MinLiquidity
	}

	r.logger.Info("pair snapshot",
		zap.Uint64("chain_id", chainID),
		zap.String("pair", pair.Hex()),
		zap.Uint64("block", latest),
		zap.Uint64("reserve0", snap.Pool.ReserveA),
		zap.Uint64("reserve1", snap.Pool.ReserveB),
		zap.Uint64("total_supply", supply),
	)
	return snap, nil
}

func (r *PairReader) readSlot(ctx context.Context, pair common.Address, block *big.Int, slot uint64) ([]byte, error) {
	var word []byte
	err := withRetry(ctx, r.logger, "eth_getStorageAt", r.maxRetries, r.retryBackoff, func(ctx context.Context) error {
		var err error
		word, err = r.client.StorageAt(ctx, pair, slot, block)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("storageAt slot %d (pair %s, block %s): %w", slot, pair.Hex(), block, err)
	}
	return word, nil
}

// readUint reads a slot holding a single integer. A value wider than 64
// bits fails on the first attempt.
func (r *PairReader) readUint(ctx context.Context, pair common.Address, block *big.Int, slot uint64, field string) (uint64, error) {
	var value uint64
	err := withRetry(ctx, r.logger, "eth_getStorageAt", r.maxRetries, r.retryBackoff, func(ctx context.Context) error {
		word, err := r.client.StorageAt(ctx, pair, slot, block)
		if err != nil {
			return err
		}
		value, err = toUint64(field, new(big.Int).SetBytes(word))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("storageAt slot %d (pair %s, block %s): %w", slot, pair.Hex(), block, err)
	}
	return value, nil
}

func parseReserves(word []byte) (reserve0, reserve1 *big.Int, timestamp uint32) {
	v := new(big.Int).SetBytes(word)
	reserve0 = new(big.Int).And(v, mask112)
	reserve1 = new(big.Int).And(new(big.Int).Rsh(v, 112), mask112)
	timestamp = uint32(new(big.Int).Rsh(v, 224).Uint64())
	return reserve0, reserve1, timestamp
}

func toUint64(field string, v *big.Int) (uint64, error) {
	if !v.IsUint64() {
		return 0, fmt.Errorf("%w: %s = %s", ErrValueOutOfRange, field, v)
	}
	return v.Uint64(), nil
}
