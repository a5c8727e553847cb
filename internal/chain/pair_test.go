package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"ammLedger/internal/amm"
)

type fakeEth struct {
	chainID     uint64
	blockNumber uint64
	storage     map[common.Address]map[common.Hash][]byte

	mu       sync.Mutex
	failures int
	calls    int
}

func (f *fakeEth) ChainId(ctx context.Context) (*hexutil.Big, error) {
	return (*hexutil.Big)(new(big.Int).SetUint64(f.chainID)), nil
}

func (f *fakeEth) BlockNumber(ctx context.Context) (hexutil.Uint64, error) {
	return hexutil.Uint64(f.blockNumber), nil
}

func (f *fakeEth) GetStorageAt(ctx context.Context, addr common.Address, position common.Hash, _ gethrpc.BlockNumberOrHash) (hexutil.Bytes, error) {
	f.mu.Lock()
	f.calls++
	if f.failures > 0 {
		f.failures--
		f.mu.Unlock()
		return nil, errors.New("upstream unavailable")
	}
	f.mu.Unlock()

	if m, ok := f.storage[addr]; ok {
		if v, ok := m[position]; ok {
			return hexutil.Bytes(v), nil
		}
	}
	return hexutil.Bytes(make([]byte, 32)), nil
}

func newInprocClient(t *testing.T, fe *fakeEth) *Client {
	t.Helper()
	srv := gethrpc.NewServer()
	if err := srv.RegisterName("eth", fe); err != nil {
		t.Fatalf("register rpc service: %v", err)
	}
	c := NewClientFromRPC(gethrpc.DialInProc(srv))
	t.Cleanup(func() {
		c.Close()
		srv.Stop()
	})
	return c
}

func word(v *big.Int) []byte {
	out := make([]byte, 32)
	b := v.Bytes()
	copy(out[32-len(b):], b)
	return out
}

func packReserves(r0, r1 *big.Int, ts uint32) []byte {
	v := new(big.Int).SetUint64(uint64(ts))
	v.Lsh(v, 112)
	v.Or(v, r1)
	v.Lsh(v, 112)
	v.Or(v, r0)
	return word(v)
}

func slotKey(slot uint64) common.Hash {
	return common.BigToHash(new(big.Int).SetUint64(slot))
}

var (
	pairAddr = common.HexToAddress("0x0000000000000000000000000000000000000abc")
	token0   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	token1   = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

func pairStorage(r0, r1, supply *big.Int) map[common.Address]map[common.Hash][]byte {
	return map[common.Address]map[common.Hash][]byte{
		pairAddr: {
			slotKey(slotTotalSupply): word(supply),
			slotKey(slotToken0):      word(new(big.Int).SetBytes(token0.Bytes())),
			slotKey(slotToken1):      word(new(big.Int).SetBytes(token1.Bytes())),
			slotKey(slotReserves):    packReserves(r0, r1, 1_700_000_000),
		},
	}
}

func TestReadPair(t *testing.T) {
	fe := &fakeEth{
		chainID:     1,
		blockNumber: 123,
		storage:     pairStorage(big.NewInt(1_000_000), big.NewInt(4_000_000), big.NewInt(2_000_000)),
	}
	reader := NewPairReader(newInprocClient(t, fe), 0, time.Millisecond, nil)

	snap, err := reader.ReadPair(context.Background(), pairAddr)
	if err != nil {
		t.Fatalf("read pair: %v", err)
	}
	if snap.ChainID != 1 || snap.BlockNumber != 123 || snap.Timestamp != 1_700_000_000 {
		t.Fatalf("unexpected block info: %+v", snap)
	}
	pool := snap.Pool
	if pool.AssetA != token0.Hex() || pool.AssetB != token1.Hex() {
		t.Fatalf("unexpected tokens: %s %s", pool.AssetA, pool.AssetB)
	}
	if pool.ReserveA != 1_000_000 || pool.ReserveB != 4_000_000 {
		t.Fatalf("unexpected reserves: %d %d", pool.ReserveA, pool.ReserveB)
	}
	if pool.LiquiditySupply != 2_000_000-amm.MinLiquidity {
		t.Fatalf("unexpected supply: %d", pool.LiquiditySupply)
	}

	// the snapshot feeds straight into the pricing core
	out, err := amm.Swap(pool, 1000, 0, true)
	if err != nil {
		t.Fatalf("swap quote: %v", err)
	}
	if out.Output != 3984 {
		t.Fatalf("unexpected swap output: %d", out.Output)
	}
}

func TestReadPairRetries(t *testing.T) {
	fe := &fakeEth{
		blockNumber: 1,
		storage:     pairStorage(big.NewInt(10), big.NewInt(20), big.NewInt(5000)),
		failures:    2,
	}
	reader := NewPairReader(newInprocClient(t, fe), 3, time.Millisecond, nil)

	snap, err := reader.ReadPair(context.Background(), pairAddr)
	if err != nil {
		t.Fatalf("read pair: %v", err)
	}
	if snap.Pool.ReserveA != 10 {
		t.Fatalf("unexpected reserve: %d", snap.Pool.ReserveA)
	}
	if fe.calls != 6 {
		t.Fatalf("expected 6 storage calls (2 failures + 4 slots), got %d", fe.calls)
	}
}

func TestReadPairGivesUp(t *testing.T) {
	fe := &fakeEth{blockNumber: 1, failures: 10}
	reader := NewPairReader(newInprocClient(t, fe), 1, time.Millisecond, nil)

	if _, err := reader.ReadPair(context.Background(), pairAddr); err == nil {
		t.Fatalf("expected error after retries exhausted")
	}
	if fe.calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", fe.calls)
	}
}

func TestReadPairOutOfRange(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), 100)
	fe := &fakeEth{
		blockNumber: 1,
		storage:     pairStorage(huge, big.NewInt(1), big.NewInt(5000)),
	}
	reader := NewPairReader(newInprocClient(t, fe), 0, time.Millisecond, nil)

	_, err := reader.ReadPair(context.Background(), pairAddr)
	if !errors.Is(err, ErrValueOutOfRange) {
		t.Fatalf("expected ErrValueOutOfRange, got %v", err)
	}
}

func TestReadPairEmpty(t *testing.T) {
	fe := &fakeEth{blockNumber: 1}
	reader := NewPairReader(newInprocClient(t, fe), 0, time.Millisecond, nil)

	snap, err := reader.ReadPair(context.Background(), pairAddr)
	if err != nil {
		t.Fatalf("read pair: %v", err)
	}
	if !snap.Pool.IsEmpty() {
		t.Fatalf("expected empty pool, got %+v", snap.Pool)
	}
}

func TestReadPairSupplyOutOfRangeNotRetried(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), 80)
	fe := &fakeEth{
		blockNumber: 1,
		storage:     pairStorage(big.NewInt(10), big.NewInt(20), huge),
	}
	reader := NewPairReader(newInprocClient(t, fe), 3, time.Millisecond, nil)

	_, err := reader.ReadPair(context.Background(), pairAddr)
	if !errors.Is(err, ErrValueOutOfRange) {
		t.Fatalf("expected ErrValueOutOfRange, got %v", err)
	}
	if fe.calls != 4 {
		t.Fatalf("expected one read per slot, got %d", fe.calls)
	}
}

func TestWithRetryStopsOnContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := withRetry(ctx, nil, "test", 5, time.Hour, func(context.Context) error {
		attempts++
		cancel()
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

type codedError struct{ code int }

func (e codedError) Error() string { return fmt.Sprintf("rpc error %d", e.code) }
func (e codedError) ErrorCode() int { return e.code }

func TestWithRetrySkipsPermanentErrors(t *testing.T) {
	testCases := []struct {
		name string
		err  error
	}{
		{name: "deadline", err: fmt.Errorf("call: %w", context.DeadlineExceeded)},
		{name: "canceled", err: context.Canceled},
		{name: "out of range", err: fmt.Errorf("%w: reserve", ErrValueOutOfRange)},
		{name: "method not found", err: codedError{code: -32601}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			attempts := 0
			err := withRetry(context.Background(), nil, "test", 5, time.Millisecond, func(context.Context) error {
				attempts++
				return tc.err
			})
			if !errors.Is(err, tc.err) {
				t.Fatalf("expected %v, got %v", tc.err, err)
			}
			if attempts != 1 {
				t.Fatalf("expected 1 attempt, got %d", attempts)
			}
		})
	}
}

func TestWithRetryLogsEachAttempt(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	attempts := 0
	err := withRetry(context.Background(), zap.New(core), "eth_getStorageAt", 3, time.Millisecond, func(context.Context) error {
		attempts++
		if attempts < 3 {
			return codedError{code: -32000}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := logs.FilterMessage("rpc call failed, retrying").All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 retry logs, got %d", len(entries))
	}
	for i, entry := range entries {
		fields := entry.ContextMap()
		if fields["op"] != "eth_getStorageAt" {
			t.Fatalf("unexpected op field: %v", fields["op"])
		}
		if fields["attempt"] != int64(i+1) {
			t.Fatalf("unexpected attempt field: %v", fields["attempt"])
		}
		want := time.Millisecond << i
		if fields["delay"] != want {
			t.Fatalf("expected delay %s, got %v", want, fields["delay"])
		}
	}
}
