package chain

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"ammLedger/internal/model"
)

// Some older tokens return bytes32 for symbol and name.
const (
	erc20StringJSON = `[
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "name", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"}
]`
	erc20Bytes32JSON = `[
  {"inputs": [], "name": "symbol", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "name", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"}
]`
)

var (
	erc20Once    sync.Once
	erc20String  abi.ABI
	erc20Bytes32 abi.ABI
	erc20Err     error
)

func erc20ABIs() (abi.ABI, abi.ABI, error) {
	erc20Once.Do(func() {
		erc20String, erc20Err = abi.JSON(strings.NewReader(erc20StringJSON))
		if erc20Err != nil {
			return
		}
		erc20Bytes32, erc20Err = abi.JSON(strings.NewReader(erc20Bytes32JSON))
	})
	return erc20String, erc20Bytes32, erc20Err
}

// CallContract performs an eth_call for a contract method.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return c.ethClient.CallContract(ctx, msg, blockNumber)
}

type contractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// AssetCache caches asset metadata by address.
type AssetCache struct {
	mu   sync.RWMutex
	data map[common.Address]model.AssetMeta
}

func NewAssetCache() *AssetCache {
	return &AssetCache{data: make(map[common.Address]model.AssetMeta)}
}

func (c *AssetCache) Get(address common.Address) (model.AssetMeta, bool) {
	c.mu.RLock()
	meta, ok := c.data[address]
	c.mu.RUnlock()
	return meta, ok
}

func (c *AssetCache) Set(address common.Address, meta model.AssetMeta) {
	c.mu.Lock()
	c.data[address] = meta
	c.mu.Unlock()
}

// FetchAssetMeta loads decimals, symbol and name through ERC20 calls. Only
// decimals is required; symbol and name are best effort.
func FetchAssetMeta(ctx context.Context, caller contractCaller, token common.Address, cache *AssetCache, logger *zap.Logger) (model.AssetMeta, error) {
	if cache != nil {
		if meta, ok := cache.Get(token); ok {
			return meta, nil
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	meta := model.AssetMeta{Address: token.Hex()}

	stringABI, bytes32ABI, err := erc20ABIs()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 abi: %w", err)
	}

	call := func(method string, parsed abi.ABI) ([]interface{}, error) {
		data, err := parsed.Pack(method)
		if err != nil {
			return nil, fmt.Errorf("pack %s: %w", method, err)
		}
		resp, err := caller.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
		if err != nil {
			return nil, fmt.Errorf("call %s: %w", method, err)
		}
		values, err := parsed.Unpack(method, resp)
		if err != nil {
			return nil, fmt.Errorf("unpack %s: %w", method, err)
		}
		return values, nil
	}

	values, err := call("decimals", stringABI)
	if err != nil {
		return meta, err
	}
	decimals, ok := values[0].(uint8)
	if !ok {
		return meta, fmt.Errorf("unsupported decimals type %T", values[0])
	}
	meta.Decimals = decimals

	meta.Symbol = textField(call, stringABI, bytes32ABI, "symbol", token, logger)
	meta.Name = textField(call, stringABI, bytes32ABI, "name", token, logger)

	if cache != nil {
		cache.Set(token, meta)
	}
	return meta, nil
}

func textField(call func(string, abi.ABI) ([]interface{}, error), stringABI, bytes32ABI abi.ABI, method string, token common.Address, logger *zap.Logger) string {
	if values, err := call(method, stringABI); err == nil {
		if s, ok := values[0].(string); ok {
			return s
		}
	}
	values, err := call(method, bytes32ABI)
	if err != nil {
		logger.Debug(method+" call failed", zap.String("token", token.Hex()), zap.Error(err))
		return ""
	}
	if v, ok := values[0].([32]byte); ok {
		return string(bytes.TrimRight(v[:], "\x00"))
	}
	return ""
}
