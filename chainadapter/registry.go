package chainadapter

import (
	"fmt"
	"sync"

	"github.com/mrz1836/sigil-keystore/derive"
	"github.com/mrz1836/sigil-keystore/keystore"
)

// CoinRegistry is a concurrency-safe, in-memory keystore.CoinRegistry:
// chains register their CoinInfo by symbol, and the keystore core looks
// symbols up at DeriveCoin time. It follows the same RWMutex-guarded map
// shape as registry.Registry's keystore map.
type CoinRegistry struct {
	mu    sync.RWMutex
	coins map[string]keystore.CoinInfo
}

// NewCoinRegistry returns an empty CoinRegistry.
func NewCoinRegistry() *CoinRegistry {
	return &CoinRegistry{coins: make(map[string]keystore.CoinInfo)}
}

// Register adds or replaces the CoinInfo for symbol.
func (r *CoinRegistry) Register(info keystore.CoinInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.coins[info.Symbol] = info
}

// Lookup implements keystore.CoinRegistry.
func (r *CoinRegistry) Lookup(symbol string) (keystore.CoinInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, ok := r.coins[symbol]
	if !ok {
		return keystore.CoinInfo{}, fmt.Errorf("chainadapter: coin %q is not registered", symbol)
	}
	return info, nil
}

// DefaultCoinRegistry returns a CoinRegistry pre-populated with the coins
// this package ships address derivers for: BCH and BTC over legacy P2PKH,
// and ETH over EIP-55 checksummed addresses.
func DefaultCoinRegistry() *CoinRegistry {
	r := NewCoinRegistry()
	r.Register(keystore.CoinInfo{Symbol: "BCH", DerivationPath: "m/44'/145'/0'/0/0", Curve: derive.SECP256k1})
	r.Register(keystore.CoinInfo{Symbol: "BTC", DerivationPath: "m/44'/0'/0'/0/0", Curve: derive.SECP256k1})
	r.Register(keystore.CoinInfo{Symbol: "ETH", DerivationPath: "m/44'/60'/0'/0/0", Curve: derive.SECP256k1})
	return r
}
