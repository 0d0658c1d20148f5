package keystore

import (
	"encoding/json"

	"github.com/mrz1836/sigil-keystore/derive"
)

// CoinInfo names a coin and the BIP-32 path/curve it derives under. A
// CoinRegistry hands these out by symbol; a keystore consumes one per
// DeriveCoin call.
type CoinInfo struct {
	Symbol         string
	DerivationPath string
	Curve          derive.Curve
}

// AddressDeriver turns a derived public key into a chain-formatted address
// string, and validates address strings of its chain. Implementations are
// chain-specific external collaborators — the core never hardcodes an
// address format.
type AddressDeriver interface {
	FromPublicKey(pub []byte, coin CoinInfo) (string, error)
	IsValid(address string) bool
}

// ExtraDeriver computes the opaque chain-specific Extra payload attached to
// a newly derived Account (e.g. an extended public key enabling watch-only
// derivation). Returning nil is valid and yields no Extra field.
type ExtraDeriver interface {
	New(coin CoinInfo, derivedPrivateKey []byte) (json.RawMessage, error)
}

// CoinRegistry resolves a coin symbol to its CoinInfo. Hosts register chains
// they support; the core only ever consumes the interface.
type CoinRegistry interface {
	Lookup(symbol string) (CoinInfo, error)
}
