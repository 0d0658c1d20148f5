package chainadapter

import (
	"crypto/sha256"

	"github.com/decred/base58"

	"github.com/mrz1836/sigil-keystore/chainadapter/bitcoin"
	"github.com/mrz1836/sigil-keystore/keystore"
)

// P2PKHAddressDeriver derives legacy Base58Check P2PKH addresses
// (version-byte || Hash160(pubkey) || checksum) from compressed SECP256k1
// public keys. A single version byte serves BCH/BSV/BTC-style mainnet
// P2PKH; a host wanting distinct per-chain version bytes constructs one
// instance per chain.
type P2PKHAddressDeriver struct {
	Version byte
}

// FromPublicKey implements keystore.AddressDeriver.
func (d P2PKHAddressDeriver) FromPublicKey(pub []byte, _ keystore.CoinInfo) (string, error) {
	pubKeyHash := bitcoin.Hash160(pub)

	payload := make([]byte, 0, 1+len(pubKeyHash))
	payload = append(payload, d.Version)
	payload = append(payload, pubKeyHash...)

	checksum := doubleSHA256(payload)[:4]
	full := append(payload, checksum...)
	return base58.Encode(full), nil
}

// IsValid implements keystore.AddressDeriver by round-tripping the Base58
// decode and checksum.
func (d P2PKHAddressDeriver) IsValid(address string) bool {
	decoded := base58.Decode(address)
	if len(decoded) < 5 {
		return false
	}
	payload, checksum := decoded[:len(decoded)-4], decoded[len(decoded)-4:]
	want := doubleSHA256(payload)[:4]
	for i := range checksum {
		if checksum[i] != want[i] {
			return false
		}
	}
	return payload[0] == d.Version
}

func doubleSHA256(data []byte) []byte {
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	return second[:]
}
