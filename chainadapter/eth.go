// Package chainadapter provides example AddressDeriver/ExtraDeriver
// implementations satisfying keystore's external-collaborator interfaces.
// They exist to give the keystore core a working end-to-end path, not as a
// general-purpose chain library: a host integrating its own chains
// registers its own derivers instead.
package chainadapter

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/sha3"

	"github.com/mrz1836/sigil-keystore/keystore"
)

// ETHAddressDeriver derives EIP-55 checksummed Ethereum addresses from
// compressed SECP256k1 public keys.
type ETHAddressDeriver struct{}

// FromPublicKey implements keystore.AddressDeriver.
func (ETHAddressDeriver) FromPublicKey(pub []byte, _ keystore.CoinInfo) (string, error) {
	uncompressed, err := decompressPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("chainadapter: decompressing public key: %w", err)
	}

	hash := sha3.NewLegacyKeccak256()
	hash.Write(uncompressed[1:])
	addrBytes := hash.Sum(nil)[12:]

	return toChecksumAddress(addrBytes)
}

// IsValid implements keystore.AddressDeriver.
func (ETHAddressDeriver) IsValid(address string) bool {
	if len(address) != 42 || !strings.HasPrefix(address, "0x") {
		return false
	}
	for _, c := range address[2:] {
		if !isHexChar(c) {
			return false
		}
	}
	return true
}

// ETHExtraDeriver attaches the derived key's hex-encoded uncompressed
// public key (minus the 0x04 prefix) as Extra, enabling watch-only
// reconstruction of the address without the private key.
type ETHExtraDeriver struct{}

type ethExtra struct {
	PublicKey string `json:"publicKey"`
}

// New implements keystore.ExtraDeriver. It expects derivedPrivateKey to be
// a raw 32-byte SECP256k1 scalar; callers pass whatever
// derive.Key.PrivateKey returned for an ETH-curve account.
func (ETHExtraDeriver) New(_ keystore.CoinInfo, derivedPrivateKey []byte) (json.RawMessage, error) {
	const privKeyLen = 32
	if len(derivedPrivateKey) != privKeyLen {
		return nil, fmt.Errorf("chainadapter: expected %d private key bytes, got %d", privKeyLen, len(derivedPrivateKey))
	}
	priv := secp256k1.PrivKeyFromBytes(derivedPrivateKey)
	defer priv.Zero()
	uncompressed := priv.PubKey().SerializeUncompressed()
	return json.Marshal(ethExtra{PublicKey: hex.EncodeToString(uncompressed[1:])})
}

func isHexChar(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// toChecksumAddress converts a 20-byte address to its EIP-55 checksummed
// hex string.
func toChecksumAddress(addr []byte) (string, error) {
	const ethAddressBytes = 20
	if len(addr) != ethAddressBytes {
		return "", fmt.Errorf("chainadapter: expected %d address bytes, got %d", ethAddressBytes, len(addr))
	}

	addrHex := hex.EncodeToString(addr)

	hash := sha3.NewLegacyKeccak256()
	hash.Write([]byte(addrHex))
	hashBytes := hash.Sum(nil)

	const hexLen = ethAddressBytes * 2
	result := make([]byte, hexLen)
	for i := 0; i < hexLen; i++ {
		result[i] = checksumChar(addrHex[i], hashBytes[i/2], i%2 == 1)
	}

	return "0x" + string(result), nil
}

func checksumChar(c, hashByte byte, isOddPosition bool) byte {
	if c >= '0' && c <= '9' {
		return c
	}
	nibble := hashByte >> 4
	if isOddPosition {
		nibble = hashByte & 0x0F
	}
	if nibble >= 8 {
		return c - 32
	}
	return c
}

// decompressPublicKey expands a 33-byte compressed SECP256k1 point to its
// 65-byte uncompressed form, via the same curve library the derivation
// engine uses rather than hand-rolled field arithmetic.
func decompressPublicKey(compressed []byte) ([]byte, error) {
	pub, err := secp256k1.ParsePubKey(compressed)
	if err != nil {
		return nil, fmt.Errorf("chainadapter: parsing compressed public key: %w", err)
	}
	return pub.SerializeUncompressed(), nil
}
