// Package bitcoin provides Bitcoin-protocol cryptographic primitives needed
// by P2PKH-style address derivers that cannot be swapped for anything newer
// without breaking compatibility with the chains that use them.
package bitcoin

import (
	"crypto/sha256"

	// RIPEMD160 is deprecated for new designs but required by the Bitcoin
	// protocol (BIP-13, BIP-16): P2PKH addresses are
	// RIPEMD160(SHA256(pubkey)).
	//nolint:gosec,staticcheck // G507,SA1019: required by Bitcoin protocol
	"golang.org/x/crypto/ripemd160"
)

// Hash160 computes RIPEMD160(SHA256(data)), the standard Bitcoin P2PKH
// address hash.
func Hash160(data []byte) []byte {
	sha256Hash := sha256.Sum256(data)
	h := ripemd160.New()
	h.Write(sha256Hash[:])
	return h.Sum(nil)
}
