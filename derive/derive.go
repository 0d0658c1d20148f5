// Package derive implements deterministic key derivation over multiple
// elliptic curves behind a single typed interface, so that a caller cannot
// accidentally mix key material from different curves at a signing callsite.
package derive

import (
	"errors"
	"fmt"
)

// Curve identifies the elliptic curve (or curve family) a key belongs to.
type Curve string

// Supported curve tags. SR25519 is recognized but not implemented: no
// derivation or signing is possible for it, and FromSeed/Derive fail with
// ErrCurveNotSupported.
const (
	SECP256k1 Curve = "SECP256k1"
	ED25519   Curve = "ED25519"
	SR25519   Curve = "SR25519"
)

// Kind selects the derivation scheme. BIP32 is the only one currently
// defined; the type exists so additional schemes (e.g. a future SLIP-0010
// variant with non-hardened ed25519 support) can be added without changing
// call signatures.
type Kind string

// BIP32 is the standard hierarchical-deterministic derivation scheme.
const BIP32 Kind = "BIP32"

// Errors returned by this package. Compare with errors.Is.
var (
	ErrInvalidDerivationPath = errors.New("invalid_derivation_path")
	ErrCurveNotSupported     = errors.New("curve_not_supported")
	ErrDeriveOutOfRange      = errors.New("derive_out_of_range")
)

// Key is a typed deterministic private key: an extended key capable of
// deriving children along a BIP-32-style path, and of yielding a leaf
// private/public key pair.
type Key interface {
	// Curve reports which curve this key belongs to.
	Curve() Curve

	// Derive applies path (see ParsePath) relative to this key, returning a
	// new extended key. The receiver is left unmodified.
	Derive(path string) (Key, error)

	// PrivateKey returns the raw (non-extended) private key bytes. The
	// caller owns the returned slice and must zero it after use.
	PrivateKey() ([]byte, error)

	// PublicKey returns the public key bytes in the curve's canonical
	// encoding (compressed SECP256k1, raw ED25519).
	PublicKey() ([]byte, error)
}

// FromSeed builds the master extended key for curve from a BIP-39 seed.
// kind must be BIP32; other kinds are reserved for future use.
func FromSeed(kind Kind, curve Curve, seed []byte) (Key, error) {
	if kind != BIP32 {
		return nil, fmt.Errorf("derive: unsupported kind %q", kind)
	}
	switch curve {
	case SECP256k1:
		return secp256k1MasterFromSeed(seed)
	case ED25519:
		return ed25519MasterFromSeed(seed)
	case SR25519:
		return nil, ErrCurveNotSupported
	default:
		return nil, ErrCurveNotSupported
	}
}
