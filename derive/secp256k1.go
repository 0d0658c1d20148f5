package derive

import (
	"fmt"

	"github.com/decred/dcrd/hdkeychain/v3"
)

// hdNetParams satisfies hdkeychain.NetworkParams with the standard Bitcoin
// mainnet HD version bytes. The version bytes only affect the serialized
// xprv/xpub string prefix, not the key material itself, so one fixed choice
// is sufficient across all curves/coins using this engine.
type hdNetParams struct{}

func (hdNetParams) HDPrivKeyVersion() [4]byte { return [4]byte{0x04, 0x88, 0xAD, 0xE4} }
func (hdNetParams) HDPubKeyVersion() [4]byte  { return [4]byte{0x04, 0x88, 0xB2, 0x1E} }

// secp256k1Key adapts *hdkeychain.ExtendedKey to the Key interface.
type secp256k1Key struct {
	ext *hdkeychain.ExtendedKey
}

func secp256k1MasterFromSeed(seed []byte) (Key, error) {
	ext, err := hdkeychain.NewMaster(seed, hdNetParams{})
	if err != nil {
		return nil, fmt.Errorf("derive: secp256k1 master key: %w", err)
	}
	return &secp256k1Key{ext: ext}, nil
}

func (k *secp256k1Key) Curve() Curve { return SECP256k1 }

func (k *secp256k1Key) Derive(path string) (Key, error) {
	children, err := ParsePath(path)
	if err != nil {
		return nil, err
	}

	cur := k.ext
	for _, c := range children {
		idx := c.Index
		if c.Hardened {
			idx += HardenedStart
		}
		child, err := cur.ChildBIP32Std(idx)
		if err != nil {
			if err == hdkeychain.ErrDeriveHardFromPublic {
				return nil, ErrDeriveOutOfRange
			}
			return nil, fmt.Errorf("derive: secp256k1 child derivation: %w", err)
		}
		cur = child
	}

	return &secp256k1Key{ext: cur}, nil
}

func (k *secp256k1Key) PrivateKey() ([]byte, error) {
	if !k.ext.IsPrivate() {
		return nil, ErrDeriveOutOfRange
	}
	serialized, err := k.ext.SerializedPrivKey()
	if err != nil {
		return nil, fmt.Errorf("derive: serializing secp256k1 private key: %w", err)
	}
	out := make([]byte, len(serialized))
	copy(out, serialized)
	return out, nil
}

func (k *secp256k1Key) PublicKey() ([]byte, error) {
	pub := k.ext.SerializedPubKey()
	out := make([]byte, len(pub))
	copy(out, pub)
	return out, nil
}
