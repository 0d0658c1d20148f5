package derive

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha512"
	"fmt"
)

// ed25519Key implements SLIP-0010 ed25519 derivation. SLIP-0010 restricts
// ed25519 to hardened-only derivation (there is no defined way to derive a
// normal child or a public-only extended key), so Derive rejects any
// non-hardened path segment with ErrDeriveOutOfRange.
type ed25519Key struct {
	key       [32]byte // the raw private scalar seed (not an ed25519.PrivateKey encoding)
	chainCode [32]byte
}

const ed25519SeedHMACKey = "ed25519 seed"

func ed25519MasterFromSeed(seed []byte) (Key, error) {
	mac := hmac.New(sha512.New, []byte(ed25519SeedHMACKey))
	mac.Write(seed)
	sum := mac.Sum(nil)

	k := &ed25519Key{}
	copy(k.key[:], sum[:32])
	copy(k.chainCode[:], sum[32:])
	return k, nil
}

func (k *ed25519Key) Curve() Curve { return ED25519 }

func (k *ed25519Key) Derive(path string) (Key, error) {
	children, err := ParsePath(path)
	if err != nil {
		return nil, err
	}

	cur := k
	for _, c := range children {
		if !c.Hardened {
			return nil, ErrDeriveOutOfRange
		}
		cur, err = cur.deriveHardenedChild(c.Index)
		if err != nil {
			return nil, err
		}
	}

	return cur, nil
}

func (k *ed25519Key) deriveHardenedChild(index uint32) (*ed25519Key, error) {
	idx := index + HardenedStart

	data := make([]byte, 0, 37)
	data = append(data, 0x00)
	data = append(data, k.key[:]...)
	data = append(data, byte(idx>>24), byte(idx>>16), byte(idx>>8), byte(idx))

	mac := hmac.New(sha512.New, k.chainCode[:])
	mac.Write(data)
	sum := mac.Sum(nil)

	child := &ed25519Key{}
	copy(child.key[:], sum[:32])
	copy(child.chainCode[:], sum[32:])
	return child, nil
}

func (k *ed25519Key) PrivateKey() ([]byte, error) {
	out := make([]byte, 32)
	copy(out, k.key[:])
	return out, nil
}

func (k *ed25519Key) PublicKey() ([]byte, error) {
	priv := ed25519.NewKeyFromSeed(k.key[:])
	pub, ok := priv.Public().(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("derive: unexpected ed25519 public key type")
	}
	out := make([]byte, len(pub))
	copy(out, pub)
	return out, nil
}
