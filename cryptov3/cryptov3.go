// Package cryptov3 implements the Ethereum-style Web3 keystore v3 encrypted
// payload container: PBKDF2-HMAC-SHA256 key derivation, AES-128-CTR
// encryption, and a Keccak-256 MAC over the derived key and ciphertext.
package cryptov3

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/sha3"
)

// Fixed KDF/cipher parameters. The spec pins these for newly created
// containers; a loaded container may carry a different c, dklen and salt,
// and those are used as stored on decrypt. Its kdf, prf and cipher names
// are not checked: PBKDF2-HMAC-SHA256 and AES-128-CTR are always used.
const (
	kdfIterations = 10240
	kdfKeyLen     = 32
	saltLen       = 32
	ivLen         = 16
	cipherName    = "aes-128-ctr"
	kdfName       = "pbkdf2"
	prfName       = "hmac-sha256"
)

// ErrPasswordIncorrect is returned when the computed MAC does not match the
// stored MAC, meaning the supplied password does not match the one the
// container was encrypted under (or the ciphertext is corrupted).
var ErrPasswordIncorrect = errors.New("password_incorrect")

// hexBytes round-trips a byte slice through JSON as a bare hex string (no
// "0x" prefix), matching the on-disk format in the spec's crypto object.
type hexBytes []byte

func (h hexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(h))
}

func (h *hexBytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("decoding hex bytes: %w", err)
	}
	*h = b
	return nil
}

type cipherParams struct {
	IV hexBytes `json:"iv"`
}

type kdfParams struct {
	C     int      `json:"c"`
	DKLen int      `json:"dklen"`
	PRF   string   `json:"prf"`
	Salt  hexBytes `json:"salt"`
}

// Container is the Web3 v3 "crypto" object: an encrypted payload plus
// everything needed to re-derive the decryption key from a password.
type Container struct {
	CipherText   hexBytes     `json:"ciphertext"`
	CipherParams cipherParams `json:"cipherparams"`
	Cipher       string       `json:"cipher"`
	KDF          string       `json:"kdf"`
	KDFParams    kdfParams    `json:"kdfparams"`
	MAC          hexBytes     `json:"mac"`
}

// maxPlaintextLen bounds the payload New() will encrypt, defending against a
// caller accidentally feeding it something far larger than a mnemonic phrase
// before any KDF work is spent on it.
const maxPlaintextLen = 1 << 20

// New encrypts plaintext under password, generating a fresh random salt and
// IV and deriving the key with the fixed PBKDF2 parameters above.
func New(password string, plaintext []byte) (*Container, error) {
	if len(plaintext) > maxPlaintextLen {
		return nil, fmt.Errorf("cryptov3: plaintext too large (%d bytes)", len(plaintext))
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("cryptov3: generating salt: %w", err)
	}

	iv := make([]byte, ivLen)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("cryptov3: generating iv: %w", err)
	}

	c := &Container{
		Cipher: cipherName,
		KDF:    kdfName,
		KDFParams: kdfParams{
			C:     kdfIterations,
			DKLen: kdfKeyLen,
			PRF:   prfName,
			Salt:  salt,
		},
		CipherParams: cipherParams{IV: iv},
	}

	derivedKey := deriveKey(password, c.KDFParams)

	cipherText, err := aes128CTR(derivedKey[:16], iv, plaintext)
	if err != nil {
		return nil, err
	}
	c.CipherText = cipherText
	c.MAC = computeMAC(derivedKey[16:32], cipherText)

	return c, nil
}

// VerifyPassword reports whether password matches the container without
// decrypting the payload beyond the point needed to know the MAC matches.
func (c *Container) VerifyPassword(password string) bool {
	derivedKey := deriveKey(password, c.KDFParams)
	mac := computeMAC(derivedKey[16:32], c.CipherText)
	return subtle.ConstantTimeCompare(mac, c.MAC) == 1
}

// Decrypt derives the key from password, verifies the MAC, and only then
// decrypts and returns the plaintext. Returns ErrPasswordIncorrect on MAC
// mismatch without ever running AES. The MAC comparison is constant-time so
// timing does not leak how many leading bytes of a guessed password's
// derived key happened to match.
func (c *Container) Decrypt(password string) ([]byte, error) {
	derivedKey := deriveKey(password, c.KDFParams)
	mac := computeMAC(derivedKey[16:32], c.CipherText)
	if subtle.ConstantTimeCompare(mac, c.MAC) != 1 {
		return nil, ErrPasswordIncorrect
	}
	return aes128CTR(derivedKey[:16], c.CipherParams.IV, c.CipherText)
}

// ReEncrypt decrypts with oldPassword and, only on success, builds a fresh
// Container under newPassword. It never mutates c; the caller swaps in the
// returned Container once satisfied, keeping the operation atomic from the
// Store's point of view.
func ReEncrypt(c *Container, oldPassword, newPassword string) (*Container, error) {
	plaintext, err := c.Decrypt(oldPassword)
	if err != nil {
		return nil, err
	}
	defer func() {
		for i := range plaintext {
			plaintext[i] = 0
		}
	}()
	return New(newPassword, plaintext)
}

func deriveKey(password string, params kdfParams) []byte {
	return pbkdf2.Key([]byte(password), params.Salt, params.C, params.DKLen, sha256.New)
}

// computeMAC is Keccak-256 over (derivedKey[16:32] || cipherText), matching
// the Web3 v3 "mac" field definition.
func computeMAC(macKey, cipherText []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(macKey)
	h.Write(cipherText)
	return h.Sum(nil)
}

// aes128CTR runs AES-128 in CTR mode; encryption and decryption are the
// same operation under CTR.
func aes128CTR(key, iv, in []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cryptov3: creating cipher: %w", err)
	}
	out := make([]byte, len(in))
	stream := cipher.NewCTR(block, iv)
	stream.XORKeyStream(out, in)
	return out, nil
}
