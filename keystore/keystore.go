package keystore

import (
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/tyler-smith/go-bip39"

	"github.com/mrz1836/sigil-keystore/cryptov3"
	"github.com/mrz1836/sigil-keystore/derive"
	"github.com/mrz1836/sigil-keystore/internal/secure"
)

// mnemonicEntropyBits selects a 12-word mnemonic, matching the spec's test
// vector length.
const mnemonicEntropyBits = 128

// cacheState is the transient material present only while a Keystore is
// unlocked. Its presence (non-nil) is the unlock/lock discriminant.
type cacheState struct {
	mnemonic *secure.Bytes
	seed     *secure.Bytes
	// keys caches the account-prefix extended key per account address, not
	// the leaf: hardened derivation dominates cost and leaf derivation from
	// a cached prefix is cheap.
	keys map[string]derive.Key
}

// Keystore is an in-process HD keystore: a Store plus, while unlocked, the
// decrypted mnemonic/seed and a per-account derivation cache. All mutation
// and cache access goes through mu, satisfying the single-writer contract a
// host registry composes with its own directory lock.
type Keystore struct {
	mu    sync.RWMutex
	store Store
	cache *cacheState
}

// New creates a fresh Store with a freshly generated mnemonic, encrypted
// under password, and returns it Locked.
func New(password string, meta Metadata) (*Keystore, error) {
	entropy, err := bip39.NewEntropy(mnemonicEntropyBits)
	if err != nil {
		return nil, fmt.Errorf("keystore: generating entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, fmt.Errorf("keystore: generating mnemonic: %w", err)
	}
	return FromMnemonic(mnemonic, password, meta)
}

// FromMnemonic validates mnemonic and builds a fresh Store around it,
// encrypted under password. Returned Locked.
func FromMnemonic(mnemonic, password string, meta Metadata) (*Keystore, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		if typos := DetectTypos(mnemonic); len(typos) > 0 {
			return nil, newError(KindInvalidMnemonic, string(KindInvalidMnemonic)+": "+FormatTypoSuggestions(typos), nil)
		}
		return nil, ErrInvalidMnemonic
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("keystore: generating id: %w", err)
	}

	crypto, err := cryptov3.New(password, []byte(mnemonic))
	if err != nil {
		return nil, fmt.Errorf("keystore: encrypting mnemonic: %w", err)
	}

	store := Store{
		ID:             id.String(),
		Version:        StoreVersion,
		Crypto:         crypto,
		ActiveAccounts: []Account{},
		Meta:           meta,
	}
	return &Keystore{store: store}, nil
}

// FromStore wraps an already-persisted Store, Locked. Used by a registry
// reconstructing keystores from disk.
func FromStore(store Store) *Keystore {
	return &Keystore{store: store}
}

// ID returns the Store's id.
func (ks *Keystore) ID() string {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	return ks.store.ID
}

// Snapshot returns a copy of the underlying Store, safe to serialise. Cache
// material is never included: Store carries no secret in cleartext.
func (ks *Keystore) Snapshot() Store {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	accounts := make([]Account, len(ks.store.ActiveAccounts))
	copy(accounts, ks.store.ActiveAccounts)
	s := ks.store
	s.ActiveAccounts = accounts
	return s
}

// IsUnlocked reports whether the cache is currently populated.
func (ks *Keystore) IsUnlocked() bool {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	return ks.cache != nil
}

// VerifyPassword reports whether password matches the Store's crypto
// container. Valid in either lock state.
func (ks *Keystore) VerifyPassword(password string) bool {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	return ks.store.Crypto.VerifyPassword(password)
}

// Unlock decrypts the Store's mnemonic under password and populates the
// cache. On failure the keystore is left exactly as it was. A decrypted
// payload that is not valid UTF-8 or not a checksum-valid BIP-39 mnemonic is
// rejected with ErrInvalidMnemonic even though the password's MAC matched —
// a corrupt-but-password-correct container must not be treated as unlocked.
func (ks *Keystore) Unlock(password string) error {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	if ks.cache != nil {
		return nil
	}

	plaintext, err := ks.store.Crypto.Decrypt(password)
	if err != nil {
		return ErrPasswordIncorrect
	}

	mnemonic := string(plaintext)
	secure.Wipe(plaintext)

	if !utf8.ValidString(mnemonic) || !bip39.IsMnemonicValid(mnemonic) {
		return ErrInvalidMnemonic
	}

	seed := bip39.NewSeed(mnemonic, "")
	ks.cache = &cacheState{
		mnemonic: secure.FromSlice([]byte(mnemonic)),
		seed:     secure.FromSlice(seed),
		keys:     make(map[string]derive.Key),
	}
	secure.Wipe(seed)
	return nil
}

// Lock drops the cache, wiping the mnemonic and seed buffers.
func (ks *Keystore) Lock() {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	if ks.cache == nil {
		return
	}
	ks.cache.mnemonic.Destroy()
	ks.cache.seed.Destroy()
	ks.cache = nil
}

// Mnemonic returns the cached decrypted mnemonic. Requires Unlocked.
func (ks *Keystore) Mnemonic() (string, error) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	if ks.cache == nil {
		return "", ErrKeystoreLocked
	}
	return string(ks.cache.mnemonic.Bytes()), nil
}

// Seed returns a copy of the cached BIP-39 seed. Requires Unlocked. The
// caller owns the returned slice and should wipe it after use.
func (ks *Keystore) Seed() ([]byte, error) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	if ks.cache == nil {
		return nil, ErrKeystoreLocked
	}
	out := make([]byte, ks.cache.seed.Len())
	copy(out, ks.cache.seed.Bytes())
	return out, nil
}

// DeriveCoin derives a leaf key at coin.DerivationPath, computes its address
// via addrDeriver, and appends an Account. If an Account with the same
// (coin, address) already exists it is returned unchanged (idempotent).
// extraDeriver may be nil, in which case Extra is left empty.
func (ks *Keystore) DeriveCoin(coin CoinInfo, addrDeriver AddressDeriver, extraDeriver ExtraDeriver) (*Account, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	if ks.cache == nil {
		return nil, ErrKeystoreLocked
	}

	master, err := derive.FromSeed(derive.BIP32, coin.Curve, ks.cache.seed.Bytes())
	if err != nil {
		return nil, wrapDeriveErr(err)
	}
	leaf, err := master.Derive(coin.DerivationPath)
	if err != nil {
		return nil, wrapDeriveErr(err)
	}
	pub, err := leaf.PublicKey()
	if err != nil {
		return nil, wrapDeriveErr(err)
	}
	address, err := addrDeriver.FromPublicKey(pub, coin)
	if err != nil {
		return nil, err
	}

	for i := range ks.store.ActiveAccounts {
		existing := &ks.store.ActiveAccounts[i]
		if existing.Coin == coin.Symbol && existing.Address == address {
			out := *existing
			return &out, nil
		}
	}

	var extra []byte
	if extraDeriver != nil {
		priv, err := leaf.PrivateKey()
		if err != nil {
			return nil, wrapDeriveErr(err)
		}
		extraJSON, err := extraDeriver.New(coin, priv)
		secure.Wipe(priv)
		if err != nil {
			return nil, err
		}
		extra = extraJSON
	}

	account := Account{
		Address:        address,
		DerivationPath: coin.DerivationPath,
		Curve:          coin.Curve,
		Coin:           coin.Symbol,
		Extra:          extra,
	}
	ks.store.ActiveAccounts = append(ks.store.ActiveAccounts, account)
	return &account, nil
}

// FindPrivateKey derives the leaf private key for (symbol, address) fresh
// from the seed, with no cache interaction. Requires Unlocked and a
// non-empty address; fails with ErrAccountNotFound if the pair is absent.
func (ks *Keystore) FindPrivateKey(symbol, address string) ([]byte, error) {
	if address == "" {
		return nil, ErrAccountNotFound
	}

	ks.mu.RLock()
	defer ks.mu.RUnlock()

	if ks.cache == nil {
		return nil, ErrKeystoreLocked
	}

	acc, ok := findAccount(ks.store.ActiveAccounts, symbol, address)
	if !ok {
		return nil, ErrAccountNotFound
	}

	master, err := derive.FromSeed(derive.BIP32, acc.Curve, ks.cache.seed.Bytes())
	if err != nil {
		return nil, wrapDeriveErr(err)
	}
	leaf, err := master.Derive(acc.DerivationPath)
	if err != nil {
		return nil, wrapDeriveErr(err)
	}
	priv, err := leaf.PrivateKey()
	return priv, wrapDeriveErr(err)
}

// FindPrivateKeyByPath derives suffixPath relative to the cached
// account-prefix key for (symbol, address), populating the prefix cache
// entry on first use. Requires Unlocked and a non-empty address.
func (ks *Keystore) FindPrivateKeyByPath(symbol, address, suffixPath string) ([]byte, error) {
	if address == "" {
		return nil, ErrAccountNotFound
	}

	ks.mu.Lock()
	defer ks.mu.Unlock()

	if ks.cache == nil {
		return nil, ErrKeystoreLocked
	}

	acc, ok := findAccount(ks.store.ActiveAccounts, symbol, address)
	if !ok {
		return nil, ErrAccountNotFound
	}

	prefixKey, ok := ks.cache.keys[address]
	if !ok {
		accountPath, err := derive.AccountPath(acc.DerivationPath)
		if err != nil {
			return nil, wrapDeriveErr(err)
		}
		master, err := derive.FromSeed(derive.BIP32, acc.Curve, ks.cache.seed.Bytes())
		if err != nil {
			return nil, wrapDeriveErr(err)
		}
		prefixKey, err = master.Derive(accountPath)
		if err != nil {
			return nil, wrapDeriveErr(err)
		}
		ks.cache.keys[address] = prefixKey
	}

	leaf, err := prefixKey.Derive(suffixPath)
	if err != nil {
		return nil, wrapDeriveErr(err)
	}
	priv, err := leaf.PrivateKey()
	return priv, wrapDeriveErr(err)
}

// wrapDeriveErr translates a derive package sentinel into the matching
// keystore.Error so callers classifying failures per the documented Kind
// taxonomy (errors.Is against ErrInvalidDerivationPath etc.) see one
// consistently even though the error originated across the derive package
// boundary. Unrecognized errors (internal curve-library failures, not part
// of the taxonomy) pass through unchanged. nil passes through unchanged.
func wrapDeriveErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, derive.ErrInvalidDerivationPath):
		return newError(KindInvalidDerivationPath, string(KindInvalidDerivationPath), err)
	case errors.Is(err, derive.ErrCurveNotSupported):
		return newError(KindCurveNotSupported, string(KindCurveNotSupported), err)
	case errors.Is(err, derive.ErrDeriveOutOfRange):
		return newError(KindDeriveOutOfRange, string(KindDeriveOutOfRange), err)
	default:
		return err
	}
}

func findAccount(accounts []Account, symbol, address string) (Account, bool) {
	for _, acc := range accounts {
		if acc.Coin == symbol && acc.Address == address {
			return acc, true
		}
	}
	return Account{}, false
}
