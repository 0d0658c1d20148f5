package registry

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/sigil-keystore/derive"
	"github.com/mrz1836/sigil-keystore/keystore"
)

const (
	testMnemonic = "inject kidney empty canal shadow pact comfort wife crush horse wife sketch"
	testPassword = "Insecure Pa55w0rd"
)

// fakeAddressDeriver renders the hex of the public key as the address.
type fakeAddressDeriver struct{}

func (fakeAddressDeriver) FromPublicKey(pub []byte, _ keystore.CoinInfo) (string, error) {
	return hex.EncodeToString(pub), nil
}

func (fakeAddressDeriver) IsValid(address string) bool {
	_, err := hex.DecodeString(address)
	return err == nil
}

func testCoin() keystore.CoinInfo {
	return keystore.CoinInfo{Symbol: "BCH", DerivationPath: "m/44'/145'/0'/0/0", Curve: derive.SECP256k1}
}

// S6: init(dir) after a prior flush recovers a keystore whose unlock then
// mnemonic() matches the pre-shutdown value.
func TestFlushThenInit_SurvivesRestart(t *testing.T) {
	dir := t.TempDir()

	ks, err := keystore.FromMnemonic(testMnemonic, testPassword, keystore.DefaultMetadata())
	require.NoError(t, err)
	require.NoError(t, ks.Unlock(testPassword))
	_, err = ks.DeriveCoin(testCoin(), fakeAddressDeriver{}, nil)
	require.NoError(t, err)

	reg := New(nil)
	require.NoError(t, reg.Init(dir))
	reg.Cache(ks)
	require.NoError(t, reg.Flush(ks))

	restarted := New(nil)
	require.NoError(t, restarted.Init(dir))

	restored, ok := restarted.Get(ks.ID())
	require.True(t, ok)
	assert.False(t, restored.IsUnlocked())

	require.NoError(t, restored.Unlock(testPassword))
	mnemonic, err := restored.Mnemonic()
	require.NoError(t, err)
	assert.Equal(t, testMnemonic, mnemonic)

	assert.Equal(t, ks.Snapshot().ActiveAccounts, restored.Snapshot().ActiveAccounts)
}

func TestFlush_WritesAtomically(t *testing.T) {
	dir := t.TempDir()

	ks, err := keystore.FromMnemonic(testMnemonic, testPassword, keystore.DefaultMetadata())
	require.NoError(t, err)

	reg := New(nil)
	require.NoError(t, reg.Init(dir))
	require.NoError(t, reg.Flush(ks))

	path := filepath.Join(dir, ks.ID()+".json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var store keystore.Store
	require.NoError(t, json.Unmarshal(data, &store))
	assert.Equal(t, ks.ID(), store.ID)
	assert.Equal(t, keystore.StoreVersion, store.Version)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.NotContains(t, entry.Name(), ".tmp-")
	}
}

func TestInit_SkipsMalformedAndVersionMismatch(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "garbage.json"), []byte("not json"), 0o600))

	wrongVersion := keystore.Store{ID: "wrong-version-id", Version: 1, Meta: keystore.DefaultMetadata()}
	raw, err := json.Marshal(wrongVersion)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.json"), raw, 0o600))

	good, err := keystore.FromMnemonic(testMnemonic, testPassword, keystore.DefaultMetadata())
	require.NoError(t, err)
	goodRaw, err := json.Marshal(good.Snapshot())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.json"), goodRaw, 0o600))

	reg := New(nil)
	require.NoError(t, reg.Init(dir))

	_, ok := reg.Get("wrong-version-id")
	assert.False(t, ok)

	_, ok = reg.Get(good.ID())
	assert.True(t, ok)
}

func TestFindByAddress_ReturnsOwningStore(t *testing.T) {
	dir := t.TempDir()
	reg := New(nil)
	require.NoError(t, reg.Init(dir))

	ks1, err := keystore.FromMnemonic(testMnemonic, testPassword, keystore.DefaultMetadata())
	require.NoError(t, err)
	require.NoError(t, ks1.Unlock(testPassword))
	account, err := ks1.DeriveCoin(testCoin(), fakeAddressDeriver{}, nil)
	require.NoError(t, err)
	reg.Cache(ks1)

	id, ok := reg.FindByAddress(account.Address)
	require.True(t, ok)
	assert.Equal(t, ks1.ID(), id)

	_, ok = reg.FindByAddress("")
	assert.False(t, ok)

	_, ok = reg.FindByAddress("nonexistent")
	assert.False(t, ok)
}

// S5: importing the same mnemonic twice under the same coin with
// overwrite=false fails with WalletExists; with overwrite=true the id of the
// existing Store is reused.
func TestImport_DuplicateAddress(t *testing.T) {
	dir := t.TempDir()
	reg := New(nil)
	require.NoError(t, reg.Init(dir))

	first, err := reg.Import(testMnemonic, testPassword, keystore.DefaultMetadata(), testCoin(), fakeAddressDeriver{}, nil, false)
	require.NoError(t, err)

	_, err = reg.Import(testMnemonic, testPassword, keystore.DefaultMetadata(), testCoin(), fakeAddressDeriver{}, nil, false)
	assert.ErrorIs(t, err, keystore.ErrWalletExists)

	reused, err := reg.Import(testMnemonic, testPassword, keystore.DefaultMetadata(), testCoin(), fakeAddressDeriver{}, nil, true)
	require.NoError(t, err)
	assert.Equal(t, first.ID(), reused.ID())
}

func TestCache_UpsertsByID(t *testing.T) {
	reg := New(nil)

	ks, err := keystore.FromMnemonic(testMnemonic, testPassword, keystore.DefaultMetadata())
	require.NoError(t, err)

	reg.Cache(ks)
	got, ok := reg.Get(ks.ID())
	require.True(t, ok)
	assert.Same(t, ks, got)

	reg.Cache(ks)
	got, ok = reg.Get(ks.ID())
	require.True(t, ok)
	assert.Same(t, ks, got)
}
