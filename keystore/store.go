package keystore

import (
	"encoding/json"
	"time"

	"github.com/mrz1836/sigil-keystore/cryptov3"
	"github.com/mrz1836/sigil-keystore/derive"
)

// StoreVersion is the current and only recognized schema tag. Both the
// on-disk field and the registry's load-time filter use this one constant.
const StoreVersion = 11000

// Source identifies how a Store's mnemonic originally entered the system.
type Source string

// Recognized Source values, serialised verbatim as their JSON string form.
const (
	SourceMnemonic Source = "Mnemonic"
	SourcePrivate  Source = "Private"
	SourceKeystore Source = "Keystore"
	SourceWIF      Source = "WIF"
)

// Metadata carries non-secret descriptive fields attached to a Store.
type Metadata struct {
	Name         string `json:"name"`
	PasswordHint string `json:"passwordHint"`
	Timestamp    int64  `json:"timestamp"`
	Source       Source `json:"source"`
}

// DefaultMetadata returns the zero-value metadata a bare New() call adopts:
// name "Unknown", no password hint, the current wall-clock time, and a
// Mnemonic source.
func DefaultMetadata() Metadata {
	return Metadata{
		Name:      "Unknown",
		Source:    SourceMnemonic,
		Timestamp: time.Now().Unix(),
	}
}

// Account binds a derived key to a chain address. It is a pure value type:
// two Accounts with equal fields are interchangeable, and equality is
// structural.
type Account struct {
	Address        string          `json:"address"`
	DerivationPath string          `json:"derivationPath"`
	Curve          derive.Curve    `json:"curve"`
	Coin           string          `json:"coin"`
	Extra          json.RawMessage `json:"extra,omitempty"`
}

// Store is the canonical on-disk entity: an encrypted mnemonic plus the
// accounts derived from it. Store itself carries no secret material in
// cleartext — only Crypto does, and only in encrypted form.
type Store struct {
	ID             string              `json:"id"`
	Version        int                 `json:"version"`
	Crypto         *cryptov3.Container `json:"crypto"`
	ActiveAccounts []Account           `json:"activeAccounts"`
	Meta           Metadata            `json:"meta"`
}
