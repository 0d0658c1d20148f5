// Package registry implements the process-wide keystore registry: a
// reader-writer-guarded map of live keystores plus the directory they are
// persisted under, with best-effort load, address lookup, and crash-safe
// flush.
package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/mrz1836/sigil-keystore/internal/fileutil"
	"github.com/mrz1836/sigil-keystore/keystore"
)

// Logger is the optional sink for load-time diagnostics (a malformed or
// version-mismatched file is skipped, not an error, but is worth logging).
// Satisfied by *config.Logger-shaped loggers: printf-style, not structured.
type Logger interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

type nullLogger struct{}

func (nullLogger) Debug(string, ...any) {}
func (nullLogger) Error(string, ...any) {}

// filePerm is the permission mode for persisted keystore documents: owner
// read/write only, since they carry an encrypted mnemonic.
const filePerm = 0o600

// Registry is the process-wide keyed mapping from Store.id to live
// Keystore, plus the configured wallet_file_dir. The lock acquisition order
// is dir before keystores, one-way, to avoid deadlock — see Init and Flush.
type Registry struct {
	dirMu sync.RWMutex
	dir   string

	mu        sync.RWMutex
	keystores map[string]*keystore.Keystore

	log Logger
}

// New constructs an empty Registry. log may be nil, in which case
// diagnostics are discarded.
func New(log Logger) *Registry {
	if log == nil {
		log = nullLogger{}
	}
	return &Registry{keystores: make(map[string]*keystore.Keystore), log: log}
}

// Init records dir and performs a best-effort load of every regular file in
// it: each is parsed as a Store, filtered by version, and wrapped Locked.
// Files that fail to parse or carry a mismatched version are skipped and
// logged, never treated as a hard error.
func (r *Registry) Init(dir string) error {
	r.dirMu.Lock()
	r.dir = dir
	r.dirMu.Unlock()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	loaded := make(map[string]*keystore.Keystore, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path) //nolint:gosec // path is joined from a directory the host configured, not user input
		if err != nil {
			r.log.Error("registry: reading %s: %v", path, err)
			continue
		}

		var store keystore.Store
		if err := json.Unmarshal(data, &store); err != nil {
			r.log.Debug("registry: skipping %s: malformed json: %v", path, err)
			continue
		}
		if store.Version != keystore.StoreVersion {
			r.log.Debug("registry: skipping %s: version %d != %d", path, store.Version, keystore.StoreVersion)
			continue
		}

		loaded[store.ID] = keystore.FromStore(store)
	}

	r.mu.Lock()
	for id, ks := range loaded {
		r.keystores[id] = ks
	}
	r.mu.Unlock()
	return nil
}

// Cache upserts ks into the registry, keyed by its Store id.
func (r *Registry) Cache(ks *keystore.Keystore) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keystores[ks.ID()] = ks
}

// Get returns the keystore registered under id, if any.
func (r *Registry) Get(id string) (*keystore.Keystore, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ks, ok := r.keystores[id]
	return ks, ok
}

// FindByAddress linearly scans every registered keystore's active accounts
// and returns the id of the first one found containing address. Keystores
// are scanned in map iteration order, so when several Stores hold the same
// address, which of their ids is returned is not defined.
func (r *Registry) FindByAddress(address string) (string, bool) {
	if address == "" {
		return "", false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, ks := range r.keystores {
		snap := ks.Snapshot()
		for _, acc := range snap.ActiveAccounts {
			if acc.Address == address {
				return id, true
			}
		}
	}
	return "", false
}

// Flush serialises ks to JSON and atomically writes it to
// "{dir}/{id}.json". Flush is a registry writer: concurrent flushes are
// serialised by the registry lock, taken after the directory lock has been
// released.
func (r *Registry) Flush(ks *keystore.Keystore) error {
	r.dirMu.RLock()
	dir := r.dir
	r.dirMu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	snap := ks.Snapshot()
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, snap.ID+".json")
	return fileutil.WriteAtomic(path, data, filePerm)
}
