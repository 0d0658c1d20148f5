// Command sigil-keystore-demo exercises the keystore core end to end against
// a local directory: create a Store, derive a couple of example chain
// accounts, flush it to disk, then reload the directory and print what
// persisted. It performs no network I/O and parses no chain-specific
// transaction data — it exists to prove the library's lifecycle works, not
// as a production wallet CLI.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/mrz1836/sigil-keystore/chainadapter"
	"github.com/mrz1836/sigil-keystore/keystore"
	"github.com/mrz1836/sigil-keystore/registry"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "sigil-keystore-demo:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("sigil-keystore-demo", flag.ExitOnError)
	dir := fs.String("dir", "", "directory to create and load keystore documents in")
	password := fs.String("password", "", "password protecting the new Store")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dir == "" || *password == "" {
		return fmt.Errorf("both -dir and -password are required")
	}
	if err := os.MkdirAll(*dir, 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", *dir, err)
	}

	reg := registry.New(nil)
	if err := reg.Init(*dir); err != nil {
		return fmt.Errorf("loading existing stores: %w", err)
	}

	ks, err := keystore.New(*password, keystore.DefaultMetadata())
	if err != nil {
		return fmt.Errorf("creating keystore: %w", err)
	}
	if err := ks.Unlock(*password); err != nil {
		return fmt.Errorf("unlocking new keystore: %w", err)
	}

	coinRegistry := chainadapter.DefaultCoinRegistry()
	derivers := map[string]keystore.AddressDeriver{
		"BCH": chainadapter.P2PKHAddressDeriver{Version: 0x00},
		"ETH": chainadapter.ETHAddressDeriver{},
	}

	for _, symbol := range []string{"BCH", "ETH"} {
		coin, err := coinRegistry.Lookup(symbol)
		if err != nil {
			return fmt.Errorf("looking up %s: %w", symbol, err)
		}
		account, err := ks.DeriveCoin(coin, derivers[symbol], nil)
		if err != nil {
			return fmt.Errorf("deriving %s: %w", symbol, err)
		}
		fmt.Printf("%s: %s (%s)\n", account.Coin, account.Address, account.DerivationPath)
	}

	reg.Cache(ks)
	if err := reg.Flush(ks); err != nil {
		return fmt.Errorf("flushing: %w", err)
	}

	reloaded := registry.New(nil)
	if err := reloaded.Init(*dir); err != nil {
		return fmt.Errorf("reloading: %w", err)
	}
	restored, ok := reloaded.Get(ks.ID())
	if !ok {
		return fmt.Errorf("store %s did not survive reload", ks.ID())
	}

	snap := restored.Snapshot()
	out, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling reloaded store: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
