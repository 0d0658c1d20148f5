package registry

import (
	"github.com/mrz1836/sigil-keystore/keystore"
)

// Import derives coin's address from mnemonic and either registers a brand
// new Store for it, or — if a Store already registered under this address
// exists — either refuses (overwrite=false, ErrWalletExists) or reuses the
// existing Store's id (overwrite=true), appending the (now idempotent)
// Account to it instead of minting a second Store for the same mnemonic.
func (r *Registry) Import(
	mnemonic, password string,
	meta keystore.Metadata,
	coin keystore.CoinInfo,
	addrDeriver keystore.AddressDeriver,
	extraDeriver keystore.ExtraDeriver,
	overwrite bool,
) (*keystore.Keystore, error) {
	candidate, err := keystore.FromMnemonic(mnemonic, password, meta)
	if err != nil {
		return nil, err
	}
	if err := candidate.Unlock(password); err != nil {
		return nil, err
	}

	account, err := candidate.DeriveCoin(coin, addrDeriver, extraDeriver)
	if err != nil {
		return nil, err
	}

	if existingID, found := r.FindByAddress(account.Address); found {
		if !overwrite {
			return nil, keystore.ErrWalletExists
		}

		existing, ok := r.Get(existingID)
		if !ok {
			return nil, keystore.ErrWalletExists
		}
		if err := existing.Unlock(password); err != nil {
			return nil, err
		}
		if _, err := existing.DeriveCoin(coin, addrDeriver, extraDeriver); err != nil {
			return nil, err
		}
		return existing, nil
	}

	r.Cache(candidate)
	return candidate, nil
}
