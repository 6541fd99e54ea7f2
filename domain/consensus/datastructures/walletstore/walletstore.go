package walletstore

import (
	"sort"

	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/dposnet/dposd/domain/consensus/utils/consensushashing"
	"github.com/pkg/errors"
)

// walletStore is an in-memory wallet ledger indexed by address, public key,
// delegate username and HTLC lock id
type walletStore struct {
	addressPrefix string

	byAddress   map[string]*externalapi.Wallet
	byPublicKey map[string]string
	indexes     map[model.WalletIndex]map[string]string

	// indexKeys remembers the secondary index keys of every address so that
	// Index can drop stale entries
	indexKeys map[string]map[model.WalletIndex][]string
}

// New instantiates a new WalletStore
func New(addressPrefix string) model.WalletStore {
	return &walletStore{
		addressPrefix: addressPrefix,
		byAddress:     make(map[string]*externalapi.Wallet),
		byPublicKey:   make(map[string]string),
		indexes: map[model.WalletIndex]map[string]string{
			model.WalletIndexUsernames: make(map[string]string),
			model.WalletIndexLocks:     make(map[string]string),
		},
		indexKeys: make(map[string]map[model.WalletIndex][]string),
	}
}

// FindByPublicKey returns the wallet of publicKey. A wallet known only by
// its address gets the public key attached and indexed.
func (ws *walletStore) FindByPublicKey(publicKey string) (*externalapi.Wallet, error) {
	if address, ok := ws.byPublicKey[publicKey]; ok {
		return ws.byAddress[address], nil
	}

	address, err := consensushashing.AddressFromPublicKey(publicKey, ws.addressPrefix)
	if err != nil {
		return nil, err
	}
	wallet, ok := ws.byAddress[address]
	if !ok {
		return nil, errors.Wrapf(ruleerrors.ErrWalletNotFound, "no wallet for public key %s", publicKey)
	}
	wallet.PublicKey = publicKey
	ws.Index(wallet)
	return wallet, nil
}

// LookupByPublicKey returns the wallet of publicKey like FindByPublicKey,
// but never attaches the public key to a wallet known only by its address
func (ws *walletStore) LookupByPublicKey(publicKey string) (*externalapi.Wallet, error) {
	if address, ok := ws.byPublicKey[publicKey]; ok {
		return ws.byAddress[address], nil
	}

	address, err := consensushashing.AddressFromPublicKey(publicKey, ws.addressPrefix)
	if err != nil {
		return nil, err
	}
	wallet, ok := ws.byAddress[address]
	if !ok {
		return nil, errors.Wrapf(ruleerrors.ErrWalletNotFound, "no wallet for public key %s", publicKey)
	}
	return wallet, nil
}

func (ws *walletStore) FindByAddress(address string) (*externalapi.Wallet, error) {
	wallet, ok := ws.byAddress[address]
	if !ok {
		return nil, errors.Wrapf(ruleerrors.ErrWalletNotFound, "no wallet for address %s", address)
	}
	return wallet, nil
}

func (ws *walletStore) FindByIndex(index model.WalletIndex, key string) (*externalapi.Wallet, error) {
	entries, ok := ws.indexes[index]
	if !ok {
		return nil, errors.Errorf("unknown wallet index %s", index)
	}
	address, ok := entries[key]
	if !ok {
		return nil, errors.Wrapf(ruleerrors.ErrWalletNotFound, "no wallet for %s index key %s", index, key)
	}
	return ws.byAddress[address], nil
}

func (ws *walletStore) HasByPublicKey(publicKey string) bool {
	_, ok := ws.byPublicKey[publicKey]
	return ok
}

func (ws *walletStore) HasByAddress(address string) bool {
	_, ok := ws.byAddress[address]
	return ok
}

func (ws *walletStore) HasByIndex(index model.WalletIndex, key string) bool {
	_, ok := ws.indexes[index][key]
	return ok
}

// GetOrCreateByAddress returns the wallet of address, creating an empty one
// if none exists
func (ws *walletStore) GetOrCreateByAddress(address string) *externalapi.Wallet {
	wallet, ok := ws.byAddress[address]
	if !ok {
		log.Tracef("Creating wallet %s", address)
		wallet = externalapi.NewWallet(address)
		ws.byAddress[address] = wallet
	}
	return wallet
}

// CreateByPublicKey creates the wallet of publicKey at its derived address.
// An existing wallet at that address without a public key is adopted.
func (ws *walletStore) CreateByPublicKey(publicKey string) (*externalapi.Wallet, error) {
	if ws.HasByPublicKey(publicKey) {
		return nil, errors.Wrapf(ruleerrors.ErrWalletAlreadyExists, "public key %s", publicKey)
	}
	address, err := consensushashing.AddressFromPublicKey(publicKey, ws.addressPrefix)
	if err != nil {
		return nil, err
	}
	wallet := ws.GetOrCreateByAddress(address)
	wallet.PublicKey = publicKey
	ws.Index(wallet)
	return wallet, nil
}

// Index refreshes the public key and secondary index entries of wallet.
// The wallet is added to the store if it isn't already part of it.
func (ws *walletStore) Index(wallet *externalapi.Wallet) {
	ws.byAddress[wallet.Address] = wallet
	if wallet.PublicKey != "" {
		ws.byPublicKey[wallet.PublicKey] = wallet.Address
	}

	for index, keys := range ws.indexKeys[wallet.Address] {
		for _, key := range keys {
			if ws.indexes[index][key] == wallet.Address {
				delete(ws.indexes[index], key)
			}
		}
	}

	keys := make(map[model.WalletIndex][]string)
	if wallet.Delegate != nil && wallet.Delegate.Username != "" {
		keys[model.WalletIndexUsernames] = []string{wallet.Delegate.Username}
	}
	if wallet.HTLC != nil {
		for lockID := range wallet.HTLC.Locks {
			keys[model.WalletIndexLocks] = append(keys[model.WalletIndexLocks], lockID)
		}
	}
	for index, indexKeys := range keys {
		for _, key := range indexKeys {
			ws.indexes[index][key] = wallet.Address
		}
	}
	ws.indexKeys[wallet.Address] = keys
}

// GetNonce returns the stored nonce of publicKey, or 0 for an unknown key.
// Unlike FindByPublicKey it never modifies the store.
func (ws *walletStore) GetNonce(publicKey string) uint64 {
	wallet, err := ws.LookupByPublicKey(publicKey)
	if err != nil {
		return 0
	}
	return wallet.Nonce
}

// AllByUsername returns every registered delegate, sorted by username
func (ws *walletStore) AllByUsername() []*externalapi.Wallet {
	usernames := make([]string, 0, len(ws.indexes[model.WalletIndexUsernames]))
	for username := range ws.indexes[model.WalletIndexUsernames] {
		usernames = append(usernames, username)
	}
	sort.Strings(usernames)

	delegates := make([]*externalapi.Wallet, len(usernames))
	for i, username := range usernames {
		delegates[i] = ws.byAddress[ws.indexes[model.WalletIndexUsernames][username]]
	}
	return delegates
}
