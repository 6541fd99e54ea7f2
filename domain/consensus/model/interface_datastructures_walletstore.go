package model

import "github.com/dposnet/dposd/domain/consensus/model/externalapi"

// WalletIndex names a secondary wallet index
type WalletIndex string

// Secondary wallet indexes
const (
	WalletIndexUsernames WalletIndex = "usernames"
	WalletIndexLocks     WalletIndex = "locks"
)

// WalletStore is the ledger of wallets. Lookups never create wallets;
// creation happens only through GetOrCreateByAddress and CreateByPublicKey.
// Returned wallets are live: callers mutate them in place and call Index
// after changing an indexed attribute.
type WalletStore interface {
	FindByPublicKey(publicKey string) (*externalapi.Wallet, error)
	LookupByPublicKey(publicKey string) (*externalapi.Wallet, error)
	FindByAddress(address string) (*externalapi.Wallet, error)
	FindByIndex(index WalletIndex, key string) (*externalapi.Wallet, error)
	HasByPublicKey(publicKey string) bool
	HasByAddress(address string) bool
	HasByIndex(index WalletIndex, key string) bool
	GetOrCreateByAddress(address string) *externalapi.Wallet
	CreateByPublicKey(publicKey string) (*externalapi.Wallet, error)
	Index(wallet *externalapi.Wallet)
	GetNonce(publicKey string) uint64
	AllByUsername() []*externalapi.Wallet
	Commitment() *externalapi.DomainHash
}
