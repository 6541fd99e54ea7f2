package model

import "github.com/dposnet/dposd/domain/consensus/model/externalapi"

// LedgerFinalizer applies and reverts the economic side effects of a block
// that are not owned by transaction handlers: forger rewards and delegate
// vote balances. Every revert is the exact inverse of its apply.
type LedgerFinalizer interface {
	ApplyBlockToForger(forgerWallet *externalapi.Wallet, blockData *externalapi.DomainBlockData) error
	RevertBlockFromForger(forgerWallet *externalapi.Wallet, blockData *externalapi.DomainBlockData) error
	ApplyVoteBalances(sender *externalapi.Wallet, recipient *externalapi.Wallet,
		transaction *externalapi.DomainTransaction, lockWallet *externalapi.Wallet, lock *externalapi.HTLCLock) error
	RevertVoteBalances(sender *externalapi.Wallet, recipient *externalapi.Wallet,
		transaction *externalapi.DomainTransaction, lockWallet *externalapi.Wallet, lock *externalapi.HTLCLock) error
}
