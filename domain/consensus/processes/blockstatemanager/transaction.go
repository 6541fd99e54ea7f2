package blockstatemanager

import (
	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
)

// ApplyTransaction applies the effect of transaction through its handler
// and then updates the vote balances it touches
func (bsm *blockStateManager) ApplyTransaction(transaction *externalapi.DomainTransaction) error {
	handler, err := bsm.transactionHandlers.HandlerFor(transaction)
	if err != nil {
		return ruleerrors.NewErrTransactionFailed(transaction.ID, err)
	}
	sender, err := bsm.walletStore.FindByPublicKey(transaction.SenderPublicKey)
	if err != nil {
		return ruleerrors.NewErrTransactionFailed(transaction.ID, err)
	}

	// A claim removes the lock, so it is resolved beforehand
	lockWallet, lock, err := bsm.resolveClaimedLock(transaction)
	if err != nil {
		return ruleerrors.NewErrTransactionFailed(transaction.ID, err)
	}

	err = handler.Apply(transaction)
	if err != nil {
		return ruleerrors.NewErrTransactionFailed(transaction.ID, err)
	}

	err = bsm.ledgerFinalizer.ApplyVoteBalances(sender, bsm.recipient(transaction), transaction, lockWallet, lock)
	if err != nil {
		undoErr := handler.Revert(transaction)
		if undoErr != nil {
			return ruleerrors.NewErrLedgerCorrupted(transaction.ID, err, undoErr)
		}
		return ruleerrors.NewErrTransactionFailed(transaction.ID, err)
	}
	return nil
}

// RevertTransaction is the inverse of ApplyTransaction
func (bsm *blockStateManager) RevertTransaction(transaction *externalapi.DomainTransaction) error {
	handler, err := bsm.transactionHandlers.HandlerFor(transaction)
	if err != nil {
		return ruleerrors.NewErrTransactionFailed(transaction.ID, err)
	}
	sender, err := bsm.walletStore.FindByPublicKey(transaction.SenderPublicKey)
	if err != nil {
		return ruleerrors.NewErrTransactionFailed(transaction.ID, err)
	}

	err = handler.Revert(transaction)
	if err != nil {
		return ruleerrors.NewErrTransactionFailed(transaction.ID, err)
	}

	// Reverting a claim restores the lock, so it is resolved afterwards
	lockWallet, lock, err := bsm.resolveClaimedLock(transaction)
	if err == nil {
		err = bsm.ledgerFinalizer.RevertVoteBalances(sender, bsm.recipient(transaction), transaction, lockWallet, lock)
	}
	if err != nil {
		undoErr := handler.Apply(transaction)
		if undoErr != nil {
			return ruleerrors.NewErrLedgerCorrupted(transaction.ID, err, undoErr)
		}
		return ruleerrors.NewErrTransactionFailed(transaction.ID, err)
	}
	return nil
}

func (bsm *blockStateManager) recipient(transaction *externalapi.DomainTransaction) *externalapi.Wallet {
	if !transaction.HasRecipient() || !bsm.walletStore.HasByAddress(transaction.RecipientID) {
		return nil
	}
	recipient, err := bsm.walletStore.FindByAddress(transaction.RecipientID)
	if err != nil {
		return nil
	}
	return recipient
}

// resolveClaimedLock returns the wallet holding the lock claimed by
// transaction and the lock itself. Other transactions claim nothing.
func (bsm *blockStateManager) resolveClaimedLock(transaction *externalapi.DomainTransaction) (
	*externalapi.Wallet, *externalapi.HTLCLock, error) {

	if !transaction.IsCoreType(externalapi.TransactionTypeHTLCClaim) {
		return nil, nil, nil
	}
	if transaction.Asset == nil || transaction.Asset.Claim == nil {
		return nil, nil, ruleerrors.ErrMissingAsset
	}
	lockID := transaction.Asset.Claim.LockTransactionID
	lockWallet, err := bsm.walletStore.FindByIndex(model.WalletIndexLocks, lockID)
	if err != nil {
		return nil, nil, err
	}
	if lockWallet.HTLC == nil || lockWallet.HTLC.Locks[lockID] == nil {
		return nil, nil, ruleerrors.ErrLockNotFound
	}
	return lockWallet, lockWallet.HTLC.Locks[lockID], nil
}
