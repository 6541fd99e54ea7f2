package transactionhandlers

import (
	"math/big"

	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/pkg/errors"
)

// spentLock is an HTLC lock removed by a claim or a refund, kept so that
// reverting the claim or refund can put it back
type spentLock struct {
	ownerAddress string
	lock         *externalapi.HTLCLock
}

// handlerBase holds what every core handler shares. Handlers check every
// precondition before mutating any wallet, so a failed Apply or Revert
// leaves the ledger untouched.
type handlerBase struct {
	walletStore     model.WalletStore
	chainStateStore model.ChainStateStore

	spentLocks map[string]*spentLock
}

func bigUint64(value uint64) *big.Int {
	return new(big.Int).SetUint64(value)
}

func (hb *handlerBase) sender(transaction *externalapi.DomainTransaction) (*externalapi.Wallet, error) {
	return hb.walletStore.FindByPublicKey(transaction.SenderPublicKey)
}

// checkApplyNonce verifies that transaction is the successor of the
// sender's nonce. Legacy transactions carry no nonce.
func checkApplyNonce(sender *externalapi.Wallet, transaction *externalapi.DomainTransaction) error {
	if !transaction.IsLegacy() && transaction.Nonce != sender.Nonce+1 {
		return errors.Wrapf(ruleerrors.ErrUnexpectedNonce, "transaction %s has nonce %d, wallet %s is at %d",
			transaction.ID, transaction.Nonce, sender.Address, sender.Nonce)
	}
	return nil
}

func checkRevertNonce(sender *externalapi.Wallet, transaction *externalapi.DomainTransaction) error {
	if !transaction.IsLegacy() && transaction.Nonce != sender.Nonce {
		return errors.Wrapf(ruleerrors.ErrUnexpectedNonce, "cannot revert transaction %s with nonce %d, "+
			"wallet %s is at %d", transaction.ID, transaction.Nonce, sender.Address, sender.Nonce)
	}
	if sender.Nonce == 0 {
		return errors.Wrapf(ruleerrors.ErrUnexpectedNonce, "cannot revert transaction %s, wallet %s has nonce 0",
			transaction.ID, sender.Address)
	}
	return nil
}

// applyToSender bumps the sender nonce and debits debit + fee from its balance
func (hb *handlerBase) applyToSender(transaction *externalapi.DomainTransaction,
	debit *big.Int) (*externalapi.Wallet, error) {

	sender, err := hb.sender(transaction)
	if err != nil {
		return nil, err
	}
	err = checkApplyNonce(sender, transaction)
	if err != nil {
		return nil, err
	}
	total := new(big.Int).Add(debit, bigUint64(transaction.Fee))
	if sender.Balance.Cmp(total) < 0 {
		return nil, errors.Wrapf(ruleerrors.ErrInsufficientBalance, "wallet %s has %s, transaction %s needs %s",
			sender.Address, sender.Balance, transaction.ID, total)
	}

	sender.Nonce++
	sender.DecreaseBalance(total)
	return sender, nil
}

// revertForSender is the inverse of applyToSender
func (hb *handlerBase) revertForSender(transaction *externalapi.DomainTransaction,
	debit *big.Int) (*externalapi.Wallet, error) {

	sender, err := hb.sender(transaction)
	if err != nil {
		return nil, err
	}
	err = checkRevertNonce(sender, transaction)
	if err != nil {
		return nil, err
	}

	sender.Nonce--
	sender.IncreaseBalance(new(big.Int).Add(debit, bigUint64(transaction.Fee)))
	return sender, nil
}

func (hb *handlerBase) requireRecipient(transaction *externalapi.DomainTransaction) error {
	if !transaction.HasRecipient() {
		return errors.Wrapf(ruleerrors.ErrMissingRecipient, "transaction %s", transaction.ID)
	}
	return nil
}

func requireAsset(transaction *externalapi.DomainTransaction, present bool) error {
	if transaction.Asset == nil || !present {
		return errors.Wrapf(ruleerrors.ErrMissingAsset, "transaction %s of type %d",
			transaction.ID, transaction.Type)
	}
	return nil
}

// lockIsExpired returns whether lock expired at the current chain tip
func (hb *handlerBase) lockIsExpired(lock *externalapi.HTLCLock) bool {
	lastBlock := hb.chainStateStore.LastBlock()
	if lastBlock == nil {
		return false
	}
	switch lock.ExpirationType {
	case externalapi.HTLCExpirationEpochTimestamp:
		return lock.ExpirationValue <= lastBlock.Data.Timestamp
	case externalapi.HTLCExpirationBlockHeight:
		return lock.ExpirationValue <= lastBlock.Data.Height
	}
	return false
}

// findLock returns the wallet owning lockID and the lock itself
func (hb *handlerBase) findLock(lockID string) (*externalapi.Wallet, *externalapi.HTLCLock, error) {
	lockWallet, err := hb.walletStore.FindByIndex(model.WalletIndexLocks, lockID)
	if err != nil {
		return nil, nil, errors.Wrapf(ruleerrors.ErrLockNotFound, "lock %s", lockID)
	}
	if lockWallet.HTLC == nil || lockWallet.HTLC.Locks[lockID] == nil {
		return nil, nil, errors.Wrapf(ruleerrors.ErrLockNotFound, "lock %s is indexed but missing", lockID)
	}
	return lockWallet, lockWallet.HTLC.Locks[lockID], nil
}

// spendLock removes lockID from its owner and remembers it for revert
func (hb *handlerBase) spendLock(lockWallet *externalapi.Wallet, lockID string) {
	lock := lockWallet.HTLC.Locks[lockID]
	removeLock(lockWallet, lockID)
	hb.walletStore.Index(lockWallet)
	hb.spentLocks[lockID] = &spentLock{ownerAddress: lockWallet.Address, lock: lock}
}

// restoreLock is the inverse of spendLock
func (hb *handlerBase) restoreLock(lockID string) (*externalapi.Wallet, *externalapi.HTLCLock, error) {
	spent, ok := hb.spentLocks[lockID]
	if !ok {
		return nil, nil, errors.Wrapf(ruleerrors.ErrLockNotFound, "spent lock %s is unknown", lockID)
	}
	lockWallet, err := hb.walletStore.FindByAddress(spent.ownerAddress)
	if err != nil {
		return nil, nil, err
	}
	addLock(lockWallet, lockID, spent.lock)
	hb.walletStore.Index(lockWallet)
	delete(hb.spentLocks, lockID)
	return lockWallet, spent.lock, nil
}

func addLock(wallet *externalapi.Wallet, lockID string, lock *externalapi.HTLCLock) {
	if wallet.HTLC == nil {
		wallet.HTLC = &externalapi.HTLCAttributes{
			LockedBalance: new(big.Int),
			Locks:         make(map[string]*externalapi.HTLCLock),
		}
	}
	if wallet.HTLC.Locks == nil {
		wallet.HTLC.Locks = make(map[string]*externalapi.HTLCLock)
	}
	if wallet.HTLC.LockedBalance == nil {
		wallet.HTLC.LockedBalance = new(big.Int)
	}
	wallet.HTLC.Locks[lockID] = lock
	wallet.HTLC.LockedBalance = new(big.Int).Add(wallet.HTLC.LockedBalance, bigUint64(lock.Amount))
}

// removeLock drops lockID from wallet without remembering it
func removeLock(wallet *externalapi.Wallet, lockID string) {
	lock := wallet.HTLC.Locks[lockID]
	delete(wallet.HTLC.Locks, lockID)
	wallet.HTLC.LockedBalance = new(big.Int).Sub(wallet.HTLC.LockedBalance, bigUint64(lock.Amount))
	if len(wallet.HTLC.Locks) == 0 && wallet.HTLC.LockedBalance.Sign() == 0 {
		wallet.HTLC = nil
	}
}
