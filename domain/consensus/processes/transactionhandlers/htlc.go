package transactionhandlers

import (
	"crypto/sha256"
	"encoding/hex"
	"math/big"

	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/pkg/errors"
)

type htlcLockHandler struct {
	*handlerBase
}

func (h *htlcLockHandler) Verify(transaction *externalapi.DomainTransaction) error {
	err := requireAsset(transaction, transaction.Asset != nil && transaction.Asset.Lock != nil)
	if err != nil {
		return err
	}
	err = h.requireRecipient(transaction)
	if err != nil {
		return err
	}
	if h.lockIsExpired(newLock(transaction)) {
		return errors.Wrapf(ruleerrors.ErrLockExpired, "lock %s expires before the chain tip", transaction.ID)
	}
	return nil
}

func newLock(transaction *externalapi.DomainTransaction) *externalapi.HTLCLock {
	return &externalapi.HTLCLock{
		Amount:          transaction.Amount,
		RecipientID:     transaction.RecipientID,
		SecretHash:      transaction.Asset.Lock.SecretHash,
		ExpirationType:  transaction.Asset.Lock.ExpirationType,
		ExpirationValue: transaction.Asset.Lock.ExpirationValue,
		Timestamp:       transaction.Timestamp,
	}
}

func (h *htlcLockHandler) Apply(transaction *externalapi.DomainTransaction) error {
	err := h.Verify(transaction)
	if err != nil {
		return err
	}
	if h.walletStore.HasByIndex(model.WalletIndexLocks, transaction.ID) {
		return errors.Wrapf(ruleerrors.ErrLockAlreadyExists, "lock %s", transaction.ID)
	}
	sender, err := h.applyToSender(transaction, bigUint64(transaction.Amount))
	if err != nil {
		return err
	}
	addLock(sender, transaction.ID, newLock(transaction))
	h.walletStore.Index(sender)
	return nil
}

func (h *htlcLockHandler) Revert(transaction *externalapi.DomainTransaction) error {
	sender, err := h.sender(transaction)
	if err != nil {
		return err
	}
	if sender.HTLC == nil || sender.HTLC.Locks[transaction.ID] == nil {
		return errors.Wrapf(ruleerrors.ErrLockNotFound, "lock %s of wallet %s", transaction.ID, sender.Address)
	}
	_, err = h.revertForSender(transaction, bigUint64(transaction.Amount))
	if err != nil {
		return err
	}
	removeLock(sender, transaction.ID)
	h.walletStore.Index(sender)
	return nil
}

type htlcClaimHandler struct {
	*handlerBase
}

func secretHash(unlockSecret string) (string, error) {
	secret, err := hex.DecodeString(unlockSecret)
	if err != nil {
		return "", errors.Wrapf(ruleerrors.ErrInvalidUnlockSecret, "malformed secret: %s", err)
	}
	hash := sha256.Sum256(secret)
	return hex.EncodeToString(hash[:]), nil
}

func (h *htlcClaimHandler) Verify(transaction *externalapi.DomainTransaction) error {
	err := requireAsset(transaction, transaction.Asset != nil && transaction.Asset.Claim != nil)
	if err != nil {
		return err
	}
	lockID := transaction.Asset.Claim.LockTransactionID
	_, lock, err := h.findLock(lockID)
	if err != nil {
		return err
	}
	if h.lockIsExpired(lock) {
		return errors.Wrapf(ruleerrors.ErrLockExpired, "lock %s", lockID)
	}
	hash, err := secretHash(transaction.Asset.Claim.UnlockSecret)
	if err != nil {
		return err
	}
	if hash != lock.SecretHash {
		return errors.Wrapf(ruleerrors.ErrInvalidUnlockSecret, "secret of transaction %s does not open lock %s",
			transaction.ID, lockID)
	}
	sender, err := h.sender(transaction)
	if err != nil {
		return err
	}
	if sender.Address != lock.RecipientID {
		return errors.Wrapf(ruleerrors.ErrInvalidUnlockSecret, "wallet %s is not the recipient of lock %s",
			sender.Address, lockID)
	}
	return nil
}

// Apply moves the locked amount, minus the fee, to the claiming wallet
func (h *htlcClaimHandler) Apply(transaction *externalapi.DomainTransaction) error {
	err := h.Verify(transaction)
	if err != nil {
		return err
	}
	lockID := transaction.Asset.Claim.LockTransactionID
	lockWallet, lock, err := h.findLock(lockID)
	if err != nil {
		return err
	}
	sender, err := h.sender(transaction)
	if err != nil {
		return err
	}
	return h.redeem(sender, lockWallet, lockID, lock, transaction)
}

func (h *htlcClaimHandler) Revert(transaction *externalapi.DomainTransaction) error {
	err := requireAsset(transaction, transaction.Asset != nil && transaction.Asset.Claim != nil)
	if err != nil {
		return err
	}
	return h.unredeem(transaction, transaction.Asset.Claim.LockTransactionID)
}

type htlcRefundHandler struct {
	*handlerBase
}

func (h *htlcRefundHandler) Verify(transaction *externalapi.DomainTransaction) error {
	err := requireAsset(transaction, transaction.Asset != nil && transaction.Asset.Refund != nil)
	if err != nil {
		return err
	}
	lockID := transaction.Asset.Refund.LockTransactionID
	lockWallet, lock, err := h.findLock(lockID)
	if err != nil {
		return err
	}
	if !h.lockIsExpired(lock) {
		return errors.Wrapf(ruleerrors.ErrLockNotExpired, "lock %s", lockID)
	}
	if lockWallet.PublicKey != transaction.SenderPublicKey {
		return errors.Wrapf(ruleerrors.ErrLockNotFound, "lock %s does not belong to the sender of %s",
			lockID, transaction.ID)
	}
	return nil
}

// Apply returns the locked amount, minus the fee, to the lock owner
func (h *htlcRefundHandler) Apply(transaction *externalapi.DomainTransaction) error {
	err := h.Verify(transaction)
	if err != nil {
		return err
	}
	lockID := transaction.Asset.Refund.LockTransactionID
	lockWallet, lock, err := h.findLock(lockID)
	if err != nil {
		return err
	}
	return h.redeem(lockWallet, lockWallet, lockID, lock, transaction)
}

func (h *htlcRefundHandler) Revert(transaction *externalapi.DomainTransaction) error {
	err := requireAsset(transaction, transaction.Asset != nil && transaction.Asset.Refund != nil)
	if err != nil {
		return err
	}
	return h.unredeem(transaction, transaction.Asset.Refund.LockTransactionID)
}

// redeem spends lockID and credits its amount minus the transaction fee to
// the sender of transaction
func (hb *handlerBase) redeem(sender *externalapi.Wallet, lockWallet *externalapi.Wallet, lockID string,
	lock *externalapi.HTLCLock, transaction *externalapi.DomainTransaction) error {

	err := checkApplyNonce(sender, transaction)
	if err != nil {
		return err
	}
	credit := new(big.Int).Sub(bigUint64(lock.Amount), bigUint64(transaction.Fee))
	if new(big.Int).Add(sender.Balance, credit).Sign() < 0 {
		return errors.Wrapf(ruleerrors.ErrInsufficientBalance, "wallet %s cannot pay the fee of %s",
			sender.Address, transaction.ID)
	}

	hb.spendLock(lockWallet, lockID)
	sender.Nonce++
	sender.IncreaseBalance(credit)
	return nil
}

func (hb *handlerBase) unredeem(transaction *externalapi.DomainTransaction, lockID string) error {
	sender, err := hb.sender(transaction)
	if err != nil {
		return err
	}
	err = checkRevertNonce(sender, transaction)
	if err != nil {
		return err
	}
	if _, ok := hb.spentLocks[lockID]; !ok {
		return errors.Wrapf(ruleerrors.ErrLockNotFound, "spent lock %s is unknown", lockID)
	}

	_, lock, err := hb.restoreLock(lockID)
	if err != nil {
		return err
	}
	sender.Nonce--
	sender.DecreaseBalance(new(big.Int).Sub(bigUint64(lock.Amount), bigUint64(transaction.Fee)))
	return nil
}
