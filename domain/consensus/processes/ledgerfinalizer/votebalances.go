package ledgerfinalizer

import (
	"math/big"

	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/pkg/errors"
)

// voteBalanceDelta is a pending change to the vote balance of one delegate
type voteBalanceDelta struct {
	delegate *externalapi.Wallet
	amount   *big.Int
}

func (lf *ledgerFinalizer) ApplyVoteBalances(sender *externalapi.Wallet, recipient *externalapi.Wallet,
	transaction *externalapi.DomainTransaction, lockWallet *externalapi.Wallet, lock *externalapi.HTLCLock) error {

	return lf.updateVoteBalances(sender, recipient, transaction, lockWallet, lock, apply)
}

func (lf *ledgerFinalizer) RevertVoteBalances(sender *externalapi.Wallet, recipient *externalapi.Wallet,
	transaction *externalapi.DomainTransaction, lockWallet *externalapi.Wallet, lock *externalapi.HTLCLock) error {

	return lf.updateVoteBalances(sender, recipient, transaction, lockWallet, lock, revert)
}

// updateVoteBalances collects every delta first so that an unresolvable
// wallet leaves all vote balances untouched
func (lf *ledgerFinalizer) updateVoteBalances(sender *externalapi.Wallet, recipient *externalapi.Wallet,
	transaction *externalapi.DomainTransaction, lockWallet *externalapi.Wallet, lock *externalapi.HTLCLock,
	d direction) error {

	if sender == nil {
		return errors.Wrapf(ruleerrors.ErrWalletNotFound, "sender of transaction %s", transaction.ID)
	}

	var deltas []voteBalanceDelta
	var err error
	if transaction.IsCoreType(externalapi.TransactionTypeVote) {
		deltas, err = lf.voteTransactionDeltas(sender, transaction, d)
	} else {
		deltas, err = lf.transferDeltas(sender, recipient, transaction, lockWallet, lock)
	}
	if err != nil {
		return err
	}

	for _, delta := range deltas {
		addVoteBalance(delta.delegate, d.signed(delta.amount))
	}
	return nil
}

// voteTransactionDeltas moves the sender's delegated amount between the
// delegates named in the vote list. It runs after the handler applied the
// transaction, or after the handler reverted it, so on revert the fee is
// taken back out to recover the post-apply balance.
func (lf *ledgerFinalizer) voteTransactionDeltas(sender *externalapi.Wallet,
	transaction *externalapi.DomainTransaction, d direction) ([]voteBalanceDelta, error) {

	if transaction.Asset == nil || len(transaction.Asset.Votes) == 0 {
		return nil, errors.Wrapf(ruleerrors.ErrMissingAsset, "vote transaction %s", transaction.ID)
	}

	fee := bigUint64(transaction.Fee)
	delegatedAmount := sender.DelegatedAmount()
	if d == revert {
		delegatedAmount.Sub(delegatedAmount, fee)
	}

	deltas := make([]voteBalanceDelta, 0, len(transaction.Asset.Votes))
	for i, vote := range transaction.Asset.Votes {
		delegate, err := lf.delegateByPublicKey(vote.DelegatePublicKey)
		if err != nil {
			return nil, err
		}
		amount := new(big.Int).Set(delegatedAmount)
		if vote.IsUnvote {
			// The first unvote is charged the fee against the old delegate
			if i == 0 {
				amount.Add(amount, fee)
			}
			amount.Neg(amount)
		}
		deltas = append(deltas, voteBalanceDelta{delegate: delegate, amount: amount})
	}
	return deltas, nil
}

// transferDeltas covers every non-vote transaction: the sender's delegate
// loses what left the sender's delegated amount and recipients' delegates
// gain what reached them
func (lf *ledgerFinalizer) transferDeltas(sender *externalapi.Wallet, recipient *externalapi.Wallet,
	transaction *externalapi.DomainTransaction, lockWallet *externalapi.Wallet,
	lock *externalapi.HTLCLock) ([]voteBalanceDelta, error) {

	isHTLCLock := transaction.IsCoreType(externalapi.TransactionTypeHTLCLock)
	isHTLCClaim := transaction.IsCoreType(externalapi.TransactionTypeHTLCClaim)
	isMultiPayment := transaction.IsCoreType(externalapi.TransactionTypeMultiPayment)

	amount := bigUint64(transaction.Amount)
	if isMultiPayment {
		if transaction.Asset == nil {
			return nil, errors.Wrapf(ruleerrors.ErrMissingAsset, "multi-payment %s", transaction.ID)
		}
		amount = transaction.Asset.PaymentsTotal()
	}
	fee := bigUint64(transaction.Fee)

	var senderDecrease *big.Int
	switch {
	case isHTLCLock:
		senderDecrease = fee
	case isHTLCClaim:
		if lockWallet == nil || lock == nil {
			return nil, errors.Wrapf(ruleerrors.ErrLockNotFound, "claim %s", transaction.ID)
		}
		senderDecrease = new(big.Int).Sub(fee, bigUint64(lock.Amount))
	default:
		senderDecrease = new(big.Int).Add(amount, fee)
	}

	var deltas []voteBalanceDelta
	appendDelta := func(wallet *externalapi.Wallet, amount *big.Int) error {
		delegate, err := lf.votedDelegate(wallet)
		if err != nil {
			return err
		}
		if delegate != nil {
			deltas = append(deltas, voteBalanceDelta{delegate: delegate, amount: amount})
		}
		return nil
	}

	err := appendDelta(sender, new(big.Int).Neg(senderDecrease))
	if err != nil {
		return nil, err
	}

	if isHTLCClaim {
		err = appendDelta(lockWallet, new(big.Int).Neg(bigUint64(lock.Amount)))
		if err != nil {
			return nil, err
		}
	}

	if isMultiPayment {
		for _, payment := range transaction.Asset.Payments {
			paymentRecipient, err := lf.walletStore.FindByAddress(payment.RecipientID)
			if err != nil {
				return nil, err
			}
			err = appendDelta(paymentRecipient, bigUint64(payment.Amount))
			if err != nil {
				return nil, err
			}
		}
	}

	if recipient != nil && !isHTLCLock {
		err = appendDelta(recipient, bigUint64(transaction.Amount))
		if err != nil {
			return nil, err
		}
	}
	return deltas, nil
}
