package transactionhandlers

import (
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/pkg/errors"
)

type voteHandler struct {
	*handlerBase
}

func (h *voteHandler) Verify(transaction *externalapi.DomainTransaction) error {
	return requireAsset(transaction, transaction.Asset != nil && len(transaction.Asset.Votes) > 0)
}

// voteAfter replays the vote list over the current vote of the sender and
// returns the resulting vote
func (h *voteHandler) voteAfter(currentVote string, transaction *externalapi.DomainTransaction) (string, error) {
	for _, vote := range transaction.Asset.Votes {
		if vote.IsUnvote {
			if currentVote == "" {
				return "", errors.Wrapf(ruleerrors.ErrNoVote, "transaction %s unvotes %s without a vote",
					transaction.ID, vote.DelegatePublicKey)
			}
			if currentVote != vote.DelegatePublicKey {
				return "", errors.Wrapf(ruleerrors.ErrVoteMismatch, "transaction %s unvotes %s but the vote is for %s",
					transaction.ID, vote.DelegatePublicKey, currentVote)
			}
			currentVote = ""
			continue
		}

		if currentVote != "" {
			return "", errors.Wrapf(ruleerrors.ErrAlreadyVoted, "transaction %s votes %s but the vote is for %s",
				transaction.ID, vote.DelegatePublicKey, currentVote)
		}
		delegate, err := h.walletStore.FindByPublicKey(vote.DelegatePublicKey)
		if err != nil || !delegate.IsDelegate() {
			return "", errors.Wrapf(ruleerrors.ErrVoteForNonDelegate, "transaction %s votes %s",
				transaction.ID, vote.DelegatePublicKey)
		}
		currentVote = vote.DelegatePublicKey
	}
	return currentVote, nil
}

// voteBefore replays the vote list backwards from the current vote of the
// sender and returns the vote the sender had before the transaction
func voteBefore(currentVote string, transaction *externalapi.DomainTransaction) (string, error) {
	for i := len(transaction.Asset.Votes) - 1; i >= 0; i-- {
		vote := transaction.Asset.Votes[i]
		if vote.IsUnvote {
			if currentVote != "" {
				return "", errors.Wrapf(ruleerrors.ErrAlreadyVoted, "cannot revert unvote of %s in transaction %s",
					vote.DelegatePublicKey, transaction.ID)
			}
			currentVote = vote.DelegatePublicKey
			continue
		}
		if currentVote != vote.DelegatePublicKey {
			return "", errors.Wrapf(ruleerrors.ErrVoteMismatch, "cannot revert vote for %s in transaction %s, "+
				"the vote is for %s", vote.DelegatePublicKey, transaction.ID, currentVote)
		}
		currentVote = ""
	}
	return currentVote, nil
}

func (h *voteHandler) Apply(transaction *externalapi.DomainTransaction) error {
	err := h.Verify(transaction)
	if err != nil {
		return err
	}
	sender, err := h.sender(transaction)
	if err != nil {
		return err
	}
	newVote, err := h.voteAfter(sender.Vote, transaction)
	if err != nil {
		return err
	}
	_, err = h.applyToSender(transaction, bigUint64(0))
	if err != nil {
		return err
	}
	sender.Vote = newVote
	return nil
}

func (h *voteHandler) Revert(transaction *externalapi.DomainTransaction) error {
	err := h.Verify(transaction)
	if err != nil {
		return err
	}
	sender, err := h.sender(transaction)
	if err != nil {
		return err
	}
	previousVote, err := voteBefore(sender.Vote, transaction)
	if err != nil {
		return err
	}
	_, err = h.revertForSender(transaction, bigUint64(0))
	if err != nil {
		return err
	}
	sender.Vote = previousVote
	return nil
}
