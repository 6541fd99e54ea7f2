package blockhandlers

import (
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/dposnet/dposd/domain/consensus/utils/rounds"
	"github.com/pkg/errors"
)

// unchainedReason explains why a block does not extend the chain tip
type unchainedReason uint8

const (
	unchainedReasonNotReadyToAcceptNewHeight unchainedReason = iota
	unchainedReasonAlreadyInBlockchain
	unchainedReasonEqualToLastBlock
	unchainedReasonInvalidTimestamp
	unchainedReasonGeneratorMismatch
	unchainedReasonDoubleForging
)

var unchainedReasonStrings = map[unchainedReason]string{
	unchainedReasonNotReadyToAcceptNewHeight: "NotReadyToAcceptNewHeight",
	unchainedReasonAlreadyInBlockchain:       "AlreadyInBlockchain",
	unchainedReasonEqualToLastBlock:          "EqualToLastBlock",
	unchainedReasonInvalidTimestamp:          "InvalidTimestamp",
	unchainedReasonGeneratorMismatch:         "GeneratorMismatch",
	unchainedReasonDoubleForging:             "DoubleForging",
}

func (r unchainedReason) String() string {
	return unchainedReasonStrings[r]
}

func (bh *blockHandlers) classifyUnchained(block *externalapi.DomainBlock, lastBlock *externalapi.DomainBlock,
	isValidGenerator bool) unchainedReason {

	switch {
	case block.Data.Height > lastBlock.Data.Height+1:
		return unchainedReasonNotReadyToAcceptNewHeight
	case block.Data.Height < lastBlock.Data.Height:
		return unchainedReasonAlreadyInBlockchain
	case block.Data.Height == lastBlock.Data.Height && block.Data.ID == lastBlock.Data.ID:
		return unchainedReasonEqualToLastBlock
	case block.Data.Timestamp < lastBlock.Data.Timestamp:
		return unchainedReasonInvalidTimestamp
	case isValidGenerator:
		return unchainedReasonDoubleForging
	default:
		return unchainedReasonGeneratorMismatch
	}
}

// HandleUnchained decides what to do with a block that does not extend the
// chain tip. A competing block at the tip height by an active delegate
// means the delegate forged twice, and the tip has to be rolled back.
func (bh *blockHandlers) HandleUnchained(block *externalapi.DomainBlock, isValidGenerator bool) (
	externalapi.BlockProcessorResult, error) {

	lastBlock := bh.chainStateStore.LastBlock()
	if lastBlock == nil {
		return 0, errors.Wrapf(ruleerrors.ErrMissingLastBlock, "cannot classify unchained block %s", block.Data.ID)
	}

	reason := bh.classifyUnchained(block, lastBlock, isValidGenerator)
	switch reason {
	case unchainedReasonAlreadyInBlockchain, unchainedReasonEqualToLastBlock:
		log.Debugf("Block %d (%s) disregarded: %s", block.Data.Height, block.Data.ID, reason)
		return externalapi.BlockProcessorResultDiscardedButCanBeBroadcasted, nil

	case unchainedReasonDoubleForging:
		isActive, err := bh.isActiveDelegate(block)
		if err != nil {
			return 0, err
		}
		if isActive {
			log.Warnf("Delegate %s forged a block at height %d twice, rolling back the tip (%s)",
				block.Data.GeneratorPublicKey, block.Data.Height, lastBlock.Data.ID)
			return externalapi.BlockProcessorResultRollback, nil
		}
		log.Warnf("Block %d (%s) rejected: %s by a delegate outside the active set",
			block.Data.Height, block.Data.ID, reason)
		return externalapi.BlockProcessorResultRejected, nil

	default:
		log.Infof("Block %d (%s) rejected: %s (chain tip is %d)", block.Data.Height, block.Data.ID, reason,
			lastBlock.Data.Height)
		return externalapi.BlockProcessorResultRejected, nil
	}
}

func (bh *blockHandlers) isActiveDelegate(block *externalapi.DomainBlock) (bool, error) {
	roundInfo, err := rounds.CalculateRound(block.Data.Height, bh.activeDelegatesMilestones)
	if err != nil {
		return false, err
	}
	delegates, err := bh.activeDelegatesProvider.ActiveDelegates(roundInfo)
	if err != nil {
		if errors.Is(err, ruleerrors.ErrNoActiveDelegates) {
			return false, nil
		}
		return false, err
	}
	for _, delegate := range delegates {
		if delegate.PublicKey == block.Data.GeneratorPublicKey {
			return true, nil
		}
	}
	return false, nil
}
