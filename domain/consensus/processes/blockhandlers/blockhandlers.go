package blockhandlers

import (
	"github.com/dposnet/dposd/domain/chainconfig"
	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/processes/blockhandlers/blocklogger"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/pkg/errors"
)

// blockHandlers are the default reactions to the outcome of block
// validation. Only the accept, exception and revert handlers touch the
// ledger; the others report their outcome.
type blockHandlers struct {
	activeDelegatesMilestones []externalapi.ActiveDelegatesMilestone

	blockStateManager       model.BlockStateManager
	activeDelegatesProvider model.ActiveDelegatesProvider
	chainStateStore         model.ChainStateStore
}

// New instantiates the default BlockHandlers
func New(params *chainconfig.Params,
	blockStateManager model.BlockStateManager,
	activeDelegatesProvider model.ActiveDelegatesProvider,
	chainStateStore model.ChainStateStore) model.BlockHandlers {

	return &blockHandlers{
		activeDelegatesMilestones: params.ActiveDelegatesMilestones(),
		blockStateManager:         blockStateManager,
		activeDelegatesProvider:   activeDelegatesProvider,
		chainStateStore:           chainStateStore,
	}
}

// HandleException forcibly accepts a historical exception block unless
// the chain is already past its height
func (bh *blockHandlers) HandleException(block *externalapi.DomainBlock) (externalapi.BlockProcessorResult, error) {
	lastBlock := bh.chainStateStore.LastBlock()
	if lastBlock != nil && block.Data.Height <= lastBlock.Data.Height {
		log.Infof("Exception block %d (%s) is already part of the chain", block.Data.Height, block.Data.ID)
		return externalapi.BlockProcessorResultRejected, nil
	}
	log.Warnf("Block %d (%s) forcibly accepted.", block.Data.Height, block.Data.ID)
	return bh.HandleAccept(block)
}

func (bh *blockHandlers) HandleVerificationFailed(block *externalapi.DomainBlock) (
	externalapi.BlockProcessorResult, error) {

	log.Warnf("Block %d (%s) rejected: verification failed", block.Data.Height, block.Data.ID)
	return externalapi.BlockProcessorResultRejected, nil
}

func (bh *blockHandlers) HandleIncompatibleTransactions(block *externalapi.DomainBlock) (
	externalapi.BlockProcessorResult, error) {

	log.Warnf("Block %d (%s) rejected: it mixes transaction versions", block.Data.Height, block.Data.ID)
	return externalapi.BlockProcessorResultRejected, nil
}

func (bh *blockHandlers) HandleNonceOutOfOrder(block *externalapi.DomainBlock) (
	externalapi.BlockProcessorResult, error) {

	log.Warnf("Block %d (%s) rejected: transaction nonces out of order", block.Data.Height, block.Data.ID)
	return externalapi.BlockProcessorResultRejected, nil
}

func (bh *blockHandlers) HandleInvalidGenerator(block *externalapi.DomainBlock) (
	externalapi.BlockProcessorResult, error) {

	log.Warnf("Block %d (%s) rejected: generator %s is not allowed to forge it",
		block.Data.Height, block.Data.ID, block.Data.GeneratorPublicKey)
	return externalapi.BlockProcessorResultRejected, nil
}

func (bh *blockHandlers) HandleAlreadyForged(block *externalapi.DomainBlock) (
	externalapi.BlockProcessorResult, error) {

	log.Warnf("Block %d (%s) rejected: it contains already forged transactions", block.Data.Height, block.Data.ID)
	return externalapi.BlockProcessorResultRejected, nil
}

// HandleAccept applies block to the ledger
func (bh *blockHandlers) HandleAccept(block *externalapi.DomainBlock) (externalapi.BlockProcessorResult, error) {
	err := bh.blockStateManager.ApplyBlock(block)
	if err != nil {
		if ruleerrors.IsLedgerCorrupted(err) {
			log.Criticalf("Ledger corrupted while applying block %d (%s): %+v", block.Data.Height, block.Data.ID, err)
			return externalapi.BlockProcessorResultCorrupted, nil
		}
		log.Warnf("Refused new block %d (%s): %s", block.Data.Height, block.Data.ID, err)
		log.Debugf("%+v", err)
		return externalapi.BlockProcessorResultRejected, nil
	}

	blocklogger.LogBlock(block)
	return externalapi.BlockProcessorResultAccepted, nil
}

// HandleRevert reverts block from the ledger. A revert that cannot be
// completed leaves the node unable to follow the chain it was asked to
// leave, so every failure is reported as corruption.
func (bh *blockHandlers) HandleRevert(block *externalapi.DomainBlock) (externalapi.BlockProcessorResult, error) {
	err := bh.blockStateManager.RevertBlock(block)
	if errors.Is(err, ruleerrors.ErrMissingLastBlock) {
		// Refused before touching the ledger
		return 0, err
	}
	if err != nil {
		log.Criticalf("Failed to revert block %d (%s): %+v", block.Data.Height, block.Data.ID, err)
		return externalapi.BlockProcessorResultCorrupted, nil
	}
	log.Infof("Reverted block %d (%s)", block.Data.Height, block.Data.ID)
	return externalapi.BlockProcessorResultReverted, nil
}
