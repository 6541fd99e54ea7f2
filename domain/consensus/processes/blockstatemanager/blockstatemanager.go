package blockstatemanager

import (
	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/dposnet/dposd/domain/consensus/utils/rounds"
	"github.com/dposnet/dposd/infrastructure/logger"
	"github.com/pkg/errors"
)

// blockStateManager applies blocks to the ledger as all-or-nothing units:
// a failure part way through undoes everything the block did so far
type blockStateManager struct {
	activeDelegatesMilestones []externalapi.ActiveDelegatesMilestone

	transactionHandlers     model.TransactionHandlerRegistry
	ledgerFinalizer         model.LedgerFinalizer
	activeDelegatesProvider model.ActiveDelegatesProvider

	walletStore     model.WalletStore
	chainStateStore model.ChainStateStore
}

// New instantiates a new BlockStateManager
func New(
	activeDelegatesMilestones []externalapi.ActiveDelegatesMilestone,
	transactionHandlers model.TransactionHandlerRegistry,
	ledgerFinalizer model.LedgerFinalizer,
	activeDelegatesProvider model.ActiveDelegatesProvider,
	walletStore model.WalletStore,
	chainStateStore model.ChainStateStore) model.BlockStateManager {

	return &blockStateManager{
		activeDelegatesMilestones: activeDelegatesMilestones,
		transactionHandlers:       transactionHandlers,
		ledgerFinalizer:           ledgerFinalizer,
		activeDelegatesProvider:   activeDelegatesProvider,
		walletStore:               walletStore,
		chainStateStore:           chainStateStore,
	}
}

// ApplyBlock applies the transactions of block in order, credits its
// forger and makes it the chain tip. The tip only moves once everything
// else succeeded. The first block of a round freezes the round's active
// delegates as they stood before it.
func (bsm *blockStateManager) ApplyBlock(block *externalapi.DomainBlock) error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "ApplyBlock")
	defer onEnd()

	data := block.Data
	roundInfo, err := rounds.CalculateRound(data.Height, bsm.activeDelegatesMilestones)
	if err != nil {
		return err
	}
	startsRound := roundInfo.RoundHeight == data.Height
	var roundDelegates []*externalapi.Wallet
	if startsRound && data.Height > 1 {
		roundDelegates, err = bsm.roundStartDelegates(roundInfo)
		if err != nil {
			return err
		}
	}

	if data.Height == 1 {
		err := bsm.initGenesisForgerWallet(data.GeneratorPublicKey)
		if err != nil {
			return err
		}
	}

	forgerWallet, err := bsm.walletStore.FindByPublicKey(data.GeneratorPublicKey)
	if err != nil {
		return errors.Wrapf(ruleerrors.ErrMissingForgerWallet, "forger %s of block %s: %s",
			data.GeneratorPublicKey, data.ID, err)
	}

	appliedTransactions := make([]*externalapi.DomainTransaction, 0, len(block.Transactions))
	for _, transaction := range block.Transactions {
		err := bsm.ApplyTransaction(transaction)
		if err != nil {
			return bsm.undoAppliedTransactions(block, appliedTransactions, err)
		}
		appliedTransactions = append(appliedTransactions, transaction)
	}

	err = bsm.ledgerFinalizer.ApplyBlockToForger(forgerWallet, data)
	if err != nil {
		return bsm.undoAppliedTransactions(block, appliedTransactions, err)
	}

	bsm.chainStateStore.SetLastBlock(block)
	if startsRound {
		// The delegates of the first round are registered by the genesis
		// block itself
		if data.Height == 1 {
			roundDelegates, err = bsm.roundStartDelegates(roundInfo)
			if err != nil {
				return err
			}
		}
		if len(roundDelegates) > 0 {
			bsm.activeDelegatesProvider.FreezeRound(roundInfo.Round, roundDelegates)
		}
	}
	log.Debugf("Applied block %s at height %d with %d transactions", data.ID, data.Height, len(block.Transactions))
	return nil
}

// roundStartDelegates returns the active delegates of a round that is about
// to start. A round without delegates is not an error here: validation
// decides what such a round accepts.
func (bsm *blockStateManager) roundStartDelegates(roundInfo *externalapi.RoundInfo) ([]*externalapi.Wallet, error) {
	delegates, err := bsm.activeDelegatesProvider.ActiveDelegates(roundInfo)
	if errors.Is(err, ruleerrors.ErrNoActiveDelegates) {
		log.Warnf("Round %d starts without active delegates", roundInfo.Round)
		return nil, nil
	}
	return delegates, err
}

// undoAppliedTransactions reverts appliedTransactions in reverse order
// after applying block failed with cause
func (bsm *blockStateManager) undoAppliedTransactions(block *externalapi.DomainBlock,
	appliedTransactions []*externalapi.DomainTransaction, cause error) error {

	log.Errorf("Failed to apply all transactions in block %s - reverting previous transactions: %+v",
		block.Data.ID, cause)

	var rollbackErr error
	for i := len(appliedTransactions) - 1; i >= 0; i-- {
		err := bsm.RevertTransaction(appliedTransactions[i])
		if err != nil {
			rollbackErr = err
			break
		}
	}
	if rollbackErr == nil && ruleerrors.IsLedgerCorrupted(cause) {
		return cause
	}
	if rollbackErr != nil {
		log.Criticalf("Failed to roll back block %s: %+v", block.Data.ID, rollbackErr)
		return ruleerrors.NewErrLedgerCorrupted(block.Data.ID, cause, rollbackErr)
	}
	return errors.Wrapf(cause, "failed to apply block %s", block.Data.ID)
}

// RevertBlock takes the forger credit of block back, reverts its
// transactions in reverse order and moves the tip to the previous block
func (bsm *blockStateManager) RevertBlock(block *externalapi.DomainBlock) error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "RevertBlock")
	defer onEnd()

	data := block.Data
	roundInfo, err := rounds.CalculateRound(data.Height, bsm.activeDelegatesMilestones)
	if err != nil {
		return err
	}
	newTip, moveTip, err := bsm.tipAfterRevert(block)
	if err != nil {
		return err
	}
	forgerWallet, err := bsm.walletStore.FindByPublicKey(data.GeneratorPublicKey)
	if err != nil {
		return errors.Wrapf(ruleerrors.ErrMissingForgerWallet, "forger %s of block %s: %s",
			data.GeneratorPublicKey, data.ID, err)
	}

	err = bsm.ledgerFinalizer.RevertBlockFromForger(forgerWallet, data)
	if err != nil {
		return errors.Wrapf(err, "failed to revert block %s", data.ID)
	}

	revertedTransactions := make([]*externalapi.DomainTransaction, 0, len(block.Transactions))
	for i := len(block.Transactions) - 1; i >= 0; i-- {
		transaction := block.Transactions[i]
		err := bsm.RevertTransaction(transaction)
		if err != nil {
			return bsm.redoRevertedTransactions(block, forgerWallet, revertedTransactions, err)
		}
		revertedTransactions = append(revertedTransactions, transaction)
	}

	if moveTip {
		bsm.chainStateStore.SetLastBlock(newTip)
	}
	if roundInfo.RoundHeight == data.Height {
		bsm.activeDelegatesProvider.ReleaseRound(roundInfo.Round)
	}
	log.Debugf("Reverted block %s at height %d", data.ID, data.Height)
	return nil
}

// redoRevertedTransactions re-applies revertedTransactions in block order
// and credits the forger again after reverting block failed with cause
func (bsm *blockStateManager) redoRevertedTransactions(block *externalapi.DomainBlock,
	forgerWallet *externalapi.Wallet, revertedTransactions []*externalapi.DomainTransaction, cause error) error {

	log.Errorf("Failed to revert all transactions in block %s - applying previous transactions: %+v",
		block.Data.ID, cause)

	var rollbackErr error
	for i := len(revertedTransactions) - 1; i >= 0; i-- {
		err := bsm.ApplyTransaction(revertedTransactions[i])
		if err != nil {
			rollbackErr = err
			break
		}
	}
	if rollbackErr == nil {
		rollbackErr = bsm.ledgerFinalizer.ApplyBlockToForger(forgerWallet, block.Data)
	}
	if rollbackErr == nil && ruleerrors.IsLedgerCorrupted(cause) {
		return cause
	}
	if rollbackErr != nil {
		log.Criticalf("Failed to roll back the revert of block %s: %+v", block.Data.ID, rollbackErr)
		return ruleerrors.NewErrLedgerCorrupted(block.Data.ID, cause, rollbackErr)
	}
	return errors.Wrapf(cause, "failed to revert block %s", block.Data.ID)
}

// tipAfterRevert returns the tip to move to once block is reverted, and
// whether the tip moves at all. Reverting the tip fails if its parent
// already left the recent window.
func (bsm *blockStateManager) tipAfterRevert(block *externalapi.DomainBlock) (*externalapi.DomainBlock, bool, error) {
	lastBlock := bsm.chainStateStore.LastBlock()
	if lastBlock == nil || lastBlock.Data.ID != block.Data.ID {
		return nil, false, nil
	}
	if block.Data.Height == 1 {
		return nil, true, nil
	}
	lastBlocks := bsm.chainStateStore.LastBlocks()
	for i := len(lastBlocks) - 1; i >= 0; i-- {
		if lastBlocks[i].Data.ID == block.Data.PreviousBlockID {
			return lastBlocks[i], true, nil
		}
	}
	return nil, false, errors.Wrapf(ruleerrors.ErrMissingLastBlock, "parent %s of block %s at height %d "+
		"is not among the recent blocks", block.Data.PreviousBlockID, block.Data.ID, block.Data.Height)
}

// initGenesisForgerWallet creates the wallet of the genesis generator
func (bsm *blockStateManager) initGenesisForgerWallet(generatorPublicKey string) error {
	if bsm.walletStore.HasByPublicKey(generatorPublicKey) {
		return nil
	}
	_, err := bsm.walletStore.CreateByPublicKey(generatorPublicKey)
	return err
}
