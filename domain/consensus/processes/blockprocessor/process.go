package blockprocessor

import (
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/infrastructure/logger"
)

// Process runs the validation stages over block in their fixed order and
// hands it to the handler of the first stage that fails, or to the accept
// handler if none does. Later stages assume the earlier ones passed.
func (bp *blockProcessor) Process(block *externalapi.DomainBlock) (externalapi.BlockProcessorResult, error) {
	onEnd := logger.LogAndMeasureExecutionTime(log, "blockProcessor.Process")
	defer onEnd()

	log.Debugf("Processing block %d (%s)", block.Data.Height, block.Data.ID)

	if bp.blockValidator.IsException(block) {
		return bp.blockHandlers.HandleException(block)
	}

	verified, err := bp.blockValidator.VerifyBlock(block)
	if err != nil {
		return 0, err
	}
	if !verified {
		return bp.blockHandlers.HandleVerificationFailed(block)
	}

	if bp.blockValidator.BlockContainsIncompatibleTransactions(block) {
		return bp.blockHandlers.HandleIncompatibleTransactions(block)
	}

	if bp.blockValidator.BlockContainsOutOfOrderNonce(block) {
		return bp.blockHandlers.HandleNonceOutOfOrder(block)
	}

	lastBlock := bp.chainStateStore.LastBlock()
	if lastBlock == nil {
		return bp.processFirstBlock(block)
	}

	blockTimeLookup := bp.chainStateStore.BlockTimeLookup()
	isValidGenerator, err := bp.blockValidator.ValidateGenerator(block, blockTimeLookup)
	if err != nil {
		return 0, err
	}
	isChained, err := bp.blockValidator.IsBlockChained(lastBlock.Data, block.Data, blockTimeLookup)
	if err != nil {
		return 0, err
	}

	if !isChained {
		return bp.blockHandlers.HandleUnchained(block, isValidGenerator)
	}
	if !isValidGenerator {
		return bp.blockHandlers.HandleInvalidGenerator(block)
	}

	containsForgedTransactions, err := bp.blockValidator.CheckBlockContainsForgedTransactions(block)
	if err != nil {
		return 0, err
	}
	if containsForgedTransactions {
		return bp.blockHandlers.HandleAlreadyForged(block)
	}

	return bp.blockHandlers.HandleAccept(block)
}

// processFirstBlock decides a block arriving on an empty chain. Only the
// genesis block by the network's genesis generator may start a chain.
func (bp *blockProcessor) processFirstBlock(block *externalapi.DomainBlock) (externalapi.BlockProcessorResult, error) {
	if block.Data.Height != 1 {
		return bp.blockHandlers.HandleUnchained(block, false)
	}
	if block.Data.GeneratorPublicKey != bp.genesisGeneratorPublicKey {
		return bp.blockHandlers.HandleInvalidGenerator(block)
	}
	return bp.blockHandlers.HandleAccept(block)
}
