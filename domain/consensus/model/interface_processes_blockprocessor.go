package model

import "github.com/dposnet/dposd/domain/consensus/model/externalapi"

// BlockProcessor decides the terminal outcome of a candidate block
type BlockProcessor interface {
	Process(block *externalapi.DomainBlock) (externalapi.BlockProcessorResult, error)
}

// BlockHandlers are the reactions to each terminal stage of block
// processing. Each handler performs its side effects and returns the
// outcome reported to the caller.
type BlockHandlers interface {
	HandleException(block *externalapi.DomainBlock) (externalapi.BlockProcessorResult, error)
	HandleVerificationFailed(block *externalapi.DomainBlock) (externalapi.BlockProcessorResult, error)
	HandleIncompatibleTransactions(block *externalapi.DomainBlock) (externalapi.BlockProcessorResult, error)
	HandleNonceOutOfOrder(block *externalapi.DomainBlock) (externalapi.BlockProcessorResult, error)
	HandleUnchained(block *externalapi.DomainBlock, isValidGenerator bool) (externalapi.BlockProcessorResult, error)
	HandleInvalidGenerator(block *externalapi.DomainBlock) (externalapi.BlockProcessorResult, error)
	HandleAlreadyForged(block *externalapi.DomainBlock) (externalapi.BlockProcessorResult, error)
	HandleAccept(block *externalapi.DomainBlock) (externalapi.BlockProcessorResult, error)
	HandleRevert(block *externalapi.DomainBlock) (externalapi.BlockProcessorResult, error)
}
