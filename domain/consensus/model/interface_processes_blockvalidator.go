package model

import "github.com/dposnet/dposd/domain/consensus/model/externalapi"

// BlockValidator exposes the predicates that decide whether a candidate
// block may extend the chain. Failed predicates are reported as values;
// returned errors denote faults of the validator's collaborators.
type BlockValidator interface {
	IsException(block *externalapi.DomainBlock) bool
	VerifyBlock(block *externalapi.DomainBlock) (bool, error)
	BlockContainsIncompatibleTransactions(block *externalapi.DomainBlock) bool
	BlockContainsOutOfOrderNonce(block *externalapi.DomainBlock) bool
	ValidateGenerator(block *externalapi.DomainBlock, blockTimeLookup externalapi.BlockTimeLookup) (bool, error)
	IsBlockChained(previousBlock *externalapi.DomainBlockData, nextBlock *externalapi.DomainBlockData,
		blockTimeLookup externalapi.BlockTimeLookup) (bool, error)
	BlockChainedDetails(previousBlock *externalapi.DomainBlockData, nextBlock *externalapi.DomainBlockData,
		blockTimeLookup externalapi.BlockTimeLookup) (*externalapi.ChainedDetails, error)
	CheckBlockContainsForgedTransactions(block *externalapi.DomainBlock) (bool, error)
}
