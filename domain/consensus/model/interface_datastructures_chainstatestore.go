package model

import "github.com/dposnet/dposd/domain/consensus/model/externalapi"

// ChainStateStore keeps the tip of the chain and the recent blocks that
// may not be persisted yet
type ChainStateStore interface {
	LastBlock() *externalapi.DomainBlock
	SetLastBlock(block *externalapi.DomainBlock)
	LastBlocks() []*externalapi.DomainBlock
	LastStoredBlockHeight() uint64
	SetLastStoredBlockHeight(height uint64)
	BlockTimeLookup() externalapi.BlockTimeLookup
}
