package blockvalidator

import (
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
)

// IsBlockChained returns whether nextBlock directly extends previousBlock
func (v *blockValidator) IsBlockChained(previousBlock *externalapi.DomainBlockData,
	nextBlock *externalapi.DomainBlockData, blockTimeLookup externalapi.BlockTimeLookup) (bool, error) {

	details, err := v.BlockChainedDetails(previousBlock, nextBlock, blockTimeLookup)
	if err != nil {
		return false, err
	}
	return details.IsChained, nil
}

// BlockChainedDetails returns every condition of chain continuity between
// previousBlock and nextBlock
func (v *blockValidator) BlockChainedDetails(previousBlock *externalapi.DomainBlockData,
	nextBlock *externalapi.DomainBlockData, blockTimeLookup externalapi.BlockTimeLookup) (
	*externalapi.ChainedDetails, error) {

	previousSlot, err := v.slotOracle.SlotNumber(blockTimeLookup, previousBlock.Timestamp, previousBlock.Height)
	if err != nil {
		return nil, err
	}
	nextSlot, err := v.slotOracle.SlotNumber(blockTimeLookup, nextBlock.Timestamp, nextBlock.Height)
	if err != nil {
		return nil, err
	}

	details := &externalapi.ChainedDetails{
		FollowsPrevious:     nextBlock.PreviousBlockID == previousBlock.ID,
		IsSequentialHeight:  nextBlock.Height == previousBlock.Height+1,
		PreviousSlot:        previousSlot,
		NextSlot:            nextSlot,
		IsAfterPreviousSlot: previousSlot < nextSlot,
	}
	details.IsChained = details.FollowsPrevious && details.IsSequentialHeight && details.IsAfterPreviousSlot
	return details, nil
}
