package slots

import (
	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

// slotOracle maps timestamps to forging slots. Slots are BlockTime seconds
// long. When the block time changes at a milestone, the new span starts at
// the end of the slot holding the last block before the milestone, so slot
// numbers stay continuous across spans.
type slotOracle struct {
	milestones []externalapi.BlockTimeMilestone
}

// New instantiates a new SlotOracle
func New(milestones []externalapi.BlockTimeMilestone) (model.SlotOracle, error) {
	if len(milestones) == 0 || milestones[0].Height != 1 {
		return nil, errors.New("block time milestones must start at height 1")
	}
	for _, milestone := range milestones {
		if milestone.BlockTime == 0 {
			return nil, errors.Errorf("zero block time at height %d", milestone.Height)
		}
	}
	return &slotOracle{milestones: milestones}, nil
}

func (so *slotOracle) SlotNumber(blockTimeLookup externalapi.BlockTimeLookup,
	timestamp uint64, height uint64) (int64, error) {

	slotInfo, err := so.SlotInfo(blockTimeLookup, timestamp, height)
	if err != nil {
		return 0, err
	}
	return slotInfo.SlotNumber, nil
}

func (so *slotOracle) SlotInfo(blockTimeLookup externalapi.BlockTimeLookup,
	timestamp uint64, height uint64) (*externalapi.SlotInfo, error) {

	blockTime := int64(so.milestones[0].BlockTime)
	spanStartTime := int64(0)
	spanStartSlot := int64(0)

	for _, milestone := range so.milestones[1:] {
		if height < milestone.Height {
			break
		}
		lastBlockTimestamp, err := blockTimeLookup(milestone.Height - 1)
		if err != nil {
			return nil, errors.Wrapf(err, "couldn't find the timestamp of block %d", milestone.Height-1)
		}
		lastBlockSlotOffset := floorDiv(int64(lastBlockTimestamp)-spanStartTime, blockTime)
		spanStartTime += (lastBlockSlotOffset + 1) * blockTime
		spanStartSlot += lastBlockSlotOffset + 1
		blockTime = int64(milestone.BlockTime)
	}

	slotOffset := floorDiv(int64(timestamp)-spanStartTime, blockTime)
	startTime := spanStartTime + slotOffset*blockTime
	endTime := startTime + blockTime - 1

	return &externalapi.SlotInfo{
		SlotNumber:    spanStartSlot + slotOffset,
		StartTime:     nonNegative(startTime),
		EndTime:       nonNegative(endTime),
		BlockTime:     uint64(blockTime),
		ForgingStatus: int64(timestamp) < startTime+blockTime/2,
	}, nil
}

// floorDiv rounds towards negative infinity
func floorDiv(a, b int64) int64 {
	quotient := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		quotient--
	}
	return quotient
}

func nonNegative(value int64) uint64 {
	if value < 0 {
		return 0
	}
	return uint64(value)
}
