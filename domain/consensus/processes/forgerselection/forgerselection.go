package forgerselection

import (
	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

// forgerSelection computes which active delegate is scheduled to forge at
// a given height and timestamp
type forgerSelection struct {
	milestones []externalapi.ActiveDelegatesMilestone
	slotOracle model.SlotOracle
}

// New instantiates a new ForgerSelection. milestones must be ascending by
// height, start at height 1 and carry non-zero delegate counts.
func New(milestones []externalapi.ActiveDelegatesMilestone, slotOracle model.SlotOracle) model.ForgerSelection {
	return &forgerSelection{
		milestones: milestones,
		slotOracle: slotOracle,
	}
}

// CalculateForgingInfo returns the current and next forger indexes, the
// start time of the slot and whether forging is still allowed in it
func (fs *forgerSelection) CalculateForgingInfo(timestamp uint64, height uint64,
	blockTimeLookup externalapi.BlockTimeLookup) (*externalapi.ForgingInfo, error) {

	slotInfo, err := fs.slotOracle.SlotInfo(blockTimeLookup, timestamp, height)
	if err != nil {
		return nil, err
	}

	currentForger, nextForger, err := fs.findIndex(height, slotInfo.SlotNumber, blockTimeLookup)
	if err != nil {
		return nil, err
	}

	log.Tracef("Forging info at height %d, timestamp %d: slot %d, current forger %d, next forger %d",
		height, timestamp, slotInfo.SlotNumber, currentForger, nextForger)

	return &externalapi.ForgingInfo{
		CurrentForger:  currentForger,
		NextForger:     nextForger,
		BlockTimestamp: slotInfo.StartTime,
		CanForge:       slotInfo.ForgingStatus,
	}, nil
}

// findIndex walks the active delegate milestones up to height. Each span
// of a constant delegate count starts one slot after the slot of the last
// block before the span, so the rotation restarts at index 0 on every
// delegate count change.
func (fs *forgerSelection) findIndex(height uint64, slotNumber int64,
	blockTimeLookup externalapi.BlockTimeLookup) (currentForger uint32, nextForger uint32, err error) {

	if len(fs.milestones) == 0 {
		return 0, 0, errors.New("no active delegates milestones")
	}

	lastSpanSlotNumber := int64(0)
	activeDelegates := fs.milestones[0].ActiveDelegates

	for _, milestone := range fs.milestones[1:] {
		if height < milestone.Height {
			break
		}

		lastSpanEndTime, err := blockTimeLookup(milestone.Height - 1)
		if err != nil {
			return 0, 0, errors.Wrapf(err, "couldn't find the timestamp of block %d", milestone.Height-1)
		}
		lastSpanEndSlot, err := fs.slotOracle.SlotNumber(blockTimeLookup, lastSpanEndTime, milestone.Height-1)
		if err != nil {
			return 0, 0, err
		}
		lastSpanSlotNumber = lastSpanEndSlot + 1
		activeDelegates = milestone.ActiveDelegates
	}

	if activeDelegates == 0 {
		return 0, 0, errors.Errorf("zero active delegates at height %d", height)
	}

	current := positiveModulo(slotNumber-lastSpanSlotNumber, int64(activeDelegates))
	next := (current + 1) % int64(activeDelegates)

	return uint32(current), uint32(next), nil
}

// positiveModulo returns a mod b in the range [0, b)
func positiveModulo(a, b int64) int64 {
	result := a % b
	if result < 0 {
		result += b
	}
	return result
}
