package rounds

import (
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

// CalculateRound returns the round the given height belongs to. A round is
// a run of blocks as long as the active delegate count in effect, starting
// at height 1. Active delegate count changes must fall on round boundaries.
func CalculateRound(height uint64, milestones []externalapi.ActiveDelegatesMilestone) (*externalapi.RoundInfo, error) {
	if len(milestones) == 0 || milestones[0].Height != 1 {
		return nil, errors.New("active delegates milestones must start at height 1")
	}
	if height == 0 {
		return nil, errors.New("height 0 does not belong to any round")
	}

	result := &externalapi.RoundInfo{Round: 1, RoundHeight: 1}
	activeDelegates := uint64(milestones[0].ActiveDelegates)
	milestoneHeight := uint64(1)

	for _, milestone := range milestones[1:] {
		if height < milestone.Height {
			break
		}
		spanHeight := milestone.Height - milestoneHeight
		if spanHeight%activeDelegates != 0 {
			return nil, errors.Errorf("bad milestone at height %d: it does not start a new round "+
				"(%d blocks since height %d are not a multiple of %d delegates)",
				milestone.Height, spanHeight, milestoneHeight, activeDelegates)
		}
		result.Round += spanHeight / activeDelegates
		result.RoundHeight = milestone.Height
		activeDelegates = uint64(milestone.ActiveDelegates)
		milestoneHeight = milestone.Height
	}

	heightFromLastSpan := height - milestoneHeight
	roundIncrease := heightFromLastSpan / activeDelegates
	result.Round += roundIncrease
	result.RoundHeight += roundIncrease * activeDelegates
	result.NextRound = result.Round
	if (heightFromLastSpan+1)%activeDelegates == 0 {
		result.NextRound++
	}
	result.MaxDelegates = uint32(activeDelegates)

	return result, nil
}

// IsNewRound returns whether height is the first height of a round
func IsNewRound(height uint64, milestones []externalapi.ActiveDelegatesMilestone) (bool, error) {
	roundInfo, err := CalculateRound(height, milestones)
	if err != nil {
		return false, err
	}
	return roundInfo.RoundHeight == height, nil
}
