package chainconfig

import (
	"time"

	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

// Milestone is a set of chain parameters that comes into effect at Height.
// Milestones are ordered ascending by height and the first one must start
// at height 1.
type Milestone struct {
	Height          uint64 `yaml:"height"`
	ActiveDelegates uint32 `yaml:"activeDelegates"`
	BlockTime       uint64 `yaml:"blockTime"`
	Reward          uint64 `yaml:"reward"`
}

// Params defines a DPoS network by its parameters. These parameters may be
// used by applications to differentiate networks as well as addresses
// and keys for one network from those intended for use on another network.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// AddressPrefix is prepended to every address derived on this network
	AddressPrefix string

	// Epoch is the wall clock time of timestamp 0. Block timestamps are
	// seconds since Epoch.
	Epoch time.Time

	Milestones []Milestone

	// Exceptions are historical blocks that are accepted without validation
	Exceptions []externalapi.BlockException

	// GenesisGeneratorPublicKey is the generator of the block at height 1
	GenesisGeneratorPublicKey string

	// MaxLastBlocks is the number of recent blocks kept in memory by the
	// chain state
	MaxLastBlocks int
}

// MilestoneAt returns the milestone in effect at the given height
func (p *Params) MilestoneAt(height uint64) Milestone {
	current := p.Milestones[0]
	for _, milestone := range p.Milestones[1:] {
		if milestone.Height > height {
			break
		}
		current = milestone
	}
	return current
}

// ActiveDelegatesMilestones returns the milestones at which the active
// delegate count changes, starting with the one at height 1
func (p *Params) ActiveDelegatesMilestones() []externalapi.ActiveDelegatesMilestone {
	milestones := make([]externalapi.ActiveDelegatesMilestone, 0, len(p.Milestones))
	for _, milestone := range p.Milestones {
		if len(milestones) > 0 && milestones[len(milestones)-1].ActiveDelegates == milestone.ActiveDelegates {
			continue
		}
		milestones = append(milestones, externalapi.ActiveDelegatesMilestone{
			Height:          milestone.Height,
			ActiveDelegates: milestone.ActiveDelegates,
		})
	}
	return milestones
}

// BlockTimeMilestones returns the milestones at which the block time
// changes, starting with the one at height 1
func (p *Params) BlockTimeMilestones() []externalapi.BlockTimeMilestone {
	milestones := make([]externalapi.BlockTimeMilestone, 0, len(p.Milestones))
	for _, milestone := range p.Milestones {
		if len(milestones) > 0 && milestones[len(milestones)-1].BlockTime == milestone.BlockTime {
			continue
		}
		milestones = append(milestones, externalapi.BlockTimeMilestone{
			Height:    milestone.Height,
			BlockTime: milestone.BlockTime,
		})
	}
	return milestones
}

// MilestoneHeights returns every height at which the active delegate count
// or the block time changes, excluding height 1
func (p *Params) MilestoneHeights() []uint64 {
	heights := make([]uint64, 0, len(p.Milestones))
	for _, milestone := range p.ActiveDelegatesMilestones() {
		if milestone.Height > 1 {
			heights = append(heights, milestone.Height)
		}
	}
	for _, milestone := range p.BlockTimeMilestones() {
		if milestone.Height > 1 {
			heights = append(heights, milestone.Height)
		}
	}
	return heights
}

// Validate returns an error if the milestone sequence is malformed
func (p *Params) Validate() error {
	if len(p.Milestones) == 0 {
		return errors.Errorf("network %s has no milestones", p.Name)
	}
	if p.Milestones[0].Height != 1 {
		return errors.Errorf("network %s: the first milestone must start at height 1, not %d",
			p.Name, p.Milestones[0].Height)
	}
	for i, milestone := range p.Milestones {
		if milestone.ActiveDelegates == 0 {
			return errors.Errorf("network %s: milestone at height %d has no active delegates",
				p.Name, milestone.Height)
		}
		if milestone.BlockTime == 0 {
			return errors.Errorf("network %s: milestone at height %d has a zero block time",
				p.Name, milestone.Height)
		}
		if i > 0 && milestone.Height <= p.Milestones[i-1].Height {
			return errors.Errorf("network %s: milestone heights must be ascending, %d follows %d",
				p.Name, milestone.Height, p.Milestones[i-1].Height)
		}
	}

	// Rounds may only change size on a round boundary
	delegateMilestones := p.ActiveDelegatesMilestones()
	for i := 1; i < len(delegateMilestones); i++ {
		previous := delegateMilestones[i-1]
		span := delegateMilestones[i].Height - previous.Height
		if span%uint64(previous.ActiveDelegates) != 0 {
			return errors.Errorf("network %s: active delegates milestone at height %d does not start "+
				"a new round (span of %d blocks is not a multiple of %d delegates)",
				p.Name, delegateMilestones[i].Height, span, previous.ActiveDelegates)
		}
	}

	if p.MaxLastBlocks <= 0 {
		return errors.Errorf("network %s: MaxLastBlocks must be positive", p.Name)
	}
	return nil
}

var mainnetEpoch = time.Date(2017, time.March, 21, 13, 0, 0, 0, time.UTC)

// MainnetParams defines the network parameters for the main network.
var MainnetParams = Params{
	Name:          "mainnet",
	AddressPrefix: "A",
	Epoch:         mainnetEpoch,
	Milestones: []Milestone{
		{Height: 1, ActiveDelegates: 51, BlockTime: 8, Reward: 0},
		{Height: 75600, ActiveDelegates: 51, BlockTime: 8, Reward: 200000000},
	},
	GenesisGeneratorPublicKey: "b47f6b6719c76bad46a302d9cff7be9b1c2b2a20602a0d880f139b5b8901f068",
	MaxLastBlocks:             1000,
}

// TestnetParams defines the network parameters for the test network.
var TestnetParams = Params{
	Name:          "testnet",
	AddressPrefix: "T",
	Epoch:         mainnetEpoch,
	Milestones: []Milestone{
		{Height: 1, ActiveDelegates: 51, BlockTime: 8, Reward: 0},
		{Height: 2, ActiveDelegates: 51, BlockTime: 8, Reward: 200000000},
	},
	GenesisGeneratorPublicKey: "d3fdad9c5b25bf8880e6b519eb3611a5c0b31adebc8455f0e096175b28321aff",
	MaxLastBlocks:             1000,
}

// DevnetParams defines the network parameters for the development network.
var DevnetParams = Params{
	Name:          "devnet",
	AddressPrefix: "D",
	Epoch:         mainnetEpoch,
	Milestones: []Milestone{
		{Height: 1, ActiveDelegates: 51, BlockTime: 8, Reward: 0},
		{Height: 2, ActiveDelegates: 51, BlockTime: 8, Reward: 200000000},
		{Height: 102001, ActiveDelegates: 53, BlockTime: 8, Reward: 200000000},
	},
	GenesisGeneratorPublicKey: "b906102928cf97c6ddeb59cefb0e1e02105a22ab1acc3b4906214a16d494db0a",
	MaxLastBlocks:             1000,
}
