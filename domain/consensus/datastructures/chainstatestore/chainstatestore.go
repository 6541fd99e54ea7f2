package chainstatestore

import (
	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

// chainStateStore keeps the chain tip, a bounded window of the most recent
// blocks and the timestamps of blocks that precede a milestone
type chainStateStore struct {
	maxLastBlocks int

	lastBlock             *externalapi.DomainBlock
	lastBlocks            []*externalapi.DomainBlock
	lastStoredBlockHeight uint64

	// trackedTimestamps holds the timestamps of heights the slot schedule
	// needs after they leave the recent window
	trackedTimestamps map[uint64]uint64
}

// New instantiates a new ChainStateStore. milestoneHeights are the heights
// at which the block time or the active delegate count changes.
func New(maxLastBlocks int, milestoneHeights []uint64) model.ChainStateStore {
	trackedTimestamps := make(map[uint64]uint64, len(milestoneHeights))
	for _, height := range milestoneHeights {
		if height > 1 {
			trackedTimestamps[height-1] = 0
		}
	}
	return &chainStateStore{
		maxLastBlocks:     maxLastBlocks,
		lastBlocks:        make([]*externalapi.DomainBlock, 0, maxLastBlocks),
		trackedTimestamps: trackedTimestamps,
	}
}

func (css *chainStateStore) LastBlock() *externalapi.DomainBlock {
	return css.lastBlock
}

// SetLastBlock moves the tip to block. Recent blocks at or above its height
// are dropped first, which is what happens when the tip moves backwards.
func (css *chainStateStore) SetLastBlock(block *externalapi.DomainBlock) {
	css.lastBlock = block
	if block == nil {
		css.lastBlocks = css.lastBlocks[:0]
		return
	}
	height := block.Data.Height

	if len(css.lastBlocks) > 0 && css.lastBlocks[len(css.lastBlocks)-1].Data.Height != height-1 {
		kept := css.lastBlocks[:0]
		for _, recent := range css.lastBlocks {
			if recent.Data.Height < height {
				kept = append(kept, recent)
			}
		}
		css.lastBlocks = kept
		log.Debugf("Tip moved to height %d, %d recent blocks kept", height, len(kept))
	}
	css.lastBlocks = append(css.lastBlocks, block)
	if len(css.lastBlocks) > css.maxLastBlocks {
		css.lastBlocks = css.lastBlocks[len(css.lastBlocks)-css.maxLastBlocks:]
	}

	if _, ok := css.trackedTimestamps[height]; ok {
		css.trackedTimestamps[height] = block.Data.Timestamp
	}
}

// LastBlocks returns the recent blocks, ordered by ascending height
func (css *chainStateStore) LastBlocks() []*externalapi.DomainBlock {
	lastBlocks := make([]*externalapi.DomainBlock, len(css.lastBlocks))
	copy(lastBlocks, css.lastBlocks)
	return lastBlocks
}

func (css *chainStateStore) LastStoredBlockHeight() uint64 {
	return css.lastStoredBlockHeight
}

func (css *chainStateStore) SetLastStoredBlockHeight(height uint64) {
	css.lastStoredBlockHeight = height
}

// BlockTimeLookup returns the timestamp of an applied block, looked up in
// the recent window and then among the tracked milestone heights
func (css *chainStateStore) BlockTimeLookup() externalapi.BlockTimeLookup {
	return func(height uint64) (uint64, error) {
		for i := len(css.lastBlocks) - 1; i >= 0; i-- {
			recent := css.lastBlocks[i].Data
			if recent.Height == height {
				return recent.Timestamp, nil
			}
			if recent.Height < height {
				break
			}
		}
		if css.lastBlock != nil && height <= css.lastBlock.Data.Height {
			if timestamp, ok := css.trackedTimestamps[height]; ok {
				return timestamp, nil
			}
		}
		return 0, errors.Errorf("timestamp of block %d is not available", height)
	}
}
