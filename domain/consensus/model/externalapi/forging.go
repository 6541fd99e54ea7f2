package externalapi

// ForgingInfo is the leader schedule derived for a given height and timestamp
type ForgingInfo struct {
	CurrentForger  uint32
	NextForger     uint32
	BlockTimestamp uint64
	CanForge       bool
}

// SlotInfo describes the forging slot a timestamp falls into
type SlotInfo struct {
	SlotNumber    int64
	StartTime     uint64
	EndTime       uint64
	BlockTime     uint64
	ForgingStatus bool
}

// BlockTimeLookup returns the timestamp of the block at the given height
type BlockTimeLookup func(height uint64) (uint64, error)

// ActiveDelegatesMilestone marks the height from which an active delegate
// count is in effect
type ActiveDelegatesMilestone struct {
	Height          uint64
	ActiveDelegates uint32
}

// RoundInfo locates a height inside the round schedule
type RoundInfo struct {
	Round        uint64
	RoundHeight  uint64
	NextRound    uint64
	MaxDelegates uint32
}

// ChainedDetails is the diagnostic record of a chain continuity check
type ChainedDetails struct {
	FollowsPrevious     bool
	IsSequentialHeight  bool
	PreviousSlot        int64
	NextSlot            int64
	IsAfterPreviousSlot bool
	IsChained           bool
}

// BlockTimeMilestone is the slot duration, in seconds, in effect from Height onward
type BlockTimeMilestone struct {
	Height    uint64
	BlockTime uint64
}

// BlockException is a historical block accepted without validation. When
// TransactionIDs is non-empty the block must carry exactly these
// transactions, in this order, to match.
type BlockException struct {
	BlockID        string
	Height         uint64
	TransactionIDs []string
}
