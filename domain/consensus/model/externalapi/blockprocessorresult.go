package externalapi

import "fmt"

// BlockProcessorResult is the terminal outcome of processing a candidate block
type BlockProcessorResult uint8

// Terminal outcomes of block processing
const (
	BlockProcessorResultAccepted BlockProcessorResult = iota
	BlockProcessorResultDiscardedButCanBeBroadcasted
	BlockProcessorResultRejected
	BlockProcessorResultRollback
	BlockProcessorResultReverted
	BlockProcessorResultCorrupted
)

var blockProcessorResultStrings = map[BlockProcessorResult]string{
	BlockProcessorResultAccepted:                     "Accepted",
	BlockProcessorResultDiscardedButCanBeBroadcasted: "DiscardedButCanBeBroadcasted",
	BlockProcessorResultRejected:                     "Rejected",
	BlockProcessorResultRollback:                     "Rollback",
	BlockProcessorResultReverted:                     "Reverted",
	BlockProcessorResultCorrupted:                    "Corrupted",
}

func (result BlockProcessorResult) String() string {
	if str, ok := blockProcessorResultStrings[result]; ok {
		return str
	}
	return fmt.Sprintf("BlockProcessorResult(%d)", uint8(result))
}
