package model

import "github.com/dposnet/dposd/domain/consensus/model/externalapi"

// SlotOracle maps timestamps to discrete forging slots
type SlotOracle interface {
	SlotNumber(blockTimeLookup externalapi.BlockTimeLookup, timestamp uint64, height uint64) (int64, error)
	SlotInfo(blockTimeLookup externalapi.BlockTimeLookup, timestamp uint64, height uint64) (*externalapi.SlotInfo, error)
}
