package model

import "github.com/dposnet/dposd/domain/consensus/model/externalapi"

// ForgerSelection calculates the deterministic forging schedule
type ForgerSelection interface {
	CalculateForgingInfo(timestamp uint64, height uint64,
		blockTimeLookup externalapi.BlockTimeLookup) (*externalapi.ForgingInfo, error)
}
