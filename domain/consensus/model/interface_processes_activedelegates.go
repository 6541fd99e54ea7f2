package model

import "github.com/dposnet/dposd/domain/consensus/model/externalapi"

// ActiveDelegatesProvider returns the ordered forging delegates of a round.
// A frozen round keeps the delegate list it was frozen with until it is
// released.
type ActiveDelegatesProvider interface {
	ActiveDelegates(roundInfo *externalapi.RoundInfo) ([]*externalapi.Wallet, error)
	FreezeRound(round uint64, delegates []*externalapi.Wallet)
	ReleaseRound(round uint64)
}
