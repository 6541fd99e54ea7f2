package model

import "github.com/dposnet/dposd/domain/consensus/model/externalapi"

// BlockVerifier recomputes the verification status of a block from its
// structure and generator signature
type BlockVerifier interface {
	Verify(block *externalapi.DomainBlock) *externalapi.BlockVerification
}
