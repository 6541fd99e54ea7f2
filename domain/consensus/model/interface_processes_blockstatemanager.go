package model

import "github.com/dposnet/dposd/domain/consensus/model/externalapi"

// BlockStateManager applies and reverts whole blocks to the ledger as
// all-or-nothing units
type BlockStateManager interface {
	ApplyBlock(block *externalapi.DomainBlock) error
	RevertBlock(block *externalapi.DomainBlock) error
	ApplyTransaction(transaction *externalapi.DomainTransaction) error
	RevertTransaction(transaction *externalapi.DomainTransaction) error
}
