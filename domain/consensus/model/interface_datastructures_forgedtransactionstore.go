package model

import "github.com/dposnet/dposd/domain/consensus/model/externalapi"

// ForgedTransactionStore is the durable index of committed transaction ids
type ForgedTransactionStore interface {
	GetForgedTransactionIDs(transactionIDs []string) ([]string, error)
	StoreBlocks(blocks []*externalapi.DomainBlock) error
	DeleteBlock(block *externalapi.DomainBlock) error
	StoredBlockHeight() (uint64, error)
}
