package model

import "github.com/dposnet/dposd/domain/consensus/model/externalapi"

// TransactionHandler owns the type specific ledger effects of one
// transaction type and version
type TransactionHandler interface {
	Apply(transaction *externalapi.DomainTransaction) error
	Revert(transaction *externalapi.DomainTransaction) error
	Verify(transaction *externalapi.DomainTransaction) error
}

// TransactionHandlerRegistry resolves the handler of a transaction by its
// type group, type and version
type TransactionHandlerRegistry interface {
	HandlerFor(transaction *externalapi.DomainTransaction) (TransactionHandler, error)
}
