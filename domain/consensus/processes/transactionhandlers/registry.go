package transactionhandlers

import (
	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/pkg/errors"
)

type handlerKey struct {
	typeGroup       externalapi.TransactionTypeGroup
	transactionType externalapi.TransactionType
}

type registration struct {
	handler model.TransactionHandler

	// supportsLegacy is whether version 1 transactions of this type exist
	supportsLegacy bool
}

// registry resolves the handler of a transaction by its type group and
// type. Types introduced together with nonces have no legacy version.
type registry struct {
	handlers map[handlerKey]registration
}

// New instantiates a TransactionHandlerRegistry with the core transaction handlers
func New(walletStore model.WalletStore, chainStateStore model.ChainStateStore) model.TransactionHandlerRegistry {
	base := &handlerBase{
		walletStore:     walletStore,
		chainStateStore: chainStateStore,
		spentLocks:      make(map[string]*spentLock),
	}

	r := &registry{handlers: make(map[handlerKey]registration)}
	r.register(externalapi.TransactionTypeTransfer, &transferHandler{base}, true)
	r.register(externalapi.TransactionTypeDelegateRegistration, &delegateRegistrationHandler{base}, true)
	r.register(externalapi.TransactionTypeVote, &voteHandler{base}, true)
	r.register(externalapi.TransactionTypeMultiPayment, &multiPaymentHandler{base}, false)
	r.register(externalapi.TransactionTypeDelegateResignation, &delegateResignationHandler{base}, false)
	r.register(externalapi.TransactionTypeHTLCLock, &htlcLockHandler{base}, false)
	r.register(externalapi.TransactionTypeHTLCClaim, &htlcClaimHandler{base}, false)
	r.register(externalapi.TransactionTypeHTLCRefund, &htlcRefundHandler{base}, false)
	return r
}

func (r *registry) register(transactionType externalapi.TransactionType, handler model.TransactionHandler,
	supportsLegacy bool) {

	key := handlerKey{typeGroup: externalapi.TransactionTypeGroupCore, transactionType: transactionType}
	r.handlers[key] = registration{handler: handler, supportsLegacy: supportsLegacy}
}

func (r *registry) HandlerFor(transaction *externalapi.DomainTransaction) (model.TransactionHandler, error) {
	key := handlerKey{typeGroup: transaction.TypeGroup, transactionType: transaction.Type}
	registered, ok := r.handlers[key]
	if !ok || (transaction.IsLegacy() && !registered.supportsLegacy) {
		return nil, errors.Wrapf(ruleerrors.ErrUnknownTransactionType,
			"no handler for transaction %s of type group %d, type %d, version %d",
			transaction.ID, transaction.TypeGroup, transaction.Type, transaction.Version)
	}
	return registered.handler, nil
}
