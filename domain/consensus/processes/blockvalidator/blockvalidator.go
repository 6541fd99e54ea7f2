package blockvalidator

import (
	"github.com/dposnet/dposd/domain/chainconfig"
	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
)

// blockValidator exposes a set of validation functions that decide
// whether a candidate block may extend the chain
type blockValidator struct {
	exceptions                []externalapi.BlockException
	activeDelegatesMilestones []externalapi.ActiveDelegatesMilestone

	blockVerifier           model.BlockVerifier
	transactionHandlers     model.TransactionHandlerRegistry
	forgerSelection         model.ForgerSelection
	activeDelegatesProvider model.ActiveDelegatesProvider
	slotOracle              model.SlotOracle

	walletStore            model.WalletStore
	chainStateStore        model.ChainStateStore
	forgedTransactionStore model.ForgedTransactionStore
}

// New instantiates a new BlockValidator
func New(params *chainconfig.Params,
	blockVerifier model.BlockVerifier,
	transactionHandlers model.TransactionHandlerRegistry,
	forgerSelection model.ForgerSelection,
	activeDelegatesProvider model.ActiveDelegatesProvider,
	slotOracle model.SlotOracle,

	walletStore model.WalletStore,
	chainStateStore model.ChainStateStore,
	forgedTransactionStore model.ForgedTransactionStore,
) model.BlockValidator {

	return &blockValidator{
		exceptions:                params.Exceptions,
		activeDelegatesMilestones: params.ActiveDelegatesMilestones(),

		blockVerifier:           blockVerifier,
		transactionHandlers:     transactionHandlers,
		forgerSelection:         forgerSelection,
		activeDelegatesProvider: activeDelegatesProvider,
		slotOracle:              slotOracle,

		walletStore:            walletStore,
		chainStateStore:        chainStateStore,
		forgedTransactionStore: forgedTransactionStore,
	}
}

// IsException returns whether block is a historical block that is
// accepted without validation
func (v *blockValidator) IsException(block *externalapi.DomainBlock) bool {
	for _, exception := range v.exceptions {
		if exception.BlockID != block.Data.ID {
			continue
		}
		if exception.Height != 0 && exception.Height != block.Data.Height {
			continue
		}
		if len(exception.TransactionIDs) > 0 && !equalIDs(exception.TransactionIDs, block.TransactionIDs()) {
			continue
		}
		return true
	}
	return false
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
