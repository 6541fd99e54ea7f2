package consensus

import (
	"sync"

	"github.com/dposnet/dposd/domain/consensus/datastructures/chainstatestore"
	"github.com/dposnet/dposd/domain/consensus/datastructures/forgedtransactionstore"
	"github.com/dposnet/dposd/domain/consensus/datastructures/walletstore"
	"github.com/dposnet/dposd/domain/consensus/processes/activedelegates"
	"github.com/dposnet/dposd/domain/consensus/processes/blockhandlers"
	"github.com/dposnet/dposd/domain/consensus/processes/blockprocessor"
	"github.com/dposnet/dposd/domain/consensus/processes/blockstatemanager"
	"github.com/dposnet/dposd/domain/consensus/processes/blockvalidator"
	"github.com/dposnet/dposd/domain/consensus/processes/blockverifier"
	"github.com/dposnet/dposd/domain/consensus/processes/forgerselection"
	"github.com/dposnet/dposd/domain/consensus/processes/ledgerfinalizer"
	"github.com/dposnet/dposd/domain/consensus/processes/transactionhandlers"
	"github.com/dposnet/dposd/domain/consensus/utils/slots"
	"github.com/dposnet/dposd/infrastructure/db/database/ldb"
	"github.com/pkg/errors"
)

// Factory instantiates new Consensuses
type Factory interface {
	NewConsensus(config *Config, db *ldb.LevelDB) (Consensus, error)
}

type factory struct{}

// NewFactory creates a new Consensus factory
func NewFactory() Factory {
	return &factory{}
}

// NewConsensus instantiates a new Consensus. The wallet ledger lives in
// memory, so db must not hold blocks from an earlier run.
func (f *factory) NewConsensus(config *Config, db *ldb.LevelDB) (Consensus, error) {
	err := config.Params.Validate()
	if err != nil {
		return nil, err
	}
	params := &config.Params

	// Data Structures
	walletStore := walletstore.New(params.AddressPrefix)
	chainStateStore := chainstatestore.New(params.MaxLastBlocks, params.MilestoneHeights())
	forgedTransactionStore := forgedtransactionstore.New(db)

	storedBlockHeight, err := forgedTransactionStore.StoredBlockHeight()
	if err != nil {
		return nil, err
	}
	if storedBlockHeight != 0 {
		return nil, errors.Errorf("the database already holds blocks up to height %d, "+
			"and the wallet ledger cannot be rebuilt from it", storedBlockHeight)
	}

	// Processes
	slotOracle, err := slots.New(params.BlockTimeMilestones())
	if err != nil {
		return nil, err
	}
	forgerSelection := forgerselection.New(params.ActiveDelegatesMilestones(), slotOracle)
	activeDelegatesProvider := activedelegates.New(walletStore)
	transactionHandlers := transactionhandlers.New(walletStore, chainStateStore)
	ledgerFinalizer := ledgerfinalizer.New(walletStore)
	blockVerifier := blockverifier.New(params)
	blockValidator := blockvalidator.New(params,
		blockVerifier,
		transactionHandlers,
		forgerSelection,
		activeDelegatesProvider,
		slotOracle,
		walletStore,
		chainStateStore,
		forgedTransactionStore)
	blockStateManager := blockstatemanager.New(params.ActiveDelegatesMilestones(),
		transactionHandlers,
		ledgerFinalizer,
		activeDelegatesProvider,
		walletStore,
		chainStateStore)
	blockHandlers := blockhandlers.New(params,
		blockStateManager,
		activeDelegatesProvider,
		chainStateStore)
	blockProcessor := blockprocessor.New(params,
		blockValidator,
		blockHandlers,
		chainStateStore)

	log.Infof("Consensus initialized for %s", params.Name)

	return &consensus{
		lock: &sync.Mutex{},

		activeDelegatesMilestones: params.ActiveDelegatesMilestones(),

		blockProcessor:          blockProcessor,
		blockHandlers:           blockHandlers,
		blockStateManager:       blockStateManager,
		forgerSelection:         forgerSelection,
		activeDelegatesProvider: activeDelegatesProvider,

		walletStore:            walletStore,
		chainStateStore:        chainStateStore,
		forgedTransactionStore: forgedTransactionStore,
	}, nil
}
