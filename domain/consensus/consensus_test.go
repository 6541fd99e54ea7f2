package consensus

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/dposnet/dposd/domain/chainconfig"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/dposnet/dposd/domain/consensus/utils/testutils"
	"github.com/dposnet/dposd/infrastructure/db/database/ldb"
	"github.com/pkg/errors"
)

func setupConsensus(t *testing.T, forger *testutils.Forger) (*consensus, *chainconfig.Params, func()) {
	path, err := ioutil.TempDir("", t.Name())
	if err != nil {
		t.Fatalf("TempDir: %s", err)
	}
	db, err := ldb.NewLevelDB(path)
	if err != nil {
		t.Fatalf("NewLevelDB: %s", err)
	}
	teardown := func() {
		err := db.Close()
		if err != nil {
			t.Fatalf("Close: %s", err)
		}
		os.RemoveAll(path)
	}

	config := &Config{Params: chainconfig.Params{
		Name:          "consensustest",
		AddressPrefix: "D",
		Milestones: []chainconfig.Milestone{
			{Height: 1, ActiveDelegates: 1, BlockTime: 8, Reward: 0},
			{Height: 2, ActiveDelegates: 1, BlockTime: 8, Reward: 2},
		},
		GenesisGeneratorPublicKey: forger.PublicKey,
		MaxLastBlocks:             10,
	}}
	instance, err := NewFactory().NewConsensus(config, db)
	if err != nil {
		t.Fatalf("NewConsensus: %+v", err)
	}
	return instance.(*consensus), &config.Params, teardown
}

// genesisBlock registers forger as the only delegate
func genesisBlock(t *testing.T, params *chainconfig.Params, forger *testutils.Forger) *externalapi.DomainBlock {
	registration := &externalapi.DomainTransaction{
		ID:              "registration",
		Version:         2,
		Type:            externalapi.TransactionTypeDelegateRegistration,
		TypeGroup:       externalapi.TransactionTypeGroupCore,
		SenderPublicKey: forger.PublicKey,
		Nonce:           1,
		Asset:           &externalapi.TransactionAsset{Delegate: &externalapi.DelegateAsset{Username: "genesis"}},
	}
	return testutils.BuildBlock(t, params, forger, nil, 0, registration)
}

func processExpecting(t *testing.T, c *consensus, block *externalapi.DomainBlock,
	expected externalapi.BlockProcessorResult) {

	result, err := c.ProcessBlock(block)
	if err != nil {
		t.Fatalf("ProcessBlock %d: %+v", block.Data.Height, err)
	}
	if result != expected {
		t.Fatalf("ProcessBlock %d: expected %s, got %s", block.Data.Height, expected, result)
	}
}

func TestProcessChain(t *testing.T) {
	forger := testutils.NewForger(t)
	c, params, teardown := setupConsensus(t, forger)
	defer teardown()

	genesis := genesisBlock(t, params, forger)
	processExpecting(t, c, genesis, externalapi.BlockProcessorResultAccepted)

	second := testutils.BuildBlock(t, params, forger, genesis, 8)
	processExpecting(t, c, second, externalapi.BlockProcessorResultAccepted)
	if c.LastBlock().Data.ID != second.Data.ID {
		t.Fatalf("LastBlock: expected %s, got %s", second.Data.ID, c.LastBlock().Data.ID)
	}

	// Seeing the tip again is harmless
	processExpecting(t, c, second, externalapi.BlockProcessorResultDiscardedButCanBeBroadcasted)

	delegates, err := c.ActiveDelegates(2)
	if err != nil {
		t.Fatalf("ActiveDelegates: %+v", err)
	}
	if len(delegates) != 1 || delegates[0].PublicKey != forger.PublicKey {
		t.Fatalf("ActiveDelegates: expected only the genesis forger")
	}
	wallet, err := c.GetWallet(delegates[0].Address)
	if err != nil {
		t.Fatalf("GetWallet: %+v", err)
	}
	if wallet.Balance.Uint64() != 2 || wallet.Delegate.ProducedBlocks != 2 {
		t.Fatalf("GetWallet: expected balance 2 and 2 produced blocks, got %s and %d",
			wallet.Balance, wallet.Delegate.ProducedBlocks)
	}

	forgingInfo, err := c.ForgingInfo(16)
	if err != nil {
		t.Fatalf("ForgingInfo: %+v", err)
	}
	if forgingInfo.CurrentForger != 0 {
		t.Fatalf("ForgingInfo: expected the only delegate to forge, got %d", forgingInfo.CurrentForger)
	}
}

func TestProcessDoubleForging(t *testing.T) {
	forger := testutils.NewForger(t)
	c, params, teardown := setupConsensus(t, forger)
	defer teardown()

	genesis := genesisBlock(t, params, forger)
	processExpecting(t, c, genesis, externalapi.BlockProcessorResultAccepted)
	second := testutils.BuildBlock(t, params, forger, genesis, 8)
	processExpecting(t, c, second, externalapi.BlockProcessorResultAccepted)
	commitmentAfterGenesis := func() *externalapi.DomainHash {
		_, err := c.RevertLastBlock()
		if err != nil {
			t.Fatalf("RevertLastBlock: %+v", err)
		}
		commitment := c.LedgerCommitment()
		processExpecting(t, c, second, externalapi.BlockProcessorResultAccepted)
		return commitment
	}()

	competing := testutils.BuildBlock(t, params, forger, genesis, 16)
	processExpecting(t, c, competing, externalapi.BlockProcessorResultRollback)

	if c.LastBlock().Data.ID != genesis.Data.ID {
		t.Fatalf("ProcessBlock: expected the tip to be rolled back to genesis, got height %d",
			c.LastBlock().Data.Height)
	}
	if !c.LedgerCommitment().Equal(commitmentAfterGenesis) {
		t.Fatalf("ProcessBlock: the rollback did not restore the ledger")
	}

	processExpecting(t, c, competing, externalapi.BlockProcessorResultAccepted)
}

func TestFlushBlocks(t *testing.T) {
	forger := testutils.NewForger(t)
	c, params, teardown := setupConsensus(t, forger)
	defer teardown()

	genesis := genesisBlock(t, params, forger)
	processExpecting(t, c, genesis, externalapi.BlockProcessorResultAccepted)

	err := c.FlushBlocks()
	if err != nil {
		t.Fatalf("FlushBlocks: %+v", err)
	}
	storedHeight, err := c.forgedTransactionStore.StoredBlockHeight()
	if err != nil {
		t.Fatalf("StoredBlockHeight: %+v", err)
	}
	if storedHeight != 1 || c.chainStateStore.LastStoredBlockHeight() != 1 {
		t.Fatalf("FlushBlocks: expected stored height 1, got %d", storedHeight)
	}

	forged, err := c.forgedTransactionStore.GetForgedTransactionIDs([]string{"registration", "unknown"})
	if err != nil {
		t.Fatalf("GetForgedTransactionIDs: %+v", err)
	}
	if len(forged) != 1 || forged[0] != "registration" {
		t.Fatalf("GetForgedTransactionIDs: expected only the registration, got %v", forged)
	}

	result, err := c.RevertLastBlock()
	if err != nil {
		t.Fatalf("RevertLastBlock: %+v", err)
	}
	if result != externalapi.BlockProcessorResultReverted {
		t.Fatalf("RevertLastBlock: expected Reverted, got %s", result)
	}
	if c.LastBlock() != nil {
		t.Fatalf("RevertLastBlock: expected an empty chain")
	}
	forged, err = c.forgedTransactionStore.GetForgedTransactionIDs([]string{"registration"})
	if err != nil {
		t.Fatalf("GetForgedTransactionIDs: %+v", err)
	}
	if len(forged) != 0 || c.chainStateStore.LastStoredBlockHeight() != 0 {
		t.Fatalf("RevertLastBlock: the reverted block is still stored")
	}

	_, err = c.RevertLastBlock()
	if !errors.Is(err, ruleerrors.ErrMissingLastBlock) {
		t.Fatalf("RevertLastBlock: expected ErrMissingLastBlock on an empty chain, got %+v", err)
	}
}

func TestNewConsensusRejectsInvalidParams(t *testing.T) {
	_, err := NewFactory().NewConsensus(&Config{Params: chainconfig.Params{Name: "broken"}}, nil)
	if err == nil {
		t.Fatalf("NewConsensus: expected invalid params to be rejected")
	}
}
