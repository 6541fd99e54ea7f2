package blockvalidator

import (
	"io/ioutil"
	"math/big"
	"os"
	"testing"

	"github.com/dposnet/dposd/domain/chainconfig"
	"github.com/dposnet/dposd/domain/consensus/datastructures/chainstatestore"
	"github.com/dposnet/dposd/domain/consensus/datastructures/forgedtransactionstore"
	"github.com/dposnet/dposd/domain/consensus/datastructures/walletstore"
	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/processes/activedelegates"
	"github.com/dposnet/dposd/domain/consensus/processes/blockverifier"
	"github.com/dposnet/dposd/domain/consensus/processes/forgerselection"
	"github.com/dposnet/dposd/domain/consensus/processes/transactionhandlers"
	"github.com/dposnet/dposd/domain/consensus/utils/consensushashing"
	"github.com/dposnet/dposd/domain/consensus/utils/rounds"
	"github.com/dposnet/dposd/domain/consensus/utils/slots"
	"github.com/dposnet/dposd/domain/consensus/utils/testutils"
	"github.com/dposnet/dposd/infrastructure/db/database/ldb"
)

type testHarness struct {
	t                       *testing.T
	params                  *chainconfig.Params
	forgers                 []*testutils.Forger
	walletStore             model.WalletStore
	chainStateStore         model.ChainStateStore
	forgedTransactionStore  model.ForgedTransactionStore
	activeDelegatesProvider model.ActiveDelegatesProvider
	validator               model.BlockValidator
}

func testParams() *chainconfig.Params {
	return &chainconfig.Params{
		Name:          "validatortest",
		AddressPrefix: "D",
		Milestones: []chainconfig.Milestone{
			{Height: 1, ActiveDelegates: 3, BlockTime: 8, Reward: 0},
		},
		MaxLastBlocks: 10,
	}
}

// newTestHarness registers registeredDelegates delegates in a network
// scheduling three of them per round
func newTestHarness(t *testing.T, params *chainconfig.Params, registeredDelegates int) (*testHarness, func()) {
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

	walletStore := walletstore.New(params.AddressPrefix)
	chainStateStore := chainstatestore.New(params.MaxLastBlocks, params.MilestoneHeights())
	forgedTransactionStore := forgedtransactionstore.New(db)
	slotOracle, err := slots.New(params.BlockTimeMilestones())
	if err != nil {
		t.Fatalf("slots.New: %+v", err)
	}
	activeDelegatesProvider := activedelegates.New(walletStore)

	h := &testHarness{
		t:                       t,
		params:                  params,
		forgers:                 testutils.NewForgers(t, registeredDelegates),
		walletStore:             walletStore,
		chainStateStore:         chainStateStore,
		forgedTransactionStore:  forgedTransactionStore,
		activeDelegatesProvider: activeDelegatesProvider,
		validator: New(params,
			blockverifier.New(params),
			transactionhandlers.New(walletStore, chainStateStore),
			forgerselection.New(params.ActiveDelegatesMilestones(), slotOracle),
			activeDelegatesProvider,
			slotOracle,
			walletStore,
			chainStateStore,
			forgedTransactionStore),
	}
	for i, forger := range h.forgers {
		wallet, err := walletStore.CreateByPublicKey(forger.PublicKey)
		if err != nil {
			t.Fatalf("CreateByPublicKey: %+v", err)
		}
		wallet.Delegate = externalapi.NewDelegateAttributes(string(rune('a' + i)))
		walletStore.Index(wallet)
	}
	return h, teardown
}

func (h *testHarness) lookup() externalapi.BlockTimeLookup {
	return h.chainStateStore.BlockTimeLookup()
}

// scheduledForger returns the forger scheduled at timestamp for a block at height
func (h *testHarness) scheduledForger(height uint64, timestamp uint64) *testutils.Forger {
	roundInfo, err := rounds.CalculateRound(height, h.params.ActiveDelegatesMilestones())
	if err != nil {
		h.t.Fatalf("CalculateRound: %+v", err)
	}
	delegates, err := h.activeDelegatesProvider.ActiveDelegates(roundInfo)
	if err != nil {
		h.t.Fatalf("ActiveDelegates: %+v", err)
	}
	scheduled := delegates[(timestamp/8)%3]
	for _, forger := range h.forgers {
		if forger.PublicKey == scheduled.PublicKey {
			return forger
		}
	}
	h.t.Fatalf("scheduled delegate %s is not a test forger", scheduled.PublicKey)
	return nil
}

func TestIsException(t *testing.T) {
	params := testParams()
	params.Exceptions = []externalapi.BlockException{
		{BlockID: "historical", Height: 5},
		{BlockID: "pinned", TransactionIDs: []string{"tx1", "tx2"}},
	}
	h, teardown := newTestHarness(t, params, 3)
	defer teardown()

	block := func(id string, height uint64, transactionIDs ...string) *externalapi.DomainBlock {
		transactions := make([]*externalapi.DomainTransaction, len(transactionIDs))
		for i, transactionID := range transactionIDs {
			transactions[i] = &externalapi.DomainTransaction{ID: transactionID}
		}
		return &externalapi.DomainBlock{Data: &externalapi.DomainBlockData{ID: id, Height: height}, Transactions: transactions}
	}

	tests := []struct {
		block    *externalapi.DomainBlock
		expected bool
	}{
		{block("historical", 5), true},
		{block("historical", 6), false},
		{block("pinned", 9, "tx1", "tx2"), true},
		{block("pinned", 9, "tx2", "tx1"), false},
		{block("other", 5), false},
	}
	for i, test := range tests {
		if h.validator.IsException(test.block) != test.expected {
			t.Fatalf("IsException: test %d expected %t", i, test.expected)
		}
	}
}

func TestVerifyBlock(t *testing.T) {
	h, teardown := newTestHarness(t, testParams(), 3)
	defer teardown()
	forger := h.forgers[0]
	genesis := testutils.BuildBlock(t, h.params, forger, nil, 0)

	block := testutils.BuildBlock(t, h.params, forger, genesis, 8,
		testutils.BuildTransfer("tx1", forger.PublicKey, 1, "Drecipient", 10, 1))
	verified, err := h.validator.VerifyBlock(block)
	if err != nil {
		t.Fatalf("VerifyBlock: %+v", err)
	}
	if !verified || block.Verification == nil {
		t.Fatalf("VerifyBlock: expected the block to verify")
	}

	tampered := testutils.BuildBlock(t, h.params, forger, genesis, 8)
	tampered.Data.TotalFee = 1
	verified, err = h.validator.VerifyBlock(tampered)
	if err != nil {
		t.Fatalf("VerifyBlock: %+v", err)
	}
	if verified {
		t.Fatalf("VerifyBlock: expected a tampered block not to verify")
	}
}

func TestVerifyBlockWithMultiSignatures(t *testing.T) {
	h, teardown := newTestHarness(t, testParams(), 3)
	defer teardown()
	forger := h.forgers[0]
	genesis := testutils.BuildBlock(t, h.params, forger, nil, 0)

	multiSigned := testutils.BuildTransfer("tx1", forger.PublicKey, 1, "Drecipient", 10, 1)
	multiSigned.Signatures = []string{"aa", "bb"}
	block := testutils.BuildBlock(t, h.params, forger, genesis, 8, multiSigned)
	verified, err := h.validator.VerifyBlock(block)
	if err != nil {
		t.Fatalf("VerifyBlock: %+v", err)
	}
	if !verified || !block.Verification.ContainsMultiSignatures {
		t.Fatalf("VerifyBlock: expected a verified multi-signature block, got %+v", block.Verification)
	}

	unknown := testutils.BuildTransfer("tx2", forger.PublicKey, 1, "Drecipient", 10, 1)
	unknown.TypeGroup = 2
	unknown.Signatures = []string{"aa", "bb"}
	block = testutils.BuildBlock(t, h.params, forger, genesis, 8, unknown)
	verified, err = h.validator.VerifyBlock(block)
	if err != nil {
		t.Fatalf("VerifyBlock: %+v", err)
	}
	if verified {
		t.Fatalf("VerifyBlock: expected a transaction without handler to fail verification")
	}
}

func TestBlockContainsIncompatibleTransactions(t *testing.T) {
	h, teardown := newTestHarness(t, testParams(), 3)
	defer teardown()

	block := &externalapi.DomainBlock{
		Data: &externalapi.DomainBlockData{Height: 2},
		Transactions: []*externalapi.DomainTransaction{
			{ID: "tx1", Version: 2},
			{ID: "tx2", Version: 2},
		},
	}
	if h.validator.BlockContainsIncompatibleTransactions(block) {
		t.Fatalf("BlockContainsIncompatibleTransactions: expected homogeneous versions to pass")
	}
	block.Transactions[1].Version = 1
	if !h.validator.BlockContainsIncompatibleTransactions(block) {
		t.Fatalf("BlockContainsIncompatibleTransactions: expected mixed versions to fail")
	}
	if h.validator.BlockContainsIncompatibleTransactions(&externalapi.DomainBlock{Data: block.Data}) {
		t.Fatalf("BlockContainsIncompatibleTransactions: an empty block has no incompatible transactions")
	}
}

func TestBlockContainsOutOfOrderNonce(t *testing.T) {
	h, teardown := newTestHarness(t, testParams(), 3)
	defer teardown()
	sender, err := h.walletStore.FindByPublicKey(h.forgers[0].PublicKey)
	if err != nil {
		t.Fatalf("FindByPublicKey: %+v", err)
	}
	sender.Nonce = 3
	other := h.forgers[1].PublicKey

	block := func(transactions ...*externalapi.DomainTransaction) *externalapi.DomainBlock {
		return &externalapi.DomainBlock{Data: &externalapi.DomainBlockData{Height: 2}, Transactions: transactions}
	}
	tx := func(senderPublicKey string, version uint8, nonce uint64) *externalapi.DomainTransaction {
		transaction := testutils.BuildTransfer("tx", senderPublicKey, nonce, "Dx", 1, 1)
		transaction.Version = version
		return transaction
	}

	tests := []struct {
		name     string
		block    *externalapi.DomainBlock
		expected bool
	}{
		{"consecutive", block(tx(sender.PublicKey, 2, 4), tx(other, 2, 1), tx(sender.PublicKey, 2, 5)), false},
		{"gap", block(tx(sender.PublicKey, 2, 4), tx(sender.PublicKey, 2, 6)), true},
		{"replayed", block(tx(sender.PublicKey, 2, 3)), true},
		{"unknown sender starts at one", block(tx("02ffff", 2, 1)), false},
		{"legacy stops the scan", block(tx(sender.PublicKey, 1, 0), tx(sender.PublicKey, 2, 9)), false},
		{"scan before legacy", block(tx(sender.PublicKey, 2, 9), tx(sender.PublicKey, 1, 0)), true},
	}
	for _, test := range tests {
		if h.validator.BlockContainsOutOfOrderNonce(test.block) != test.expected {
			t.Fatalf("BlockContainsOutOfOrderNonce: %s: expected %t", test.name, test.expected)
		}
	}
}

func TestValidateGenerator(t *testing.T) {
	h, teardown := newTestHarness(t, testParams(), 4)
	defer teardown()

	const height, timestamp = 5, 80
	scheduled := h.scheduledForger(height, timestamp)
	genesis := testutils.BuildBlock(t, h.params, scheduled, nil, 0)
	previous := &externalapi.DomainBlock{Data: &externalapi.DomainBlockData{ID: genesis.Data.ID, Height: height - 1}}

	block := testutils.BuildBlock(t, h.params, scheduled, previous, timestamp)
	valid, err := h.validator.ValidateGenerator(block, h.lookup())
	if err != nil {
		t.Fatalf("ValidateGenerator: %+v", err)
	}
	if !valid {
		t.Fatalf("ValidateGenerator: expected the scheduled forger to be valid")
	}

	for _, forger := range h.forgers {
		if forger == scheduled {
			continue
		}
		block := testutils.BuildBlock(t, h.params, forger, previous, timestamp)
		valid, err := h.validator.ValidateGenerator(block, h.lookup())
		if err != nil {
			t.Fatalf("ValidateGenerator: %+v", err)
		}
		if valid {
			t.Fatalf("ValidateGenerator: expected forger %s not to be scheduled", forger.PublicKey)
		}
	}

	stranger := testutils.NewForger(t)
	block = testutils.BuildBlock(t, h.params, stranger, previous, timestamp)
	valid, err = h.validator.ValidateGenerator(block, h.lookup())
	if err != nil {
		t.Fatalf("ValidateGenerator: %+v", err)
	}
	if valid {
		t.Fatalf("ValidateGenerator: expected an unknown generator to be invalid")
	}

	_, err = h.walletStore.CreateByPublicKey(stranger.PublicKey)
	if err != nil {
		t.Fatalf("CreateByPublicKey: %+v", err)
	}
	valid, err = h.validator.ValidateGenerator(block, h.lookup())
	if err != nil {
		t.Fatalf("ValidateGenerator: %+v", err)
	}
	if valid {
		t.Fatalf("ValidateGenerator: expected a generator that is not a delegate to be invalid")
	}
}

func TestValidateGeneratorWithFrozenRound(t *testing.T) {
	h, teardown := newTestHarness(t, testParams(), 4)
	defer teardown()

	const height, timestamp = 5, 80
	roundInfo, err := rounds.CalculateRound(height, h.params.ActiveDelegatesMilestones())
	if err != nil {
		t.Fatalf("CalculateRound: %+v", err)
	}
	delegates, err := h.activeDelegatesProvider.ActiveDelegates(roundInfo)
	if err != nil {
		t.Fatalf("ActiveDelegates: %+v", err)
	}
	h.activeDelegatesProvider.FreezeRound(roundInfo.Round, delegates)

	var excluded *testutils.Forger
	for _, forger := range h.forgers {
		isActive := false
		for _, delegate := range delegates {
			if delegate.PublicKey == forger.PublicKey {
				isActive = true
			}
		}
		if !isActive {
			excluded = forger
		}
	}
	if excluded == nil {
		t.Fatalf("ActiveDelegates: expected one of the four delegates to be left out of the round")
	}
	scheduled := h.scheduledForger(height, timestamp)

	// A vote landing in the middle of the round
	excludedWallet, err := h.walletStore.FindByPublicKey(excluded.PublicKey)
	if err != nil {
		t.Fatalf("FindByPublicKey: %+v", err)
	}
	excludedWallet.Delegate.VoteBalance = big.NewInt(1000)

	genesis := testutils.BuildBlock(t, h.params, scheduled, nil, 0)
	previous := &externalapi.DomainBlock{Data: &externalapi.DomainBlockData{ID: genesis.Data.ID, Height: height - 1}}

	valid, err := h.validator.ValidateGenerator(testutils.BuildBlock(t, h.params, scheduled, previous, timestamp), h.lookup())
	if err != nil {
		t.Fatalf("ValidateGenerator: %+v", err)
	}
	if !valid {
		t.Fatalf("ValidateGenerator: expected the forger scheduled at the start of the round to stay valid")
	}
	valid, err = h.validator.ValidateGenerator(testutils.BuildBlock(t, h.params, excluded, previous, timestamp), h.lookup())
	if err != nil {
		t.Fatalf("ValidateGenerator: %+v", err)
	}
	if valid {
		t.Fatalf("ValidateGenerator: a delegate voted in mid-round must not join the round in progress")
	}

	h.activeDelegatesProvider.ReleaseRound(roundInfo.Round)
	delegates, err = h.activeDelegatesProvider.ActiveDelegates(roundInfo)
	if err != nil {
		t.Fatalf("ActiveDelegates: %+v", err)
	}
	isActive := false
	for _, delegate := range delegates {
		if delegate.PublicKey == excluded.PublicKey {
			isActive = true
		}
	}
	if !isActive {
		t.Fatalf("ActiveDelegates: expected a released round to be ranked by the current votes")
	}
}

func TestValidateGeneratorDoesNotAttachPublicKey(t *testing.T) {
	h, teardown := newTestHarness(t, testParams(), 3)
	defer teardown()

	stranger := testutils.NewForger(t)
	address, err := consensushashing.AddressFromPublicKey(stranger.PublicKey, h.params.AddressPrefix)
	if err != nil {
		t.Fatalf("AddressFromPublicKey: %+v", err)
	}
	h.walletStore.GetOrCreateByAddress(address).Balance = big.NewInt(10)

	genesis := testutils.BuildBlock(t, h.params, h.forgers[0], nil, 0)
	previous := &externalapi.DomainBlock{Data: &externalapi.DomainBlockData{ID: genesis.Data.ID, Height: 4}}
	valid, err := h.validator.ValidateGenerator(testutils.BuildBlock(t, h.params, stranger, previous, 16), h.lookup())
	if err != nil {
		t.Fatalf("ValidateGenerator: %+v", err)
	}
	if valid {
		t.Fatalf("ValidateGenerator: expected a generator that is not a delegate to be invalid")
	}
	if h.walletStore.HasByPublicKey(stranger.PublicKey) {
		t.Fatalf("ValidateGenerator: validation must not attach the generator's public key to its wallet")
	}
}

func TestValidateGeneratorUndecided(t *testing.T) {
	// Two registered delegates cannot fill the third position of the round
	h, teardown := newTestHarness(t, testParams(), 2)
	defer teardown()

	genesis := testutils.BuildBlock(t, h.params, h.forgers[0], nil, 0)
	previous := &externalapi.DomainBlock{Data: &externalapi.DomainBlockData{ID: genesis.Data.ID, Height: 4}}
	for _, forger := range h.forgers {
		block := testutils.BuildBlock(t, h.params, forger, previous, 16)
		valid, err := h.validator.ValidateGenerator(block, h.lookup())
		if err != nil {
			t.Fatalf("ValidateGenerator: %+v", err)
		}
		if !valid {
			t.Fatalf("ValidateGenerator: an undecided schedule must not reject the generator")
		}
	}
}

func TestIsBlockChained(t *testing.T) {
	h, teardown := newTestHarness(t, testParams(), 3)
	defer teardown()

	previous := &externalapi.DomainBlockData{ID: "a", Height: 2, Timestamp: 8}
	tests := []struct {
		name     string
		next     *externalapi.DomainBlockData
		expected externalapi.ChainedDetails
	}{
		{
			name:     "chained",
			next:     &externalapi.DomainBlockData{PreviousBlockID: "a", Height: 3, Timestamp: 16},
			expected: externalapi.ChainedDetails{FollowsPrevious: true, IsSequentialHeight: true, PreviousSlot: 1, NextSlot: 2, IsAfterPreviousSlot: true, IsChained: true},
		},
		{
			name:     "same slot",
			next:     &externalapi.DomainBlockData{PreviousBlockID: "a", Height: 3, Timestamp: 15},
			expected: externalapi.ChainedDetails{FollowsPrevious: true, IsSequentialHeight: true, PreviousSlot: 1, NextSlot: 1, IsAfterPreviousSlot: false, IsChained: false},
		},
		{
			name:     "other parent",
			next:     &externalapi.DomainBlockData{PreviousBlockID: "b", Height: 3, Timestamp: 24},
			expected: externalapi.ChainedDetails{FollowsPrevious: false, IsSequentialHeight: true, PreviousSlot: 1, NextSlot: 3, IsAfterPreviousSlot: true, IsChained: false},
		},
		{
			name:     "height gap",
			next:     &externalapi.DomainBlockData{PreviousBlockID: "a", Height: 4, Timestamp: 24},
			expected: externalapi.ChainedDetails{FollowsPrevious: true, IsSequentialHeight: false, PreviousSlot: 1, NextSlot: 3, IsAfterPreviousSlot: true, IsChained: false},
		},
	}
	for _, test := range tests {
		details, err := h.validator.BlockChainedDetails(previous, test.next, h.lookup())
		if err != nil {
			t.Fatalf("BlockChainedDetails: %s: %+v", test.name, err)
		}
		if *details != test.expected {
			t.Fatalf("BlockChainedDetails: %s: expected %+v, got %+v", test.name, test.expected, *details)
		}
		chained, err := h.validator.IsBlockChained(previous, test.next, h.lookup())
		if err != nil {
			t.Fatalf("IsBlockChained: %s: %+v", test.name, err)
		}
		if chained != test.expected.IsChained {
			t.Fatalf("IsBlockChained: %s: expected %t", test.name, test.expected.IsChained)
		}
	}
}

func TestCheckBlockContainsForgedTransactions(t *testing.T) {
	h, teardown := newTestHarness(t, testParams(), 3)
	defer teardown()

	withTransactions := func(height uint64, ids ...string) *externalapi.DomainBlock {
		transactions := make([]*externalapi.DomainTransaction, len(ids))
		for i, id := range ids {
			transactions[i] = &externalapi.DomainTransaction{ID: id}
		}
		return &externalapi.DomainBlock{
			Data:         &externalapi.DomainBlockData{ID: string(rune('a' + height)), Height: height},
			Transactions: transactions,
		}
	}
	check := func(block *externalapi.DomainBlock) bool {
		forged, err := h.validator.CheckBlockContainsForgedTransactions(block)
		if err != nil {
			t.Fatalf("CheckBlockContainsForgedTransactions: %+v", err)
		}
		return forged
	}

	stored := withTransactions(2, "durable")
	err := h.forgedTransactionStore.StoreBlocks([]*externalapi.DomainBlock{stored})
	if err != nil {
		t.Fatalf("StoreBlocks: %+v", err)
	}
	h.chainStateStore.SetLastBlock(stored)
	h.chainStateStore.SetLastStoredBlockHeight(2)

	if !check(withTransactions(4, "fresh", "durable")) {
		t.Fatalf("expected a transaction of the durable index to be detected")
	}
	if check(withTransactions(4, "fresh")) {
		t.Fatalf("expected a fresh transaction to pass")
	}
	if check(withTransactions(4)) {
		t.Fatalf("expected an empty block to pass")
	}

	// A recent block that was not flushed yet
	h.chainStateStore.SetLastBlock(withTransactions(3, "recent"))
	if !check(withTransactions(4, "recent")) {
		t.Fatalf("expected a transaction of an unflushed block to be detected")
	}

	// Once flushed, only the durable index is consulted
	h.chainStateStore.SetLastStoredBlockHeight(3)
	if check(withTransactions(4, "recent")) {
		t.Fatalf("expected flushed blocks to be left to the durable index")
	}
}
