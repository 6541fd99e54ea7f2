package walletstore

import (
	"math/big"
	"testing"

	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/dposnet/dposd/domain/consensus/utils/consensushashing"
	"github.com/pkg/errors"
)

const testPrefix = "D"

func TestLookupsNeverCreate(t *testing.T) {
	store := New(testPrefix)

	_, err := store.FindByAddress("Dmissing")
	if !errors.Is(err, ruleerrors.ErrWalletNotFound) {
		t.Fatalf("FindByAddress: expected ErrWalletNotFound, got %v", err)
	}
	_, err = store.FindByPublicKey("02aa")
	if !errors.Is(err, ruleerrors.ErrWalletNotFound) {
		t.Fatalf("FindByPublicKey: expected ErrWalletNotFound, got %v", err)
	}
	_, err = store.FindByIndex(model.WalletIndexLocks, "lock")
	if !errors.Is(err, ruleerrors.ErrWalletNotFound) {
		t.Fatalf("FindByIndex: expected ErrWalletNotFound, got %v", err)
	}
	if store.HasByAddress("Dmissing") || store.HasByPublicKey("02aa") {
		t.Fatalf("lookups must not create wallets")
	}
	if store.GetNonce("02aa") != 0 {
		t.Fatalf("GetNonce: expected 0 for an unknown key")
	}
}

func TestCreateByPublicKey(t *testing.T) {
	store := New(testPrefix)
	address, err := consensushashing.AddressFromPublicKey("02aa", testPrefix)
	if err != nil {
		t.Fatalf("AddressFromPublicKey: %+v", err)
	}

	// Funds received before the public key was known
	received := store.GetOrCreateByAddress(address)
	received.IncreaseBalance(big.NewInt(10))

	wallet, err := store.CreateByPublicKey("02aa")
	if err != nil {
		t.Fatalf("CreateByPublicKey: %+v", err)
	}
	if wallet != received || wallet.PublicKey != "02aa" {
		t.Fatalf("CreateByPublicKey: expected the existing wallet to be adopted")
	}
	found, err := store.FindByPublicKey("02aa")
	if err != nil || found != wallet {
		t.Fatalf("FindByPublicKey: expected the created wallet, got %v, %v", found, err)
	}

	_, err = store.CreateByPublicKey("02aa")
	if !errors.Is(err, ruleerrors.ErrWalletAlreadyExists) {
		t.Fatalf("CreateByPublicKey: expected ErrWalletAlreadyExists, got %v", err)
	}
}

func TestFindByPublicKeyAttachesKey(t *testing.T) {
	store := New(testPrefix)
	address, err := consensushashing.AddressFromPublicKey("02bb", testPrefix)
	if err != nil {
		t.Fatalf("AddressFromPublicKey: %+v", err)
	}
	wallet := store.GetOrCreateByAddress(address)
	wallet.Nonce = 4

	if store.GetNonce("02bb") != 4 {
		t.Fatalf("GetNonce: expected the nonce of the address wallet")
	}
	if store.HasByPublicKey("02bb") {
		t.Fatalf("GetNonce must not index the public key")
	}
	looked, err := store.LookupByPublicKey("02bb")
	if err != nil {
		t.Fatalf("LookupByPublicKey: %+v", err)
	}
	if looked != wallet || wallet.PublicKey != "" || store.HasByPublicKey("02bb") {
		t.Fatalf("LookupByPublicKey must not attach the public key")
	}
	_, err = store.LookupByPublicKey("02cc")
	if !errors.Is(err, ruleerrors.ErrWalletNotFound) {
		t.Fatalf("LookupByPublicKey: expected ErrWalletNotFound, got %v", err)
	}

	found, err := store.FindByPublicKey("02bb")
	if err != nil {
		t.Fatalf("FindByPublicKey: %+v", err)
	}
	if found != wallet || !store.HasByPublicKey("02bb") {
		t.Fatalf("FindByPublicKey: expected the public key to be attached to the address wallet")
	}
}

func TestSecondaryIndexes(t *testing.T) {
	store := New(testPrefix)
	wallet := store.GetOrCreateByAddress("Ddelegate")
	wallet.Delegate = externalapi.NewDelegateAttributes("genesis_1")
	wallet.HTLC = &externalapi.HTLCAttributes{
		LockedBalance: big.NewInt(5),
		Locks:         map[string]*externalapi.HTLCLock{"lock1": {Amount: 5}},
	}
	store.Index(wallet)

	found, err := store.FindByIndex(model.WalletIndexUsernames, "genesis_1")
	if err != nil || found != wallet {
		t.Fatalf("FindByIndex: expected the delegate wallet, got %v, %v", found, err)
	}
	if !store.HasByIndex(model.WalletIndexLocks, "lock1") {
		t.Fatalf("HasByIndex: expected lock1 to be indexed")
	}

	delete(wallet.HTLC.Locks, "lock1")
	wallet.Delegate = nil
	store.Index(wallet)
	if store.HasByIndex(model.WalletIndexLocks, "lock1") || store.HasByIndex(model.WalletIndexUsernames, "genesis_1") {
		t.Fatalf("Index: stale index entries must be removed")
	}
	if len(store.AllByUsername()) != 0 {
		t.Fatalf("AllByUsername: expected no delegates")
	}
}

func TestCommitment(t *testing.T) {
	first := New(testPrefix)
	second := New(testPrefix)

	alice := first.GetOrCreateByAddress("Dalice")
	alice.IncreaseBalance(big.NewInt(100))
	bob := first.GetOrCreateByAddress("Dbob")
	bob.IncreaseBalance(big.NewInt(50))

	// Same ledger, created in a different order, plus a blank wallet
	second.GetOrCreateByAddress("Dbob").IncreaseBalance(big.NewInt(50))
	second.GetOrCreateByAddress("Dcarol")
	second.GetOrCreateByAddress("Dalice").IncreaseBalance(big.NewInt(100))

	if !first.Commitment().Equal(second.Commitment()) {
		t.Fatalf("Commitment: equal ledgers must have equal commitments")
	}

	bob.Nonce++
	if first.Commitment().Equal(second.Commitment()) {
		t.Fatalf("Commitment: a nonce change must change the commitment")
	}
	bob.Nonce--

	alice.HTLC = &externalapi.HTLCAttributes{LockedBalance: new(big.Int), Locks: map[string]*externalapi.HTLCLock{}}
	if !first.Commitment().Equal(second.Commitment()) {
		t.Fatalf("Commitment: an empty HTLC record must not change the commitment")
	}
}
