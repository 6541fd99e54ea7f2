package activedelegates

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/dposnet/dposd/domain/consensus/datastructures/walletstore"
	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/pkg/errors"
)

func addDelegates(t *testing.T, walletStore model.WalletStore, count int) {
	for i := 0; i < count; i++ {
		wallet, err := walletStore.CreateByPublicKey(fmt.Sprintf("02%04x", i))
		if err != nil {
			t.Fatalf("CreateByPublicKey: %+v", err)
		}
		wallet.Delegate = externalapi.NewDelegateAttributes(fmt.Sprintf("delegate%d", i))
		wallet.Delegate.VoteBalance = big.NewInt(int64(1000 - i))
		walletStore.Index(wallet)
	}
}

func publicKeys(delegates []*externalapi.Wallet) []string {
	keys := make([]string, len(delegates))
	for i, delegate := range delegates {
		keys[i] = delegate.PublicKey
	}
	return keys
}

func TestActiveDelegates(t *testing.T) {
	walletStore := walletstore.New("D")
	addDelegates(t, walletStore, 8)
	resigned, err := walletStore.FindByIndex(model.WalletIndexUsernames, "delegate0")
	if err != nil {
		t.Fatalf("FindByIndex: %+v", err)
	}
	resigned.Delegate.Resigned = true

	p := New(walletStore)
	roundInfo := &externalapi.RoundInfo{Round: 3, RoundHeight: 11, NextRound: 4, MaxDelegates: 5}
	delegates, err := p.ActiveDelegates(roundInfo)
	if err != nil {
		t.Fatalf("ActiveDelegates: %+v", err)
	}
	if len(delegates) != 5 {
		t.Fatalf("ActiveDelegates: expected 5 delegates, got %d", len(delegates))
	}

	// The resigned top delegate and the two lowest ranked are excluded
	included := make(map[string]bool)
	for _, delegate := range delegates {
		included[delegate.Delegate.Username] = true
	}
	for i := 1; i <= 5; i++ {
		if !included[fmt.Sprintf("delegate%d", i)] {
			t.Fatalf("ActiveDelegates: expected delegate%d to be active, got %v", i, publicKeys(delegates))
		}
	}

	again, err := p.ActiveDelegates(roundInfo)
	if err != nil {
		t.Fatalf("ActiveDelegates: %+v", err)
	}
	if fmt.Sprint(publicKeys(again)) != fmt.Sprint(publicKeys(delegates)) {
		t.Fatalf("ActiveDelegates: the order of a round must be deterministic")
	}
}

func TestShuffleDependsOnRound(t *testing.T) {
	walletStore := walletstore.New("D")
	addDelegates(t, walletStore, 51)
	p := New(walletStore)

	orders := make(map[string]bool)
	for round := uint64(1); round <= 5; round++ {
		delegates, err := p.ActiveDelegates(&externalapi.RoundInfo{Round: round, MaxDelegates: 51})
		if err != nil {
			t.Fatalf("ActiveDelegates: %+v", err)
		}
		orders[fmt.Sprint(publicKeys(delegates))] = true
	}
	if len(orders) < 2 {
		t.Fatalf("ActiveDelegates: expected different rounds to produce different orders")
	}
}

func TestNoActiveDelegates(t *testing.T) {
	_, err := New(walletstore.New("D")).ActiveDelegates(&externalapi.RoundInfo{Round: 1, MaxDelegates: 51})
	if !errors.Is(err, ruleerrors.ErrNoActiveDelegates) {
		t.Fatalf("ActiveDelegates: expected ErrNoActiveDelegates, got %v", err)
	}
}
