package sorters

import (
	"math/big"
	"testing"

	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
)

func delegate(publicKey string, voteBalance int64) *externalapi.Wallet {
	wallet := externalapi.NewWallet("D" + publicKey)
	wallet.PublicKey = publicKey
	wallet.Delegate = externalapi.NewDelegateAttributes(publicKey)
	wallet.Delegate.VoteBalance = big.NewInt(voteBalance)
	return wallet
}

func TestDelegateRanking(t *testing.T) {
	ranking := DelegateRanking{
		delegate("03", 10),
		delegate("02", 30),
		delegate("01", 10),
		delegate("04", 20),
	}
	ranking.Sort()

	expected := []string{"02", "04", "01", "03"}
	for i, wallet := range ranking {
		if wallet.PublicKey != expected[i] {
			t.Fatalf("DelegateRanking: expected %s at position %d, got %s", expected[i], i, wallet.PublicKey)
		}
	}
}
