package testutils

import (
	"testing"

	"github.com/dposnet/dposd/domain/chainconfig"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
)

// BuildBlock returns a block on top of previous forged by forger at
// timestamp, with header totals matching transactions. A nil previous
// builds a genesis block.
func BuildBlock(t testing.TB, params *chainconfig.Params, forger *Forger, previous *externalapi.DomainBlock,
	timestamp uint64, transactions ...*externalapi.DomainTransaction) *externalapi.DomainBlock {

	data := &externalapi.DomainBlockData{
		Height:               1,
		Timestamp:            timestamp,
		NumberOfTransactions: uint32(len(transactions)),
	}
	if previous != nil {
		data.Height = previous.Data.Height + 1
		data.PreviousBlockID = previous.Data.ID
	}
	data.Reward = params.MilestoneAt(data.Height).Reward
	for _, transaction := range transactions {
		data.TotalAmount += transaction.Amount
		data.TotalFee += transaction.Fee
	}
	forger.Sign(t, data)

	return &externalapi.DomainBlock{Data: data, Transactions: transactions}
}

// BuildTransfer returns a version 2 transfer
func BuildTransfer(id string, senderPublicKey string, nonce uint64, recipientID string,
	amount uint64, fee uint64) *externalapi.DomainTransaction {

	return &externalapi.DomainTransaction{
		ID:              id,
		Version:         2,
		Type:            externalapi.TransactionTypeTransfer,
		TypeGroup:       externalapi.TransactionTypeGroupCore,
		SenderPublicKey: senderPublicKey,
		RecipientID:     recipientID,
		Amount:          amount,
		Fee:             fee,
		Nonce:           nonce,
	}
}
