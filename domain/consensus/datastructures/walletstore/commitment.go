package walletstore

import (
	"bytes"
	"math/big"
	"sort"

	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/utils/multiset"
	"github.com/dposnet/dposd/domain/consensus/utils/serialization"
	"github.com/pkg/errors"
)

// Commitment returns a multiset hash over the ledger value of every
// non-blank wallet. Two stores with equal balances, nonces, votes,
// delegate and HTLC attributes have equal commitments regardless of the
// order in which wallets were created.
func (ws *walletStore) Commitment() *externalapi.DomainHash {
	ms := multiset.New()
	for _, wallet := range ws.byAddress {
		if isBlank(wallet) {
			continue
		}
		ms.Add(serializeWallet(wallet))
	}
	return ms.Hash()
}

// isBlank returns whether wallet carries no ledger value. Blank wallets are
// left behind when a block that created them is reverted.
func isBlank(wallet *externalapi.Wallet) bool {
	return wallet.Balance.Sign() == 0 &&
		wallet.Nonce == 0 &&
		wallet.Vote == "" &&
		wallet.Delegate == nil &&
		(wallet.HTLC == nil || (wallet.LockedBalance().Sign() == 0 && len(wallet.HTLC.Locks) == 0))
}

func serializeWallet(wallet *externalapi.Wallet) []byte {
	buf := &bytes.Buffer{}
	err := serialization.WriteElements(buf, wallet.Address, bigIntBytes(wallet.Balance), wallet.Nonce, wallet.Vote)
	if err == nil {
		err = serializeDelegate(buf, wallet.Delegate)
	}
	if err == nil {
		err = serializeHTLC(buf, wallet.HTLC)
	}
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. Writing to a bytes.Buffer never fails"))
	}
	return buf.Bytes()
}

func serializeDelegate(buf *bytes.Buffer, delegate *externalapi.DelegateAttributes) error {
	if delegate == nil {
		return serialization.WriteElement(buf, false)
	}
	lastBlockID := ""
	if delegate.LastBlock != nil {
		lastBlockID = delegate.LastBlock.ID
	}
	return serialization.WriteElements(buf, true, delegate.Username, bigIntBytes(delegate.VoteBalance),
		bigIntBytes(delegate.ForgedFees), bigIntBytes(delegate.ForgedRewards), delegate.ProducedBlocks,
		lastBlockID, delegate.Resigned)
}

func serializeHTLC(buf *bytes.Buffer, htlc *externalapi.HTLCAttributes) error {
	// An emptied HTLC record is equivalent to none
	if htlc == nil || (len(htlc.Locks) == 0 && (htlc.LockedBalance == nil || htlc.LockedBalance.Sign() == 0)) {
		return serialization.WriteElement(buf, false)
	}
	lockIDs := make([]string, 0, len(htlc.Locks))
	for lockID := range htlc.Locks {
		lockIDs = append(lockIDs, lockID)
	}
	sort.Strings(lockIDs)

	err := serialization.WriteElements(buf, true, bigIntBytes(htlc.LockedBalance), uint64(len(lockIDs)))
	if err != nil {
		return err
	}
	for _, lockID := range lockIDs {
		lock := htlc.Locks[lockID]
		err = serialization.WriteElements(buf, lockID, lock.Amount, lock.RecipientID, lock.SecretHash,
			uint8(lock.ExpirationType), lock.ExpirationValue, lock.Timestamp)
		if err != nil {
			return err
		}
	}
	return nil
}

// bigIntBytes encodes value as a sign byte followed by its magnitude
func bigIntBytes(value *big.Int) []byte {
	if value == nil {
		return []byte{0}
	}
	sign := byte(0)
	if value.Sign() < 0 {
		sign = 1
	}
	return append([]byte{sign}, value.Bytes()...)
}
