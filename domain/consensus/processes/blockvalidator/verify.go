package blockvalidator

import (
	"github.com/davecgh/go-spew/spew"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
)

// VerifyBlock reports whether the block verification holds. Blocks with
// multi-signature transactions have each transaction checked by its handler
// before their verification is recomputed.
func (v *blockValidator) VerifyBlock(block *externalapi.DomainBlock) (bool, error) {
	if block.Verification == nil {
		block.Verification = v.blockVerifier.Verify(block)
	}

	if block.Verification.ContainsMultiSignatures {
		err := v.verifyTransactions(block)
		if err != nil {
			log.Warnf("Failed to verify block, because: %s", err)
			block.Verification.Verified = false
		} else {
			block.Verification = v.blockVerifier.Verify(block)
		}
	}

	if !block.Verification.Verified {
		log.Warnf("Block %d (%s) disregarded because verification failed", block.Data.Height, block.Data.ID)
		log.Warnf("%s", spew.Sdump(block.Verification))
		return false, nil
	}
	return true, nil
}

func (v *blockValidator) verifyTransactions(block *externalapi.DomainBlock) error {
	for _, transaction := range block.Transactions {
		handler, err := v.transactionHandlers.HandlerFor(transaction)
		if err != nil {
			return err
		}
		err = handler.Verify(transaction)
		if err != nil {
			return err
		}
	}
	return nil
}

// BlockContainsIncompatibleTransactions returns whether the block mixes
// transaction versions
func (v *blockValidator) BlockContainsIncompatibleTransactions(block *externalapi.DomainBlock) bool {
	for i := 1; i < len(block.Transactions); i++ {
		if block.Transactions[i].Version != block.Transactions[0].Version {
			return true
		}
	}
	return false
}

// BlockContainsOutOfOrderNonce returns whether some sender's nonces in
// block do not continue one by one from its stored nonce. The scan stops
// at the first legacy transaction.
func (v *blockValidator) BlockContainsOutOfOrderNonce(block *externalapi.DomainBlock) bool {
	nonceBySender := make(map[string]uint64)

	for _, transaction := range block.Transactions {
		if transaction.IsLegacy() {
			break
		}

		sender := transaction.SenderPublicKey
		previousNonce, ok := nonceBySender[sender]
		if !ok {
			previousNonce = v.walletStore.GetNonce(sender)
		}

		if transaction.Nonce != previousNonce+1 {
			log.Warnf("Block { height: %d, id: %s } not accepted: invalid nonce order for sender %s: "+
				"preceding nonce: %d, transaction %s has nonce %d.",
				block.Data.Height, block.Data.ID, sender, previousNonce, transaction.ID, transaction.Nonce)
			return true
		}
		nonceBySender[sender] = transaction.Nonce
	}
	return false
}
