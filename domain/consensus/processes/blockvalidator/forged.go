package blockvalidator

import (
	"github.com/davecgh/go-spew/spew"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
)

// CheckBlockContainsForgedTransactions returns whether any transaction of
// block was already committed, either to the durable index or to a recent
// block that was not flushed yet
func (v *blockValidator) CheckBlockContainsForgedTransactions(block *externalapi.DomainBlock) (bool, error) {
	if len(block.Transactions) == 0 {
		return false, nil
	}

	transactionIDs := block.TransactionIDs()
	forgedIDs, err := v.forgedTransactionStore.GetForgedTransactionIDs(transactionIDs)
	if err != nil {
		return false, err
	}

	lastBlock := v.chainStateStore.LastBlock()
	lastStoredHeight := v.chainStateStore.LastStoredBlockHeight()
	if lastBlock != nil && lastBlock.Data.Height != lastStoredHeight {
		transactionIDSet := make(map[string]struct{}, len(transactionIDs))
		for _, id := range transactionIDs {
			transactionIDSet[id] = struct{}{}
		}
		for _, stateBlock := range v.chainStateStore.LastBlocks() {
			if stateBlock.Data.Height <= lastStoredHeight {
				continue
			}
			for _, transaction := range stateBlock.Transactions {
				if _, ok := transactionIDSet[transaction.ID]; ok {
					forgedIDs = append(forgedIDs, transaction.ID)
				}
			}
		}
	}

	if len(forgedIDs) > 0 {
		log.Warnf("Block %d disregarded, because it contains already forged transactions", block.Data.Height)
		log.Debugf("%s", spew.Sdump(forgedIDs))
		return true, nil
	}
	return false, nil
}
