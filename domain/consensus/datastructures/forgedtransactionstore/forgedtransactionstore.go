package forgedtransactionstore

import (
	"bytes"

	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/utils/serialization"
	"github.com/dposnet/dposd/infrastructure/db/database"
	"github.com/dposnet/dposd/infrastructure/db/database/ldb"
	"github.com/pkg/errors"
)

var forgedTransactionsBucket = database.MakeBucket([]byte("forged-txs"))
var storedBlockHeightKey = database.MakeBucket([]byte("chain-state")).Key([]byte("stored-height"))

// forgedTransactionStore persists the ids of transactions included in
// flushed blocks, each mapped to the height and id of its block
type forgedTransactionStore struct {
	db *ldb.LevelDB
}

// New instantiates a new ForgedTransactionStore
func New(db *ldb.LevelDB) model.ForgedTransactionStore {
	return &forgedTransactionStore{db: db}
}

// GetForgedTransactionIDs returns the subset of transactionIDs that are
// already stored, in the order they were given
func (fts *forgedTransactionStore) GetForgedTransactionIDs(transactionIDs []string) ([]string, error) {
	forged := make([]string, 0)
	for _, transactionID := range transactionIDs {
		exists, err := fts.db.Has(forgedTransactionsBucket.Key([]byte(transactionID)))
		if err != nil {
			return nil, err
		}
		if exists {
			forged = append(forged, transactionID)
		}
	}
	return forged, nil
}

// StoreBlocks indexes the transactions of blocks and advances the stored
// block height to the height of the last block, atomically
func (fts *forgedTransactionStore) StoreBlocks(blocks []*externalapi.DomainBlock) error {
	if len(blocks) == 0 {
		return nil
	}

	dbTx, err := fts.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		rollbackErr := dbTx.RollbackUnlessClosed()
		if rollbackErr != nil {
			log.Errorf("Couldn't roll back forged transactions: %s", rollbackErr)
		}
	}()

	for _, block := range blocks {
		value, err := serializeBlockLocator(block.Data)
		if err != nil {
			return err
		}
		for _, transaction := range block.Transactions {
			err = dbTx.Put(forgedTransactionsBucket.Key([]byte(transaction.ID)), value)
			if err != nil {
				return err
			}
		}
	}

	height := &bytes.Buffer{}
	err = serialization.WriteElement(height, blocks[len(blocks)-1].Data.Height)
	if err != nil {
		return err
	}
	err = dbTx.Put(storedBlockHeightKey, height.Bytes())
	if err != nil {
		return err
	}

	log.Debugf("Storing %d blocks up to height %d", len(blocks), blocks[len(blocks)-1].Data.Height)
	return dbTx.Commit()
}

// DeleteBlock removes the transactions of block from the index and moves
// the stored block height below it
func (fts *forgedTransactionStore) DeleteBlock(block *externalapi.DomainBlock) error {
	dbTx, err := fts.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		rollbackErr := dbTx.RollbackUnlessClosed()
		if rollbackErr != nil {
			log.Errorf("Couldn't roll back forged transactions: %s", rollbackErr)
		}
	}()

	for _, transaction := range block.Transactions {
		err = dbTx.Delete(forgedTransactionsBucket.Key([]byte(transaction.ID)))
		if err != nil {
			return err
		}
	}

	storedHeight, err := fts.StoredBlockHeight()
	if err != nil {
		return err
	}
	if storedHeight >= block.Data.Height {
		height := &bytes.Buffer{}
		err = serialization.WriteElement(height, block.Data.Height-1)
		if err != nil {
			return err
		}
		err = dbTx.Put(storedBlockHeightKey, height.Bytes())
		if err != nil {
			return err
		}
	}

	return dbTx.Commit()
}

// StoredBlockHeight returns the height of the last stored block, or 0 if
// nothing was stored yet
func (fts *forgedTransactionStore) StoredBlockHeight() (uint64, error) {
	value, err := fts.db.Get(storedBlockHeightKey)
	if database.IsNotFoundError(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var height uint64
	err = serialization.ReadElement(bytes.NewReader(value), &height)
	if err != nil {
		return 0, errors.Wrap(err, "malformed stored block height")
	}
	return height, nil
}

func serializeBlockLocator(data *externalapi.DomainBlockData) ([]byte, error) {
	buf := &bytes.Buffer{}
	err := serialization.WriteElements(buf, data.Height, data.ID)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
