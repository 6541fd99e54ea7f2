package main

import (
	"fmt"
	"io/ioutil"
	"os"

	"github.com/dposnet/dposd/domain/chainconfig"
	"github.com/dposnet/dposd/domain/consensus"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/infrastructure/db/database/ldb"
	"github.com/dposnet/dposd/infrastructure/os/signal"
	"github.com/dposnet/dposd/util/profiling"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// loadBlocks reads a yaml sequence of blocks. Field names are the
// lowercased names of the block and transaction fields.
func loadBlocks(path string) ([]*externalapi.DomainBlock, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't read blocks file %s", path)
	}
	var blocks []*externalapi.DomainBlock
	err = yaml.Unmarshal(data, &blocks)
	if err != nil {
		return nil, errors.Wrapf(err, "malformed blocks file %s", path)
	}
	for i, block := range blocks {
		if block == nil || block.Data == nil {
			return nil, errors.Errorf("block #%d of %s has no data", i, path)
		}
	}
	return blocks, nil
}

// openConsensus creates a consensus over a database in dataDir, or in a
// temporary directory if dataDir is empty. The returned teardown closes
// the database.
func openConsensus(params *chainconfig.Params, dataDir string) (consensus.Consensus, func(), error) {
	removeDataDir := false
	if dataDir == "" {
		var err error
		dataDir, err = ioutil.TempDir("", "dposctl")
		if err != nil {
			return nil, nil, err
		}
		removeDataDir = true
	}

	db, err := ldb.NewLevelDB(dataDir)
	if err != nil {
		return nil, nil, err
	}
	teardown := func() {
		err := db.Close()
		if err != nil {
			log.Errorf("Error closing the database: %s", err)
		}
		if removeDataDir {
			os.RemoveAll(dataDir)
		}
	}

	instance, err := consensus.NewFactory().NewConsensus(&consensus.Config{Params: *params}, db)
	if err != nil {
		teardown()
		return nil, nil, err
	}
	return instance, teardown, nil
}

// processBlocks runs blocks through instance and calls report with the
// outcome of each. It stops at the first corrupted ledger, or between two
// blocks once interrupt is closed.
func processBlocks(instance consensus.Consensus, blocks []*externalapi.DomainBlock, interrupt <-chan struct{},
	report func(block *externalapi.DomainBlock, result externalapi.BlockProcessorResult)) error {

	for i, block := range blocks {
		select {
		case <-interrupt:
			log.Warnf("Interrupted after %d of %d blocks", i, len(blocks))
			return nil
		default:
		}

		result, err := instance.ProcessBlock(block)
		if err != nil {
			return errors.Wrapf(err, "error processing block %d (%s)", block.Data.Height, block.Data.ID)
		}
		report(block, result)
		if result == externalapi.BlockProcessorResultCorrupted {
			return errors.Errorf("the ledger was corrupted by block %d (%s)", block.Data.Height, block.Data.ID)
		}
	}
	return nil
}

func replay(cfg *replayConfig) error {
	blocks, err := loadBlocks(cfg.BlocksFile)
	if err != nil {
		return err
	}
	if cfg.Profile != "" {
		profiling.Start(cfg.Profile, log)
	}

	instance, teardown, err := openConsensus(cfg.NetParams(), cfg.DataDir)
	if err != nil {
		return err
	}
	defer teardown()

	interrupt := signal.InterruptListener()
	err = processBlocks(instance, blocks, interrupt, func(block *externalapi.DomainBlock, result externalapi.BlockProcessorResult) {
		fmt.Printf("%d\t%s\t%s\n", block.Data.Height, block.Data.ID, result)
	})
	if err != nil {
		return err
	}

	if cfg.Flush {
		err = instance.FlushBlocks()
		if err != nil {
			return err
		}
	}

	lastBlock := instance.LastBlock()
	if lastBlock == nil {
		fmt.Println("No block was accepted")
		return nil
	}
	fmt.Printf("\nTip:\t\t\t%d (%s)\n", lastBlock.Data.Height, lastBlock.Data.ID)
	fmt.Printf("Ledger commitment:\t%s\n", instance.LedgerCommitment())
	return nil
}
