package main

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/dposnet/dposd/domain/consensus"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

const blocksFile = `
- data:
    id: "1"
    height: 1
    timestamp: 0
    generatorpublickey: aa
  transactions:
    - id: t1
      version: 2
      nonce: 1
- data:
    id: "2"
    height: 2
    previousblockid: "1"
    timestamp: 8
`

func writeBlocksFile(t *testing.T, content string) string {
	dir, err := ioutil.TempDir("", "TestLoadBlocks")
	if err != nil {
		t.Fatalf("TempDir: %+v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	path := filepath.Join(dir, "blocks.yaml")
	err = ioutil.WriteFile(path, []byte(content), 0600)
	if err != nil {
		t.Fatalf("WriteFile: %+v", err)
	}
	return path
}

func TestLoadBlocks(t *testing.T) {
	blocks, err := loadBlocks(writeBlocksFile(t, blocksFile))
	if err != nil {
		t.Fatalf("loadBlocks: %+v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].Data.GeneratorPublicKey != "aa" || blocks[0].Data.Height != 1 {
		t.Fatalf("unexpected first block data: %+v", blocks[0].Data)
	}
	if len(blocks[0].Transactions) != 1 || blocks[0].Transactions[0].Nonce != 1 {
		t.Fatalf("unexpected first block transactions: %+v", blocks[0].Transactions)
	}
	if blocks[1].Data.PreviousBlockID != "1" || blocks[1].Data.Timestamp != 8 {
		t.Fatalf("unexpected second block data: %+v", blocks[1].Data)
	}

	_, err = loadBlocks(writeBlocksFile(t, "- transactions: []\n"))
	if err == nil {
		t.Fatalf("loadBlocks: expected an error for a block without data")
	}

	_, err = loadBlocks(filepath.Join(os.TempDir(), "dposctl-missing-blocks.yaml"))
	if err == nil {
		t.Fatalf("loadBlocks: expected an error for a missing file")
	}
}

type fakeConsensus struct {
	consensus.Consensus
	results   map[string]externalapi.BlockProcessorResult
	errs      map[string]error
	processed []string
}

func (fc *fakeConsensus) ProcessBlock(block *externalapi.DomainBlock) (externalapi.BlockProcessorResult, error) {
	fc.processed = append(fc.processed, block.Data.ID)
	if err, ok := fc.errs[block.Data.ID]; ok {
		return 0, err
	}
	if result, ok := fc.results[block.Data.ID]; ok {
		return result, nil
	}
	return externalapi.BlockProcessorResultAccepted, nil
}

func blocksWithIDs(ids ...string) []*externalapi.DomainBlock {
	blocks := make([]*externalapi.DomainBlock, len(ids))
	for i, id := range ids {
		blocks[i] = &externalapi.DomainBlock{Data: &externalapi.DomainBlockData{ID: id, Height: uint64(i + 1)}}
	}
	return blocks
}

func TestProcessBlocks(t *testing.T) {
	tests := []struct {
		name              string
		results           map[string]externalapi.BlockProcessorResult
		errs              map[string]error
		interrupted       bool
		expectedProcessed int
		expectError       bool
	}{
		{
			name:              "all accepted",
			expectedProcessed: 3,
		},
		{
			name:              "rejected block does not stop the replay",
			results:           map[string]externalapi.BlockProcessorResult{"b": externalapi.BlockProcessorResultRejected},
			expectedProcessed: 3,
		},
		{
			name:              "corrupted ledger stops the replay",
			results:           map[string]externalapi.BlockProcessorResult{"b": externalapi.BlockProcessorResultCorrupted},
			expectedProcessed: 2,
			expectError:       true,
		},
		{
			name:              "processing error stops the replay",
			errs:              map[string]error{"a": errors.New("boom")},
			expectedProcessed: 1,
			expectError:       true,
		},
		{
			name:              "interrupted before the first block",
			interrupted:       true,
			expectedProcessed: 0,
		},
	}

	for _, test := range tests {
		instance := &fakeConsensus{results: test.results, errs: test.errs}
		interrupt := make(chan struct{})
		if test.interrupted {
			close(interrupt)
		}

		reported := 0
		err := processBlocks(instance, blocksWithIDs("a", "b", "c"), interrupt,
			func(*externalapi.DomainBlock, externalapi.BlockProcessorResult) { reported++ })

		if test.expectError != (err != nil) {
			t.Fatalf("%s: expectError %t, got %+v", test.name, test.expectError, err)
		}
		if len(instance.processed) != test.expectedProcessed {
			t.Fatalf("%s: expected %d processed blocks, got %v", test.name, test.expectedProcessed, instance.processed)
		}
		expectedReported := test.expectedProcessed
		if len(test.errs) > 0 {
			expectedReported--
		}
		if reported != expectedReported {
			t.Fatalf("%s: expected %d reports, got %d", test.name, expectedReported, reported)
		}
	}
}
