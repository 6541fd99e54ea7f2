package consensus

import (
	"sync"

	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/dposnet/dposd/domain/consensus/utils/rounds"
	"github.com/pkg/errors"
)

// Consensus maintains the current core state of the node
type Consensus interface {
	ProcessBlock(block *externalapi.DomainBlock) (externalapi.BlockProcessorResult, error)
	ApplyBlock(block *externalapi.DomainBlock) error
	RevertLastBlock() (externalapi.BlockProcessorResult, error)
	FlushBlocks() error

	LastBlock() *externalapi.DomainBlock
	ForgingInfo(timestamp uint64) (*externalapi.ForgingInfo, error)
	ActiveDelegates(height uint64) ([]*externalapi.Wallet, error)
	GetWallet(address string) (*externalapi.Wallet, error)
	LedgerCommitment() *externalapi.DomainHash
}

type consensus struct {
	lock *sync.Mutex

	activeDelegatesMilestones []externalapi.ActiveDelegatesMilestone

	blockProcessor          model.BlockProcessor
	blockHandlers           model.BlockHandlers
	blockStateManager       model.BlockStateManager
	forgerSelection         model.ForgerSelection
	activeDelegatesProvider model.ActiveDelegatesProvider

	walletStore            model.WalletStore
	chainStateStore        model.ChainStateStore
	forgedTransactionStore model.ForgedTransactionStore
}

// ProcessBlock decides the outcome of block and performs its side effects.
// A Rollback outcome reverts the current tip before it is returned.
func (s *consensus) ProcessBlock(block *externalapi.DomainBlock) (externalapi.BlockProcessorResult, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	result, err := s.blockProcessor.Process(block)
	if err != nil {
		return 0, err
	}
	if result != externalapi.BlockProcessorResultRollback {
		return result, nil
	}

	revertResult, err := s.revertLastBlock()
	if err != nil {
		return 0, err
	}
	if revertResult == externalapi.BlockProcessorResultCorrupted {
		return revertResult, nil
	}
	return result, nil
}

// ApplyBlock applies block to the ledger without validating it. It is
// meant for blocks that are already known to be valid, such as blocks
// forged by this node.
func (s *consensus) ApplyBlock(block *externalapi.DomainBlock) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.blockStateManager.ApplyBlock(block)
}

// RevertLastBlock reverts the chain tip
func (s *consensus) RevertLastBlock() (externalapi.BlockProcessorResult, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.revertLastBlock()
}

func (s *consensus) revertLastBlock() (externalapi.BlockProcessorResult, error) {
	lastBlock := s.chainStateStore.LastBlock()
	if lastBlock == nil {
		return 0, errors.Wrap(ruleerrors.ErrMissingLastBlock, "there is no block to revert")
	}

	result, err := s.blockHandlers.HandleRevert(lastBlock)
	if err != nil {
		return 0, err
	}
	if result != externalapi.BlockProcessorResultReverted {
		return result, nil
	}

	if s.chainStateStore.LastStoredBlockHeight() >= lastBlock.Data.Height {
		err = s.forgedTransactionStore.DeleteBlock(lastBlock)
		if err != nil {
			return 0, err
		}
		s.chainStateStore.SetLastStoredBlockHeight(lastBlock.Data.Height - 1)
	}
	return result, nil
}

// FlushBlocks persists the transaction ids of the applied blocks that were
// not stored yet
func (s *consensus) FlushBlocks() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	lastStoredBlockHeight := s.chainStateStore.LastStoredBlockHeight()
	var unstored []*externalapi.DomainBlock
	for _, block := range s.chainStateStore.LastBlocks() {
		if block.Data.Height > lastStoredBlockHeight {
			unstored = append(unstored, block)
		}
	}
	if len(unstored) == 0 {
		return nil
	}
	if unstored[0].Data.Height != lastStoredBlockHeight+1 {
		return errors.Errorf("blocks %d to %d left the recent window before they were stored",
			lastStoredBlockHeight+1, unstored[0].Data.Height-1)
	}

	err := s.forgedTransactionStore.StoreBlocks(unstored)
	if err != nil {
		return err
	}
	s.chainStateStore.SetLastStoredBlockHeight(unstored[len(unstored)-1].Data.Height)
	log.Debugf("Flushed %d blocks, stored height is %d", len(unstored), s.chainStateStore.LastStoredBlockHeight())
	return nil
}

func (s *consensus) LastBlock() *externalapi.DomainBlock {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.chainStateStore.LastBlock()
}

// ForgingInfo returns the forging schedule of the block that would extend
// the current tip at timestamp
func (s *consensus) ForgingInfo(timestamp uint64) (*externalapi.ForgingInfo, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	height := uint64(1)
	if lastBlock := s.chainStateStore.LastBlock(); lastBlock != nil {
		height = lastBlock.Data.Height + 1
	}
	return s.forgerSelection.CalculateForgingInfo(timestamp, height, s.chainStateStore.BlockTimeLookup())
}

// ActiveDelegates returns the ordered forging delegates of the round that
// contains height
func (s *consensus) ActiveDelegates(height uint64) ([]*externalapi.Wallet, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	roundInfo, err := rounds.CalculateRound(height, s.activeDelegatesMilestones)
	if err != nil {
		return nil, err
	}
	return s.activeDelegatesProvider.ActiveDelegates(roundInfo)
}

func (s *consensus) GetWallet(address string) (*externalapi.Wallet, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	wallet, err := s.walletStore.FindByAddress(address)
	if err != nil {
		return nil, err
	}
	return wallet.Clone(), nil
}

// LedgerCommitment returns a hash committing to every wallet of the ledger
func (s *consensus) LedgerCommitment() *externalapi.DomainHash {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.walletStore.Commitment()
}
