package main

import (
	"fmt"

	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
)

func schedule(cfg *scheduleConfig) error {
	params := cfg.NetParams()
	instance, teardown, err := openConsensus(params, "")
	if err != nil {
		return err
	}
	defer teardown()

	if cfg.BlocksFile != "" {
		blocks, err := loadBlocks(cfg.BlocksFile)
		if err != nil {
			return err
		}
		err = processBlocks(instance, blocks, nil, func(*externalapi.DomainBlock, externalapi.BlockProcessorResult) {})
		if err != nil {
			return err
		}
	}

	height := uint64(1)
	timestamp := cfg.From
	if lastBlock := instance.LastBlock(); lastBlock != nil {
		height = lastBlock.Data.Height + 1
		if timestamp == 0 {
			timestamp = lastBlock.Data.Timestamp + params.MilestoneAt(height).BlockTime
		}
	}

	delegates, err := instance.ActiveDelegates(height)
	if err != nil {
		return err
	}
	blockTime := params.MilestoneAt(height).BlockTime

	fmt.Printf("Forging schedule for height %d on %s\n\n", height, params.Name)
	for i := 0; i < cfg.Slots; i++ {
		slotTimestamp := timestamp + uint64(i)*blockTime
		forgingInfo, err := instance.ForgingInfo(slotTimestamp)
		if err != nil {
			return err
		}
		delegate := delegates[int(forgingInfo.CurrentForger)%len(delegates)]
		fmt.Printf("%d\t%s\t%s\n", forgingInfo.BlockTimestamp, delegate.Delegate.Username, delegate.PublicKey)
	}
	return nil
}
