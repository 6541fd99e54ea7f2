package blockvalidator

import (
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/dposnet/dposd/domain/consensus/utils/rounds"
	"github.com/pkg/errors"
)

// ValidateGenerator returns whether the block generator is the delegate
// scheduled for the block's slot. When the scheduled delegate cannot be
// determined the generator is given the benefit of the doubt.
func (v *blockValidator) ValidateGenerator(block *externalapi.DomainBlock,
	blockTimeLookup externalapi.BlockTimeLookup) (bool, error) {

	data := block.Data
	roundInfo, err := rounds.CalculateRound(data.Height, v.activeDelegatesMilestones)
	if err != nil {
		return false, err
	}
	delegates, err := v.activeDelegatesProvider.ActiveDelegates(roundInfo)
	if err != nil && !errors.Is(err, ruleerrors.ErrNoActiveDelegates) {
		return false, err
	}

	forgingInfo, err := v.forgerSelection.CalculateForgingInfo(data.Timestamp, data.Height, blockTimeLookup)
	if err != nil {
		return false, err
	}

	generatorWallet, err := v.walletStore.LookupByPublicKey(data.GeneratorPublicKey)
	if err != nil {
		if errors.Is(err, ruleerrors.ErrWalletNotFound) {
			log.Debugf("Generator %s of block %d is unknown", data.GeneratorPublicKey, data.Height)
			return false, nil
		}
		return false, err
	}
	if !generatorWallet.IsDelegate() {
		return false, nil
	}
	generatorUsername := generatorWallet.Delegate.Username

	if int(forgingInfo.CurrentForger) >= len(delegates) {
		log.Debugf("Could not decide if delegate %s (%s) is allowed to forge block %d",
			generatorUsername, data.GeneratorPublicKey, data.Height)
		return true, nil
	}

	forgingDelegate := delegates[forgingInfo.CurrentForger]
	if forgingDelegate.PublicKey != data.GeneratorPublicKey {
		log.Warnf("Delegate %s (%s) not allowed to forge, should be %s (%s)",
			generatorUsername, data.GeneratorPublicKey, forgingDelegate.Delegate.Username, forgingDelegate.PublicKey)
		return false, nil
	}

	log.Debugf("Delegate %s (%s) allowed to forge block %d", generatorUsername, data.GeneratorPublicKey, data.Height)
	return true, nil
}
