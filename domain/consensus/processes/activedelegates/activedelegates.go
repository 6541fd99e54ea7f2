package activedelegates

import (
	"crypto/sha256"
	"strconv"

	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/dposnet/dposd/domain/consensus/utils/sorters"
	"github.com/pkg/errors"
)

// provider ranks the registered delegates by vote balance and orders the
// top MaxDelegates of them with a shuffle seeded by the round number.
// Rounds in progress are served from their frozen lists.
type provider struct {
	walletStore model.WalletStore

	frozenRounds map[uint64][]*externalapi.Wallet
}

// New instantiates a new ActiveDelegatesProvider
func New(walletStore model.WalletStore) model.ActiveDelegatesProvider {
	return &provider{
		walletStore:  walletStore,
		frozenRounds: make(map[uint64][]*externalapi.Wallet),
	}
}

// ActiveDelegates returns the frozen list of the round if there is one,
// and ranks the current delegates otherwise
func (p *provider) ActiveDelegates(roundInfo *externalapi.RoundInfo) ([]*externalapi.Wallet, error) {
	if frozen, ok := p.frozenRounds[roundInfo.Round]; ok {
		return copyDelegates(frozen), nil
	}
	return p.rankDelegates(roundInfo)
}

// FreezeRound pins the delegate list of round
func (p *provider) FreezeRound(round uint64, delegates []*externalapi.Wallet) {
	log.Debugf("Freezing %d active delegates of round %d", len(delegates), round)
	p.frozenRounds[round] = copyDelegates(delegates)
}

func (p *provider) ReleaseRound(round uint64) {
	log.Debugf("Releasing the active delegates of round %d", round)
	delete(p.frozenRounds, round)
}

func copyDelegates(delegates []*externalapi.Wallet) []*externalapi.Wallet {
	clone := make([]*externalapi.Wallet, len(delegates))
	copy(clone, delegates)
	return clone
}

func (p *provider) rankDelegates(roundInfo *externalapi.RoundInfo) ([]*externalapi.Wallet, error) {
	ranking := make(sorters.DelegateRanking, 0)
	for _, wallet := range p.walletStore.AllByUsername() {
		if wallet.Delegate.Resigned {
			continue
		}
		ranking = append(ranking, wallet)
	}
	ranking.Sort()

	if len(ranking) > int(roundInfo.MaxDelegates) {
		ranking = ranking[:roundInfo.MaxDelegates]
	}
	if len(ranking) == 0 {
		return nil, errors.Wrapf(ruleerrors.ErrNoActiveDelegates, "round %d", roundInfo.Round)
	}
	if len(ranking) < int(roundInfo.MaxDelegates) {
		log.Warnf("Round %d has only %d of %d active delegates", roundInfo.Round, len(ranking), roundInfo.MaxDelegates)
	}

	delegates := []*externalapi.Wallet(ranking)
	shuffle(delegates, roundInfo.Round)
	return delegates, nil
}

// shuffle reorders delegates deterministically for round. Each seed digest
// drives four swaps, after which the index advances once more before the
// seed is rehashed, so every fifth position is not swapped in that pass.
func shuffle(delegates []*externalapi.Wallet, round uint64) {
	seed := sha256.Sum256([]byte(strconv.FormatUint(round, 10)))
	count := len(delegates)
	for i := 0; i < count; i++ {
		for x := 0; x < 4 && i < count; i, x = i+1, x+1 {
			newIndex := int(seed[x]) % count
			delegates[newIndex], delegates[i] = delegates[i], delegates[newIndex]
		}
		seed = sha256.Sum256(seed[:])
	}
}
