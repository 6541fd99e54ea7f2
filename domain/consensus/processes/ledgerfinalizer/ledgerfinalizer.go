package ledgerfinalizer

import (
	"math/big"

	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/pkg/errors"
)

// ledgerFinalizer keeps forger accounting and delegate vote balances in
// step with the balances moved by transaction handlers. Every revert
// computes the same deltas as its apply and applies them negated.
type ledgerFinalizer struct {
	walletStore model.WalletStore

	// previousLastBlocks holds, per forger address, the last-block pointers
	// replaced by ApplyBlockToForger so that a revert restores them
	previousLastBlocks map[string][]*externalapi.DomainBlockData
}

// New instantiates a new LedgerFinalizer
func New(walletStore model.WalletStore) model.LedgerFinalizer {
	return &ledgerFinalizer{
		walletStore:        walletStore,
		previousLastBlocks: make(map[string][]*externalapi.DomainBlockData),
	}
}

func bigUint64(value uint64) *big.Int {
	return new(big.Int).SetUint64(value)
}

// direction is +1 on apply and -1 on revert
type direction int

const (
	apply  direction = 1
	revert direction = -1
)

func (d direction) signed(amount *big.Int) *big.Int {
	if d == revert {
		return new(big.Int).Neg(amount)
	}
	return new(big.Int).Set(amount)
}

func (lf *ledgerFinalizer) ApplyBlockToForger(forgerWallet *externalapi.Wallet,
	blockData *externalapi.DomainBlockData) error {

	return lf.updateForger(forgerWallet, blockData, apply)
}

func (lf *ledgerFinalizer) RevertBlockFromForger(forgerWallet *externalapi.Wallet,
	blockData *externalapi.DomainBlockData) error {

	return lf.updateForger(forgerWallet, blockData, revert)
}

func (lf *ledgerFinalizer) updateForger(forgerWallet *externalapi.Wallet,
	blockData *externalapi.DomainBlockData, d direction) error {

	if forgerWallet == nil {
		return errors.Wrapf(ruleerrors.ErrMissingForgerWallet, "block %s", blockData.ID)
	}
	income := new(big.Int).Add(bigUint64(blockData.Reward), bigUint64(blockData.TotalFee))

	if !forgerWallet.IsDelegate() {
		// The genesis generator forges before any delegate is registered
		if blockData.Height != 1 {
			return errors.Wrapf(ruleerrors.ErrForgerNotDelegate, "forger %s of block %s",
				forgerWallet.Address, blockData.ID)
		}
		forgerWallet.IncreaseBalance(d.signed(income))
		return nil
	}

	// Resolve the voted delegate before mutating anything
	votedDelegate, err := lf.votedDelegate(forgerWallet)
	if err != nil {
		return err
	}

	delegate := forgerWallet.Delegate
	if d == apply {
		delegate.ProducedBlocks++
		lf.previousLastBlocks[forgerWallet.Address] = append(lf.previousLastBlocks[forgerWallet.Address],
			delegate.LastBlock)
		delegate.LastBlock = blockData.Clone()
	} else {
		if delegate.ProducedBlocks == 0 {
			return errors.Errorf("cannot revert block %s from forger %s that produced no blocks",
				blockData.ID, forgerWallet.Address)
		}
		delegate.ProducedBlocks--
		delegate.LastBlock = lf.popPreviousLastBlock(forgerWallet.Address)
	}
	delegate.ForgedFees = new(big.Int).Add(delegate.ForgedFees, d.signed(bigUint64(blockData.TotalFee)))
	delegate.ForgedRewards = new(big.Int).Add(delegate.ForgedRewards, d.signed(bigUint64(blockData.Reward)))
	forgerWallet.IncreaseBalance(d.signed(income))
	addVoteBalance(votedDelegate, d.signed(income))

	log.Tracef("Updated forger %s for block %s at height %d (direction %d)",
		delegate.Username, blockData.ID, blockData.Height, d)
	return nil
}

func (lf *ledgerFinalizer) popPreviousLastBlock(address string) *externalapi.DomainBlockData {
	stack := lf.previousLastBlocks[address]
	if len(stack) == 0 {
		return nil
	}
	previous := stack[len(stack)-1]
	if len(stack) == 1 {
		delete(lf.previousLastBlocks, address)
	} else {
		lf.previousLastBlocks[address] = stack[:len(stack)-1]
	}
	return previous
}

// votedDelegate returns the delegate wallet voted for by wallet, or nil if
// wallet does not vote
func (lf *ledgerFinalizer) votedDelegate(wallet *externalapi.Wallet) (*externalapi.Wallet, error) {
	if wallet == nil || !wallet.HasVoted() {
		return nil, nil
	}
	return lf.delegateByPublicKey(wallet.Vote)
}

func (lf *ledgerFinalizer) delegateByPublicKey(publicKey string) (*externalapi.Wallet, error) {
	delegate, err := lf.walletStore.FindByPublicKey(publicKey)
	if err != nil {
		return nil, err
	}
	if !delegate.IsDelegate() {
		return nil, errors.Wrapf(ruleerrors.ErrForgerNotDelegate, "voted wallet %s", delegate.Address)
	}
	return delegate, nil
}

func addVoteBalance(delegate *externalapi.Wallet, amount *big.Int) {
	if delegate == nil {
		return
	}
	voteBalance := delegate.Delegate.VoteBalance
	if voteBalance == nil {
		voteBalance = new(big.Int)
	}
	delegate.Delegate.VoteBalance = new(big.Int).Add(voteBalance, amount)
}
