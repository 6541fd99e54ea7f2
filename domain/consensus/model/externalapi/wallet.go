package externalapi

import "math/big"

// Wallet is the ledger account of a single address. Its dynamic attributes
// are modelled as typed optional fields: Vote is empty unless the wallet
// votes, Delegate is nil unless the wallet registered as a delegate.
type Wallet struct {
	Address   string
	PublicKey string
	Balance   *big.Int
	Nonce     uint64
	Vote      string
	Delegate  *DelegateAttributes
	HTLC      *HTLCAttributes
}

// NewWallet returns an empty wallet for the given address
func NewWallet(address string) *Wallet {
	return &Wallet{
		Address: address,
		Balance: new(big.Int),
	}
}

// HasVoted returns whether the wallet currently votes for a delegate
func (wallet *Wallet) HasVoted() bool {
	return wallet.Vote != ""
}

// IsDelegate returns whether the wallet registered as a delegate
func (wallet *Wallet) IsDelegate() bool {
	return wallet.Delegate != nil
}

// IncreaseBalance adds amount to the wallet balance
func (wallet *Wallet) IncreaseBalance(amount *big.Int) {
	wallet.Balance = new(big.Int).Add(wallet.Balance, amount)
}

// DecreaseBalance subtracts amount from the wallet balance. The balance may
// become negative; callers are responsible for checking funds beforehand.
func (wallet *Wallet) DecreaseBalance(amount *big.Int) {
	wallet.Balance = new(big.Int).Sub(wallet.Balance, amount)
}

// LockedBalance returns the sum of the wallet's HTLC locked amounts
func (wallet *Wallet) LockedBalance() *big.Int {
	if wallet.HTLC == nil || wallet.HTLC.LockedBalance == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(wallet.HTLC.LockedBalance)
}

// DelegatedAmount returns the vote weight this wallet carries: its balance
// plus its HTLC locked balance.
func (wallet *Wallet) DelegatedAmount() *big.Int {
	return new(big.Int).Add(wallet.Balance, wallet.LockedBalance())
}

// Clone returns a deep clone of the wallet
func (wallet *Wallet) Clone() *Wallet {
	if wallet == nil {
		return nil
	}
	return &Wallet{
		Address:   wallet.Address,
		PublicKey: wallet.PublicKey,
		Balance:   cloneBigInt(wallet.Balance),
		Nonce:     wallet.Nonce,
		Vote:      wallet.Vote,
		Delegate:  wallet.Delegate.Clone(),
		HTLC:      wallet.HTLC.Clone(),
	}
}

// If this doesn't compile, it means the type definition has been changed, so it's
// an indication to update Equal and Clone accordingly.
var _ = Wallet{"", "", &big.Int{}, 0, "", &DelegateAttributes{}, &HTLCAttributes{}}

// Equal returns whether wallet equals to other value for value
func (wallet *Wallet) Equal(other *Wallet) bool {
	if wallet == nil || other == nil {
		return wallet == other
	}
	return wallet.Address == other.Address &&
		wallet.PublicKey == other.PublicKey &&
		bigIntEqual(wallet.Balance, other.Balance) &&
		wallet.Nonce == other.Nonce &&
		wallet.Vote == other.Vote &&
		wallet.Delegate.Equal(other.Delegate) &&
		wallet.HTLC.Equal(other.HTLC)
}

// DelegateAttributes holds the delegate bookkeeping of a wallet
type DelegateAttributes struct {
	Username       string
	VoteBalance    *big.Int
	ForgedFees     *big.Int
	ForgedRewards  *big.Int
	ProducedBlocks uint64
	LastBlock      *DomainBlockData
	Resigned       bool
}

// NewDelegateAttributes returns the attributes of a freshly registered delegate
func NewDelegateAttributes(username string) *DelegateAttributes {
	return &DelegateAttributes{
		Username:      username,
		VoteBalance:   new(big.Int),
		ForgedFees:    new(big.Int),
		ForgedRewards: new(big.Int),
	}
}

// Clone returns a deep clone of the delegate attributes
func (delegate *DelegateAttributes) Clone() *DelegateAttributes {
	if delegate == nil {
		return nil
	}
	return &DelegateAttributes{
		Username:       delegate.Username,
		VoteBalance:    cloneBigInt(delegate.VoteBalance),
		ForgedFees:     cloneBigInt(delegate.ForgedFees),
		ForgedRewards:  cloneBigInt(delegate.ForgedRewards),
		ProducedBlocks: delegate.ProducedBlocks,
		LastBlock:      delegate.LastBlock.Clone(),
		Resigned:       delegate.Resigned,
	}
}

// Equal returns whether delegate equals to other
func (delegate *DelegateAttributes) Equal(other *DelegateAttributes) bool {
	if delegate == nil || other == nil {
		return delegate == other
	}
	return delegate.Username == other.Username &&
		bigIntEqual(delegate.VoteBalance, other.VoteBalance) &&
		bigIntEqual(delegate.ForgedFees, other.ForgedFees) &&
		bigIntEqual(delegate.ForgedRewards, other.ForgedRewards) &&
		delegate.ProducedBlocks == other.ProducedBlocks &&
		delegate.LastBlock.Equal(other.LastBlock) &&
		delegate.Resigned == other.Resigned
}

// HTLCLock is an open hashed-timelock held by the wallet that created it
type HTLCLock struct {
	Amount          uint64
	RecipientID     string
	SecretHash      string
	ExpirationType  HTLCExpirationType
	ExpirationValue uint64
	Timestamp       uint64
}

// HTLCAttributes holds the open locks of a wallet and their sum
type HTLCAttributes struct {
	LockedBalance *big.Int
	Locks         map[string]*HTLCLock
}

// Clone returns a deep clone of the HTLC attributes
func (htlc *HTLCAttributes) Clone() *HTLCAttributes {
	if htlc == nil {
		return nil
	}
	locks := make(map[string]*HTLCLock, len(htlc.Locks))
	for id, lock := range htlc.Locks {
		lockClone := *lock
		locks[id] = &lockClone
	}
	return &HTLCAttributes{
		LockedBalance: cloneBigInt(htlc.LockedBalance),
		Locks:         locks,
	}
}

// Equal returns whether htlc equals to other
func (htlc *HTLCAttributes) Equal(other *HTLCAttributes) bool {
	if htlc == nil || other == nil {
		return htlc == other
	}
	if !bigIntEqual(htlc.LockedBalance, other.LockedBalance) || len(htlc.Locks) != len(other.Locks) {
		return false
	}
	for id, lock := range htlc.Locks {
		otherLock, ok := other.Locks[id]
		if !ok || *lock != *otherLock {
			return false
		}
	}
	return true
}

func cloneBigInt(value *big.Int) *big.Int {
	if value == nil {
		return nil
	}
	return new(big.Int).Set(value)
}

func bigIntEqual(a, b *big.Int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Cmp(b) == 0
}
