package externalapi

import "math/big"

// TransactionType identifies the kind of a transaction inside its type group
type TransactionType uint16

// Core transaction types
const (
	TransactionTypeTransfer             TransactionType = 0
	TransactionTypeSecondSignature      TransactionType = 1
	TransactionTypeDelegateRegistration TransactionType = 2
	TransactionTypeVote                 TransactionType = 3
	TransactionTypeMultiSignature       TransactionType = 4
	TransactionTypeIpfs                 TransactionType = 5
	TransactionTypeMultiPayment         TransactionType = 6
	TransactionTypeDelegateResignation  TransactionType = 7
	TransactionTypeHTLCLock             TransactionType = 8
	TransactionTypeHTLCClaim            TransactionType = 9
	TransactionTypeHTLCRefund           TransactionType = 10
)

// TransactionTypeGroup namespaces transaction types
type TransactionTypeGroup uint32

// TransactionTypeGroupCore is the type group of all built-in transaction types
const TransactionTypeGroupCore TransactionTypeGroup = 1

// LegacyTransactionVersion is the last transaction version that predates nonces
const LegacyTransactionVersion = 1

// DomainTransaction represents a DPoS transaction
type DomainTransaction struct {
	ID              string
	Version         uint8
	Type            TransactionType
	TypeGroup       TransactionTypeGroup
	SenderPublicKey string
	RecipientID     string
	Amount          uint64
	Fee             uint64
	Nonce           uint64
	Timestamp       uint64
	Signatures      []string
	Asset           *TransactionAsset
}

// IsCore returns whether the transaction belongs to the core type group
func (tx *DomainTransaction) IsCore() bool {
	return tx.TypeGroup == TransactionTypeGroupCore
}

// IsCoreType returns whether the transaction is the given core transaction type
func (tx *DomainTransaction) IsCoreType(transactionType TransactionType) bool {
	return tx.IsCore() && tx.Type == transactionType
}

// IsLegacy returns whether the transaction predates nonces
func (tx *DomainTransaction) IsLegacy() bool {
	return tx.Version != 0 && tx.Version <= LegacyTransactionVersion
}

// HasRecipient returns whether the transaction names a recipient address
func (tx *DomainTransaction) HasRecipient() bool {
	return tx.RecipientID != ""
}

// Clone returns a clone of DomainTransaction
func (tx *DomainTransaction) Clone() *DomainTransaction {
	signaturesClone := make([]string, len(tx.Signatures))
	copy(signaturesClone, tx.Signatures)

	return &DomainTransaction{
		ID:              tx.ID,
		Version:         tx.Version,
		Type:            tx.Type,
		TypeGroup:       tx.TypeGroup,
		SenderPublicKey: tx.SenderPublicKey,
		RecipientID:     tx.RecipientID,
		Amount:          tx.Amount,
		Fee:             tx.Fee,
		Nonce:           tx.Nonce,
		Timestamp:       tx.Timestamp,
		Signatures:      signaturesClone,
		Asset:           tx.Asset.Clone(),
	}
}

// If this doesn't compile, it means the type definition has been changed, so it's
// an indication to update Equal and Clone accordingly.
var _ = DomainTransaction{"", 0, 0, 0, "", "", 0, 0, 0, 0, []string{}, &TransactionAsset{}}

// Equal returns whether tx equals to other
func (tx *DomainTransaction) Equal(other *DomainTransaction) bool {
	if tx == nil || other == nil {
		return tx == other
	}

	if tx.ID != other.ID ||
		tx.Version != other.Version ||
		tx.Type != other.Type ||
		tx.TypeGroup != other.TypeGroup ||
		tx.SenderPublicKey != other.SenderPublicKey ||
		tx.RecipientID != other.RecipientID ||
		tx.Amount != other.Amount ||
		tx.Fee != other.Fee ||
		tx.Nonce != other.Nonce ||
		tx.Timestamp != other.Timestamp {
		return false
	}

	if len(tx.Signatures) != len(other.Signatures) {
		return false
	}
	for i, signature := range tx.Signatures {
		if signature != other.Signatures[i] {
			return false
		}
	}

	return tx.Asset.Equal(other.Asset)
}

// TransactionAsset is the type specific payload of a transaction. At most
// one of its fields is populated, matching the transaction type.
type TransactionAsset struct {
	Delegate *DelegateAsset
	Votes    []*Vote
	Payments []*MultiPaymentItem
	Lock     *HTLCLockAsset
	Claim    *HTLCClaimAsset
	Refund   *HTLCRefundAsset
}

// DelegateAsset is the payload of a delegate registration
type DelegateAsset struct {
	Username string
}

// Vote is a single entry of a vote transaction's vote list
type Vote struct {
	DelegatePublicKey string
	IsUnvote          bool
}

// MultiPaymentItem is a single payment of a multi-payment transaction
type MultiPaymentItem struct {
	Amount      uint64
	RecipientID string
}

// HTLCExpirationType defines how an HTLC expiration value is interpreted
type HTLCExpirationType uint8

// HTLC expiration types
const (
	HTLCExpirationEpochTimestamp HTLCExpirationType = 1
	HTLCExpirationBlockHeight    HTLCExpirationType = 2
)

// HTLCLockAsset is the payload of an HTLC lock
type HTLCLockAsset struct {
	SecretHash      string
	ExpirationType  HTLCExpirationType
	ExpirationValue uint64
}

// HTLCClaimAsset is the payload of an HTLC claim
type HTLCClaimAsset struct {
	LockTransactionID string
	UnlockSecret      string
}

// HTLCRefundAsset is the payload of an HTLC refund
type HTLCRefundAsset struct {
	LockTransactionID string
}

// PaymentsTotal returns the exact sum of all multi-payment amounts
func (asset *TransactionAsset) PaymentsTotal() *big.Int {
	total := new(big.Int)
	for _, payment := range asset.Payments {
		total.Add(total, new(big.Int).SetUint64(payment.Amount))
	}
	return total
}

// Clone returns a clone of TransactionAsset
func (asset *TransactionAsset) Clone() *TransactionAsset {
	if asset == nil {
		return nil
	}

	clone := &TransactionAsset{}
	if asset.Delegate != nil {
		delegate := *asset.Delegate
		clone.Delegate = &delegate
	}
	if asset.Votes != nil {
		clone.Votes = make([]*Vote, len(asset.Votes))
		for i, vote := range asset.Votes {
			voteClone := *vote
			clone.Votes[i] = &voteClone
		}
	}
	if asset.Payments != nil {
		clone.Payments = make([]*MultiPaymentItem, len(asset.Payments))
		for i, payment := range asset.Payments {
			paymentClone := *payment
			clone.Payments[i] = &paymentClone
		}
	}
	if asset.Lock != nil {
		lock := *asset.Lock
		clone.Lock = &lock
	}
	if asset.Claim != nil {
		claim := *asset.Claim
		clone.Claim = &claim
	}
	if asset.Refund != nil {
		refund := *asset.Refund
		clone.Refund = &refund
	}
	return clone
}

// If this doesn't compile, it means the type definition has been changed, so it's
// an indication to update Equal and Clone accordingly.
var _ = TransactionAsset{&DelegateAsset{}, []*Vote{}, []*MultiPaymentItem{},
	&HTLCLockAsset{}, &HTLCClaimAsset{}, &HTLCRefundAsset{}}

// Equal returns whether asset equals to other
func (asset *TransactionAsset) Equal(other *TransactionAsset) bool {
	if asset == nil || other == nil {
		return asset == other
	}

	if (asset.Delegate == nil) != (other.Delegate == nil) ||
		asset.Delegate != nil && *asset.Delegate != *other.Delegate {
		return false
	}
	if len(asset.Votes) != len(other.Votes) {
		return false
	}
	for i, vote := range asset.Votes {
		if *vote != *other.Votes[i] {
			return false
		}
	}
	if len(asset.Payments) != len(other.Payments) {
		return false
	}
	for i, payment := range asset.Payments {
		if *payment != *other.Payments[i] {
			return false
		}
	}
	if (asset.Lock == nil) != (other.Lock == nil) ||
		asset.Lock != nil && *asset.Lock != *other.Lock {
		return false
	}
	if (asset.Claim == nil) != (other.Claim == nil) ||
		asset.Claim != nil && *asset.Claim != *other.Claim {
		return false
	}
	if (asset.Refund == nil) != (other.Refund == nil) ||
		asset.Refund != nil && *asset.Refund != *other.Refund {
		return false
	}
	return true
}
