package externalapi

// DomainBlock represents a DPoS block together with its verification status
type DomainBlock struct {
	Data         *DomainBlockData
	Transactions []*DomainTransaction
	Verification *BlockVerification
}

// Clone returns a clone of DomainBlock
func (block *DomainBlock) Clone() *DomainBlock {
	transactionClone := make([]*DomainTransaction, len(block.Transactions))
	for i, tx := range block.Transactions {
		transactionClone[i] = tx.Clone()
	}

	return &DomainBlock{
		Data:         block.Data.Clone(),
		Transactions: transactionClone,
		Verification: block.Verification.Clone(),
	}
}

// If this doesn't compile, it means the type definition has been changed, so it's
// an indication to update Equal and Clone accordingly.
var _ = DomainBlock{&DomainBlockData{}, []*DomainTransaction{}, &BlockVerification{}}

// Equal returns whether block equals to other. The verification status is
// not part of the comparison.
func (block *DomainBlock) Equal(other *DomainBlock) bool {
	if block == nil || other == nil {
		return block == other
	}

	if len(block.Transactions) != len(other.Transactions) {
		return false
	}

	if !block.Data.Equal(other.Data) {
		return false
	}

	for i, tx := range block.Transactions {
		if !tx.Equal(other.Transactions[i]) {
			return false
		}
	}

	return true
}

// TransactionIDs returns the ids of the block transactions in block order
func (block *DomainBlock) TransactionIDs() []string {
	ids := make([]string, len(block.Transactions))
	for i, tx := range block.Transactions {
		ids[i] = tx.ID
	}
	return ids
}

// DomainBlockData represents the immutable header part of a block.
// Height 1 is the genesis block.
type DomainBlockData struct {
	ID                   string
	Version              uint32
	Height               uint64
	PreviousBlockID      string
	Timestamp            uint64
	NumberOfTransactions uint32
	TotalAmount          uint64
	TotalFee             uint64
	Reward               uint64
	PayloadLength        uint32
	GeneratorPublicKey   string
	BlockSignature       string
}

// Clone returns a clone of DomainBlockData
func (data *DomainBlockData) Clone() *DomainBlockData {
	if data == nil {
		return nil
	}
	clone := *data
	return &clone
}

// If this doesn't compile, it means the type definition has been changed, so it's
// an indication to update Equal and Clone accordingly.
var _ = DomainBlockData{"", 0, 0, "", 0, 0, 0, 0, 0, 0, "", ""}

// Equal returns whether data equals to other
func (data *DomainBlockData) Equal(other *DomainBlockData) bool {
	if data == nil || other == nil {
		return data == other
	}
	return *data == *other
}

// BlockVerification is the result of verifying a block's structure and
// signatures. It is mutated only by block validation.
type BlockVerification struct {
	Verified                bool
	ContainsMultiSignatures bool
	Errors                  []string
}

// Clone returns a clone of BlockVerification
func (verification *BlockVerification) Clone() *BlockVerification {
	if verification == nil {
		return nil
	}
	errorsClone := make([]string, len(verification.Errors))
	copy(errorsClone, verification.Errors)
	return &BlockVerification{
		Verified:                verification.Verified,
		ContainsMultiSignatures: verification.ContainsMultiSignatures,
		Errors:                  errorsClone,
	}
}
