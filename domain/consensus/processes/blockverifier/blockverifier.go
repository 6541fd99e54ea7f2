package blockverifier

import (
	"encoding/hex"
	"fmt"

	"github.com/dposnet/dposd/domain/chainconfig"
	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/utils/consensushashing"
	"github.com/kaspanet/go-secp256k1"
	"github.com/pkg/errors"
)

// blockVerifier checks a block against itself: header totals against its
// transactions, its id against its content and its signature against its
// generator
type blockVerifier struct {
	params *chainconfig.Params
}

// New instantiates a new BlockVerifier
func New(params *chainconfig.Params) model.BlockVerifier {
	return &blockVerifier{params: params}
}

// Verify never fails: every problem found is collected into the returned
// verification
func (bv *blockVerifier) Verify(block *externalapi.DomainBlock) *externalapi.BlockVerification {
	verification := &externalapi.BlockVerification{}
	if block == nil || block.Data == nil {
		verification.Errors = append(verification.Errors, "block has no header")
		return verification
	}
	data := block.Data
	addError := func(format string, args ...interface{}) {
		verification.Errors = append(verification.Errors, fmt.Sprintf(format, args...))
	}

	if data.Height == 0 {
		addError("invalid height 0")
	}
	if data.Height > 1 && data.PreviousBlockID == "" {
		addError("block at height %d has no previous block", data.Height)
	}
	if data.Height >= 1 {
		expectedReward := bv.params.MilestoneAt(data.Height).Reward
		if data.Reward != expectedReward {
			addError("invalid reward %d, expected %d", data.Reward, expectedReward)
		}
	}

	if int(data.NumberOfTransactions) != len(block.Transactions) {
		addError("invalid number of transactions %d, the block has %d",
			data.NumberOfTransactions, len(block.Transactions))
	}

	var totalAmount, totalFee uint64
	seen := make(map[string]struct{}, len(block.Transactions))
	for _, transaction := range block.Transactions {
		if _, ok := seen[transaction.ID]; ok {
			addError("duplicate transaction %s", transaction.ID)
		}
		seen[transaction.ID] = struct{}{}

		if totalAmount+transaction.Amount < totalAmount {
			addError("total amount overflows at transaction %s", transaction.ID)
		}
		totalAmount += transaction.Amount
		if totalFee+transaction.Fee < totalFee {
			addError("total fee overflows at transaction %s", transaction.ID)
		}
		totalFee += transaction.Fee

		if transaction.IsCoreType(externalapi.TransactionTypeMultiSignature) || len(transaction.Signatures) > 1 {
			verification.ContainsMultiSignatures = true
		}
	}
	if totalAmount != data.TotalAmount {
		addError("invalid total amount %d, transactions sum to %d", data.TotalAmount, totalAmount)
	}
	if totalFee != data.TotalFee {
		addError("invalid total fee %d, transactions sum to %d", data.TotalFee, totalFee)
	}

	if id := consensushashing.BlockID(data); data.ID != id {
		addError("invalid block id %s, expected %s", data.ID, id)
	}

	err := verifySignature(data)
	if err != nil {
		addError("%s", err)
	}

	verification.Verified = len(verification.Errors) == 0
	if !verification.Verified {
		log.Debugf("Block %s at height %d failed verification: %v", data.ID, data.Height, verification.Errors)
	}
	return verification
}

func verifySignature(data *externalapi.DomainBlockData) error {
	publicKeyBytes, err := hex.DecodeString(data.GeneratorPublicKey)
	if err != nil {
		return errors.Wrapf(err, "malformed generator public key %s", data.GeneratorPublicKey)
	}
	publicKey, err := secp256k1.DeserializeSchnorrPubKey(publicKeyBytes)
	if err != nil {
		return errors.Wrapf(err, "invalid generator public key %s", data.GeneratorPublicKey)
	}
	signatureBytes, err := hex.DecodeString(data.BlockSignature)
	if err != nil {
		return errors.Wrap(err, "malformed block signature")
	}
	signature, err := secp256k1.DeserializeSchnorrSignatureFromSlice(signatureBytes)
	if err != nil {
		return errors.Wrap(err, "invalid block signature")
	}

	hash := secp256k1.Hash(*consensushashing.BlockSigningHash(data).ByteArray())
	if !publicKey.SchnorrVerify(&hash, signature) {
		return errors.New("block signature does not match the generator")
	}
	return nil
}
