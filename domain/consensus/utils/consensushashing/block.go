package consensushashing

import (
	"encoding/hex"
	"io"

	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/utils/hashes"
	"github.com/dposnet/dposd/domain/consensus/utils/serialization"
	"github.com/pkg/errors"
)

// BlockSigningHash returns the digest a block generator signs: every header
// field except the block ID and the signature itself.
func BlockSigningHash(data *externalapi.DomainBlockData) *externalapi.DomainHash {
	writer := hashes.NewBlockSigningHashWriter()
	err := serializeUnsignedHeader(writer, data)
	if err != nil {
		// It seems like this could only happen if the writer returned an error.
		// and this writer should never return an error (no allocations or possible failures)
		panic(errors.Wrap(err, "this should never happen. Hash digest should never return an error"))
	}

	return writer.Finalize()
}

// BlockID returns the identifier of a signed block: the digest of its
// signing hash followed by its signature
func BlockID(data *externalapi.DomainBlockData) string {
	writer := hashes.NewBlockSigningHashWriter()
	writer.InfallibleWrite(BlockSigningHash(data).ByteSlice())
	err := serialization.WriteElement(writer, data.BlockSignature)
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. Hash digest should never return an error"))
	}
	return writer.Finalize().String()
}

func serializeUnsignedHeader(w io.Writer, data *externalapi.DomainBlockData) error {
	generatorPublicKey, err := hex.DecodeString(data.GeneratorPublicKey)
	if err != nil {
		// Malformed keys are hashed as their raw text so that verification fails on the signature
		generatorPublicKey = []byte(data.GeneratorPublicKey)
	}
	return serialization.WriteElements(w, data.Version, data.Timestamp, data.Height, data.PreviousBlockID,
		data.NumberOfTransactions, data.TotalAmount, data.TotalFee, data.Reward, data.PayloadLength,
		generatorPublicKey)
}
