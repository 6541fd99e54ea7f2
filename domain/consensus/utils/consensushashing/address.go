package consensushashing

import (
	"encoding/hex"

	"github.com/pkg/errors"

	"github.com/dposnet/dposd/domain/consensus/utils/hashes"
)

const addressPayloadSize = 20

// AddressFromPublicKey derives the ledger address of a hex encoded public key
func AddressFromPublicKey(publicKey string, prefix string) (string, error) {
	publicKeyBytes, err := hex.DecodeString(publicKey)
	if err != nil {
		return "", errors.Wrapf(err, "malformed public key %s", publicKey)
	}
	if len(publicKeyBytes) == 0 {
		return "", errors.New("empty public key")
	}

	writer := hashes.NewAddressHashWriter()
	writer.InfallibleWrite(publicKeyBytes)
	digest := writer.Finalize().ByteSlice()

	return prefix + hex.EncodeToString(digest[:addressPayloadSize]), nil
}
