package hashes

import (
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

var (
	blockSigningDomain = []byte("BlockSigningHash")
	addressDomain      = []byte("AddressHash")
)

// NewBlockSigningHashWriter returns a new HashWriter used for the message a block generator signs
func NewBlockSigningHashWriter() HashWriter {
	return newKeyedWriter(blockSigningDomain)
}

// NewAddressHashWriter returns a new HashWriter used for deriving addresses from public keys
func NewAddressHashWriter() HashWriter {
	return newKeyedWriter(addressDomain)
}

func newKeyedWriter(domain []byte) HashWriter {
	blake, err := blake2b.New256(domain)
	if err != nil {
		panic(errors.Wrapf(err, "this should never happen. %s is less than 64 bytes", domain))
	}
	return HashWriter{blake}
}
