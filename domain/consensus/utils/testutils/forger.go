package testutils

import (
	"encoding/hex"
	"testing"

	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/utils/consensushashing"
	"github.com/kaspanet/go-secp256k1"
)

// Forger is a block generator key pair for tests
type Forger struct {
	KeyPair   *secp256k1.SchnorrKeyPair
	PublicKey string
}

// NewForger generates a fresh forger key pair
func NewForger(t testing.TB) *Forger {
	keyPair, err := secp256k1.GenerateSchnorrKeyPair()
	if err != nil {
		t.Fatalf("GenerateSchnorrKeyPair: %+v", err)
	}
	publicKey, err := keyPair.SchnorrPublicKey()
	if err != nil {
		t.Fatalf("SchnorrPublicKey: %+v", err)
	}
	serializedPublicKey, err := publicKey.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %+v", err)
	}
	return &Forger{KeyPair: keyPair, PublicKey: hex.EncodeToString(serializedPublicKey[:])}
}

// NewForgers generates count forgers
func NewForgers(t testing.TB, count int) []*Forger {
	forgers := make([]*Forger, count)
	for i := range forgers {
		forgers[i] = NewForger(t)
	}
	return forgers
}

// Sign sets the generator, signature and id of data
func (f *Forger) Sign(t testing.TB, data *externalapi.DomainBlockData) {
	data.GeneratorPublicKey = f.PublicKey
	hash := secp256k1.Hash(*consensushashing.BlockSigningHash(data).ByteArray())
	signature, err := f.KeyPair.SchnorrSign(&hash)
	if err != nil {
		t.Fatalf("SchnorrSign: %+v", err)
	}
	data.BlockSignature = hex.EncodeToString(signature.Serialize()[:])
	data.ID = consensushashing.BlockID(data)
}
