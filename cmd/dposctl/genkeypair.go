package main

import (
	"fmt"

	"github.com/dposnet/dposd/domain/consensus/utils/consensushashing"
	"github.com/kaspanet/go-secp256k1"
	"github.com/pkg/errors"
)

func genKeyPair(cfg *genKeyPairConfig) error {
	keyPair, err := secp256k1.GenerateSchnorrKeyPair()
	if err != nil {
		return errors.Wrap(err, "Failed to generate private key")
	}
	publicKey, err := keyPair.SchnorrPublicKey()
	if err != nil {
		return errors.Wrap(err, "Failed to generate public key")
	}
	serializedPublicKey, err := publicKey.Serialize()
	if err != nil {
		return errors.Wrap(err, "Failed to serialize public key")
	}
	publicKeyHex := fmt.Sprintf("%x", serializedPublicKey[:])

	address, err := consensushashing.AddressFromPublicKey(publicKeyHex, cfg.NetParams().AddressPrefix)
	if err != nil {
		return err
	}

	fmt.Println("This is your private key, granting the right to forge as this delegate. Keep it safe.")
	fmt.Printf("Private key (hex):\t%x\n\n", keyPair.SerializePrivateKey()[:])
	fmt.Printf("Public key (hex):\t%s\n", publicKeyHex)
	fmt.Printf("Address (%s):\t%s\n", cfg.NetParams().Name, address)
	return nil
}
