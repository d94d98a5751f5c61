package wallet

import (
	"github.com/kaspanet/go-secp256k1"
	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip39"

	"github.com/kaspanet/ledgersim/util/hashes"
)

// NewMnemonic creates a 24 word BIP-39 mnemonic.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", errors.Wrap(err, "failed to generate entropy")
	}
	return bip39.NewMnemonic(entropy)
}

// FromMnemonic restores a wallet from a BIP-39 mnemonic and optional
// passphrase. The private key is the first 32 bytes of the seed, rehashed
// until it falls in the valid scalar range.
func FromMnemonic(name, mnemonic, passphrase string) (*Wallet, error) {
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, errors.Wrap(err, "invalid mnemonic")
	}

	candidate := secp256k1.SerializedPrivateKey{}
	copy(candidate[:], seed[:PrivateKeySize])
	for {
		privateKey, err := secp256k1.DeserializeECDSAPrivateKey(&candidate)
		if err == nil {
			return FromPrivateKey(name, privateKey)
		}
		candidate = hashes.Sum(candidate[:])
	}
}
