// Package wallet holds secp256k1 key pairs that sign transactions.
//
// An address is the hex encoding of the raw 64 byte public key. It is
// reversible and carries no checksum, which is fine for a simulation but
// not for anything holding real value.
package wallet

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec"
	"github.com/btcsuite/btcutil"
	"github.com/btcsuite/btcutil/base58"
	"github.com/kaspanet/go-secp256k1"
	"github.com/pkg/errors"

	"github.com/kaspanet/ledgersim/util/hashes"
)

// PrivateKeySize is the size of a serialized private key.
const PrivateKeySize = secp256k1.SerializedPrivateKeySize

// fingerprintVersion prefixes the base58check fingerprint.
const fingerprintVersion = 0x6c

// Wallet is a named key pair.
type Wallet struct {
	name       string
	privateKey *secp256k1.ECDSAPrivateKey
	publicKey  *secp256k1.ECDSAPublicKey

	// serializedPublicKey is the compressed public key
	serializedPublicKey *secp256k1.SerializedECDSAPublicKey
	address             string
}

// Info is the full serializable form of a wallet. It exposes the private
// key and is meant for demonstrations only.
type Info struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key"`
}

// New generates a wallet with a fresh key pair.
func New(name string) (*Wallet, error) {
	privateKey, err := secp256k1.GenerateECDSAPrivateKey()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate private key")
	}
	return FromPrivateKey(name, privateKey)
}

// FromPrivateKey wraps an existing private key.
func FromPrivateKey(name string, privateKey *secp256k1.ECDSAPrivateKey) (*Wallet, error) {
	publicKey, err := privateKey.ECDSAPublicKey()
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive the public key")
	}
	serializedPublicKey, err := publicKey.Serialize()
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize the public key")
	}

	// The address needs Y, which only the uncompressed form carries
	point, err := btcec.ParsePubKey(serializedPublicKey[:], btcec.S256())
	if err != nil {
		return nil, errors.Wrap(err, "failed to decompress the public key")
	}

	return &Wallet{
		name:                name,
		privateKey:          privateKey,
		publicKey:           publicKey,
		serializedPublicKey: serializedPublicKey,
		address:             hex.EncodeToString(point.SerializeUncompressed()[1:]),
	}, nil
}

// FromPrivateKeyBytes creates a wallet from a serialized 32 byte private key.
func FromPrivateKeyBytes(name string, serialized []byte) (*Wallet, error) {
	privateKey, err := secp256k1.DeserializeECDSAPrivateKeyFromSlice(serialized)
	if err != nil {
		return nil, errors.Wrap(err, "invalid private key")
	}
	return FromPrivateKey(name, privateKey)
}

// FromPrivateKeyHex creates a wallet from a hex encoded private key.
func FromPrivateKeyHex(name, privateKeyHex string) (*Wallet, error) {
	serialized, err := hex.DecodeString(privateKeyHex)
	if err != nil {
		return nil, errors.Wrap(err, "private key is not hex encoded")
	}
	return FromPrivateKeyBytes(name, serialized)
}

// Name returns the wallet name. It may be empty.
func (w *Wallet) Name() string {
	return w.name
}

// PrivateKey returns the wallet private key.
func (w *Wallet) PrivateKey() *secp256k1.ECDSAPrivateKey {
	return w.privateKey
}

// PublicKey returns the wallet public key.
func (w *Wallet) PublicKey() *secp256k1.ECDSAPublicKey {
	return w.publicKey
}

// Address returns the hex of the raw X||Y public key.
func (w *Wallet) Address() string {
	return w.address
}

// SignTransaction signs the SHA-256 digest of a transaction hash string.
// The signature is the 64 byte compact R||S encoding.
func (w *Wallet) SignTransaction(hash string) ([]byte, error) {
	digest := secp256k1.Hash(hashes.Sum([]byte(hash)))
	signature, err := w.privateKey.ECDSASign(&digest)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign transaction hash")
	}
	serialized := signature.Serialize()
	return serialized[:], nil
}

// GetKeys returns the hex encoded private and public keys.
func (w *Wallet) GetKeys() (privateKeyHex string, publicKeyHex string) {
	return w.privateKey.Serialize().String(), w.Address()
}

// Info returns the serializable form of the wallet, private key included.
func (w *Wallet) Info() *Info {
	privateKeyHex, publicKeyHex := w.GetKeys()
	return &Info{
		Name:       w.name,
		Address:    w.Address(),
		PublicKey:  publicKeyHex,
		PrivateKey: privateKeyHex,
	}
}

// Fingerprint returns a short base58check label derived from the
// compressed public key. It identifies a wallet for display and is never
// accepted as an address.
func (w *Wallet) Fingerprint() string {
	return base58.CheckEncode(btcutil.Hash160(w.serializedPublicKey[:]), fingerprintVersion)
}

func (w *Wallet) String() string {
	return fmt.Sprintf("Wallet [Name: %s, Fingerprint: %s]", w.name, w.Fingerprint())
}
