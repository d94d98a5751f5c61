package wallet

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const saltSize = 16

// keyDerivationThreads is the argon2 parallelism of new key files. It is
// stored in the file since the derived key depends on it.
const keyDerivationThreads = 4

// EncryptedPrivateKey is a private key sealed with a password.
type EncryptedPrivateKey struct {
	cipher  []byte
	salt    []byte
	threads uint8
}

type keyFileJSON struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Cipher  string `json:"cipher"`
	Salt    string `json:"salt"`
	Threads uint8  `json:"threads"`
}

// KeyFile is the on-disk form of a wallet. Only the address is stored in
// the clear.
type KeyFile struct {
	Name         string
	Address      string
	encryptedKey *EncryptedPrivateKey
}

func getAEAD(password, salt []byte, threads uint8) (cipher.AEAD, error) {
	if threads == 0 {
		return nil, errors.New("argon2 needs at least one thread")
	}
	key := argon2.IDKey(password, salt, 1, 64*1024, threads, chacha20poly1305.KeySize)
	return chacha20poly1305.NewX(key)
}

// EncryptPrivateKey seals the wallet private key with password.
func (w *Wallet) EncryptPrivateKey(password []byte) (*EncryptedPrivateKey, error) {
	salt := make([]byte, saltSize)
	_, err := rand.Read(salt)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	aead, err := getAEAD(password, salt, keyDerivationThreads)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+PrivateKeySize+aead.Overhead())
	_, err = rand.Read(nonce)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &EncryptedPrivateKey{
		cipher:  aead.Seal(nonce, nonce, w.privateKey.Serialize()[:], nil),
		salt:    salt,
		threads: keyDerivationThreads,
	}, nil
}

// DecryptPrivateKey opens an encrypted private key and returns the wallet
// it belongs to.
func DecryptPrivateKey(name string, encryptedKey *EncryptedPrivateKey, password []byte) (*Wallet, error) {
	aead, err := getAEAD(password, encryptedKey.salt, encryptedKey.threads)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if len(encryptedKey.cipher) < aead.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce, ciphertext := encryptedKey.cipher[:aead.NonceSize()], encryptedKey.cipher[aead.NonceSize():]
	decrypted, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decrypt private key, wrong password?")
	}

	return FromPrivateKeyBytes(name, decrypted)
}

// NewKeyFile encrypts the wallet key with password into a KeyFile.
func (w *Wallet) NewKeyFile(password []byte) (*KeyFile, error) {
	encryptedKey, err := w.EncryptPrivateKey(password)
	if err != nil {
		return nil, err
	}
	return &KeyFile{
		Name:         w.name,
		Address:      w.Address(),
		encryptedKey: encryptedKey,
	}, nil
}

// Decrypt restores the wallet from the key file. It fails if the password is
// wrong or the decrypted key does not match the stored address.
func (kf *KeyFile) Decrypt(password []byte) (*Wallet, error) {
	w, err := DecryptPrivateKey(kf.Name, kf.encryptedKey, password)
	if err != nil {
		return nil, err
	}
	if w.Address() != kf.Address {
		return nil, errors.Errorf("key file address %s does not match its private key", kf.Address)
	}
	return w, nil
}

func (kf *KeyFile) toJSON() *keyFileJSON {
	return &keyFileJSON{
		Name:    kf.Name,
		Address: kf.Address,
		Cipher:  hex.EncodeToString(kf.encryptedKey.cipher),
		Salt:    hex.EncodeToString(kf.encryptedKey.salt),
		Threads: kf.encryptedKey.threads,
	}
}

func (kf *KeyFile) fromJSON(fileJSON *keyFileJSON) error {
	cipher, err := hex.DecodeString(fileJSON.Cipher)
	if err != nil {
		return errors.Wrap(err, "cipher is not hex encoded")
	}
	salt, err := hex.DecodeString(fileJSON.Salt)
	if err != nil {
		return errors.Wrap(err, "salt is not hex encoded")
	}

	kf.Name = fileJSON.Name
	kf.Address = fileJSON.Address
	kf.encryptedKey = &EncryptedPrivateKey{cipher: cipher, salt: salt, threads: fileJSON.Threads}
	return nil
}

// WriteKeyFile writes kf to path, creating its directory if needed. An
// existing file is only replaced when overwrite is set.
func WriteKeyFile(path string, kf *KeyFile, overwrite bool) error {
	exists, err := pathExists(path)
	if err != nil {
		return err
	}
	if exists && !overwrite {
		return errors.Errorf("the file %s already exists", path)
	}

	err = os.MkdirAll(filepath.Dir(path), 0700)
	if err != nil {
		return errors.WithStack(err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return errors.WithStack(err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return errors.WithStack(encoder.Encode(kf.toJSON()))
}

// ReadKeyFile reads a key file written by WriteKeyFile.
func ReadKeyFile(path string) (*KeyFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	decoder.DisallowUnknownFields()
	decodedFile := &keyFileJSON{}
	err = decoder.Decode(decodedFile)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode key file %s", path)
	}

	kf := &KeyFile{}
	err = kf.fromJSON(decodedFile)
	if err != nil {
		return nil, err
	}
	return kf, nil
}

func pathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.WithStack(err)
}
