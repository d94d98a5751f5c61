// Package transaction defines the value transfer record shared by the block
// chain and the tangle.
package transaction

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/btcec"
	"github.com/kaspanet/go-secp256k1"
	"github.com/pkg/errors"

	"github.com/kaspanet/ledgersim/util/hashes"
	"github.com/kaspanet/ledgersim/util/mstime"
)

// Reserved senders. Transactions sent from them carry no signature and model
// genesis and mining reward issuance.
const (
	GenesisSender = "Genesis"
	RewardSender  = "BLOCKCHAIN"
)

// Signer produces a signature over a transaction hash string.
type Signer interface {
	SignTransaction(hash string) ([]byte, error)
}

// Transaction moves Amount from Sender to Recipient. Sender is the hex
// encoded public key of the signer unless it is one of the reserved senders.
type Transaction struct {
	Sender    string
	Recipient string
	Amount    float64
	// Timestamp is the creation time in seconds since the unix epoch.
	Timestamp float64
	Signature []byte
}

// New creates an unsigned transaction stamped with the current time.
func New(sender, recipient string, amount float64) *Transaction {
	return NewWithTimestamp(sender, recipient, amount, mstime.TimeToSeconds(mstime.Now()))
}

// NewWithTimestamp creates an unsigned transaction with the given timestamp.
func NewWithTimestamp(sender, recipient string, amount float64, timestamp float64) *Transaction {
	return &Transaction{
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
		Timestamp: timestamp,
	}
}

// IsReservedSender returns whether sender is one of the issuance senders.
func IsReservedSender(sender string) bool {
	return sender == GenesisSender || sender == RewardSender
}

// IsCoinbase returns whether tx issues new funds.
func (tx *Transaction) IsCoinbase() bool {
	return IsReservedSender(tx.Sender)
}

// Hash returns the content hash of tx. The signature is not covered.
// NaN and infinite amounts and timestamps hash to their names.
func (tx *Transaction) Hash() string {
	hash, err := hashes.HashDocument(map[string]interface{}{
		"sender":    tx.Sender,
		"recipient": tx.Recipient,
		"amount":    hashes.CanonicalFloat(tx.Amount),
		"timestamp": hashes.CanonicalFloat(tx.Timestamp),
	})
	if err != nil {
		// Strings and canonical floats always serialize
		panic(errors.Wrapf(err, "transaction from %s is not hashable", tx.Sender))
	}
	return hash
}

func (tx *Transaction) digest() *secp256k1.Hash {
	digest := secp256k1.Hash(hashes.Sum([]byte(tx.Hash())))
	return &digest
}

// Sign signs the transaction hash with privateKey, replacing any previous
// signature.
func (tx *Transaction) Sign(privateKey *secp256k1.ECDSAPrivateKey) error {
	signature, err := privateKey.ECDSASign(tx.digest())
	if err != nil {
		return errors.Wrap(err, "failed to sign transaction")
	}
	serialized := signature.Serialize()
	tx.Signature = serialized[:]
	return nil
}

// SignWith signs the transaction using signer, replacing any previous
// signature.
func (tx *Transaction) SignWith(signer Signer) error {
	signature, err := signer.SignTransaction(tx.Hash())
	if err != nil {
		return err
	}
	tx.Signature = signature
	return nil
}

// VerifySignature returns whether tx carries a valid signature by the key
// encoded in its sender. Reserved senders are always valid. Any failure,
// including a malformed sender or signature, yields false.
func (tx *Transaction) VerifySignature() (isValid bool) {
	if tx.IsCoinbase() {
		return true
	}
	defer func() {
		if r := recover(); r != nil {
			log.Debugf("Signature verification of a transaction from %s panicked: %v", tx.Sender, r)
			isValid = false
		}
	}()

	if len(tx.Signature) == 0 {
		return false
	}
	publicKey, err := ParseAddress(tx.Sender)
	if err != nil {
		log.Tracef("Invalid sender %s: %s", tx.Sender, err)
		return false
	}
	signature, err := secp256k1.DeserializeECDSASignatureFromSlice(tx.Signature)
	if err != nil {
		log.Tracef("Invalid signature on a transaction from %s: %s", tx.Sender, err)
		return false
	}
	return publicKey.ECDSAVerify(tx.digest(), signature)
}

// ParseAddress decodes an address, the hex of a raw 64 byte public key, into
// a public key on the secp256k1 curve.
func ParseAddress(address string) (*secp256k1.ECDSAPublicKey, error) {
	raw, err := hex.DecodeString(address)
	if err != nil {
		return nil, errors.Wrap(err, "address is not hex encoded")
	}
	if len(raw) != 64 {
		return nil, errors.Errorf("address must encode 64 bytes, got %d", len(raw))
	}

	// The full point is checked to lie on the curve before it is compressed
	point, err := btcec.ParsePubKey(append([]byte{0x04}, raw...), btcec.S256())
	if err != nil {
		return nil, errors.Wrap(err, "address is not a point on the curve")
	}
	return secp256k1.DeserializeECDSAPubKey(point.SerializeCompressed())
}

func (tx *Transaction) String() string {
	return fmt.Sprintf("Transaction [From: %s, To: %s, Amount: %g]", tx.Sender, tx.Recipient, tx.Amount)
}

// Clone returns a deep copy of tx.
func (tx *Transaction) Clone() *Transaction {
	clone := *tx
	if tx.Signature != nil {
		clone.Signature = append([]byte(nil), tx.Signature...)
	}
	return &clone
}

type transactionJSON struct {
	Sender    string  `json:"sender"`
	Recipient string  `json:"recipient"`
	Amount    float64 `json:"amount"`
	Timestamp float64 `json:"timestamp"`
	Signature *string `json:"signature"`
	Hash      string  `json:"hash"`
}

// MarshalJSON implements json.Marshaler.
func (tx *Transaction) MarshalJSON() ([]byte, error) {
	var signature *string
	if tx.Signature != nil {
		encoded := hex.EncodeToString(tx.Signature)
		signature = &encoded
	}
	return json.Marshal(&transactionJSON{
		Sender:    tx.Sender,
		Recipient: tx.Recipient,
		Amount:    tx.Amount,
		Timestamp: tx.Timestamp,
		Signature: signature,
		Hash:      tx.Hash(),
	})
}

// UnmarshalJSON implements json.Unmarshaler. The hash field, when present,
// must match the decoded content.
func (tx *Transaction) UnmarshalJSON(data []byte) error {
	decoded := &transactionJSON{}
	err := json.Unmarshal(data, decoded)
	if err != nil {
		return errors.WithStack(err)
	}
	var signature []byte
	if decoded.Signature != nil {
		signature, err = hex.DecodeString(*decoded.Signature)
		if err != nil {
			return errors.Wrap(err, "signature is not hex encoded")
		}
	}
	*tx = Transaction{
		Sender:    decoded.Sender,
		Recipient: decoded.Recipient,
		Amount:    decoded.Amount,
		Timestamp: decoded.Timestamp,
		Signature: signature,
	}
	if decoded.Hash != "" && decoded.Hash != tx.Hash() {
		return errors.Errorf("transaction hash %s does not match its content", decoded.Hash)
	}
	return nil
}
