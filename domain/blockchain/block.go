package blockchain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/kaspanet/ledgersim/domain/merkle"
	"github.com/kaspanet/ledgersim/domain/transaction"
	"github.com/kaspanet/ledgersim/util/hashes"
)

// MaxDifficulty is the number of hex digits in a block hash.
const MaxDifficulty = hashes.HashStringSize

// contextCheckInterval is the number of nonces tried between two checks of
// the mining context.
const contextCheckInterval = 1 << 12

// Block is a batch of transactions committed by a Merkle root and sealed by
// proof of work. A block must not be modified once mined.
type Block struct {
	Index        uint64
	Timestamp    float64
	Transactions []*transaction.Transaction
	PreviousHash string
	MerkleRoot   string
	Nonce        uint64
	Hash         string

	merkleTree *merkle.Tree
}

// NewBlock creates an unmined block over transactions.
func NewBlock(index uint64, transactions []*transaction.Transaction, previousHash string, timestamp float64) *Block {
	block := &Block{
		Index:        index,
		Timestamp:    timestamp,
		Transactions: transactions,
		PreviousHash: previousHash,
	}
	block.merkleTree = merkle.New(block.transactionHashes())
	block.MerkleRoot = block.merkleTree.Root()
	block.Hash = block.CalculateHash()
	return block
}

func (b *Block) transactionHashes() []string {
	transactionHashes := make([]string, len(b.Transactions))
	for i, tx := range b.Transactions {
		transactionHashes[i] = tx.Hash()
	}
	return transactionHashes
}

func (b *Block) headerDocument(nonce uint64) map[string]interface{} {
	return map[string]interface{}{
		"index":         b.Index,
		"timestamp":     b.Timestamp,
		"merkle_root":   b.MerkleRoot,
		"previous_hash": b.PreviousHash,
		"nonce":         nonce,
	}
}

// CalculateHash returns the hash of the block header as it currently is.
func (b *Block) CalculateHash() string {
	hash, err := hashes.HashDocument(b.headerDocument(b.Nonce))
	if err != nil {
		panic(errors.Wrapf(err, "block %d is not hashable", b.Index))
	}
	return hash
}

// headerTemplate splits the serialized header around the nonce value so
// that the mining loop only formats the nonce.
func (b *Block) headerTemplate() (prefix []byte, suffix []byte) {
	serialized, err := hashes.CanonicalJSON(b.headerDocument(0))
	if err != nil {
		panic(errors.Wrapf(err, "block %d is not hashable", b.Index))
	}
	const nonceField = `"nonce":`
	nonceStart := strings.Index(string(serialized), nonceField) + len(nonceField)
	// The zero nonce is serialized as a single digit
	return serialized[:nonceStart], serialized[nonceStart+1:]
}

// Mine searches nonces, starting from the current one, until the block hash
// starts with difficulty zeros. The search is unbounded: at high
// difficulties it may practically never end.
func (b *Block) Mine(difficulty int) {
	// A background context is never done
	_ = b.MineContext(context.Background(), difficulty)
}

// MineContext is like Mine but stops when ctx is done, in which case the
// block is left as it was and ctx.Err() is returned.
func (b *Block) MineContext(ctx context.Context, difficulty int) error {
	target := strings.Repeat("0", difficulty)
	prefix, suffix := b.headerTemplate()

	buffer := make([]byte, 0, len(prefix)+len(suffix)+20)
	for nonce := b.Nonce; ; nonce++ {
		if nonce%contextCheckInterval == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}

		buffer = append(buffer[:0], prefix...)
		buffer = strconv.AppendUint(buffer, nonce, 10)
		buffer = append(buffer, suffix...)
		digest := sha256.Sum256(buffer)
		hash := hex.EncodeToString(digest[:])
		if strings.HasPrefix(hash, target) {
			b.Nonce = nonce
			b.Hash = hash
			return nil
		}
	}
}

// HasValidProofOfWork returns whether the stored hash matches the block
// content and starts with difficulty zeros.
func (b *Block) HasValidProofOfWork(difficulty int) bool {
	return b.Hash == b.CalculateHash() && strings.HasPrefix(b.Hash, strings.Repeat("0", difficulty))
}

// Proof returns the Merkle inclusion proof of tx in this block.
func (b *Block) Proof(tx *transaction.Transaction) []merkle.ProofStep {
	return b.merkleTree.Proof(tx.Hash())
}

// VerifyTransaction checks the inclusion proof of tx against the block's
// Merkle root.
func (b *Block) VerifyTransaction(tx *transaction.Transaction, proof []merkle.ProofStep) bool {
	return merkle.VerifyProof(tx.Hash(), b.MerkleRoot, proof)
}

// ContainsTransaction returns whether a transaction with the given hash is
// part of the block.
func (b *Block) ContainsTransaction(transactionHash string) bool {
	for _, tx := range b.Transactions {
		if tx.Hash() == transactionHash {
			return true
		}
	}
	return false
}

func (b *Block) String() string {
	return fmt.Sprintf("Block #%d [Hash: %s, Transactions: %d]", b.Index, b.Hash, len(b.Transactions))
}

type blockJSON struct {
	Index        uint64                     `json:"index"`
	Timestamp    float64                    `json:"timestamp"`
	Transactions []*transaction.Transaction `json:"transactions"`
	PreviousHash string                     `json:"previous_hash"`
	MerkleRoot   string                     `json:"merkle_root"`
	Hash         string                     `json:"hash"`
	Nonce        uint64                     `json:"nonce"`
}

// MarshalJSON implements json.Marshaler.
func (b *Block) MarshalJSON() ([]byte, error) {
	transactions := b.Transactions
	if transactions == nil {
		transactions = []*transaction.Transaction{}
	}
	return json.Marshal(&blockJSON{
		Index:        b.Index,
		Timestamp:    b.Timestamp,
		Transactions: transactions,
		PreviousHash: b.PreviousHash,
		MerkleRoot:   b.MerkleRoot,
		Hash:         b.Hash,
		Nonce:        b.Nonce,
	})
}

// UnmarshalJSON implements json.Unmarshaler. Stored hashes are kept as they
// are; use HasValidProofOfWork or Blockchain validation to check them.
func (b *Block) UnmarshalJSON(data []byte) error {
	decoded := &blockJSON{}
	err := json.Unmarshal(data, decoded)
	if err != nil {
		return errors.WithStack(err)
	}
	*b = Block{
		Index:        decoded.Index,
		Timestamp:    decoded.Timestamp,
		Transactions: decoded.Transactions,
		PreviousHash: decoded.PreviousHash,
		MerkleRoot:   decoded.MerkleRoot,
		Nonce:        decoded.Nonce,
		Hash:         decoded.Hash,
	}
	b.merkleTree = merkle.New(b.transactionHashes())
	return nil
}
