// Package blockchain implements a single chain of proof of work blocks fed
// from a pool of pending transactions.
//
// A Blockchain is not safe for concurrent use. Callers sharing one between
// goroutines must serialize access to it.
package blockchain

import (
	"context"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"

	"github.com/kaspanet/ledgersim/domain/transaction"
	"github.com/kaspanet/ledgersim/infrastructure/logger"
	"github.com/kaspanet/ledgersim/util/mstime"
)

// GenesisPreviousHash is the previous hash of the genesis block.
const GenesisPreviousHash = "0"

// Blockchain is an ordered list of mined blocks starting at genesis plus the
// transactions waiting to be mined.
type Blockchain struct {
	chain               []*Block
	pendingTransactions []*transaction.Transaction
	difficulty          int
	clock               mstime.Clock
}

// New creates a chain at the given difficulty and mines its genesis block.
func New(difficulty int) (*Blockchain, error) {
	return NewWithClock(difficulty, mstime.SystemClock)
}

// NewWithClock is like New but stamps blocks and the genesis transaction
// using clock.
func NewWithClock(difficulty int, clock mstime.Clock) (*Blockchain, error) {
	if difficulty < 0 || difficulty > MaxDifficulty {
		return nil, errors.Wrapf(ErrInvalidDifficulty, "difficulty %d is out of range", difficulty)
	}

	bc := &Blockchain{
		difficulty:          difficulty,
		clock:               clock,
		pendingTransactions: []*transaction.Transaction{},
	}
	bc.chain = []*Block{bc.createGenesisBlock()}
	return bc, nil
}

func (bc *Blockchain) now() float64 {
	return mstime.TimeToSeconds(bc.clock.Now())
}

func (bc *Blockchain) createGenesisBlock() *Block {
	onEnd := logger.LogAndMeasureExecutionTime(log, "createGenesisBlock")
	defer onEnd()

	timestamp := bc.now()
	genesisTransaction := transaction.NewWithTimestamp(
		transaction.GenesisSender, transaction.GenesisSender, 0, timestamp)
	genesis := NewBlock(0, []*transaction.Transaction{genesisTransaction}, GenesisPreviousHash, timestamp)
	genesis.Mine(bc.difficulty)
	log.Debugf("Mined genesis block %s", genesis.Hash)
	return genesis
}

// Difficulty returns the number of leading zero hex digits required of
// block hashes.
func (bc *Blockchain) Difficulty() int {
	return bc.difficulty
}

// Len returns the number of blocks including genesis.
func (bc *Blockchain) Len() int {
	return len(bc.chain)
}

// LatestBlock returns the last block of the chain.
func (bc *Blockchain) LatestBlock() *Block {
	return bc.chain[len(bc.chain)-1]
}

// Blocks returns the blocks of the chain in order. The returned slice may be
// modified, the blocks may not.
func (bc *Blockchain) Blocks() []*Block {
	blocks := make([]*Block, len(bc.chain))
	copy(blocks, bc.chain)
	return blocks
}

// PendingTransactions returns the transactions waiting to be mined, in
// submission order.
func (bc *Blockchain) PendingTransactions() []*transaction.Transaction {
	pending := make([]*transaction.Transaction, len(bc.pendingTransactions))
	copy(pending, bc.pendingTransactions)
	return pending
}

// AddTransaction queues tx for mining. It returns false, queuing nothing,
// if the transaction signature does not verify. No balance or duplicate
// checks are made.
func (bc *Blockchain) AddTransaction(tx *transaction.Transaction) bool {
	if !tx.VerifySignature() {
		log.Debugf("Rejected transaction %s: invalid signature", logger.NewLogClosure(tx.Hash))
		return false
	}
	bc.pendingTransactions = append(bc.pendingTransactions, tx)
	log.Tracef("Queued transaction %s, %d pending", logger.NewLogClosure(tx.Hash), len(bc.pendingTransactions))
	return true
}

// MineBlock mines every pending transaction into a new block and appends it
// to the chain. Rewarding the miner is up to the caller, who should queue a
// reward transaction beforehand. minerAddress is only used for logging.
func (bc *Blockchain) MineBlock(minerAddress string) (*Block, error) {
	return bc.MineBlockContext(context.Background(), minerAddress)
}

// MineBlockContext is like MineBlock but gives up when ctx is done. In that
// case neither the chain nor the pending pool are changed.
func (bc *Blockchain) MineBlockContext(ctx context.Context, minerAddress string) (*Block, error) {
	if len(bc.pendingTransactions) == 0 {
		return nil, errors.WithStack(ErrNoTransactionsToMine)
	}

	latest := bc.LatestBlock()
	block := NewBlock(latest.Index+1, bc.PendingTransactions(), latest.Hash, bc.now())
	err := block.MineContext(ctx, bc.difficulty)
	if err != nil {
		return nil, errors.Wrapf(err, "mining of block %d was interrupted", block.Index)
	}

	bc.chain = append(bc.chain, block)
	bc.pendingTransactions = []*transaction.Transaction{}

	log.Infof("Mined block %d with %d transactions for %s: %s",
		block.Index, len(block.Transactions), minerAddress, block.Hash)
	log.Tracef("Mined block: %s", logger.NewLogClosure(func() string { return spew.Sdump(block) }))
	return block, nil
}

// ValidateChain checks every block after genesis: its hash, its link to the
// previous block, and every transaction signature, in that order. It
// returns the first violation found.
func (bc *Blockchain) ValidateChain() error {
	for i := 1; i < len(bc.chain); i++ {
		current := bc.chain[i]
		previous := bc.chain[i-1]

		if current.Hash != current.CalculateHash() {
			return errors.Wrapf(ErrBlockHashMismatch, "block %d", current.Index)
		}
		if current.PreviousHash != previous.Hash {
			return errors.Wrapf(ErrPreviousHashMismatch, "block %d", current.Index)
		}
		for _, tx := range current.Transactions {
			if !tx.VerifySignature() {
				return errors.Wrapf(ErrInvalidTransactionSignature,
					"transaction %s in block %d", tx.Hash(), current.Index)
			}
		}
	}
	return nil
}

// IsChainValid returns whether ValidateChain finds no violation.
func (bc *Blockchain) IsChainValid() bool {
	err := bc.ValidateChain()
	if err != nil {
		log.Warnf("Chain is invalid: %s", err)
		return false
	}
	return true
}

// GetBalance sums every mined transaction to or from address. Pending
// transactions are not counted.
func (bc *Blockchain) GetBalance(address string) float64 {
	balance := 0.0
	for _, block := range bc.chain {
		for _, tx := range block.Transactions {
			if tx.Sender == address {
				balance -= tx.Amount
			}
			if tx.Recipient == address {
				balance += tx.Amount
			}
		}
	}
	return balance
}

// FindTransactionBlock returns the first block holding a transaction with
// the given hash.
func (bc *Blockchain) FindTransactionBlock(transactionHash string) (*Block, bool) {
	for _, block := range bc.chain {
		if block.ContainsTransaction(transactionHash) {
			return block, true
		}
	}
	return nil, false
}
