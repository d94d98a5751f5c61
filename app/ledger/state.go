// Package ledger owns one block chain, one tangle and a set of named
// wallets, and serializes every access to them.
package ledger

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/kaspanet/ledgersim/domain/blockchain"
	"github.com/kaspanet/ledgersim/domain/ledgerconfig"
	"github.com/kaspanet/ledgersim/domain/tangle"
	"github.com/kaspanet/ledgersim/domain/transaction"
	"github.com/kaspanet/ledgersim/domain/wallet"
	"github.com/kaspanet/ledgersim/util/mstime"
)

// DefaultWalletNames are the wallets a State creates unless told otherwise.
var DefaultWalletNames = []string{"Alice", "Bob", "Charlie"}

var (
	// ErrUnknownWallet indicates a wallet name the state does not hold.
	ErrUnknownWallet = errors.New("unknown wallet")

	// ErrTransactionRejected indicates a transaction the chain refused.
	ErrTransactionRejected = errors.New("transaction rejected")

	// ErrInvalidAmount indicates a transaction amount that is not a
	// positive finite number.
	ErrInvalidAmount = errors.New("invalid amount")
)

// Options customize a State. Zero values select the defaults.
type Options struct {
	Clock        mstime.Clock
	RandomSource rand.Source
	WalletNames  []string
}

// State is the ledger state of one process. It is safe for concurrent use:
// every method takes the same lock, so a call blocks while a block is being
// mined.
type State struct {
	lock sync.Mutex

	params      *ledgerconfig.Params
	blockchain  *blockchain.Blockchain
	dag         *tangle.DAG
	wallets     map[string]*wallet.Wallet
	walletNames []string

	// queuedRewards holds the recipients of reward transactions waiting in
	// the pending pool, so that an interrupted mine does not pay twice.
	queuedRewards map[string]struct{}
}

// NewState creates a ledger state with a fresh chain, tangle and wallets.
func NewState(params *ledgerconfig.Params) (*State, error) {
	return NewStateWithOptions(params, &Options{})
}

// NewStateWithOptions is like NewState but lets the caller choose the clock,
// the tip selection randomness and the wallets.
func NewStateWithOptions(params *ledgerconfig.Params, options *Options) (*State, error) {
	err := params.Validate()
	if err != nil {
		return nil, err
	}

	clock := options.Clock
	if clock == nil {
		clock = mstime.SystemClock
	}
	randomSource := options.RandomSource
	if randomSource == nil {
		randomSource = rand.NewSource(time.Now().UnixNano())
	}
	walletNames := options.WalletNames
	if walletNames == nil {
		walletNames = DefaultWalletNames
	}

	chain, err := blockchain.NewWithClock(params.Difficulty, clock)
	if err != nil {
		return nil, err
	}

	state := &State{
		params:        params,
		blockchain:    chain,
		dag:           tangle.NewWithOptions(clock, randomSource),
		wallets:       make(map[string]*wallet.Wallet, len(walletNames)),
		queuedRewards: make(map[string]struct{}),
	}
	for _, name := range walletNames {
		w, err := wallet.New(name)
		if err != nil {
			return nil, err
		}
		err = state.addWallet(w)
		if err != nil {
			return nil, err
		}
	}

	log.Infof("Created %s ledger state with difficulty %d and %d wallets",
		params.Name, params.Difficulty, len(state.wallets))
	return state, nil
}

func (s *State) addWallet(w *wallet.Wallet) error {
	if w.Name() == "" {
		return errors.New("wallets held by the ledger state must be named")
	}
	if _, exists := s.wallets[w.Name()]; exists {
		return errors.Errorf("a wallet named %s already exists", w.Name())
	}
	s.wallets[w.Name()] = w
	s.walletNames = append(s.walletNames, w.Name())
	return nil
}

// AddWallet adds a named wallet, e.g. one restored from a key file.
func (s *State) AddWallet(w *wallet.Wallet) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.addWallet(w)
}

// Params returns the parameters of the ledger.
func (s *State) Params() *ledgerconfig.Params {
	return s.params
}

// WalletNames returns the names of the held wallets in creation order.
func (s *State) WalletNames() []string {
	s.lock.Lock()
	defer s.lock.Unlock()

	return append([]string{}, s.walletNames...)
}

// Wallet returns the wallet with the given name.
func (s *State) Wallet(name string) (*wallet.Wallet, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.wallet(name)
}

func (s *State) wallet(name string) (*wallet.Wallet, error) {
	w, ok := s.wallets[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownWallet, "%s", name)
	}
	return w, nil
}

// CreateTransaction creates a transaction between two held wallets, signs
// it with the sender wallet, queues it on the chain and places it in the
// tangle.
func (s *State) CreateTransaction(senderName, recipientName string, amount float64) (
	*transaction.Transaction, *tangle.DAGTransaction, error) {

	if amount <= 0 || math.IsInf(amount, 0) || math.IsNaN(amount) {
		return nil, nil, errors.Wrapf(ErrInvalidAmount, "%f", amount)
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	sender, err := s.wallet(senderName)
	if err != nil {
		return nil, nil, err
	}
	recipient, err := s.wallet(recipientName)
	if err != nil {
		return nil, nil, err
	}

	tx := transaction.New(sender.Address(), recipient.Address(), amount)
	err = tx.SignWith(sender)
	if err != nil {
		return nil, nil, err
	}

	dagTransaction, err := s.addTransaction(tx)
	if err != nil {
		return nil, nil, err
	}

	log.Infof("Created transaction %s: %s -> %s, %.2f", tx.Hash(), senderName, recipientName, amount)
	return tx, dagTransaction, nil
}

// SubmitTransaction queues an already signed transaction on the chain and
// places it in the tangle.
func (s *State) SubmitTransaction(tx *transaction.Transaction) (*tangle.DAGTransaction, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.addTransaction(tx)
}

// addTransaction places tx in the tangle and then queues it on the chain. A
// transaction that either ledger rejects reaches neither of them.
func (s *State) addTransaction(tx *transaction.Transaction) (*tangle.DAGTransaction, error) {
	if !tx.VerifySignature() {
		return nil, errors.Wrapf(ErrTransactionRejected, "transaction %s", tx.Hash())
	}
	dagTransaction, err := s.dag.AddTransaction(tx, s.params.TipsPerTransaction)
	if err != nil {
		return nil, err
	}
	// The chain only checks the signature, which was verified above
	s.blockchain.AddTransaction(tx)
	return dagTransaction, nil
}

// Mine pays the mining reward to the named wallet and mines every pending
// transaction into a new block.
func (s *State) Mine(minerName string) (*blockchain.Block, error) {
	return s.MineContext(context.Background(), minerName)
}

// MineContext is like Mine but gives up when ctx is done. The reward stays
// queued in that case and is mined with the next block.
func (s *State) MineContext(ctx context.Context, minerName string) (*blockchain.Block, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	miner, err := s.wallet(minerName)
	if err != nil {
		return nil, err
	}

	if _, queued := s.queuedRewards[miner.Address()]; !queued {
		reward := transaction.New(transaction.RewardSender, miner.Address(), s.params.MiningReward)
		s.blockchain.AddTransaction(reward)
		s.queuedRewards[miner.Address()] = struct{}{}
	}

	block, err := s.blockchain.MineBlockContext(ctx, miner.Address())
	if err != nil {
		return nil, err
	}
	s.queuedRewards = make(map[string]struct{})

	log.Infof("Block %d mined by %s", block.Index, minerName)
	return block, nil
}

// Balance returns the mined balance of the named wallet.
func (s *State) Balance(name string) (float64, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	w, err := s.wallet(name)
	if err != nil {
		return 0, err
	}
	return s.blockchain.GetBalance(w.Address()), nil
}

// IsChainValid validates the whole chain.
func (s *State) IsChainValid() bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.blockchain.IsChainValid()
}

// ValidateChain validates the whole chain and reports the first violation.
func (s *State) ValidateChain() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.blockchain.ValidateChain()
}

// Blocks returns the mined blocks in chain order.
func (s *State) Blocks() []*blockchain.Block {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.blockchain.Blocks()
}

// PendingTransactions returns the transactions waiting to be mined.
func (s *State) PendingTransactions() []*transaction.Transaction {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.blockchain.PendingTransactions()
}

// IsConfirmed returns whether the tangle transaction with the given hash
// has reached the confirmation threshold.
func (s *State) IsConfirmed(hash string) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.dag.IsConfirmed(hash, s.params.ConfirmationThreshold)
}

// DAGTransactions returns a snapshot of the tangle transactions sorted by
// timestamp, then hash.
func (s *State) DAGTransactions() []*tangle.DAGTransaction {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.sortedDAGTransactions()
}

func (s *State) sortedDAGTransactions() []*tangle.DAGTransaction {
	all := s.dag.GetAllTransactions()
	sorted := make([]*tangle.DAGTransaction, 0, len(all))
	for _, dagTransaction := range all {
		sorted = append(sorted, dagTransaction)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Timestamp != sorted[j].Timestamp {
			return sorted[i].Timestamp < sorted[j].Timestamp
		}
		return sorted[i].Hash < sorted[j].Hash
	})
	return sorted
}

// DAGCommitment returns the order independent commitment to the tangle
// contents.
func (s *State) DAGCommitment() string {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.dag.StateCommitment()
}
