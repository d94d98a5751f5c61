package ledger

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"

	"github.com/kaspanet/ledgersim/domain/ledgerconfig"
	"github.com/kaspanet/ledgersim/domain/tangle"
	"github.com/kaspanet/ledgersim/domain/transaction"
	"github.com/kaspanet/ledgersim/domain/wallet"
	"github.com/kaspanet/ledgersim/util/mstime"
)

func newTestState(t *testing.T) *State {
	params := ledgerconfig.SimnetParams
	clock := &mstime.StepClock{Start: mstime.UnixMilliToTime(1600000000000), Step: time.Millisecond}
	state, err := NewStateWithOptions(&params, &Options{
		Clock:        &lockedClock{clock: clock},
		RandomSource: rand.NewSource(0),
	})
	if err != nil {
		t.Fatalf("NewStateWithOptions: %s", err)
	}
	return state
}

// lockedClock makes a StepClock safe for the concurrent tests.
type lockedClock struct {
	sync.Mutex
	clock *mstime.StepClock
}

func (c *lockedClock) Now() time.Time {
	c.Lock()
	defer c.Unlock()
	return c.clock.Now()
}

func TestNewState(t *testing.T) {
	state := newTestState(t)
	names := state.WalletNames()
	if len(names) != len(DefaultWalletNames) {
		t.Fatalf("expected %d wallets, got %v", len(DefaultWalletNames), names)
	}
	for i, name := range DefaultWalletNames {
		if names[i] != name {
			t.Fatalf("expected wallet %s at %d, got %s", name, i, names[i])
		}
	}
	if len(state.Blocks()) != 1 || len(state.DAGTransactions()) != 1 {
		t.Fatalf("expected only the genesis block and genesis tangle transaction")
	}

	invalid := ledgerconfig.SimnetParams
	invalid.TipsPerTransaction = 0
	_, err := NewState(&invalid)
	if err == nil {
		t.Fatalf("expected an error for invalid params")
	}
}

func TestAddWallet(t *testing.T) {
	state := newTestState(t)
	dave, err := wallet.New("Dave")
	if err != nil {
		t.Fatalf("wallet.New: %s", err)
	}
	err = state.AddWallet(dave)
	if err != nil {
		t.Fatalf("AddWallet: %s", err)
	}
	err = state.AddWallet(dave)
	if err == nil {
		t.Fatalf("expected an error for a duplicate wallet name")
	}
	unnamed, err := wallet.New("")
	if err != nil {
		t.Fatalf("wallet.New: %s", err)
	}
	err = state.AddWallet(unnamed)
	if err == nil {
		t.Fatalf("expected an error for an unnamed wallet")
	}
}

func TestCreateTransaction(t *testing.T) {
	state := newTestState(t)

	tx, dagTransaction, err := state.CreateTransaction("Alice", "Bob", 5)
	if err != nil {
		t.Fatalf("CreateTransaction: %s", err)
	}
	if !tx.VerifySignature() {
		t.Fatalf("created transaction is not signed by its sender")
	}
	if dagTransaction.Transaction != tx {
		t.Fatalf("tangle transaction does not wrap the created transaction")
	}
	pending := state.PendingTransactions()
	if len(pending) != 1 || pending[0] != tx {
		t.Fatalf("transaction was not queued: %s", spew.Sdump(pending))
	}
	if len(state.DAGTransactions()) != 2 {
		t.Fatalf("transaction was not placed in the tangle")
	}

	_, _, err = state.CreateTransaction("Mallory", "Bob", 5)
	if !errors.Is(err, ErrUnknownWallet) {
		t.Fatalf("expected ErrUnknownWallet, got %v", err)
	}
	_, _, err = state.CreateTransaction("Alice", "Mallory", 5)
	if !errors.Is(err, ErrUnknownWallet) {
		t.Fatalf("expected ErrUnknownWallet, got %v", err)
	}
	for _, amount := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, _, err = state.CreateTransaction("Alice", "Bob", amount)
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount %f: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}

func TestSubmitTransaction(t *testing.T) {
	state := newTestState(t)
	alice, err := state.Wallet("Alice")
	if err != nil {
		t.Fatalf("Wallet: %s", err)
	}

	unsigned := transaction.New(alice.Address(), "someone", 1)
	_, err = state.SubmitTransaction(unsigned)
	if !errors.Is(err, ErrTransactionRejected) {
		t.Fatalf("expected ErrTransactionRejected, got %v", err)
	}

	signed := transaction.New(alice.Address(), "someone", 1)
	err = signed.SignWith(alice)
	if err != nil {
		t.Fatalf("SignWith: %s", err)
	}
	_, err = state.SubmitTransaction(signed)
	if err != nil {
		t.Fatalf("SubmitTransaction: %s", err)
	}
}

func TestTangleRejectionLeavesNothingPending(t *testing.T) {
	state := newTestState(t)
	alice, err := state.Wallet("Alice")
	if err != nil {
		t.Fatalf("Wallet: %s", err)
	}
	state.params.TipsPerTransaction = 0

	_, _, err = state.CreateTransaction("Alice", "Bob", 5)
	if !errors.Is(err, tangle.ErrInvalidTipCount) {
		t.Fatalf("CreateTransaction: expected ErrInvalidTipCount, got %v", err)
	}

	signed := transaction.New(alice.Address(), "someone", 1)
	err = signed.SignWith(alice)
	if err != nil {
		t.Fatalf("SignWith: %s", err)
	}
	_, err = state.SubmitTransaction(signed)
	if !errors.Is(err, tangle.ErrInvalidTipCount) {
		t.Fatalf("SubmitTransaction: expected ErrInvalidTipCount, got %v", err)
	}

	if pending := state.PendingTransactions(); len(pending) != 0 {
		t.Fatalf("rejected transactions were queued: %s", spew.Sdump(pending))
	}
	if len(state.DAGTransactions()) != 1 {
		t.Fatalf("rejected transactions were placed in the tangle")
	}
}

func TestMine(t *testing.T) {
	state := newTestState(t)
	_, _, err := state.CreateTransaction("Alice", "Bob", 5)
	if err != nil {
		t.Fatalf("CreateTransaction: %s", err)
	}
	dagSizeBeforeMining := len(state.DAGTransactions())

	block, err := state.Mine("Charlie")
	if err != nil {
		t.Fatalf("Mine: %s", err)
	}
	if len(block.Transactions) != 2 {
		t.Fatalf("expected the transfer and the reward, got %s", spew.Sdump(block.Transactions))
	}
	reward := block.Transactions[1]
	if reward.Sender != transaction.RewardSender || reward.Amount != state.Params().MiningReward {
		t.Fatalf("unexpected reward %s", reward)
	}
	if len(state.PendingTransactions()) != 0 {
		t.Fatalf("pending pool was not cleared")
	}
	if len(state.DAGTransactions()) != dagSizeBeforeMining {
		t.Fatalf("mining changed the tangle")
	}

	expectedBalances := map[string]float64{"Alice": -5, "Bob": 5, "Charlie": state.Params().MiningReward}
	for name, expected := range expectedBalances {
		balance, err := state.Balance(name)
		if err != nil {
			t.Fatalf("Balance: %s", err)
		}
		if balance != expected {
			t.Errorf("%s: expected balance %f, got %f", name, expected, balance)
		}
	}
	if !state.IsChainValid() || state.ValidateChain() != nil {
		t.Fatalf("chain is invalid after mining")
	}

	_, err = state.Mine("Mallory")
	if !errors.Is(err, ErrUnknownWallet) {
		t.Fatalf("expected ErrUnknownWallet, got %v", err)
	}
}

func TestInterruptedMinePaysOnce(t *testing.T) {
	state := newTestState(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := state.MineContext(ctx, "Alice")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	_, err = state.MineContext(ctx, "Alice")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(state.PendingTransactions()) != 1 {
		t.Fatalf("expected a single queued reward, got %d", len(state.PendingTransactions()))
	}

	block, err := state.Mine("Alice")
	if err != nil {
		t.Fatalf("Mine: %s", err)
	}
	if len(block.Transactions) != 1 {
		t.Fatalf("expected a single reward in the block, got %d", len(block.Transactions))
	}

	block, err = state.Mine("Alice")
	if err != nil {
		t.Fatalf("Mine: %s", err)
	}
	if len(block.Transactions) != 1 {
		t.Fatalf("expected a new reward after a successful mine, got %d", len(block.Transactions))
	}
}

func TestConcurrentAccess(t *testing.T) {
	state := newTestState(t)
	const transactionsPerSender = 10

	var wg sync.WaitGroup
	for _, name := range DefaultWalletNames {
		name := name
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < transactionsPerSender; i++ {
				_, _, err := state.CreateTransaction(name, "Alice", 1)
				if err != nil {
					t.Errorf("CreateTransaction: %s", err)
					return
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 3; i++ {
			_, err := state.Mine("Bob")
			if err != nil {
				t.Errorf("Mine: %s", err)
				return
			}
			_ = state.ChainSummary()
		}
	}()
	wg.Wait()

	listing := state.TransactionListing()
	transfers := 0
	for _, record := range listing {
		if record.Transaction.Sender != transaction.RewardSender && record.Transaction.Sender != transaction.GenesisSender {
			transfers++
		}
	}
	if transfers != len(DefaultWalletNames)*transactionsPerSender {
		t.Fatalf("expected %d transfers, got %d", len(DefaultWalletNames)*transactionsPerSender, transfers)
	}
	if len(state.DAGTransactions()) != 1+len(DefaultWalletNames)*transactionsPerSender {
		t.Fatalf("unexpected tangle size %d", len(state.DAGTransactions()))
	}
	if !state.IsChainValid() {
		t.Fatalf("chain is invalid after concurrent use")
	}
}
