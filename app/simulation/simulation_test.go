package simulation

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/kaspanet/ledgersim/app/ledger"
	"github.com/kaspanet/ledgersim/domain/ledgerconfig"
)

func newTestState(t *testing.T, walletNames []string) *ledger.State {
	params := ledgerconfig.SimnetParams
	state, err := ledger.NewStateWithOptions(&params, &ledger.Options{
		RandomSource: rand.NewSource(0),
		WalletNames:  walletNames,
	})
	if err != nil {
		t.Fatalf("NewStateWithOptions: %s", err)
	}
	return state
}

func TestRun(t *testing.T) {
	state := newTestState(t, nil)
	generator, err := NewGenerator(state, &Config{RandomSource: rand.NewSource(1)})
	if err != nil {
		t.Fatalf("NewGenerator: %s", err)
	}

	err = generator.Run(context.Background(), 25)
	if err != nil {
		t.Fatalf("Run: %s", err)
	}
	if generator.Submitted() != 25 {
		t.Fatalf("expected 25 transactions, got %d", generator.Submitted())
	}
	pending := state.PendingTransactions()
	if len(pending) != 25 {
		t.Fatalf("expected 25 pending transactions, got %d", len(pending))
	}
	for _, tx := range pending {
		if tx.Sender == tx.Recipient {
			t.Fatalf("transaction %s sends to itself", tx)
		}
		if tx.Amount < minAmount || tx.Amount > maxAmount {
			t.Fatalf("amount %f out of range", tx.Amount)
		}
	}
}

func TestRunIsRateLimited(t *testing.T) {
	state := newTestState(t, nil)
	generator, err := NewGenerator(state, &Config{TransactionsPerSecond: 1, Burst: 1})
	if err != nil {
		t.Fatalf("NewGenerator: %s", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
	defer cancel()
	err = generator.Run(ctx, 0)
	if err != nil {
		t.Fatalf("Run: %s", err)
	}
	if generator.Submitted() > 2 {
		t.Fatalf("expected at most 2 transactions in 1.5 seconds, got %d", generator.Submitted())
	}
}

func TestNewGeneratorValidation(t *testing.T) {
	_, err := NewGenerator(newTestState(t, []string{"Alone"}), &Config{})
	if err == nil {
		t.Fatalf("expected an error for a single wallet")
	}
	_, err = NewGenerator(newTestState(t, nil), &Config{TransactionsPerSecond: -1})
	if err == nil {
		t.Fatalf("expected an error for a negative rate")
	}
}
