package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func TestMinerRun(t *testing.T) {
	state := newTestState(t)
	miner, err := NewMiner(state, "Alice", 0)
	if err != nil {
		t.Fatalf("NewMiner: %s", err)
	}

	err = miner.Run(context.Background(), 3)
	if err != nil {
		t.Fatalf("Run: %s", err)
	}
	if miner.BlocksMined() != 3 {
		t.Fatalf("expected 3 blocks, got %d", miner.BlocksMined())
	}
	if len(state.Blocks()) != 4 {
		t.Fatalf("expected chain length 4, got %d", len(state.Blocks()))
	}
	balance, err := state.Balance("Alice")
	if err != nil {
		t.Fatalf("Balance: %s", err)
	}
	if balance != 3*state.Params().MiningReward {
		t.Fatalf("expected 3 rewards, got %f", balance)
	}
}

func TestMinerStopsOnCancel(t *testing.T) {
	state := newTestState(t)
	miner, err := NewMiner(state, "Bob", time.Hour)
	if err != nil {
		t.Fatalf("NewMiner: %s", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- miner.Run(ctx, 0)
	}()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %s", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("miner did not stop after cancellation")
	}
	if !state.IsChainValid() {
		t.Fatalf("chain is invalid after an interrupted miner")
	}
}

func TestNewMinerUnknownWallet(t *testing.T) {
	state := newTestState(t)
	_, err := NewMiner(state, "Mallory", 0)
	if !errors.Is(err, ErrUnknownWallet) {
		t.Fatalf("expected ErrUnknownWallet, got %v", err)
	}
}
