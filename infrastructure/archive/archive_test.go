package archive

import (
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/kaspanet/ledgersim/domain/blockchain"
	"github.com/kaspanet/ledgersim/domain/ledgerconfig"
	"github.com/kaspanet/ledgersim/domain/tangle"
	"github.com/kaspanet/ledgersim/domain/transaction"
	"github.com/kaspanet/ledgersim/domain/wallet"
	"github.com/kaspanet/ledgersim/util/mstime"
)

func newTestSnapshot(t *testing.T) *Snapshot {
	clock := &mstime.StepClock{Start: mstime.UnixMilliToTime(1600000000000), Step: time.Second}
	chain, err := blockchain.NewWithClock(1, clock)
	if err != nil {
		t.Fatalf("NewWithClock: %s", err)
	}
	dag := tangle.NewWithOptions(clock, rand.NewSource(0))

	alice, err := wallet.New("Alice")
	if err != nil {
		t.Fatalf("wallet.New: %s", err)
	}
	bob, err := wallet.New("Bob")
	if err != nil {
		t.Fatalf("wallet.New: %s", err)
	}
	for i := 1; i <= 3; i++ {
		tx := transaction.NewWithTimestamp(alice.Address(), bob.Address(), float64(i), float64(1600000000+i))
		err = tx.SignWith(alice)
		if err != nil {
			t.Fatalf("SignWith: %s", err)
		}
		if !chain.AddTransaction(tx) {
			t.Fatalf("transaction %d was rejected", i)
		}
		_, err = dag.AddTransactionDefault(tx)
		if err != nil {
			t.Fatalf("AddTransactionDefault: %s", err)
		}
	}
	_, err = chain.MineBlock(bob.Address())
	if err != nil {
		t.Fatalf("MineBlock: %s", err)
	}

	params := ledgerconfig.SimnetParams
	transactions := make([]*tangle.DAGTransaction, 0, dag.Len())
	for _, dagTransaction := range dag.GetAllTransactions() {
		transactions = append(transactions, dagTransaction)
	}
	return &Snapshot{
		Params:          &params,
		Blocks:          chain.Blocks(),
		DAGTransactions: transactions,
		Tips:            dag.GetTips(),
		DAGCommitment:   dag.StateCommitment(),
	}
}

func openTestArchive(t *testing.T) *Archive {
	archive, err := Open(filepath.Join(t.TempDir(), "archive"))
	if err != nil {
		t.Fatalf("Open: %s", err)
	}
	t.Cleanup(func() {
		err := archive.Close()
		if err != nil {
			t.Errorf("Close: %s", err)
		}
	})
	return archive
}

func TestWriteAndRead(t *testing.T) {
	snapshot := newTestSnapshot(t)
	archive := openTestArchive(t)

	err := archive.Write(snapshot)
	if err != nil {
		t.Fatalf("Write: %s", err)
	}
	read, err := archive.Read()
	if err != nil {
		t.Fatalf("Read: %s", err)
	}

	if read.Params == nil || *read.Params != *snapshot.Params {
		t.Fatalf("expected params %+v, got %+v", snapshot.Params, read.Params)
	}
	if read.DAGCommitment != snapshot.DAGCommitment {
		t.Fatalf("expected commitment %s, got %s", snapshot.DAGCommitment, read.DAGCommitment)
	}

	if len(read.Blocks) != len(snapshot.Blocks) {
		t.Fatalf("expected %d blocks, got %d", len(snapshot.Blocks), len(read.Blocks))
	}
	for i, block := range read.Blocks {
		if block.Hash != snapshot.Blocks[i].Hash {
			t.Fatalf("block %d: expected hash %s, got %s", i, snapshot.Blocks[i].Hash, block.Hash)
		}
		if block.CalculateHash() != block.Hash {
			t.Fatalf("block %d does not hash to its stored hash", i)
		}
	}

	expectedTransactions := make(map[string]*tangle.DAGTransaction)
	for _, dagTransaction := range snapshot.DAGTransactions {
		expectedTransactions[dagTransaction.Hash] = dagTransaction
	}
	if len(read.DAGTransactions) != len(expectedTransactions) {
		t.Fatalf("expected %d tangle transactions, got %d", len(expectedTransactions), len(read.DAGTransactions))
	}
	for _, dagTransaction := range read.DAGTransactions {
		expected, ok := expectedTransactions[dagTransaction.Hash]
		if !ok {
			t.Fatalf("unexpected tangle transaction %s", dagTransaction.Hash)
		}
		if dagTransaction.Weight != expected.Weight || len(dagTransaction.References) != len(expected.References) {
			t.Fatalf("tangle transaction %s changed in the archive", dagTransaction.Hash)
		}
	}

	if len(read.Tips) != len(snapshot.Tips) {
		t.Fatalf("expected tips %v, got %v", snapshot.Tips, read.Tips)
	}
	for i, tip := range read.Tips {
		if tip != snapshot.Tips[i] {
			t.Fatalf("expected tips %v, got %v", snapshot.Tips, read.Tips)
		}
	}
}

func TestWriteReplacesPreviousSnapshot(t *testing.T) {
	snapshot := newTestSnapshot(t)
	archive := openTestArchive(t)

	err := archive.Write(snapshot)
	if err != nil {
		t.Fatalf("Write: %s", err)
	}
	smaller := &Snapshot{
		Blocks:          snapshot.Blocks[:1],
		DAGTransactions: snapshot.DAGTransactions[:1],
		Tips:            []string{snapshot.DAGTransactions[0].Hash},
		DAGCommitment:   "commitment",
	}
	err = archive.Write(smaller)
	if err != nil {
		t.Fatalf("Write: %s", err)
	}

	read, err := archive.Read()
	if err != nil {
		t.Fatalf("Read: %s", err)
	}
	if read.Params != nil {
		t.Fatalf("expected the params to be removed, got %+v", read.Params)
	}
	if len(read.Blocks) != 1 || len(read.DAGTransactions) != 1 || len(read.Tips) != 1 {
		t.Fatalf("expected the previous snapshot to be replaced, got %d blocks, %d transactions and %d tips",
			len(read.Blocks), len(read.DAGTransactions), len(read.Tips))
	}
	if read.DAGCommitment != "commitment" {
		t.Fatalf("unexpected commitment %s", read.DAGCommitment)
	}
}

func TestReadEmptyArchive(t *testing.T) {
	archive := openTestArchive(t)
	read, err := archive.Read()
	if err != nil {
		t.Fatalf("Read: %s", err)
	}
	if read.Params != nil || len(read.Blocks) != 0 || len(read.DAGTransactions) != 0 || read.DAGCommitment != "" {
		t.Fatalf("expected an empty snapshot, got %+v", read)
	}
}
