package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/kaspanet/ledgersim/app/ledger"
	"github.com/kaspanet/ledgersim/domain/blockchain"
	"github.com/kaspanet/ledgersim/infrastructure/archive"
	"github.com/kaspanet/ledgersim/util/format"
)

func export(conf *exportConfig) error {
	if !conf.Read {
		state, err := ledger.NewState(conf.Params())
		if err != nil {
			return err
		}
		err = runDemo(state, ledger.DefaultWalletNames[0], io.Discard)
		if err != nil {
			return err
		}
		err = exportState(state, conf.Archive)
		if err != nil {
			return err
		}
		fmt.Printf("Exported the demonstration ledger to %s\n", conf.Archive)
	}

	ledgerArchive, err := archive.Open(conf.Archive)
	if err != nil {
		return err
	}
	defer ledgerArchive.Close()

	snapshot, err := ledgerArchive.Read()
	if err != nil {
		return err
	}
	return printSnapshot(snapshot, os.Stdout)
}

// printSnapshot summarizes an archived ledger after checking that its
// blocks still link up.
func printSnapshot(snapshot *archive.Snapshot, out io.Writer) error {
	err := checkArchivedChain(snapshot.Blocks)
	if err != nil {
		return err
	}

	if snapshot.Params != nil {
		fmt.Fprintf(out, "Parameters: %s, difficulty %d\n", snapshot.Params.Name, snapshot.Params.Difficulty)
	}
	fmt.Fprintf(out, "Blocks: %d\n", len(snapshot.Blocks))
	for _, block := range snapshot.Blocks {
		fmt.Fprintf(out, "  #%d %s  %s  %d transactions\n", block.Index, format.ShortHash(block.Hash, 16),
			format.TimestampToString(block.Timestamp), len(block.Transactions))
	}
	fmt.Fprintf(out, "Tangle transactions: %d, tips: %d, commitment: %s\n",
		len(snapshot.DAGTransactions), len(snapshot.Tips), snapshot.DAGCommitment)
	return nil
}

func checkArchivedChain(blocks []*blockchain.Block) error {
	for i, block := range blocks {
		if block.CalculateHash() != block.Hash {
			return errors.Errorf("archived block %d does not match its hash", block.Index)
		}
		if i > 0 && block.PreviousHash != blocks[i-1].Hash {
			return errors.Errorf("archived block %d does not link to block %d", block.Index, blocks[i-1].Index)
		}
	}
	return nil
}
