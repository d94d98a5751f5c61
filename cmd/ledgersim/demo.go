package main

import (
	"fmt"
	"io"
	"os"

	"github.com/kaspanet/ledgersim/app/ledger"
	"github.com/kaspanet/ledgersim/infrastructure/archive"
	"github.com/kaspanet/ledgersim/util/format"
)

type demoTransfer struct {
	sender    string
	recipient string
	amount    float64
}

var demoTransfers = []demoTransfer{
	{sender: "Alice", recipient: "Bob", amount: 10},
	{sender: "Bob", recipient: "Charlie", amount: 5},
	{sender: "Charlie", recipient: "Alice", amount: 2.5},
	{sender: "Alice", recipient: "Charlie", amount: 1.25},
}

func demo(conf *demoConfig) error {
	state, err := ledger.NewState(conf.Params())
	if err != nil {
		return err
	}

	err = runDemo(state, conf.Miner, os.Stdout)
	if err != nil {
		return err
	}

	if conf.Archive != "" {
		return exportState(state, conf.Archive)
	}
	return nil
}

// runDemo mines a block paying minerName, sends demoTransfers, mines them
// and prints every view of the resulting state to out.
func runDemo(state *ledger.State, minerName string, out io.Writer) error {
	fmt.Fprintf(out, "Mining the initial block for %s...\n", minerName)
	_, err := state.Mine(minerName)
	if err != nil {
		return err
	}

	for _, transfer := range demoTransfers {
		tx, dagTransaction, err := state.CreateTransaction(transfer.sender, transfer.recipient, transfer.amount)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s -> %s: %s (%s, approves %d)\n", transfer.sender, transfer.recipient,
			format.FormatAmount(transfer.amount), format.ShortHash(tx.Hash(), 16), len(dagTransaction.References))
	}

	fmt.Fprintf(out, "Mining %d pending transactions...\n", len(state.PendingTransactions()))
	block, err := state.Mine(minerName)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Mined block %d with nonce %d: %s\n\n", block.Index, block.Nonce, block.Hash)

	printChain(state, out)
	printTangle(state, out)
	printTransactions(state, out)
	printWallets(state, out)
	return nil
}

func printChain(state *ledger.State, out io.Writer) {
	summary := state.ChainSummary()
	fmt.Fprintf(out, "Blockchain: %d blocks, valid: %t\n", summary.ChainLength, summary.IsValid)
	for _, block := range summary.Blocks {
		fmt.Fprintf(out, "  #%d %s  %s  %d transactions  nonce %d\n", block.Index,
			format.ShortHash(block.Hash, 16), format.TimestampToString(block.Timestamp),
			block.TransactionCount, block.Nonce)
	}
	fmt.Fprintln(out)
}

func printTangle(state *ledger.State, out io.Writer) {
	summary := state.DAGSummary()
	fmt.Fprintf(out, "Tangle: %d transactions, %d tips, %d approvals, commitment %s\n",
		summary.Stats.TransactionCount, summary.Stats.TipCount, summary.Stats.EdgeCount,
		format.ShortHash(state.DAGCommitment(), 16))
	for _, view := range summary.Transactions {
		status := ""
		if view.IsTip {
			status += " tip"
		}
		if view.IsConfirmed {
			status += " confirmed"
		}
		fmt.Fprintf(out, "  %s  weight %s%s\n", format.ShortHash(view.Hash, 16), format.FormatAmount(view.Weight), status)
	}
	fmt.Fprintln(out)
}

func printTransactions(state *ledger.State, out io.Writer) {
	records := state.TransactionListing()
	fmt.Fprintf(out, "Transactions: %d\n", len(records))
	for _, record := range records {
		when := "-"
		if record.BlockTimestamp != nil {
			when = format.TimestampToString(*record.BlockTimestamp)
		}
		fmt.Fprintf(out, "  block %-7s %s  %s -> %s  %s\n", record.BlockID, when,
			format.ShortHash(record.Transaction.Sender, 10), format.ShortHash(record.Transaction.Recipient, 10),
			format.FormatAmount(record.Transaction.Amount))
	}
	fmt.Fprintln(out)
}

func printWallets(state *ledger.State, out io.Writer) {
	fmt.Fprintln(out, "Wallets:")
	for _, balance := range state.WalletBalances() {
		fmt.Fprintf(out, "  %-8s %s  %s  balance %s\n", balance.Name, balance.Fingerprint,
			format.ShortHash(balance.Address, 16), format.FormatAmount(balance.Balance))
	}
}

func exportState(state *ledger.State, path string) error {
	ledgerArchive, err := archive.Open(path)
	if err != nil {
		return err
	}
	defer ledgerArchive.Close()

	return ledgerArchive.Write(state.Snapshot())
}
