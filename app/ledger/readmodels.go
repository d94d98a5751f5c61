package ledger

import (
	"strconv"

	"github.com/kaspanet/ledgersim/domain/tangle"
	"github.com/kaspanet/ledgersim/domain/transaction"
)

// PendingBlockID marks transactions not mined yet in a TransactionListing.
const PendingBlockID = "Pending"

// BlockSummary describes one block without its transactions.
type BlockSummary struct {
	Index            uint64  `json:"index"`
	Hash             string  `json:"hash"`
	PreviousHash     string  `json:"previous_hash"`
	Timestamp        float64 `json:"timestamp"`
	Nonce            uint64  `json:"nonce"`
	MerkleRoot       string  `json:"merkle_root"`
	TransactionCount int     `json:"transaction_count"`
}

// ChainSummary describes the chain for presentation.
type ChainSummary struct {
	Blocks      []*BlockSummary `json:"blocks"`
	ChainLength int             `json:"chain_length"`
	IsValid     bool            `json:"is_valid"`
}

// DAGStats counts the tangle contents.
type DAGStats struct {
	TransactionCount int `json:"transaction_count"`
	TipCount         int `json:"tip_count"`
	EdgeCount        int `json:"edge_count"`
}

// DAGTransactionView is a tangle transaction annotated with its status.
type DAGTransactionView struct {
	Transaction *transaction.Transaction `json:"transaction"`
	References  []string                 `json:"references"`
	Timestamp   float64                  `json:"timestamp"`
	Weight      float64                  `json:"weight"`
	Hash        string                   `json:"hash"`
	IsTip       bool                     `json:"is_tip"`
	IsConfirmed bool                     `json:"is_confirmed"`
}

// DAGSummary describes the tangle for presentation.
type DAGSummary struct {
	Transactions []*DAGTransactionView `json:"transactions"`
	Tips         []*DAGTransactionView `json:"tips"`
	Stats        *DAGStats             `json:"stats"`
}

// GraphNode is a tangle transaction as a graph node.
type GraphNode struct {
	ID        string  `json:"id"`
	Hash      string  `json:"hash"`
	IsTip     bool    `json:"is_tip"`
	Weight    float64 `json:"weight"`
	Sender    string  `json:"sender"`
	Recipient string  `json:"recipient"`
	Amount    float64 `json:"amount"`
}

// GraphEdge is an approval. Amount is the amount of the approving
// transaction.
type GraphEdge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Amount float64 `json:"amount"`
}

// DAGGraph is the tangle as nodes and edges.
type DAGGraph struct {
	Nodes []*GraphNode `json:"nodes"`
	Edges []*GraphEdge `json:"edges"`
	Stats *DAGStats    `json:"stats"`
}

// TransactionRecord is a transaction with the block holding it.
// BlockTimestamp is nil for pending transactions.
type TransactionRecord struct {
	Transaction    *transaction.Transaction `json:"transaction"`
	BlockID        string                   `json:"block_id"`
	BlockTimestamp *float64                 `json:"block_timestamp"`
}

// WalletBalance is the mined balance of one held wallet.
type WalletBalance struct {
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	Fingerprint string  `json:"fingerprint"`
	Balance     float64 `json:"balance"`
}

// ChainSummary summarizes every block and validates the chain.
func (s *State) ChainSummary() *ChainSummary {
	s.lock.Lock()
	defer s.lock.Unlock()

	blocks := s.blockchain.Blocks()
	summaries := make([]*BlockSummary, len(blocks))
	for i, block := range blocks {
		summaries[i] = &BlockSummary{
			Index:            block.Index,
			Hash:             block.Hash,
			PreviousHash:     block.PreviousHash,
			Timestamp:        block.Timestamp,
			Nonce:            block.Nonce,
			MerkleRoot:       block.MerkleRoot,
			TransactionCount: len(block.Transactions),
		}
	}
	return &ChainSummary{
		Blocks:      summaries,
		ChainLength: len(blocks),
		IsValid:     s.blockchain.IsChainValid(),
	}
}

func (s *State) dagStats() *DAGStats {
	return &DAGStats{
		TransactionCount: s.dag.Len(),
		TipCount:         s.dag.TipCount(),
		EdgeCount:        s.dag.EdgeCount(),
	}
}

func (s *State) dagTransactionView(dagTransaction *tangle.DAGTransaction) *DAGTransactionView {
	return &DAGTransactionView{
		Transaction: dagTransaction.Transaction,
		References:  dagTransaction.References,
		Timestamp:   dagTransaction.Timestamp,
		Weight:      dagTransaction.Weight,
		Hash:        dagTransaction.Hash,
		IsTip:       s.dag.IsTip(dagTransaction.Hash),
		IsConfirmed: dagTransaction.Weight >= s.params.ConfirmationThreshold,
	}
}

// DAGSummary lists every tangle transaction and the tips.
func (s *State) DAGSummary() *DAGSummary {
	s.lock.Lock()
	defer s.lock.Unlock()

	summary := &DAGSummary{
		Transactions: []*DAGTransactionView{},
		Tips:         []*DAGTransactionView{},
		Stats:        s.dagStats(),
	}
	for _, dagTransaction := range s.sortedDAGTransactions() {
		view := s.dagTransactionView(dagTransaction)
		summary.Transactions = append(summary.Transactions, view)
		if view.IsTip {
			summary.Tips = append(summary.Tips, view)
		}
	}
	return summary
}

// DAGGraph returns the tangle as nodes and approval edges.
func (s *State) DAGGraph() *DAGGraph {
	s.lock.Lock()
	defer s.lock.Unlock()

	dagTransactions := s.sortedDAGTransactions()
	amounts := make(map[string]float64, len(dagTransactions))
	graph := &DAGGraph{
		Nodes: make([]*GraphNode, 0, len(dagTransactions)),
		Stats: s.dagStats(),
	}
	for _, dagTransaction := range dagTransactions {
		amounts[dagTransaction.Hash] = dagTransaction.Transaction.Amount
		graph.Nodes = append(graph.Nodes, &GraphNode{
			ID:        dagTransaction.Hash,
			Hash:      dagTransaction.Hash,
			IsTip:     s.dag.IsTip(dagTransaction.Hash),
			Weight:    dagTransaction.Weight,
			Sender:    dagTransaction.Transaction.Sender,
			Recipient: dagTransaction.Transaction.Recipient,
			Amount:    dagTransaction.Transaction.Amount,
		})
	}

	edges := s.dag.Edges()
	graph.Edges = make([]*GraphEdge, len(edges))
	for i, edge := range edges {
		graph.Edges[i] = &GraphEdge{
			Source: edge.Source,
			Target: edge.Target,
			Amount: amounts[edge.Source],
		}
	}
	return graph
}

// TransactionListing lists every mined transaction in chain order followed
// by the pending ones.
func (s *State) TransactionListing() []*TransactionRecord {
	s.lock.Lock()
	defer s.lock.Unlock()

	var records []*TransactionRecord
	for _, block := range s.blockchain.Blocks() {
		blockTimestamp := block.Timestamp
		for _, tx := range block.Transactions {
			records = append(records, &TransactionRecord{
				Transaction:    tx,
				BlockID:        strconv.FormatUint(block.Index, 10),
				BlockTimestamp: &blockTimestamp,
			})
		}
	}
	for _, tx := range s.blockchain.PendingTransactions() {
		records = append(records, &TransactionRecord{
			Transaction: tx,
			BlockID:     PendingBlockID,
		})
	}
	return records
}

// WalletBalances returns the balance of every held wallet in creation order.
func (s *State) WalletBalances() []*WalletBalance {
	s.lock.Lock()
	defer s.lock.Unlock()

	balances := make([]*WalletBalance, len(s.walletNames))
	for i, name := range s.walletNames {
		w := s.wallets[name]
		balances[i] = &WalletBalance{
			Name:        name,
			Address:     w.Address(),
			Fingerprint: w.Fingerprint(),
			Balance:     s.blockchain.GetBalance(w.Address()),
		}
	}
	return balances
}
