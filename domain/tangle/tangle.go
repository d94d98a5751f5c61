// Package tangle implements a DAG of transactions in which every new
// transaction approves a few current tips, and confirmation follows from the
// approval weight a transaction accumulates.
//
// A DAG is not safe for concurrent use. Callers sharing one between
// goroutines must serialize access to it.
package tangle

import (
	"encoding/hex"
	"math/rand"
	"sort"
	"time"

	"github.com/kaspanet/go-muhash"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"

	"github.com/kaspanet/ledgersim/domain/transaction"
	"github.com/kaspanet/ledgersim/util/mstime"
)

const (
	// DefaultTipsPerTransaction is the number of tips a new transaction
	// approves unless told otherwise.
	DefaultTipsPerTransaction = 2

	// DefaultConfirmationThreshold is the weight at which a transaction is
	// considered confirmed.
	DefaultConfirmationThreshold = 10.0
)

// Edge is an approval: Source approves Target.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// DAG holds the tangle: every transaction by hash, the current tips, and the
// approval graph with an edge from each transaction to each reference.
type DAG struct {
	transactions map[string]*DAGTransaction
	tips         map[string]struct{}

	graph      *simple.DirectedGraph
	nodeIDs    map[string]int64
	nodeHashes map[int64]string

	genesisHash string
	clock       mstime.Clock
	random      *rand.Rand
}

// New creates a tangle holding only its genesis transaction.
func New() *DAG {
	return NewWithOptions(mstime.SystemClock, rand.NewSource(time.Now().UnixNano()))
}

// NewWithOptions creates a tangle that stamps transactions using clock and
// selects tips using randomSource.
func NewWithOptions(clock mstime.Clock, randomSource rand.Source) *DAG {
	dag := &DAG{
		transactions: make(map[string]*DAGTransaction),
		tips:         make(map[string]struct{}),
		graph:        simple.NewDirectedGraph(),
		nodeIDs:      make(map[string]int64),
		nodeHashes:   make(map[int64]string),
		clock:        clock,
		random:       rand.New(randomSource),
	}
	dag.createGenesis()
	return dag
}

func (dag *DAG) now() float64 {
	return mstime.TimeToSeconds(dag.clock.Now())
}

func (dag *DAG) createGenesis() {
	timestamp := dag.now()
	genesisTransaction := transaction.NewWithTimestamp(
		transaction.GenesisSender, transaction.GenesisSender, 0, timestamp)
	genesis := newDAGTransaction(genesisTransaction, []string{}, timestamp)

	dag.insert(genesis)
	dag.tips[genesis.Hash] = struct{}{}
	dag.genesisHash = genesis.Hash
	log.Debugf("Created tangle genesis %s", genesis.Hash)
}

func (dag *DAG) insert(dagTransaction *DAGTransaction) {
	dag.transactions[dagTransaction.Hash] = dagTransaction

	node := dag.graph.NewNode()
	dag.graph.AddNode(node)
	dag.nodeIDs[dagTransaction.Hash] = node.ID()
	dag.nodeHashes[node.ID()] = dagTransaction.Hash
}

// GenesisHash returns the hash of the genesis transaction.
func (dag *DAG) GenesisHash() string {
	return dag.genesisHash
}

func (dag *DAG) sortedTips() []string {
	tips := make([]string, 0, len(dag.tips))
	for tip := range dag.tips {
		tips = append(tips, tip)
	}
	sort.Strings(tips)
	return tips
}

// SelectTips returns k distinct tips chosen uniformly at random, or every
// tip if there are no more than k.
func (dag *DAG) SelectTips(k int) []string {
	tips := dag.sortedTips()
	if len(tips) <= k {
		return tips
	}
	if k <= 0 {
		return []string{}
	}

	// Partial Fisher-Yates shuffle
	for i := 0; i < k; i++ {
		j := i + dag.random.Intn(len(tips)-i)
		tips[i], tips[j] = tips[j], tips[i]
	}
	return tips[:k]
}

// AddTransaction places tx in the tangle, approving up to k tips. The
// approved tips stop being tips, the new transaction becomes one, and the
// weights of everything it approves directly or indirectly are updated.
func (dag *DAG) AddTransaction(tx *transaction.Transaction, k int) (*DAGTransaction, error) {
	if k < 1 {
		return nil, errors.Wrapf(ErrInvalidTipCount, "got %d", k)
	}

	references := dag.SelectTips(k)
	dagTransaction := newDAGTransaction(tx, references, dag.now())
	if _, exists := dag.transactions[dagTransaction.Hash]; exists {
		return nil, errors.Wrapf(ErrDuplicateTransaction, "hash %s", dagTransaction.Hash)
	}

	for _, reference := range references {
		delete(dag.tips, reference)
	}
	dag.tips[dagTransaction.Hash] = struct{}{}

	dag.insert(dagTransaction)
	from := dag.graph.Node(dag.nodeIDs[dagTransaction.Hash])
	for _, reference := range references {
		to := dag.graph.Node(dag.nodeIDs[reference])
		dag.graph.SetEdge(dag.graph.NewEdge(from, to))
	}

	dag.UpdateWeights(dagTransaction.Hash)

	log.Debugf("Added transaction %s approving %d tips, %d tips now",
		dagTransaction.Hash, len(references), len(dag.tips))
	return dagTransaction, nil
}

// AddTransactionDefault is AddTransaction with DefaultTipsPerTransaction.
func (dag *DAG) AddTransactionDefault(tx *transaction.Transaction) (*DAGTransaction, error) {
	return dag.AddTransaction(tx, DefaultTipsPerTransaction)
}

// UpdateWeights walks the approval graph breadth first from startHash and
// adds 1 to the weight of every transaction reached, each at most once per
// call. The start itself is not credited. A transaction reachable through
// several paths is still credited once, so weights undercount approvals in
// diamond shaped regions.
func (dag *DAG) UpdateWeights(startHash string) {
	startID, ok := dag.nodeIDs[startHash]
	if !ok {
		return
	}

	credited := 0
	walker := traverse.BreadthFirst{
		Visit: func(node graph.Node) {
			if node.ID() == startID {
				return
			}
			dag.transactions[dag.nodeHashes[node.ID()]].Weight++
			credited++
		},
	}
	walker.Walk(dag.graph, dag.graph.Node(startID), nil)
	log.Tracef("Credited %d transactions approved by %s", credited, startHash)
}

// IsConfirmed returns whether the transaction with the given hash has at
// least threshold weight. Unknown hashes are not confirmed.
func (dag *DAG) IsConfirmed(hash string, threshold float64) bool {
	dagTransaction, ok := dag.transactions[hash]
	if !ok {
		return false
	}
	return dagTransaction.Weight >= threshold
}

// GetTransaction returns a copy of the transaction with the given hash.
func (dag *DAG) GetTransaction(hash string) (*DAGTransaction, bool) {
	dagTransaction, ok := dag.transactions[hash]
	if !ok {
		return nil, false
	}
	return dagTransaction.clone(), true
}

// GetTips returns the current tips in sorted order.
func (dag *DAG) GetTips() []string {
	return dag.sortedTips()
}

// IsTip returns whether hash is a current tip.
func (dag *DAG) IsTip(hash string) bool {
	_, ok := dag.tips[hash]
	return ok
}

// GetAllTransactions returns copies of every transaction, keyed by hash.
func (dag *DAG) GetAllTransactions() map[string]*DAGTransaction {
	snapshot := make(map[string]*DAGTransaction, len(dag.transactions))
	for hash, dagTransaction := range dag.transactions {
		snapshot[hash] = dagTransaction.clone()
	}
	return snapshot
}

// Edges returns every approval, sorted by source then target.
func (dag *DAG) Edges() []Edge {
	edges := make([]Edge, 0, dag.graph.Edges().Len())
	iterator := dag.graph.Edges()
	for iterator.Next() {
		edge := iterator.Edge()
		edges = append(edges, Edge{
			Source: dag.nodeHashes[edge.From().ID()],
			Target: dag.nodeHashes[edge.To().ID()],
		})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		return edges[i].Target < edges[j].Target
	})
	return edges
}

// Len returns the number of transactions including genesis.
func (dag *DAG) Len() int {
	return len(dag.transactions)
}

// TipCount returns the number of tips.
func (dag *DAG) TipCount() int {
	return len(dag.tips)
}

// EdgeCount returns the number of approvals.
func (dag *DAG) EdgeCount() int {
	return dag.graph.Edges().Len()
}

// StateCommitment returns a hex encoded MuHash over the hashes of all the
// transactions in the tangle. It does not depend on insertion order.
func (dag *DAG) StateCommitment() string {
	multiset := muhash.NewMuHash()
	for hash := range dag.transactions {
		multiset.Add([]byte(hash))
	}
	commitment := multiset.Finalize()
	return hex.EncodeToString(commitment[:])
}

// IsAcyclic returns whether the approval graph has a topological order.
func (dag *DAG) IsAcyclic() bool {
	_, err := topo.Sort(dag.graph)
	return err == nil
}
