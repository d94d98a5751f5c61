package ledger

import (
	"github.com/kaspanet/ledgersim/infrastructure/archive"
)

// Snapshot captures the chain, the tangle and the parameters at one point in
// time, ready to be archived.
func (s *State) Snapshot() *archive.Snapshot {
	s.lock.Lock()
	defer s.lock.Unlock()

	params := *s.params
	return &archive.Snapshot{
		Params:          &params,
		Blocks:          s.blockchain.Blocks(),
		DAGTransactions: s.sortedDAGTransactions(),
		Tips:            s.dag.GetTips(),
		DAGCommitment:   s.dag.StateCommitment(),
	}
}
