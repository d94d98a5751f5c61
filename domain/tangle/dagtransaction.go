package tangle

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/kaspanet/ledgersim/domain/transaction"
	"github.com/kaspanet/ledgersim/util/hashes"
)

// DAGTransaction is a transaction placed in the tangle, approving the
// transactions it references.
type DAGTransaction struct {
	Transaction *transaction.Transaction
	References  []string
	// Timestamp is the insertion time in seconds since the unix epoch.
	Timestamp float64
	// Weight starts at 1 and grows as later transactions approve this one.
	Weight float64
	Hash   string
}

func newDAGTransaction(tx *transaction.Transaction, references []string, timestamp float64) *DAGTransaction {
	dagTransaction := &DAGTransaction{
		Transaction: tx,
		References:  references,
		Timestamp:   timestamp,
		Weight:      1,
	}
	dagTransaction.Hash = dagTransaction.CalculateHash()
	return dagTransaction
}

// CalculateHash hashes the wrapped transaction hash, the references and the
// timestamp.
func (dt *DAGTransaction) CalculateHash() string {
	var builder strings.Builder
	builder.WriteString(dt.Transaction.Hash())
	for _, reference := range dt.References {
		builder.WriteString(reference)
	}
	builder.WriteString(strconv.FormatFloat(dt.Timestamp, 'f', -1, 64))
	return hashes.HashString(builder.String())
}

// clone returns a copy of dt that shares the immutable transaction.
func (dt *DAGTransaction) clone() *DAGTransaction {
	clone := *dt
	clone.References = append([]string{}, dt.References...)
	return &clone
}

type dagTransactionJSON struct {
	Transaction *transaction.Transaction `json:"transaction"`
	References  []string                 `json:"references"`
	Timestamp   float64                  `json:"timestamp"`
	Weight      float64                  `json:"weight"`
	Hash        string                   `json:"hash"`
}

// MarshalJSON implements json.Marshaler.
func (dt *DAGTransaction) MarshalJSON() ([]byte, error) {
	references := dt.References
	if references == nil {
		references = []string{}
	}
	return json.Marshal(&dagTransactionJSON{
		Transaction: dt.Transaction,
		References:  references,
		Timestamp:   dt.Timestamp,
		Weight:      dt.Weight,
		Hash:        dt.Hash,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (dt *DAGTransaction) UnmarshalJSON(data []byte) error {
	decoded := &dagTransactionJSON{}
	err := json.Unmarshal(data, decoded)
	if err != nil {
		return errors.WithStack(err)
	}
	*dt = DAGTransaction(*decoded)
	return nil
}
