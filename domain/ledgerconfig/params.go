// Package ledgerconfig defines the parameter sets a ledger can run with.
package ledgerconfig

import (
	"github.com/pkg/errors"

	"github.com/kaspanet/ledgersim/domain/blockchain"
	"github.com/kaspanet/ledgersim/domain/tangle"
)

// Params defines a ledger by its consensus parameters.
type Params struct {
	// Name is a human-readable identifier for the parameter set.
	Name string

	// Difficulty is the number of leading zero hex digits required of a
	// block hash.
	Difficulty int

	// TipsPerTransaction is the number of tips a new tangle transaction
	// approves.
	TipsPerTransaction int

	// ConfirmationThreshold is the tangle weight at which a transaction is
	// considered confirmed.
	ConfirmationThreshold float64

	// MiningReward is the amount paid to a miner for every mined block.
	MiningReward float64
}

// DemonetParams defines the parameters of the demonstration ledger.
var DemonetParams = Params{
	Name:                  "demonet",
	Difficulty:            4,
	TipsPerTransaction:    tangle.DefaultTipsPerTransaction,
	ConfirmationThreshold: tangle.DefaultConfirmationThreshold,
	MiningReward:          1.0,
}

// DevnetParams defines a ledger with cheap proof of work for development.
var DevnetParams = Params{
	Name:                  "devnet",
	Difficulty:            2,
	TipsPerTransaction:    tangle.DefaultTipsPerTransaction,
	ConfirmationThreshold: tangle.DefaultConfirmationThreshold,
	MiningReward:          1.0,
}

// SimnetParams defines a ledger for simulations, where blocks are mined
// almost instantly and transactions confirm quickly.
var SimnetParams = Params{
	Name:                  "simnet",
	Difficulty:            1,
	TipsPerTransaction:    tangle.DefaultTipsPerTransaction,
	ConfirmationThreshold: 5.0,
	MiningReward:          1.0,
}

// Validate makes sure the parameters are usable.
func (p *Params) Validate() error {
	if p.Difficulty < 0 || p.Difficulty > blockchain.MaxDifficulty {
		return errors.Errorf("difficulty must be between 0 and %d, got %d", blockchain.MaxDifficulty, p.Difficulty)
	}
	if p.TipsPerTransaction < 1 {
		return errors.Errorf("tips per transaction must be at least 1, got %d", p.TipsPerTransaction)
	}
	if p.ConfirmationThreshold < 1 {
		return errors.Errorf("confirmation threshold must be at least 1, got %f", p.ConfirmationThreshold)
	}
	if p.MiningReward < 0 {
		return errors.Errorf("mining reward must not be negative, got %f", p.MiningReward)
	}
	return nil
}
