// Package simulation generates random traffic between the wallets of a
// ledger state.
package simulation

import (
	"context"
	"math"
	"math/rand"
	"sync/atomic"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/kaspanet/ledgersim/app/ledger"
)

const (
	minAmount = 0.01
	maxAmount = 10.0
)

// Config configures a Generator.
type Config struct {
	// TransactionsPerSecond bounds the submission rate. Zero means unlimited.
	TransactionsPerSecond float64
	// Burst is the number of transactions that may be submitted at once.
	Burst int
	// RandomSource drives the choice of wallets and amounts.
	RandomSource rand.Source
}

// Generator submits transactions between random pairs of held wallets.
type Generator struct {
	state   *ledger.State
	limiter *rate.Limiter
	random  *rand.Rand

	submitted uint64
}

// NewGenerator creates a generator over the wallets of state.
func NewGenerator(state *ledger.State, config *Config) (*Generator, error) {
	if len(state.WalletNames()) < 2 {
		return nil, errors.New("simulation needs at least two wallets")
	}
	if config.TransactionsPerSecond < 0 {
		return nil, errors.Errorf("negative transaction rate %f", config.TransactionsPerSecond)
	}

	limit := rate.Inf
	if config.TransactionsPerSecond > 0 {
		limit = rate.Limit(config.TransactionsPerSecond)
	}
	burst := config.Burst
	if burst < 1 {
		burst = 1
	}
	randomSource := config.RandomSource
	if randomSource == nil {
		randomSource = rand.NewSource(rand.Int63())
	}

	return &Generator{
		state:   state,
		limiter: rate.NewLimiter(limit, burst),
		random:  rand.New(randomSource),
	}, nil
}

// Submitted returns the number of transactions submitted so far.
func (g *Generator) Submitted() uint64 {
	return atomic.LoadUint64(&g.submitted)
}

// Run submits count transactions, or keeps submitting until ctx is done if
// count is 0. It returns nil when stopped by ctx.
func (g *Generator) Run(ctx context.Context, count uint64) error {
	walletNames := g.state.WalletNames()
	for count == 0 || g.Submitted() < count {
		// The burst is at least 1, so Wait only fails once ctx is done or
		// its deadline would pass before the next submission
		err := g.limiter.Wait(ctx)
		if err != nil {
			log.Infof("Simulation stopped after %d transactions: %s", g.Submitted(), err)
			return nil
		}

		sender, recipient := g.pickPair(walletNames)
		amount := g.pickAmount()
		tx, _, err := g.state.CreateTransaction(sender, recipient, amount)
		if err != nil {
			return err
		}
		submitted := atomic.AddUint64(&g.submitted, 1)
		log.Debugf("Submitted transaction %d: %s", submitted, tx)
	}
	return nil
}

func (g *Generator) pickPair(walletNames []string) (sender, recipient string) {
	senderIndex := g.random.Intn(len(walletNames))
	recipientIndex := g.random.Intn(len(walletNames) - 1)
	if recipientIndex >= senderIndex {
		recipientIndex++
	}
	return walletNames[senderIndex], walletNames[recipientIndex]
}

func (g *Generator) pickAmount() float64 {
	amount := minAmount + g.random.Float64()*(maxAmount-minAmount)
	return math.Round(amount*100) / 100
}
