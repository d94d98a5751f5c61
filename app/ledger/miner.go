package ledger

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

const logHashRateInterval = 10 * time.Second

// Miner repeatedly mines blocks on a State on behalf of one wallet.
type Miner struct {
	state     *State
	minerName string

	// blockInterval is the minimum time between two blocks.
	blockInterval time.Duration

	hashesTried uint64
	blocksMined uint64
}

// NewMiner creates a miner paying its rewards to the named wallet. A
// non-zero blockInterval limits the block rate.
func NewMiner(state *State, minerName string, blockInterval time.Duration) (*Miner, error) {
	_, err := state.Wallet(minerName)
	if err != nil {
		return nil, err
	}
	return &Miner{
		state:         state,
		minerName:     minerName,
		blockInterval: blockInterval,
	}, nil
}

// BlocksMined returns the number of blocks mined so far.
func (m *Miner) BlocksMined() uint64 {
	return atomic.LoadUint64(&m.blocksMined)
}

// Run mines numberOfBlocks blocks, or blocks until ctx is done if
// numberOfBlocks is 0. Cancellation interrupts the current proof of work
// search and makes Run return nil.
func (m *Miner) Run(ctx context.Context, numberOfBlocks uint64) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	m.logHashRate(ctx)

	var ticker *time.Ticker
	if m.blockInterval > 0 {
		ticker = time.NewTicker(m.blockInterval)
		defer ticker.Stop()
	}

	for numberOfBlocks == 0 || m.BlocksMined() < numberOfBlocks {
		block, err := m.state.MineContext(ctx, m.minerName)
		if err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				log.Infof("Miner %s stopped after %d blocks", m.minerName, m.BlocksMined())
				return nil
			}
			return err
		}
		atomic.AddUint64(&m.hashesTried, block.Nonce+1)
		atomic.AddUint64(&m.blocksMined, 1)

		if ticker != nil {
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return nil
			}
		}
	}
	return nil
}

func (m *Miner) logHashRate(ctx context.Context) {
	spawn("Miner.logHashRate", func() {
		ticker := time.NewTicker(logHashRateInterval)
		defer ticker.Stop()

		lastCheck := time.Now()
		for {
			select {
			case <-ctx.Done():
				return
			case currentTime := <-ticker.C:
				currentHashesTried := atomic.SwapUint64(&m.hashesTried, 0)
				kiloHashesTried := float64(currentHashesTried) / 1000.0
				hashRate := kiloHashesTried / currentTime.Sub(lastCheck).Seconds()
				log.Infof("Current hash rate is %.2f Khash/s", hashRate)
				lastCheck = currentTime
			}
		}
	})
}
