package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/kaspanet/ledgersim/app/ledger"
	"github.com/kaspanet/ledgersim/app/simulation"
	"github.com/kaspanet/ledgersim/infrastructure/logger"
)

func simulate(conf *simulateConfig) error {
	if conf.Seed == 0 {
		conf.Seed = time.Now().UnixNano()
	}
	log.Infof("Simulation seed: %d", conf.Seed)

	state, err := ledger.NewStateWithOptions(conf.Params(), &ledger.Options{
		RandomSource: rand.NewSource(conf.Seed),
		WalletNames:  conf.Wallets,
	})
	if err != nil {
		return err
	}

	ctx, cancel := interruptContext()
	defer cancel()

	err = runSimulation(ctx, state, conf)
	if err != nil {
		return err
	}

	printChain(state, os.Stdout)
	printTangle(state, os.Stdout)
	printWallets(state, os.Stdout)

	if conf.Archive != "" {
		return exportState(state, conf.Archive)
	}
	return nil
}

// runSimulation runs the generator and the miner side by side. The miner is
// stopped once the generator is done, unless it has a block count of its
// own. A final block is mined for what is left pending.
func runSimulation(ctx context.Context, state *ledger.State, conf *simulateConfig) error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "runSimulation")
	defer onEnd()

	generator, err := simulation.NewGenerator(state, &simulation.Config{
		TransactionsPerSecond: conf.TransactionsPerSecond,
		RandomSource:          rand.NewSource(conf.Seed + 1),
	})
	if err != nil {
		return err
	}
	miner, err := ledger.NewMiner(state, conf.Miner, conf.BlockInterval)
	if err != nil {
		return err
	}

	minerCtx, cancelMiner := context.WithCancel(ctx)
	defer cancelMiner()

	var wg sync.WaitGroup
	var generatorErr, minerErr error
	wg.Add(2)
	spawn("runSimulation-generator", func() {
		defer wg.Done()
		generatorErr = generator.Run(ctx, conf.Transactions)
		if conf.Blocks == 0 {
			cancelMiner()
		}
	})
	spawn("runSimulation-miner", func() {
		defer wg.Done()
		minerErr = miner.Run(minerCtx, conf.Blocks)
	})
	wg.Wait()

	if generatorErr != nil {
		return generatorErr
	}
	if minerErr != nil {
		return minerErr
	}

	if ctx.Err() == nil && len(state.PendingTransactions()) > 0 {
		_, err = state.MineContext(ctx, conf.Miner)
		if err != nil && ctx.Err() == nil {
			return err
		}
	}

	fmt.Printf("Submitted %d transactions, mined %d blocks\n\n", generator.Submitted(), miner.BlocksMined())
	return nil
}
