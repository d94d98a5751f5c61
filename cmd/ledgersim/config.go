package main

import (
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"

	"github.com/kaspanet/ledgersim/infrastructure/config"
)

const (
	demoSubCmd         = "demo"
	simulateSubCmd     = "simulate"
	walletCreateSubCmd = "wallet-create"
	walletShowSubCmd   = "wallet-show"
	exportSubCmd       = "export"
	versionSubCmd      = "version"
)

type configFlags struct{}

type demoConfig struct {
	Miner   string `long:"miner" description:"Name of the wallet receiving the mining reward" default:"Alice"`
	Archive string `long:"archive" description:"Directory of a LevelDB archive to export the resulting ledger to"`
	config.ParamsFlags
	config.LogFlags
}

type simulateConfig struct {
	Transactions          uint64        `long:"transactions" short:"n" description:"Number of transactions to submit (0 to run until interrupted)" default:"100"`
	TransactionsPerSecond float64       `long:"tps" description:"Maximum transactions submitted per second (0 for unlimited)" default:"10"`
	Blocks                uint64        `long:"blocks" description:"Number of blocks to mine (0 to mine until the simulation ends)"`
	BlockInterval         time.Duration `long:"block-interval" description:"Minimum time between two mined blocks" default:"1s"`
	Miner                 string        `long:"miner" description:"Name of the mining wallet" default:"Alice"`
	Wallets               []string      `long:"wallet" short:"w" description:"Name of a simulated wallet. May be repeated (default Alice, Bob and Charlie)"`
	Seed                  int64         `long:"seed" description:"Seed of the random choices (0 for a time based seed)"`
	Archive               string        `long:"archive" description:"Directory of a LevelDB archive to export the resulting ledger to"`
	config.ParamsFlags
	config.LogFlags
}

type walletCreateConfig struct {
	Name      string `long:"name" description:"Name of the wallet" default:"Alice"`
	KeyFile   string `long:"keyfile" short:"f" description:"Path of the key file to write" default:"ledgersim-wallet.json"`
	Mnemonic  bool   `long:"mnemonic" description:"Derive the key from a new mnemonic and print it"`
	Import    string `long:"import" description:"Restore the key from the given mnemonic instead of generating one"`
	Password  string `long:"password" short:"p" description:"Key file password (will prompt if not given)"`
	Overwrite bool   `long:"yes" short:"y" description:"Overwrite an existing key file"`
	config.LogFlags
}

type walletShowConfig struct {
	KeyFile     string `long:"keyfile" short:"f" description:"Path of the key file to read" default:"ledgersim-wallet.json"`
	Password    string `long:"password" short:"p" description:"Key file password (will prompt if not given)"`
	ShowPrivate bool   `long:"show-private" description:"Also print the private key"`
	config.LogFlags
}

type exportConfig struct {
	Archive string `long:"archive" short:"a" description:"Directory of the LevelDB archive" required:"true"`
	Read    bool   `long:"read" description:"Only read back and summarize an existing archive"`
	config.ParamsFlags
	config.LogFlags
}

type versionConfig struct{}

func parseCommandLine() (subCommand string, config interface{}) {
	cfg := &configFlags{}
	parser := flags.NewParser(cfg, flags.PrintErrors|flags.HelpFlag)

	demoConf := &demoConfig{}
	parser.AddCommand(demoSubCmd, "Runs the demonstration scenario",
		"Creates three wallets, sends transactions between them, mines a block and prints "+
			"the resulting chain and tangle", demoConf)

	simulateConf := &simulateConfig{}
	parser.AddCommand(simulateSubCmd, "Simulates random traffic",
		"Submits random transactions between wallets at a bounded rate while a miner mines them", simulateConf)

	walletCreateConf := &walletCreateConfig{}
	parser.AddCommand(walletCreateSubCmd, "Creates a wallet key file",
		"Generates or restores a key pair and writes it to a password encrypted key file", walletCreateConf)

	walletShowConf := &walletShowConfig{}
	parser.AddCommand(walletShowSubCmd, "Shows a wallet key file",
		"Decrypts a key file and prints the wallet it holds", walletShowConf)

	exportConf := &exportConfig{}
	parser.AddCommand(exportSubCmd, "Exports a ledger to a LevelDB archive",
		"Runs the demonstration scenario, exports the resulting chain and tangle to a LevelDB archive "+
			"and reads it back", exportConf)

	parser.AddCommand(versionSubCmd, "Prints the version", "Prints the version", &versionConfig{})

	_, err := parser.Parse()
	if err != nil {
		var flagsErr *flags.Error
		if ok := errors.As(err, &flagsErr); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		} else {
			os.Exit(1)
		}
		return "", nil
	}

	switch parser.Command.Active.Name {
	case demoSubCmd:
		resolveParams(parser, &demoConf.ParamsFlags)
		initLogging(&demoConf.LogFlags)
		config = demoConf
	case simulateSubCmd:
		resolveParams(parser, &simulateConf.ParamsFlags)
		initLogging(&simulateConf.LogFlags)
		config = simulateConf
	case walletCreateSubCmd:
		initLogging(&walletCreateConf.LogFlags)
		config = walletCreateConf
	case walletShowSubCmd:
		initLogging(&walletShowConf.LogFlags)
		config = walletShowConf
	case exportSubCmd:
		resolveParams(parser, &exportConf.ParamsFlags)
		initLogging(&exportConf.LogFlags)
		config = exportConf
	case versionSubCmd:
		config = nil
	}

	return parser.Command.Active.Name, config
}

func resolveParams(parser *flags.Parser, paramsFlags *config.ParamsFlags) {
	err := paramsFlags.ResolveParams(parser)
	if err != nil {
		printErrorAndExit(err)
	}
}

func initLogging(logFlags *config.LogFlags) {
	err := logFlags.InitLogging()
	if err != nil {
		printErrorAndExit(err)
	}
}
