package main

import (
	"github.com/pkg/errors"

	"github.com/kaspanet/ledgersim/infrastructure/logger"
	"github.com/kaspanet/ledgersim/util/panics"
	"github.com/kaspanet/ledgersim/version"
)

func main() {
	defer panics.HandlePanic(log, nil)

	subCmd, config := parseCommandLine()
	log.Debugf("ledgersim version %s, running %s", version.Version(), subCmd)

	var err error
	switch subCmd {
	case demoSubCmd:
		err = demo(config.(*demoConfig))
	case simulateSubCmd:
		err = simulate(config.(*simulateConfig))
	case walletCreateSubCmd:
		err = walletCreate(config.(*walletCreateConfig))
	case walletShowSubCmd:
		err = walletShow(config.(*walletShowConfig))
	case exportSubCmd:
		err = export(config.(*exportConfig))
	case versionSubCmd:
		err = showVersion()
	default:
		err = errors.Errorf("Unknown sub-command '%s'\n", subCmd)
	}

	logger.BackendLog.Close()
	if err != nil {
		printErrorAndExit(err)
	}
}
