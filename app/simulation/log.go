package simulation

import (
	"github.com/kaspanet/ledgersim/infrastructure/logger"
)

var log = logger.RegisterSubSystem("SIML")
