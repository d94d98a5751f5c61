package tangle

import (
	"github.com/kaspanet/ledgersim/infrastructure/logger"
)

var log = logger.RegisterSubSystem("TNGL")
