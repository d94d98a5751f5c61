package transaction

import (
	"github.com/kaspanet/ledgersim/infrastructure/logger"
)

var log = logger.RegisterSubSystem("TXNS")
