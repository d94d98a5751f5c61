package archive

import (
	"github.com/kaspanet/ledgersim/infrastructure/logger"
)

var log = logger.RegisterSubSystem("ARCH")
