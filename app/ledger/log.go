package ledger

import (
	"github.com/kaspanet/ledgersim/infrastructure/logger"
	"github.com/kaspanet/ledgersim/util/panics"
)

var log = logger.RegisterSubSystem("LDGR")
var spawn = panics.GoroutineWrapperFunc(log)
