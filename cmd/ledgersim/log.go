package main

import (
	"github.com/kaspanet/ledgersim/infrastructure/logger"
	"github.com/kaspanet/ledgersim/util/panics"
)

var log = logger.RegisterSubSystem("LSIM")
var spawn = panics.GoroutineWrapperFunc(log)
