package config

import (
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/kaspanet/ledgersim/infrastructure/logger"
)

const (
	defaultLogFilename    = "ledgersim.log"
	defaultErrLogFilename = "ledgersim_err.log"
)

// LogFlags holds the logging configuration shared by every command.
type LogFlags struct {
	LogDir   string `long:"logdir" description:"Directory to log output. Logs are only written to stdout if empty"`
	LogLevel string `long:"loglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems" default:"info"`
}

// InitLogging attaches the configured outputs to the logging backend,
// starts it and applies the log levels.
func (logFlags *LogFlags) InitLogging() error {
	if logFlags.LogDir != "" {
		logger.InitLog(
			filepath.Join(logFlags.LogDir, defaultLogFilename),
			filepath.Join(logFlags.LogDir, defaultErrLogFilename))
	} else {
		logger.InitLogStdout(logger.LevelInfo)
	}

	err := logger.ParseAndSetLogLevels(logFlags.LogLevel)
	if err != nil {
		return errors.Wrap(err, "invalid --loglevel")
	}
	return nil
}
