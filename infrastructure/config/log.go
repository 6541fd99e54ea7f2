package config

import (
	"fmt"
	"path/filepath"

	"github.com/dposnet/dposd/infrastructure/logger"
	"github.com/pkg/errors"
)

const (
	defaultLogLevel       = "info"
	defaultLogFilename    = "dposd.log"
	defaultErrLogFilename = "dposd_err.log"
)

// LogFlags holds the logging configuration
type LogFlags struct {
	LogDir      string       `long:"logdir" description:"Directory to log output. Logging to files is disabled if empty"`
	StdoutLevel logger.Level `long:"stdoutlevel" default:"info" description:"Lowest level written to stdout {trace, debug, info, warn, error, critical, off}"`
	DebugLevel  string       `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
}

// ErrShowSubsystems is returned by InitLogging when the user asked for the
// list of subsystems instead of a log level
var ErrShowSubsystems = errors.New("show subsystems")

// InitLogging initializes the log backend and applies the requested levels
func (logFlags *LogFlags) InitLogging() error {
	if logFlags.DebugLevel == "show" {
		fmt.Println("Supported subsystems", logger.SupportedSubsystems())
		return ErrShowSubsystems
	}

	if logFlags.LogDir != "" {
		logger.InitLog(filepath.Join(logFlags.LogDir, defaultLogFilename),
			filepath.Join(logFlags.LogDir, defaultErrLogFilename), logFlags.StdoutLevel)
	} else {
		logger.InitLogStdout(logFlags.StdoutLevel)
	}

	debugLevel := logFlags.DebugLevel
	if debugLevel == "" {
		debugLevel = defaultLogLevel
	}
	err := logger.SetLogLevels(debugLevel)
	if err != nil {
		return errors.Wrapf(err, "invalid debuglevel %s", debugLevel)
	}
	return nil
}
