package main

import (
	"github.com/dposnet/dposd/util/panics"
	"github.com/pkg/errors"
)

func main() {
	defer panics.HandlePanic(log, "main", nil)

	subCmd, config := parseCommandLine()

	var err error
	switch subCmd {
	case genKeyPairSubCmd:
		err = genKeyPair(config.(*genKeyPairConfig))
	case replaySubCmd:
		err = replay(config.(*replayConfig))
	case scheduleSubCmd:
		err = schedule(config.(*scheduleConfig))
	default:
		err = errors.Errorf("Unknown sub-command '%s'\n", subCmd)
	}

	if err != nil {
		printErrorAndExit(err)
	}
}
