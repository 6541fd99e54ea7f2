package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dposnet/dposd/infrastructure/config"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

const (
	genKeyPairSubCmd = "genkeypair"
	replaySubCmd     = "replay"
	scheduleSubCmd   = "schedule"
)

type configFlags struct {
	config.NetworkFlags
}

type genKeyPairConfig struct {
	config.NetworkFlags
}

type replayConfig struct {
	BlocksFile string `long:"blocks" short:"b" description:"A yaml file holding the blocks to process, in order" required:"true"`
	DataDir    string `long:"datadir" description:"Directory for the forged transactions database. A temporary directory is used if omitted"`
	Flush      bool   `long:"flush" description:"Store the transactions of accepted blocks before exiting"`
	Profile    string `long:"profile" description:"Enable HTTP profiling on given port -- NOTE port must be between 1024 and 65536"`
	config.NetworkFlags
	config.LogFlags
}

type scheduleConfig struct {
	BlocksFile string `long:"blocks" short:"b" description:"A yaml file holding the blocks to process before computing the schedule"`
	From       uint64 `long:"from" description:"Timestamp, in seconds since the network epoch, of the first slot to show. Defaults to the slot after the last block"`
	Slots      int    `long:"slots" short:"n" description:"Number of slots to show" default:"10"`
	config.NetworkFlags
	config.LogFlags
}

func parseCommandLine() (subCommand string, config interface{}) {
	cfg := &configFlags{}
	parser := flags.NewParser(cfg, flags.PrintErrors|flags.HelpFlag)

	genKeyPairConf := &genKeyPairConfig{}
	parser.AddCommand(genKeyPairSubCmd, "Generates a forger key pair",
		"Generates a schnorr key pair and prints its address on the selected network", genKeyPairConf)

	replayConf := &replayConfig{}
	parser.AddCommand(replaySubCmd, "Processes blocks from a file",
		"Runs every block of the file through block processing and prints the outcome of each", replayConf)

	scheduleConf := &scheduleConfig{}
	parser.AddCommand(scheduleSubCmd, "Prints the forging schedule",
		"Prints which active delegate forges each of the upcoming slots", scheduleConf)

	_, err := parser.Parse()

	if err != nil {
		var flagsErr *flags.Error
		if ok := errors.As(err, &flagsErr); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		} else {
			os.Exit(1)
		}
		return "", nil
	}

	switch parser.Command.Active.Name {
	case genKeyPairSubCmd:
		combineNetworkFlags(&genKeyPairConf.NetworkFlags, &cfg.NetworkFlags)
		err := genKeyPairConf.ResolveNetwork(parser)
		if err != nil {
			printErrorAndExit(err)
		}
		config = genKeyPairConf
	case replaySubCmd:
		combineNetworkFlags(&replayConf.NetworkFlags, &cfg.NetworkFlags)
		err := replayConf.ResolveNetwork(parser)
		if err != nil {
			printErrorAndExit(err)
		}
		if replayConf.Profile != "" {
			profilePort, err := strconv.Atoi(replayConf.Profile)
			if err != nil || profilePort < 1024 || profilePort > 65535 {
				printErrorAndExit(errors.New("The profile port must be between 1024 and 65535"))
			}
		}
		initLogging(&replayConf.LogFlags)
		config = replayConf
	case scheduleSubCmd:
		combineNetworkFlags(&scheduleConf.NetworkFlags, &cfg.NetworkFlags)
		err := scheduleConf.ResolveNetwork(parser)
		if err != nil {
			printErrorAndExit(err)
		}
		if scheduleConf.Slots <= 0 {
			printErrorAndExit(errors.New("--slots must be positive"))
		}
		initLogging(&scheduleConf.LogFlags)
		config = scheduleConf
	}

	return parser.Command.Active.Name, config
}

func combineNetworkFlags(dst, src *config.NetworkFlags) {
	dst.Testnet = dst.Testnet || src.Testnet
	dst.Devnet = dst.Devnet || src.Devnet
	if dst.OverrideParamsFile == "" {
		dst.OverrideParamsFile = src.OverrideParamsFile
	}
}

func initLogging(logFlags *config.LogFlags) {
	err := logFlags.InitLogging()
	if errors.Is(err, config.ErrShowSubsystems) {
		os.Exit(0)
	}
	if err != nil {
		printErrorAndExit(err)
	}
}

func printErrorAndExit(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", err)
	os.Exit(1)
}
