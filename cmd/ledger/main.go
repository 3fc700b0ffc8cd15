// Command ledger loads ledger files into memory and runs one command
// against them: import, export, listings, analytics or an event watch.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/google/subcommands"

	"ledger/internal/app"
	"ledger/internal/cli"
)

// commands is the list of ledger commands, registered in this order.
var commands = []subcommands.Command{
	&importCmd{},
	&exportCmd{},
	&addAccountCmd{},
	&addOperationCmd{},
	&accountsCmd{},
	&categoriesCmd{},
	&operationsCmd{},
	&recalcCmd{},
	&summaryCmd{},
	&watchCmd{},
}

func main() {
	os.Exit(run())
}

func run() int {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return int(subcommands.ExitUsageError)
	}
	logger := cli.SetupLogger(cfg)

	var preload fileList
	flag.Var(&preload, "load", "import `file` before running the command (repeatable, format from extension)")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	for _, c := range commands {
		commander.Register(cli.Timed(c, logger.Slog()), "ledger")
	}
	flag.Parse()

	ctx := context.Background()
	ledger, err := app.New(ctx, cfg, logger.Slog())
	if err != nil {
		logger.Error("Failed to build ledger", "error", err)
		return int(subcommands.ExitFailure)
	}
	defer func() {
		if err := ledger.Close(); err != nil {
			logger.Error("Failed to close ledger", "error", err)
		}
	}()

	for _, p := range preload {
		if err := loadFile(ctx, ledger, p); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return int(subcommands.ExitFailure)
		}
	}

	return int(commander.Execute(ctx, ledger))
}
