package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/subcommands"

	"ledger/internal/cli"
	"ledger/internal/core"
)

type watchCmd struct{}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "print ledger events published on AMQP_EXCHANGE" }
func (*watchCmd) Usage() string {
	return `ledger watch

  Subscribes to every ledger event and prints one JSON line per event until
  interrupted. Requires AMQP_URL.
`
}

func (*watchCmd) SetFlags(*flag.FlagSet) {}

func (*watchCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	ledger, err := ledgerFrom(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	events := ledger.Events()
	if events == nil {
		fmt.Fprintln(os.Stderr, "events are disabled: set AMQP_URL")
		return subcommands.ExitUsageError
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	ctx, done := cli.GracefulShutdown(ctx, slog.Default(), 5*time.Second, nil)
	err = events.Subscribe(ctx, func(e core.LedgerEvent) error {
		data, err := e.ToJSON()
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	})
	cancel()
	<-done
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
