package cli

import (
	"context"
	"flag"
	"log/slog"
	"time"

	"github.com/google/subcommands"

	"ledger/internal/log"
)

type timedCommand struct {
	subcommands.Command
	logger *slog.Logger
	now    func() time.Time
}

// Timed wraps c so every run is logged with its exit status and duration.
func Timed(c subcommands.Command, logger *slog.Logger) subcommands.Command {
	if logger == nil {
		logger = slog.Default()
	}
	return &timedCommand{Command: c, logger: logger, now: time.Now}
}

func (t *timedCommand) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	start := t.now()
	status := t.Command.Execute(ctx, f, args...)
	elapsed := t.now().Sub(start)

	level := slog.LevelInfo
	if status != subcommands.ExitSuccess {
		level = slog.LevelWarn
	}
	t.logger.Log(ctx, level, "Command finished",
		log.FieldOperation, t.Name(),
		"status", int(status),
		log.FieldDuration, elapsed.Milliseconds())
	return status
}
