package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"ledger/internal/app"
	"ledger/internal/core"
	"ledger/internal/services"
	"ledger/internal/transfer"
)

// fileList collects a repeatable path flag.
type fileList []string

func (l *fileList) String() string { return strings.Join(*l, ",") }

func (l *fileList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// ledgerFrom extracts the App handed to Commander.Execute.
func ledgerFrom(args []interface{}) (*app.App, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no ledger passed to command")
	}
	a, ok := args[0].(*app.App)
	if !ok {
		return nil, fmt.Errorf("unexpected command argument %T", args[0])
	}
	return a, nil
}

// formatFor returns the explicit format when set, else the one implied by
// the path extension, else the configured default.
func formatFor(a *app.App, explicit, p string) (transfer.Format, error) {
	if explicit != "" {
		return transfer.ParseFormat(explicit)
	}
	if f, err := transfer.FormatFromPath(p); err == nil {
		return f, nil
	}
	return a.DefaultFormat(), nil
}

// writeLedger exports the ledger to name, resolved against EXPORT_DIR,
// in the format its extension names.
func writeLedger(ctx context.Context, a *app.App, name string) error {
	out := a.ExportPath(name)
	format, err := formatFor(a, "", out)
	if err != nil {
		return err
	}
	if err := a.Export(ctx, out, format); err != nil {
		return err
	}
	fmt.Println("wrote", out)
	return nil
}

func loadFile(ctx context.Context, a *app.App, p string) error {
	f, err := formatFor(a, "", p)
	if err != nil {
		return err
	}
	rep, err := a.Import(ctx, p, f)
	if err != nil {
		return fmt.Errorf("load %s: %w", p, err)
	}
	for _, d := range rep.Diagnostics {
		fmt.Fprintf(os.Stderr, "%s: %s\n", p, d)
	}
	return nil
}

// parseRange builds a window from -from/-to values. Both empty means no
// window; one missing side is an error.
func parseRange(from, to string) (*services.DateRange, error) {
	if from == "" && to == "" {
		return nil, nil
	}
	if from == "" || to == "" {
		return nil, fmt.Errorf("both -from and -to are required for a date range")
	}
	start, err := core.ParseDate(from)
	if err != nil {
		return nil, err
	}
	end, err := core.ParseDate(to)
	if err != nil {
		return nil, err
	}
	r := services.DateRange{Start: start, End: end}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

func printReport(w io.Writer, source string, rep transfer.Report) {
	fmt.Fprintf(w, "%s (run %s)\n", source, rep.RunID)
	fmt.Fprintf(w, "  accounts:   found %d, imported %d\n", rep.Found.Accounts, rep.Accepted.Accounts)
	fmt.Fprintf(w, "  categories: found %d, imported %d\n", rep.Found.Categories, rep.Accepted.Categories)
	fmt.Fprintf(w, "  operations: found %d, imported %d\n", rep.Found.Operations, rep.Accepted.Operations)
	for _, d := range rep.Diagnostics {
		fmt.Fprintf(w, "  skipped %s\n", d)
	}
}

func describe(op core.Operation) string {
	return op.DescriptionOr("-")
}
