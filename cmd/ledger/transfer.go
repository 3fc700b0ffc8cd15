package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/subcommands"
)

type importCmd struct {
	format string
	output string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "merge ledger files and report what was accepted" }
func (*importCmd) Usage() string {
	return `ledger import [-format <json|csv|yaml>] [-o <file>] <file>...

  Imports each file in order into the same ledger. Records whose id is
  already taken, or whose account or category cannot be found, are skipped
  and reported. With -o the merged ledger is written out afterwards.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "", "Format of every input file. Defaults to the file extension.")
	f.StringVar(&c.output, "o", "", "Write the merged ledger to this file.")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	ledger, err := ledgerFrom(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	for _, p := range f.Args() {
		format, err := formatFor(ledger, c.format, p)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitUsageError
		}
		rep, err := ledger.Import(ctx, p, format)
		if err != nil {
			fmt.Fprintf(os.Stderr, "import %s: %v\n", p, err)
			return subcommands.ExitFailure
		}
		printReport(os.Stdout, p, rep)
	}

	if c.output == "" {
		return subcommands.ExitSuccess
	}
	if err := writeLedger(ctx, ledger, c.output); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type exportCmd struct {
	format string
	all    bool
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write the loaded ledger to a file" }
func (*exportCmd) Usage() string {
	return `ledger -load <file> export [-format <json|csv|yaml>] [-all] [name]

  Writes accounts, categories and operations to name inside EXPORT_DIR.
  With -all, name is used as a stem and one file is written per format.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "", "Output format. Defaults to the extension, then DEFAULT_FORMAT.")
	f.BoolVar(&c.all, "all", false, "Write name.json, name.csv and name.yaml.")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	ledger, err := ledgerFrom(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	name := "ledger"
	if f.NArg() > 0 {
		name = f.Arg(0)
	}

	if c.all {
		paths, err := ledger.ExportAll(ctx, name)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		for _, p := range paths {
			fmt.Println("wrote", p)
		}
		return subcommands.ExitSuccess
	}

	format, err := formatFor(ledger, c.format, name)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	out := ledger.ExportPath(name)
	if filepath.Ext(out) == "" {
		out += format.Extension()
	}
	if err := ledger.Export(ctx, out, format); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Println("wrote", out)
	return subcommands.ExitSuccess
}
