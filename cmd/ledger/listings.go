package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/google/subcommands"

	"ledger/internal/core"
)

type accountsCmd struct {
	stats bool
}

func (*accountsCmd) Name() string     { return "accounts" }
func (*accountsCmd) Synopsis() string { return "list accounts with their balances" }
func (*accountsCmd) Usage() string {
	return `ledger -load <file> accounts [-stats]
`
}

func (c *accountsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.stats, "stats", false, "Also print account cache counters.")
}

func (c *accountsCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	ledger, err := ledgerFrom(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "ID\tName\tBalance\t")
	for _, a := range ledger.Accounts.ListAccounts(ctx) {
		fmt.Fprintf(w, "%d\t%s\t%s\t\n", a.ID, a.Name, core.FormatMoney(a.Balance))
	}
	w.Flush()

	if c.stats {
		s := ledger.CacheStats()
		fmt.Printf("cache: %d hits, %d misses, %d invalidations\n", s.Hits, s.Misses, s.Invalidations)
	}
	return subcommands.ExitSuccess
}

type categoriesCmd struct {
	typ string
}

func (*categoriesCmd) Name() string     { return "categories" }
func (*categoriesCmd) Synopsis() string { return "list categories" }
func (*categoriesCmd) Usage() string {
	return `ledger -load <file> categories [-type <income|expense>]
`
}

func (c *categoriesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.typ, "type", "", "Only list categories of this type.")
}

func (c *categoriesCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	ledger, err := ledgerFrom(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	categories := ledger.Categories.ListCategories(ctx)
	if c.typ != "" {
		t, err := core.ParseOperationType(c.typ)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitUsageError
		}
		categories = ledger.Categories.CategoriesByType(ctx, t)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tType\tName")
	for _, cat := range categories {
		fmt.Fprintf(w, "%d\t%s\t%s\n", cat.ID, cat.Type, cat.Name)
	}
	w.Flush()
	return subcommands.ExitSuccess
}

type operationsCmd struct {
	account  int64
	category int64
	from     string
	to       string
}

func (*operationsCmd) Name() string     { return "operations" }
func (*operationsCmd) Synopsis() string { return "list operations, optionally filtered" }
func (*operationsCmd) Usage() string {
	return `ledger -load <file> operations [-account <id> | -category <id> | -from <date> -to <date>]

  Filters are exclusive: the first one given wins. Dates are YYYY-MM-DD
  and both ends are inclusive.
`
}

func (c *operationsCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.account, "account", 0, "Only operations of this account.")
	f.Int64Var(&c.category, "category", 0, "Only operations of this category.")
	f.StringVar(&c.from, "from", "", "Start date of the window.")
	f.StringVar(&c.to, "to", "", "End date of the window.")
}

func (c *operationsCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	ledger, err := ledgerFrom(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	r, err := parseRange(c.from, c.to)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	var ops []core.Operation
	switch {
	case c.account != 0:
		ops = ledger.Operations.OperationsByAccount(ctx, c.account)
	case c.category != 0:
		ops = ledger.Operations.OperationsByCategory(ctx, c.category)
	case r != nil:
		ops = ledger.Operations.OperationsByDateRange(ctx, r.Start, r.End)
	default:
		ops = ledger.Operations.ListOperations(ctx)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDate\tType\tAccount\tCategory\tAmount\tDescription")
	for _, op := range ops {
		category := "-"
		if op.CategoryID != nil {
			category = strconv.FormatInt(*op.CategoryID, 10)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\t%s\n",
			op.ID, op.Date, op.Type, op.AccountID, category, core.FormatMoney(op.SignedAmount()), describe(op))
	}
	w.Flush()
	return subcommands.ExitSuccess
}
