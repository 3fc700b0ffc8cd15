package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"slices"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

type recalcCmd struct{}

func (*recalcCmd) Name() string     { return "recalc" }
func (*recalcCmd) Synopsis() string { return "rebuild every account balance from its operations" }
func (*recalcCmd) Usage() string {
	return `ledger -load <file> recalc
`
}

func (*recalcCmd) SetFlags(*flag.FlagSet) {}

func (*recalcCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	ledger, err := ledgerFrom(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	before := make(map[int64]decimal.Decimal)
	for _, a := range ledger.Accounts.ListAccounts(ctx) {
		before[a.ID] = a.Balance
	}
	balances, err := ledger.Accounts.RecalculateAll(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	ids := make([]int64, 0, len(balances))
	for id := range balances {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		b := balances[id]
		if !b.Equal(before[id]) {
			fmt.Printf("account %d: %s (was %s)\n", id, core.FormatMoney(b), core.FormatMoney(before[id]))
			continue
		}
		fmt.Printf("account %d: %s\n", id, core.FormatMoney(b))
	}
	return subcommands.ExitSuccess
}

type summaryCmd struct {
	from string
	to   string
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "print totals, averages and the category breakdown" }
func (*summaryCmd) Usage() string {
	return `ledger -load <file> summary [-from <date> -to <date>]

  Without a window every operation is counted. With one, the period
  balance is printed as well.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "Start date (YYYY-MM-DD, inclusive).")
	f.StringVar(&c.to, "to", "", "End date (YYYY-MM-DD, inclusive).")
}

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
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

	if r != nil {
		pb, err := ledger.Analytics.PeriodBalance(ctx, *r)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Period %s .. %s (%d operations)\n", pb.Start, pb.End, pb.OperationCount)
		fmt.Printf("  income:  %s\n", core.FormatMoney(pb.TotalIncome))
		fmt.Printf("  expense: %s\n", core.FormatMoney(pb.TotalExpense))
		fmt.Printf("  balance: %s\n\n", core.FormatMoney(pb.Balance))
	}

	stats, err := ledger.Analytics.Summary(ctx, r)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Operations: %d (%d income, %d expense)\n",
		stats.TotalOperations, stats.IncomeOperations, stats.ExpenseOperations)
	fmt.Printf("  income:  %s total, %s average\n", core.FormatMoney(stats.TotalIncome), core.FormatMoney(stats.AverageIncome))
	fmt.Printf("  expense: %s total, %s average\n", core.FormatMoney(stats.TotalExpense), core.FormatMoney(stats.AverageExpense))

	breakdown, err := ledger.Analytics.Categories(ctx, r)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	printBreakdown("Income by category", breakdown.IncomeByCategory)
	printBreakdown("Expense by category", breakdown.ExpenseByCategory)
	if breakdown.Uncategorized > 0 || breakdown.Unresolved > 0 {
		fmt.Printf("\n%d uncategorized, %d with unknown category\n", breakdown.Uncategorized, breakdown.Unresolved)
	}
	return subcommands.ExitSuccess
}

func printBreakdown(title string, totals map[string]decimal.Decimal) {
	if len(totals) == 0 {
		return
	}
	fmt.Printf("\n%s\n", title)
	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Printf("  %-20s %s\n", name, core.FormatMoney(totals[name]))
	}
}
