package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"ledger/internal/app"
	"ledger/internal/core"
	"ledger/internal/services"
)

type addAccountCmd struct {
	name    string
	balance string
	output  string
}

func (*addAccountCmd) Name() string     { return "add-account" }
func (*addAccountCmd) Synopsis() string { return "open an account with an optional opening balance" }
func (*addAccountCmd) Usage() string {
	return `ledger [-load <file>] add-account -name <name> [-balance <amount>] [-o <file>]

  Amounts accept a dot or a comma as decimal separator. A positive opening
  balance is also recorded as an income operation dated today.
`
}

func (c *addAccountCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Account name.")
	f.StringVar(&c.balance, "balance", "", "Opening balance, zero when empty.")
	f.StringVar(&c.output, "o", "", "Write the ledger to this file afterwards.")
}

func (c *addAccountCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	ledger, err := ledgerFrom(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	balance, err := core.ParseOpeningBalance(c.balance)
	if err != nil {
		fmt.Fprintf(os.Stderr, "balance %q: %v\n", c.balance, err)
		return subcommands.ExitUsageError
	}
	a, err := ledger.Accounts.CreateAccount(ctx, c.name, balance)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("account %d: %s %s\n", a.ID, a.Name, core.FormatMoney(a.Balance))
	return finish(ctx, ledger, c.output)
}

type addOperationCmd struct {
	typ         string
	account     int64
	amount      string
	date        string
	description string
	category    int64
	output      string
}

func (*addOperationCmd) Name() string     { return "add-operation" }
func (*addOperationCmd) Synopsis() string { return "record an income or expense on an account" }
func (*addOperationCmd) Usage() string {
	return `ledger -load <file> add-operation -type <income|expense> -account <id> -amount <amount>
    [-date <YYYY-MM-DD>] [-description <text>] [-category <id>] [-o <file>]
`
}

func (c *addOperationCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.typ, "type", "expense", "Operation type.")
	f.Int64Var(&c.account, "account", 0, "Account id.")
	f.StringVar(&c.amount, "amount", "", "Amount, strictly positive.")
	f.StringVar(&c.date, "date", "", "Operation date, today when empty.")
	f.StringVar(&c.description, "description", "", "Free text.")
	f.Int64Var(&c.category, "category", 0, "Category id, none when 0.")
	f.StringVar(&c.output, "o", "", "Write the ledger to this file afterwards.")
}

func (c *addOperationCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	ledger, err := ledgerFrom(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	in, err := c.input(time.Now())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	op, err := ledger.Operations.CreateOperation(ctx, in)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("operation %d: %s %s on account %d\n", op.ID, op.Type, core.FormatMoney(op.Amount), op.AccountID)
	return finish(ctx, ledger, c.output)
}

// input turns the flag values into a create request.
func (c *addOperationCmd) input(now time.Time) (services.OperationInput, error) {
	t, err := core.ParseOperationType(c.typ)
	if err != nil {
		return services.OperationInput{}, err
	}
	amount, err := core.ParseAmount(c.amount)
	if err != nil {
		return services.OperationInput{}, fmt.Errorf("amount %q: %w", c.amount, err)
	}
	date := core.DateOf(now)
	if c.date != "" {
		if date, err = core.ParseDate(c.date); err != nil {
			return services.OperationInput{}, err
		}
	}
	in := services.OperationInput{Type: t, AccountID: c.account, Amount: amount, Date: date}
	if c.description != "" {
		in.Description = core.StringPtr(c.description)
	}
	if c.category != 0 {
		in.CategoryID = core.Int64Ptr(c.category)
	}
	return in, nil
}

func finish(ctx context.Context, a *app.App, output string) subcommands.ExitStatus {
	if output == "" {
		return subcommands.ExitSuccess
	}
	if err := writeLedger(ctx, a, output); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
