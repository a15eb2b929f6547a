package command

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/kinance/kinance-go/internal/client/resource"
)

// dateLayout is the calendar date format used by the API.
const dateLayout = "2006-01-02"

// BudgetCommand returns the budget subcommand group.
func BudgetCommand() *cli.Command {
	return &cli.Command{
		Name:    "budget",
		Aliases: []string{"budgets"},
		Usage:   "Manage budgets",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List budgets",
				Action: budgetList,
			},
			{
				Name:      "get",
				Usage:     "Show a budget",
				ArgsUsage: "BUDGET_ID",
				Action:    budgetGet,
			},
			{
				Name:   "create",
				Usage:  "Create a budget",
				Flags:  budgetFlags(true),
				Action: budgetCreate,
			},
			{
				Name:      "update",
				Usage:     "Change fields of a budget",
				ArgsUsage: "BUDGET_ID",
				Flags:     budgetFlags(false),
				Action:    budgetUpdate,
			},
		},
	}
}

// budgetFlags returns the budget field flags. Create requires name and
// amount and has defaults; update sends only the flags given.
func budgetFlags(create bool) []cli.Flag {
	currency, period := "", ""
	if create {
		currency, period = "USD", string(resource.PeriodMonthly)
	}
	return []cli.Flag{
		&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Budget name", Required: create},
		&cli.StringFlag{Name: "amount", Aliases: []string{"a"}, Usage: "Budget amount (e.g. 500.00)", Required: create},
		&cli.StringFlag{Name: "currency", Usage: "ISO currency code", Value: currency},
		&cli.StringFlag{Name: "period", Aliases: []string{"p"}, Usage: "weekly, monthly or yearly", Value: period},
		&cli.StringFlag{Name: "start", Usage: "Start date (YYYY-MM-DD)"},
		&cli.StringFlag{Name: "end", Usage: "End date (YYYY-MM-DD)"},
		&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Description"},
	}
}

func budgetList(c *cli.Context) error {
	rt, err := EnsureSignedIn(c)
	if err != nil {
		return err
	}

	budgets, err := rt.Resources.Budgets.List(c.Context)
	if err != nil {
		return err
	}
	return render(c, budgets)
}

func budgetGet(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("budget ID required")
	}

	rt, err := EnsureSignedIn(c)
	if err != nil {
		return err
	}

	budget, err := rt.Resources.Budgets.Get(c.Context, id)
	if err != nil {
		return err
	}
	return renderBudget(c, budget)
}

func budgetCreate(c *cli.Context) error {
	amount, err := resource.NewAmount(c.String("amount"))
	if err != nil {
		return err
	}
	start, end, err := dateRange(c)
	if err != nil {
		return err
	}

	rt, err := EnsureSignedIn(c)
	if err != nil {
		return err
	}

	budget, err := rt.Resources.Budgets.Create(c.Context, resource.CreateBudgetRequest{
		Name:        c.String("name"),
		Description: c.String("description"),
		Amount:      amount,
		Currency:    c.String("currency"),
		Period:      resource.Period(c.String("period")),
		StartDate:   start,
		EndDate:     end,
	})
	if err != nil {
		return err
	}
	return renderBudget(c, budget)
}

func budgetUpdate(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("budget ID required")
	}

	flags, err := trailingFlags(c, budgetFlags(false))
	if err != nil {
		return err
	}

	var req resource.UpdateBudgetRequest
	set := 0
	str := func(flag string) *string {
		if !flags.IsSet(flag) {
			return nil
		}
		set++
		v := flags.String(flag)
		return &v
	}
	req.Name = str("name")
	req.Description = str("description")
	req.Currency = str("currency")
	if p := str("period"); p != nil {
		period := resource.Period(*p)
		req.Period = &period
	}
	if a := str("amount"); a != nil {
		amount, err := resource.NewAmount(*a)
		if err != nil {
			return err
		}
		req.Amount = &amount
	}
	start, end, err := dateRange(flags)
	if err != nil {
		return err
	}
	if start != "" {
		req.StartDate = str("start")
	}
	if end != "" {
		req.EndDate = str("end")
	}
	if set == 0 {
		return fmt.Errorf("nothing to update; pass at least one field flag")
	}

	rt, err := EnsureSignedIn(c)
	if err != nil {
		return err
	}

	budget, err := rt.Resources.Budgets.Update(c.Context, id, req)
	if err != nil {
		return err
	}
	return renderBudget(c, budget)
}

// flagReader is satisfied by *cli.Context and *stringFlags.
type flagReader interface {
	String(name string) string
}

// dateRange validates the --start and --end date flags.
func dateRange(c flagReader) (start, end string, err error) {
	start, end = c.String("start"), c.String("end")
	var s, e time.Time
	if start != "" {
		if s, err = time.Parse(dateLayout, start); err != nil {
			return "", "", fmt.Errorf("invalid --start %q: want YYYY-MM-DD", start)
		}
	}
	if end != "" {
		if e, err = time.Parse(dateLayout, end); err != nil {
			return "", "", fmt.Errorf("invalid --end %q: want YYYY-MM-DD", end)
		}
	}
	if start != "" && end != "" && e.Before(s) {
		return "", "", fmt.Errorf("--end %s is before --start %s", end, start)
	}
	return start, end, nil
}

// renderBudget prints one budget; table output adds the remaining amount.
func renderBudget(c *cli.Context, b *resource.Budget) error {
	if err := render(c, b); err != nil {
		return err
	}
	if tableOutput(c) {
		fmt.Fprintf(c.App.Writer, "\nRemaining: %s\n", b.Remaining().Format(b.Currency))
	}
	return nil
}
