package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/kinance/kinance-go/internal/client/resource"
)

// TransactionCommand returns the transaction subcommand group.
func TransactionCommand() *cli.Command {
	return &cli.Command{
		Name:    "transaction",
		Aliases: []string{"tx", "transactions"},
		Usage:   "Browse transactions",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List transactions",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "start", Usage: "From date (YYYY-MM-DD)"},
					&cli.StringFlag{Name: "end", Usage: "To date (YYYY-MM-DD)"},
					&cli.StringFlag{Name: "category", Usage: "Filter by category"},
					&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "income or expense"},
					&cli.StringFlag{Name: "budget", Aliases: []string{"b"}, Usage: "Filter by budget ID"},
					&cli.IntFlag{Name: "page", Usage: "Page number"},
					&cli.IntFlag{Name: "limit", Usage: "Page size"},
				},
				Action: transactionList,
			},
			{
				Name:      "get",
				Usage:     "Show a transaction",
				ArgsUsage: "TRANSACTION_ID",
				Action:    transactionGet,
			},
		},
	}
}

func transactionList(c *cli.Context) error {
	filter := resource.TransactionFilter{
		Category: c.String("category"),
		Type:     resource.TransactionType(c.String("type")),
		BudgetID: c.String("budget"),
		Page:     c.Int("page"),
		Limit:    c.Int("limit"),
	}
	switch filter.Type {
	case "", resource.TransactionIncome, resource.TransactionExpense:
	default:
		return fmt.Errorf("invalid --type %q: want income or expense", filter.Type)
	}
	var err error
	if filter.StartDate, filter.EndDate, err = dateRange(c); err != nil {
		return err
	}

	rt, err := EnsureSignedIn(c)
	if err != nil {
		return err
	}

	txs, err := rt.Resources.Transactions.List(c.Context, filter)
	if err != nil {
		return err
	}
	return render(c, txs)
}

func transactionGet(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("transaction ID required")
	}

	rt, err := EnsureSignedIn(c)
	if err != nil {
		return err
	}

	tx, err := rt.Resources.Transactions.Get(c.Context, id)
	if err != nil {
		return err
	}
	return render(c, tx)
}
