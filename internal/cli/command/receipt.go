package command

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/kinance/kinance-go/internal/cli/output"
)

// ReceiptCommand returns the receipt subcommand group.
func ReceiptCommand() *cli.Command {
	return &cli.Command{
		Name:    "receipt",
		Aliases: []string{"receipts"},
		Usage:   "Upload and scan receipts",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List uploaded receipts",
				Action: receiptList,
			},
			{
				Name:      "get",
				Usage:     "Show a receipt",
				ArgsUsage: "RECEIPT_ID",
				Action:    receiptGet,
			},
			{
				Name:      "upload",
				Usage:     "Upload a receipt image",
				ArgsUsage: "FILE",
				Action:    receiptUpload,
			},
			{
				Name:      "ocr",
				Aliases:   []string{"scan"},
				Usage:     "Extract amount, date and merchant from a receipt image",
				ArgsUsage: "FILE",
				Action:    receiptOCR,
			},
		},
	}
}

func receiptList(c *cli.Context) error {
	rt, err := EnsureSignedIn(c)
	if err != nil {
		return err
	}

	receipts, err := rt.Resources.Receipts.List(c.Context)
	if err != nil {
		return err
	}
	return render(c, receipts)
}

func receiptGet(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("receipt ID required")
	}

	rt, err := EnsureSignedIn(c)
	if err != nil {
		return err
	}

	receipt, err := rt.Resources.Receipts.Get(c.Context, id)
	if err != nil {
		return err
	}
	return render(c, receipt)
}

// openReceipt opens the image named by the first argument.
func openReceipt(c *cli.Context) (*os.File, os.FileInfo, error) {
	path := c.Args().First()
	if path == "" {
		return nil, nil, fmt.Errorf("receipt file required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open receipt: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("open receipt: %w", err)
	}
	if info.IsDir() {
		f.Close()
		return nil, nil, fmt.Errorf("open receipt: %s is a directory", path)
	}
	return f, info, nil
}

func receiptUpload(c *cli.Context) error {
	f, info, err := openReceipt(c)
	if err != nil {
		return err
	}
	defer f.Close()

	rt, err := EnsureSignedIn(c)
	if err != nil {
		return err
	}

	name := filepath.Base(f.Name())
	bar := output.NewProgressBar(c.App.ErrWriter, name)
	bar.SetTotal(info.Size())

	receipt, err := rt.Resources.Receipts.Upload(c.Context, name, bar.Reader(f))
	bar.Finish()
	if err != nil {
		return err
	}
	return render(c, receipt)
}

func receiptOCR(c *cli.Context) error {
	f, _, err := openReceipt(c)
	if err != nil {
		return err
	}
	defer f.Close()

	rt, err := EnsureSignedIn(c)
	if err != nil {
		return err
	}

	spinner := output.NewSpinner(c.App.ErrWriter, "Scanning receipt")
	spinner.Start()
	data, err := rt.Resources.Receipts.ExtractDetails(c.Context, filepath.Base(f.Name()), f)
	if err != nil {
		spinner.Fail("Scan failed")
		return err
	}
	spinner.Success("Receipt scanned")
	return render(c, data)
}
