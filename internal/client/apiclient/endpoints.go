package apiclient

// API paths, relative to the versioned prefix (/api/<version>).
const (
	PathRegister = "/auth/register"
	PathLogin    = "/auth/login"
	PathRefresh  = "/auth/refresh"

	PathProfile = "/users/profile"
	PathFamily  = "/users/family"

	PathBudgets      = "/budgets"
	PathTransactions = "/transactions"

	PathReceipts      = "/receipts"
	PathReceiptUpload = "/receipts/upload"
	PathReceiptOCR    = "/receipts/ocr"
)

// BudgetPath returns the detail path of a budget.
func BudgetPath(id string) string {
	return PathBudgets + "/" + escapeSegment(id)
}

// TransactionPath returns the detail path of a transaction.
func TransactionPath(id string) string {
	return PathTransactions + "/" + escapeSegment(id)
}

// ReceiptPath returns the detail path of a receipt.
func ReceiptPath(id string) string {
	return PathReceipts + "/" + escapeSegment(id)
}
