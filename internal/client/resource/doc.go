// Package resource provides typed clients for the Kinance domain resources:
// budgets, transactions, receipts and users.
//
// Each client is a thin wrapper over apiclient.Client. Business failures
// (success:false) surface as *apiclient.APIError; money values use
// shopspring/decimal through the Amount type.
package resource
