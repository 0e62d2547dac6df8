// Package models defines the core data structures for transactions, users
// and the sync configuration shared by the client, the cache and the sheet endpoint.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TxType distinguishes money coming in from money going out.
type TxType string

const (
	// Income is money received, e.g. a paid invoice.
	Income TxType = "income"
	// Expense is money spent.
	Expense TxType = "expense"
)

// Role defines the permission level of a user.
type Role string

const (
	// SuperAdmin manages users and the sheet binding in addition to everything an Admin can do.
	SuperAdmin Role = "super_admin"
	// Admin can add and delete transactions.
	Admin Role = "admin"
	// Viewer can only read.
	Viewer Role = "viewer"
)

// Transaction is a single income or expense entry.
type Transaction struct {
	// ID is the client-generated identifier.
	ID string `json:"id"`
	// Type is either Income or Expense.
	Type TxType `json:"type"`
	// Description is free text shown on the invoice.
	Description string `json:"description"`
	// Amount is the unit price.
	Amount Number `json:"amount"`
	// Quantity is a whole number of units, at least 1 for locally created entries.
	Quantity Number `json:"quantity"`
	// Date is an ISO-8601 calendar date (YYYY-MM-DD).
	Date string `json:"date"`
	// CustomerName is optional; empty means absent.
	CustomerName string `json:"customerName,omitempty"`
	// InvoiceNumber has the form ST-<year><4-digit sequence>.
	InvoiceNumber string `json:"invoiceNumber"`
}

// Total returns Amount*Quantity.
func (t Transaction) Total() float64 {
	return float64(t.Amount) * float64(t.Quantity)
}

// User is an application user. Passwords are stored in plain text; this is a demo-grade login.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	Role     Role   `json:"role"`
}

// SyncConfig is the single remote endpoint binding.
type SyncConfig struct {
	// SheetURL is the normalized execution URL, empty when sync is disabled.
	SheetURL string `json:"sheetUrl,omitempty"`
	// LastSync is the time of the last successful load or save.
	LastSync *time.Time `json:"lastSync,omitempty"`
}

// Dataset is the pair of collections exchanged with the remote store as a whole.
type Dataset struct {
	Transactions []Transaction `json:"transactions"`
	Users        []User        `json:"users"`
}

// Snapshot is everything mirrored into the local cache. A nil slice or pointer
// means the corresponding key was never stored.
type Snapshot struct {
	Session      *User         `json:"session,omitempty"`
	Transactions []Transaction `json:"transactions,omitempty"`
	Users        []User        `json:"users,omitempty"`
	Config       *SyncConfig   `json:"config,omitempty"`
}

// FinancialStats is the aggregate projection shown on the dashboard.
type FinancialStats struct {
	TotalIncome  decimal.Decimal `json:"totalIncome"`
	TotalExpense decimal.Decimal `json:"totalExpense"`
	NetProfit    decimal.Decimal `json:"netProfit"`
	// Skipped counts transactions whose amount or quantity is not a finite number.
	Skipped int `json:"skipped,omitempty"`
}
