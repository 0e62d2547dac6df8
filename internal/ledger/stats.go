package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/storystudio/ledger/internal/models"
)

// GeneralCustomer is shown on invoices without a customer name.
const GeneralCustomer = "General customer"

// ComputeStats sums amount*quantity per transaction type. Lines whose amount
// or quantity is not a finite number are skipped and counted.
func ComputeStats(txs []models.Transaction) models.FinancialStats {
	stats := models.FinancialStats{
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
	}
	for _, t := range txs {
		total, ok := lineTotal(t)
		if !ok {
			stats.Skipped++
			continue
		}
		switch t.Type {
		case models.Income:
			stats.TotalIncome = stats.TotalIncome.Add(total)
		case models.Expense:
			stats.TotalExpense = stats.TotalExpense.Add(total)
		}
	}
	stats.NetProfit = stats.TotalIncome.Sub(stats.TotalExpense)
	return stats
}

func lineTotal(t models.Transaction) (decimal.Decimal, bool) {
	if !t.Amount.IsFinite() || !t.Quantity.IsFinite() {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(float64(t.Amount)).Mul(decimal.NewFromFloat(float64(t.Quantity))), true
}

// Invoice is the printable view of one transaction.
type Invoice struct {
	Number      string
	Date        string
	Customer    string
	Type        models.TxType
	Description string
	UnitPrice   decimal.Decimal
	Quantity    decimal.Decimal
	Total       decimal.Decimal
}

// NewInvoice builds the invoice for t.
func NewInvoice(t models.Transaction) (Invoice, error) {
	total, ok := lineTotal(t)
	if !ok {
		return Invoice{}, fmt.Errorf("%w: transaction %s has a non-numeric amount or quantity", ErrInvalidInput, t.ID)
	}
	customer := t.CustomerName
	if customer == "" {
		customer = GeneralCustomer
	}
	return Invoice{
		Number:      t.InvoiceNumber,
		Date:        t.Date,
		Customer:    customer,
		Type:        t.Type,
		Description: t.Description,
		UnitPrice:   decimal.NewFromFloat(float64(t.Amount)),
		Quantity:    decimal.NewFromFloat(float64(t.Quantity)),
		Total:       total,
	}, nil
}
