// Package export writes transactions as a spreadsheet-friendly CSV file.
package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/storystudio/ledger/internal/models"
)

// bom makes spreadsheet apps read the file as UTF-8.
const bom = "\uFEFF"

var header = []string{"ID", "Invoice Number", "Date", "Type", "Description", "Unit Price", "Quantity", "Total", "Customer"}

// FileName returns the download name for an export made at now.
func FileName(now time.Time) string {
	return fmt.Sprintf("Story_Transactions_%s.csv", now.Format("2006-01-02"))
}

// WriteCSV writes txs in list order. Description and customer are always
// quoted since they are free text.
func WriteCSV(w io.Writer, txs []models.Transaction) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(bom + strings.Join(header, ",") + "\n"); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, t := range txs {
		fields := []string{
			t.ID,
			t.InvoiceNumber,
			t.Date,
			string(t.Type),
			quote(t.Description),
			t.Amount.String(),
			t.Quantity.String(),
			models.Number(t.Total()).String(),
			quote(t.CustomerName),
		}
		if _, err := bw.WriteString(strings.Join(fields, ",") + "\n"); err != nil {
			return fmt.Errorf("write row %s: %w", t.ID, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
