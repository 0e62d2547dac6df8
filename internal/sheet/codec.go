package sheet

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/storystudio/ledger/internal/models"
)

// WireTable is a sheet as exchanged with the remote store: row 0 holds the
// header labels, every following row holds positional cell values.
type WireTable [][]any

// Transaction sheet columns. Decoding trusts these positions, not the header labels.
const (
	TxColID = iota
	TxColInvoiceNumber
	TxColDate
	TxColType
	TxColDescription
	TxColAmount
	TxColQuantity
	TxColTotal
	TxColCustomer

	txColumns
)

// User sheet columns.
const (
	UserColID = iota
	UserColName
	UserColEmail
	UserColPassword
	UserColRole

	userColumns
)

// TransactionRow is one transaction in wire order.
type TransactionRow [txColumns]any

// UserRow is one user in wire order.
type UserRow [userColumns]any

// undefinedCell is what the sheet script produces when it stringifies a cell
// beyond the end of a short row.
const undefinedCell = "undefined"

var (
	// TransactionHeader labels the transaction sheet.
	TransactionHeader = TransactionRow{
		"ID", "Invoice Number", "Date", "Type", "Description", "Amount", "Quantity", "Total", "Customer",
	}
	// UserHeader labels the user sheet.
	UserHeader = UserRow{"ID", "Name", "Email", "Password", "Role"}
)

// EncodeTransactions renders txs as a wire table with header and a derived Total column.
func EncodeTransactions(txs []models.Transaction) WireTable {
	table := make(WireTable, 0, len(txs)+1)
	header := TransactionHeader
	table = append(table, header[:])
	for _, t := range txs {
		row := TransactionRow{
			TxColID:            t.ID,
			TxColInvoiceNumber: t.InvoiceNumber,
			TxColDate:          t.Date,
			TxColType:          string(t.Type),
			TxColDescription:   t.Description,
			TxColAmount:        numberCell(t.Amount),
			TxColQuantity:      numberCell(t.Quantity),
			TxColTotal:         numberCell(models.Number(t.Total())),
			TxColCustomer:      t.CustomerName,
		}
		table = append(table, row[:])
	}
	return table
}

// DecodeTransactions maps every row after the header to a transaction by
// column position. Tables with fewer than two rows decode to an empty slice.
func DecodeTransactions(table WireTable) []models.Transaction {
	if len(table) < 2 {
		return []models.Transaction{}
	}
	txs := make([]models.Transaction, 0, len(table)-1)
	for _, row := range table[1:] {
		txs = append(txs, models.Transaction{
			ID:            cellString(row, TxColID),
			InvoiceNumber: cellString(row, TxColInvoiceNumber),
			Date:          cellString(row, TxColDate),
			Type:          models.TxType(cellString(row, TxColType)),
			Description:   cellString(row, TxColDescription),
			Amount:        cellNumber(row, TxColAmount),
			Quantity:      cellNumber(row, TxColQuantity),
			CustomerName:  cellString(row, TxColCustomer),
		})
	}
	return txs
}

// EncodeUsers renders users as a wire table with header.
func EncodeUsers(users []models.User) WireTable {
	table := make(WireTable, 0, len(users)+1)
	header := UserHeader
	table = append(table, header[:])
	for _, u := range users {
		row := UserRow{
			UserColID:       u.ID,
			UserColName:     u.Name,
			UserColEmail:    u.Email,
			UserColPassword: u.Password,
			UserColRole:     string(u.Role),
		}
		table = append(table, row[:])
	}
	return table
}

// DecodeUsers maps every row after the header to a user by column position.
func DecodeUsers(table WireTable) []models.User {
	if len(table) < 2 {
		return []models.User{}
	}
	users := make([]models.User, 0, len(table)-1)
	for _, row := range table[1:] {
		users = append(users, models.User{
			ID:       cellString(row, UserColID),
			Name:     cellString(row, UserColName),
			Email:    cellString(row, UserColEmail),
			Password: cellString(row, UserColPassword),
			Role:     models.Role(cellString(row, UserColRole)),
		})
	}
	return users
}

func numberCell(n models.Number) any {
	if !n.IsFinite() {
		return nil
	}
	return float64(n)
}

// cellString coerces a cell the way the sheet script's String() does.
func cellString(row []any, i int) string {
	if i >= len(row) {
		return undefinedCell
	}
	switch v := row[i].(type) {
	case nil:
		return "null"
	case string:
		return v
	case float64:
		return formatNumber(v)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// cellNumber coerces a cell the way the sheet script's Number() does:
// blanks and null are zero, unparsable or missing cells are NaN.
func cellNumber(row []any, i int) models.Number {
	if i >= len(row) {
		return models.NaN()
	}
	switch v := row[i].(type) {
	case nil:
		return 0
	case float64:
		return models.Number(v)
	case int:
		return models.Number(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case json.Number:
		return parseNumber(v.String())
	case string:
		return parseNumber(v)
	default:
		return models.NaN()
	}
}

func parseNumber(s string) models.Number {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return models.NaN()
	}
	return models.Number(f)
}

// formatNumber renders f like the script's String(): plain digits for
// magnitudes in [1e-6, 1e21), exponent form otherwise.
func formatNumber(f float64) string {
	abs := math.Abs(f)
	if abs == 0 || math.IsNaN(f) || math.IsInf(f, 0) || (abs >= 1e-6 && abs < 1e21) {
		return models.Number(f).String()
	}
	s := strconv.FormatFloat(f, 'e', -1, 64)
	mant, exp, _ := strings.Cut(s, "e")
	sign := exp[:1]
	digits := strings.TrimLeft(exp[1:], "0")
	return mant + "e" + sign + digits
}
