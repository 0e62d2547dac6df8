package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/storystudio/ledger/internal/ledger"
	"github.com/storystudio/ledger/internal/models"
)

// prompter reads answers line by line from the shell's input.
type prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// ask prints label and returns the trimmed answer. ok is false at end of input.
func (p *prompter) ask(label string) (answer string, ok bool) {
	fmt.Fprint(p.out, label)
	if !p.scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(p.scanner.Text()), true
}

// promptDraft asks for the fields of a new transaction.
func (p *prompter) promptDraft() (ledger.Draft, error) {
	var d ledger.Draft

	typ, ok := p.ask("Type (income/expense) [income]: ")
	if !ok {
		return d, io.EOF
	}
	switch strings.ToLower(typ) {
	case "", "i", "income":
		d.Type = models.Income
	case "e", "expense":
		d.Type = models.Expense
	default:
		return d, fmt.Errorf("%w: unknown type %q", ledger.ErrInvalidInput, typ)
	}

	if d.Description, ok = p.ask("Description: "); !ok {
		return d, io.EOF
	}

	amount, ok := p.ask("Unit price: ")
	if !ok {
		return d, io.EOF
	}
	f, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return d, fmt.Errorf("%w: amount %q is not a number", ledger.ErrInvalidInput, amount)
	}
	d.Amount = f

	qty, ok := p.ask("Quantity [1]: ")
	if !ok {
		return d, io.EOF
	}
	d.Quantity = 1
	if qty != "" {
		if d.Quantity, err = strconv.Atoi(qty); err != nil {
			return d, fmt.Errorf("%w: quantity %q is not a whole number", ledger.ErrInvalidInput, qty)
		}
	}

	if d.CustomerName, ok = p.ask("Customer (optional): "); !ok {
		return d, io.EOF
	}
	return d, nil
}

// promptUser asks for the fields of a new account.
func (p *prompter) promptUser() (ledger.NewUser, error) {
	var (
		nu ledger.NewUser
		ok bool
	)
	if nu.Name, ok = p.ask("Name: "); !ok {
		return nu, io.EOF
	}
	if nu.Email, ok = p.ask("Email: "); !ok {
		return nu, io.EOF
	}
	if nu.Password, ok = p.ask("Password: "); !ok {
		return nu, io.EOF
	}
	role, ok := p.ask("Role (admin/viewer) [admin]: ")
	if !ok {
		return nu, io.EOF
	}
	nu.Role = models.Role(strings.ToLower(role))
	return nu, nil
}
