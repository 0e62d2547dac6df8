package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/shopspring/decimal"

	"github.com/storystudio/ledger/internal/export"
	"github.com/storystudio/ledger/internal/ledger"
	"github.com/storystudio/ledger/internal/models"
)

// commands lists every shell command with its usage line.
var commands = []struct {
	name  string
	usage string
}{
	{"help", "help"},
	{"login", "login [email]"},
	{"logout", "logout"},
	{"whoami", "whoami"},
	{"add", "add"},
	{"list", "list"},
	{"invoice", "invoice <id>"},
	{"delete", "delete <id>"},
	{"stats", "stats"},
	{"export", "export [file]"},
	{"users", "users"},
	{"adduser", "adduser"},
	{"deluser", "deluser <id>"},
	{"sheet", "sheet [url]"},
	{"test", "test"},
	{"sync", "sync"},
	{"status", "status"},
	{"exit", "exit"},
}

// shell is the interactive bookkeeping console.
type shell struct {
	book   *ledger.Book
	in     *bufio.Scanner
	out    io.Writer
	prompt *prompter
	now    func() time.Time
}

func newShell(book *ledger.Book, in io.Reader, out io.Writer) *shell {
	scanner := bufio.NewScanner(in)
	return &shell{
		book:   book,
		in:     scanner,
		out:    out,
		prompt: &prompter{scanner: scanner, out: out},
		now:    time.Now,
	}
}

// run reads commands until exit, end of input or ctx is done.
func (s *shell) run(ctx context.Context) {
	for ctx.Err() == nil {
		fmt.Fprint(s.out, s.promptLabel())
		if !s.in.Scan() {
			return
		}
		args := strings.Fields(s.in.Text())
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" || args[0] == "quit" {
			fmt.Fprintln(s.out, "Bye")
			return
		}
		if err := s.exec(ctx, args); err != nil {
			fmt.Fprintln(s.out, "Error:", describe(err))
		}
	}
}

func (s *shell) promptLabel() string {
	if sess := s.book.Session(); sess != nil {
		return fmt.Sprintf("story(%s)> ", sess.User().Email)
	}
	return "story> "
}

func (s *shell) exec(ctx context.Context, args []string) error {
	switch args[0] {
	case "help":
		s.help()
	case "login":
		return s.login(args[1:])
	case "logout":
		if err := s.book.Logout(); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "Logged out")
	case "whoami":
		sess := s.book.Session()
		if sess == nil {
			return ledger.ErrNoSession
		}
		u := sess.User()
		fmt.Fprintf(s.out, "%s <%s> (%s)\n", u.Name, u.Email, u.Role)
	case "add":
		return s.add()
	case "list":
		return s.list()
	case "invoice":
		if len(args) < 2 {
			return usageError("invoice")
		}
		return s.invoice(args[1])
	case "delete":
		if len(args) < 2 {
			return usageError("delete")
		}
		if err := s.book.DeleteTransaction(args[1]); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "Transaction deleted")
	case "stats":
		return s.stats()
	case "export":
		return s.export(args[1:])
	case "users":
		return s.users()
	case "adduser":
		return s.addUser()
	case "deluser":
		if len(args) < 2 {
			return usageError("deluser")
		}
		if err := s.book.DeleteUser(args[1]); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "User deleted")
	case "sheet":
		return s.sheet(args[1:])
	case "test":
		ok, err := s.book.TestConnection(ctx)
		if err != nil {
			return err
		}
		if ok {
			fmt.Fprintln(s.out, "Connection OK")
		} else {
			fmt.Fprintln(s.out, "Connection failed; check the URL and the deployment's access settings")
		}
	case "sync":
		started, err := s.book.Sync(ctx)
		if err != nil {
			return err
		}
		if !started {
			fmt.Fprintln(s.out, "A sync is already running")
			return nil
		}
		fmt.Fprintln(s.out, "Synced from sheet")
	case "status":
		s.status()
	default:
		msg := fmt.Sprintf("unknown command %q", args[0])
		if guess := suggest(args[0]); guess != "" {
			msg += fmt.Sprintf("; did you mean %q?", guess)
		}
		return errors.New(msg + " Type 'help' for a list of commands.")
	}
	return nil
}

func (s *shell) help() {
	fmt.Fprintln(s.out, "Available commands:")
	for _, c := range commands {
		fmt.Fprintln(s.out, "  "+c.usage)
	}
}

func (s *shell) login(args []string) error {
	var (
		email string
		ok    bool
	)
	if len(args) > 0 {
		email = args[0]
	} else if email, ok = s.prompt.ask("Email: "); !ok {
		return io.EOF
	}
	password, ok := s.prompt.ask("Password: ")
	if !ok {
		return io.EOF
	}
	sess, err := s.book.Login(email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Welcome, %s\n", sess.User().Name)
	return nil
}

func (s *shell) add() error {
	if sess := s.book.Session(); sess == nil {
		return ledger.ErrNoSession
	} else if !sess.CanEdit() {
		return ledger.ErrForbidden
	}
	d, err := s.prompt.promptDraft()
	if err != nil {
		return err
	}
	t, err := s.book.AddTransaction(d)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Added %s (%s)\n", t.InvoiceNumber, t.ID)
	return nil
}

func (s *shell) list() error {
	txs, err := s.book.Transactions()
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		fmt.Fprintln(s.out, "No transactions")
		return nil
	}
	tw := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INVOICE\tDATE\tTYPE\tDESCRIPTION\tTOTAL\tCUSTOMER\tID")
	for _, t := range txs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.InvoiceNumber, t.Date, t.Type, t.Description,
			money(models.Number(t.Total())), t.CustomerName, t.ID)
	}
	return tw.Flush()
}

func (s *shell) invoice(id string) error {
	inv, err := s.book.Invoice(id)
	if err != nil {
		return err
	}
	kind := "INVOICE"
	if inv.Type == models.Expense {
		kind = "EXPENSE VOUCHER"
	}
	fmt.Fprintf(s.out, "%s %s\n", kind, inv.Number)
	fmt.Fprintf(s.out, "Date:      %s\n", inv.Date)
	fmt.Fprintf(s.out, "Customer:  %s\n", inv.Customer)
	fmt.Fprintf(s.out, "Item:      %s\n", inv.Description)
	fmt.Fprintf(s.out, "Unit:      %s\n", inv.UnitPrice.StringFixed(2))
	fmt.Fprintf(s.out, "Quantity:  %s\n", inv.Quantity.String())
	fmt.Fprintf(s.out, "Total:     %s\n", inv.Total.StringFixed(2))
	return nil
}

func (s *shell) stats() error {
	st, err := s.book.Stats()
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Income:   %s\n", st.TotalIncome.StringFixed(2))
	fmt.Fprintf(s.out, "Expenses: %s\n", st.TotalExpense.StringFixed(2))
	fmt.Fprintf(s.out, "Net:      %s\n", st.NetProfit.StringFixed(2))
	if st.Skipped > 0 {
		fmt.Fprintf(s.out, "(%d entries with non-numeric amounts were skipped)\n", st.Skipped)
	}
	return nil
}

func (s *shell) export(args []string) error {
	txs, err := s.book.Transactions()
	if err != nil {
		return err
	}
	name := export.FileName(s.now())
	if len(args) > 0 {
		name = args[0]
	}
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if err := export.WriteCSV(f, txs); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	fmt.Fprintf(s.out, "Exported %d transactions to %s\n", len(txs), name)
	return nil
}

func (s *shell) users() error {
	users, err := s.book.Users()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tEMAIL\tROLE\tID")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.Name, u.Email, u.Role, u.ID)
	}
	return tw.Flush()
}

func (s *shell) addUser() error {
	if sess := s.book.Session(); sess == nil {
		return ledger.ErrNoSession
	} else if !sess.CanAdminister() {
		return ledger.ErrForbidden
	}
	nu, err := s.prompt.promptUser()
	if err != nil {
		return err
	}
	u, err := s.book.AddUser(nu)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Added %s (%s)\n", u.Email, u.ID)
	return nil
}

func (s *shell) sheet(args []string) error {
	if len(args) == 0 {
		cfg := s.book.SyncConfig()
		if cfg.SheetURL == "" {
			fmt.Fprintln(s.out, "No sheet bound")
		} else {
			fmt.Fprintln(s.out, cfg.SheetURL)
		}
		return nil
	}
	raw := strings.Join(args, " ")
	if raw == `""` || raw == "none" {
		raw = ""
	}
	url, err := s.book.SetSheetURL(raw)
	if err != nil {
		return err
	}
	if url == "" {
		fmt.Fprintln(s.out, "Sheet unbound")
	} else {
		fmt.Fprintln(s.out, "Sheet set to", url)
	}
	return nil
}

func (s *shell) status() {
	cfg := s.book.SyncConfig()
	fmt.Fprintln(s.out, "Sync:", s.book.SyncStatus())
	if cfg.LastSync != nil {
		fmt.Fprintln(s.out, "Last sync:", cfg.LastSync.Local().Format(time.DateTime))
	} else {
		fmt.Fprintln(s.out, "Last sync: never")
	}
}

// suggest returns the command closest to name, if any is within two edits.
func suggest(name string) string {
	best, bestDist := "", 3
	for _, c := range commands {
		if d := levenshtein.ComputeDistance(name, c.name); d < bestDist {
			best, bestDist = c.name, d
		}
	}
	return best
}

func usageError(name string) error {
	for _, c := range commands {
		if c.name == name {
			return fmt.Errorf("usage: %s", c.usage)
		}
	}
	return fmt.Errorf("usage: %s", name)
}

func money(n models.Number) string {
	if !n.IsFinite() {
		return "n/a"
	}
	return decimal.NewFromFloat(float64(n)).StringFixed(2)
}

// describe turns ledger errors into short messages for the console.
func describe(err error) string {
	switch {
	case errors.Is(err, ledger.ErrNoSession):
		return "please log in first"
	case errors.Is(err, ledger.ErrForbidden):
		return "your role does not allow this"
	case errors.Is(err, ledger.ErrInvalidCredentials):
		return "wrong email or password"
	case errors.Is(err, io.EOF):
		return "input closed"
	}
	return err.Error()
}
