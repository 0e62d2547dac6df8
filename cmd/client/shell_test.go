package main

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storystudio/ledger/internal/client/storage"
	"github.com/storystudio/ledger/internal/ledger"
	"github.com/storystudio/ledger/internal/models"
)

type offlineRemote struct{}

var errOffline = errors.New("offline")

func (offlineRemote) Load(context.Context, string) (models.Dataset, error) {
	return models.Dataset{}, errOffline
}

func (offlineRemote) Save(context.Context, string, models.Dataset) error { return errOffline }

func (offlineRemote) Initialize(context.Context, string) bool { return false }

func runShell(t *testing.T, input string) string {
	t.Helper()
	cache, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	book, err := ledger.Open(cache, offlineRemote{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = book.Close() })

	var out strings.Builder
	sh := newShell(book, strings.NewReader(input), &out)
	sh.now = func() time.Time { return time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC) }
	sh.run(context.Background())
	return out.String()
}

func TestShell_Help(t *testing.T) {
	out := runShell(t, "help\nexit\n")
	assert.Contains(t, out, "Available commands:")
	assert.Contains(t, out, "invoice <id>")
	assert.Contains(t, out, "Bye")
}

func TestShell_UnknownCommandSuggests(t *testing.T) {
	out := runShell(t, "lst\n")
	assert.Contains(t, out, `unknown command "lst"; did you mean "list"?`)

	out = runShell(t, "frobnicate\n")
	assert.Contains(t, out, `unknown command "frobnicate"`)
	assert.NotContains(t, out, "did you mean")
}

func TestShell_RequiresLogin(t *testing.T) {
	out := runShell(t, "list\nstats\n")
	assert.Equal(t, 2, strings.Count(out, "Error: please log in first"))
}

func TestShell_LoginWhoamiLogout(t *testing.T) {
	out := runShell(t, "login admin@story.com\n546884\nwhoami\nlogout\nwhoami\n")
	assert.Contains(t, out, "Welcome,")
	assert.Contains(t, out, "<admin@story.com> (super_admin)")
	assert.Contains(t, out, "story(admin@story.com)> ")
	assert.Contains(t, out, "Logged out")
	assert.Contains(t, out, "Error: please log in first")
}

func TestShell_WrongPassword(t *testing.T) {
	out := runShell(t, "login\nadmin@story.com\nnope\n")
	assert.Contains(t, out, "Error: wrong email or password")
}

func TestShell_AddAndList(t *testing.T) {
	out := runShell(t, strings.Join([]string{
		"login ahmed@story.com", "123",
		"add", "income", "Logo design", "250", "2", "Acme",
		"list",
	}, "\n")+"\n")
	assert.Contains(t, out, "Added ST-")
	assert.Contains(t, out, "Logo design")
	assert.Contains(t, out, "500.00")
}

func TestShell_AddRejectsBadAmount(t *testing.T) {
	out := runShell(t, "login ahmed@story.com\n123\nadd\nexpense\nPaper\nabc\n")
	assert.Contains(t, out, `Error: invalid input: amount "abc" is not a number`)
}

func TestShell_ViewerCannotAdd(t *testing.T) {
	out := runShell(t, "login viewer@story.com\n123\nadd\nusers\n")
	assert.Equal(t, 2, strings.Count(out, "Error: your role does not allow this"))
	assert.NotContains(t, out, "Type (income/expense)")
}

func TestShell_Invoice(t *testing.T) {
	out := runShell(t, "login viewer@story.com\n123\ninvoice t1\ninvoice\n")
	assert.Contains(t, out, "INVOICE ST-")
	assert.Contains(t, out, "Total:")
	assert.Contains(t, out, "Error: usage: invoice <id>")
}

func TestShell_Export(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	out := runShell(t, "login viewer@story.com\n123\nexport "+path+"\n")
	assert.Contains(t, out, "Exported")

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "\uFEFFID,Invoice Number,"))
}

func TestShell_SheetAndStatus(t *testing.T) {
	out := runShell(t, "login admin@story.com\n546884\nsheet\nsheet https://script.google.com/macros/s/XYZ/edit?usp=sharing\nstatus\n")
	assert.Contains(t, out, "No sheet bound")
	assert.Contains(t, out, "Sheet set to https://script.google.com/macros/s/XYZ/exec")
	assert.Contains(t, out, "Last sync: never")
}

func TestShell_UsersAndAddUser(t *testing.T) {
	out := runShell(t, strings.Join([]string{
		"login admin@story.com", "546884",
		"adduser", "Sara", "sara@story.com", "pw", "viewer",
		"users",
	}, "\n")+"\n")
	assert.Contains(t, out, "Added sara@story.com")
	assert.Contains(t, out, "sara@story.com")
	assert.Contains(t, out, "viewer")
}

func TestShell_EndOfInputDuringPrompt(t *testing.T) {
	out := runShell(t, "login")
	assert.Contains(t, out, "Error: input closed")
}

func TestSuggest(t *testing.T) {
	assert.Equal(t, "stats", suggest("stat"))
	assert.Equal(t, "delete", suggest("delet"))
	assert.Equal(t, "", suggest("xyzzyq"))
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "12.50", money(12.5))
	assert.Equal(t, "n/a", money(models.Number(math.NaN())))
}
