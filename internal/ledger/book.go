// Package ledger holds the in-memory books: transactions, users, the active
// session and the sheet binding. Every change is written to the local cache
// and, while a session is active and a sheet is bound, handed to the sync
// scheduler.
//
// Loads replace both collections wholesale, except that an empty remote
// collection never replaces a non-empty local one; the local data is then
// saved back to the sheet. A client that deleted every row elsewhere will see
// those rows return. Loads and saves are not ordered against each other, so
// the last request to reach the sheet wins.
package ledger

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storystudio/ledger/internal/client/syncer"
	"github.com/storystudio/ledger/internal/models"
	"github.com/storystudio/ledger/internal/sheet"
)

const dateLayout = "2006-01-02"

// Cache persists the books between runs.
type Cache interface {
	Read() (*models.Snapshot, error)
	Write(models.Snapshot) error
	ClearSession() error
}

// Remote is the sheet endpoint.
type Remote interface {
	syncer.Remote
	Initialize(ctx context.Context, endpoint string) bool
}

// Session is the logged-in user. It is read-only for callers.
type Session struct {
	user    models.User
	started time.Time
}

// User returns the session's user without the password.
func (s *Session) User() models.User {
	u := s.user
	u.Password = ""
	return u
}

// Role returns the session's role.
func (s *Session) Role() models.Role { return s.user.Role }

// Started returns when the session began.
func (s *Session) Started() time.Time { return s.started }

// Book is the application state. It is safe for concurrent use.
type Book struct {
	cache  Cache
	remote Remote
	sched  *syncer.Scheduler
	log    *zap.Logger
	now    func() time.Time
	newID  func() string

	mu           sync.RWMutex
	transactions []models.Transaction
	users        []models.User
	config       models.SyncConfig
	session      *Session
	loaded       bool

	loads sync.WaitGroup
}

type options struct {
	log       *zap.Logger
	now       func() time.Time
	newID     func() string
	sheetURL  string
	seed      bool
	schedOpts []syncer.Option
}

// Option configures Open.
type Option func(*options)

// WithLogger sets the logger for the book and its scheduler.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator replaces the uuid generator used for new records.
func WithIDGenerator(f func() string) Option {
	return func(o *options) { o.newID = f }
}

// WithSheetURL binds a sheet when the cache has no binding yet.
func WithSheetURL(raw string) Option {
	return func(o *options) { o.sheetURL = raw }
}

// WithoutSeed starts an empty cache with no users and no sample transactions.
func WithoutSeed() Option {
	return func(o *options) { o.seed = false }
}

// WithSchedulerOptions passes options through to the sync scheduler.
func WithSchedulerOptions(opts ...syncer.Option) Option {
	return func(o *options) { o.schedOpts = append(o.schedOpts, opts...) }
}

// Open restores the books from cache. Missing collections are seeded, and a
// cached session is resumed, which starts a load from the bound sheet.
func Open(cache Cache, remote Remote, opts ...Option) (*Book, error) {
	o := options{
		log:   zap.NewNop(),
		now:   time.Now,
		newID: uuid.NewString,
		seed:  true,
	}
	for _, opt := range opts {
		opt(&o)
	}

	b := &Book{
		cache:  cache,
		remote: remote,
		log:    o.log,
		now:    o.now,
		newID:  o.newID,
	}

	snap, err := cache.Read()
	if err != nil {
		return nil, fmt.Errorf("read cache: %w", err)
	}
	if snap == nil {
		snap = &models.Snapshot{}
	}

	b.transactions = snap.Transactions
	if b.transactions == nil && o.seed {
		b.transactions = SampleTransactions()
	}
	b.users = snap.Users
	if b.users == nil && o.seed {
		b.users = DefaultUsers()
	}
	if snap.Config != nil {
		b.config = *snap.Config
	} else {
		b.config.SheetURL = sheet.Normalize(o.sheetURL)
	}

	schedOpts := append([]syncer.Option{
		syncer.WithLogger(o.log),
		syncer.WithClock(o.now),
	}, o.schedOpts...)
	schedOpts = append(schedOpts,
		syncer.OnLoaded(b.applyRemote),
		syncer.OnSynced(b.markSynced),
	)
	b.sched = syncer.New(remote, schedOpts...)

	b.mu.Lock()
	b.loaded = true
	b.persistLocked()
	var endpoint string
	if snap.Session != nil {
		endpoint = b.beginSessionLocked(*snap.Session)
		b.log.Info("session restored", zap.String("user", snap.Session.Email))
	}
	b.mu.Unlock()

	b.startLoad(endpoint)
	return b, nil
}

// Login starts a session for the first user matching email and password.
func (b *Book) Login(email, password string) (*Session, error) {
	b.mu.Lock()
	if b.session != nil {
		b.mu.Unlock()
		return nil, ErrSessionActive
	}
	var found *models.User
	for i := range b.users {
		if b.users[i].Email == email && b.users[i].Password == password {
			found = &b.users[i]
			break
		}
	}
	if found == nil {
		b.mu.Unlock()
		b.log.Warn("login rejected", zap.String("email", email))
		return nil, ErrInvalidCredentials
	}
	endpoint := b.beginSessionLocked(*found)
	b.persistLocked()
	s := b.session
	b.mu.Unlock()

	b.log.Info("login", zap.String("user", email), zap.String("role", string(s.Role())))
	b.startLoad(endpoint)
	return s, nil
}

// Logout ends the session. A save armed by the session's last edits is
// dispatched before the session is cleared from cache.
func (b *Book) Logout() error {
	b.mu.Lock()
	if b.session == nil {
		b.mu.Unlock()
		return ErrNoSession
	}
	b.session = nil
	b.mu.Unlock()

	if err := b.sched.Flush(); err != nil {
		b.log.Warn("pending save failed during logout", zap.Error(err))
	}
	if err := b.cache.ClearSession(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Session returns the active session or nil.
func (b *Book) Session() *Session {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.session
}

// beginSessionLocked installs the session and returns the endpoint the
// session-start load should use.
func (b *Book) beginSessionLocked(u models.User) string {
	b.session = &Session{user: u, started: b.now()}
	return b.config.SheetURL
}

func (b *Book) startLoad(endpoint string) {
	if endpoint == "" {
		return
	}
	b.loads.Add(1)
	go func() {
		defer b.loads.Done()
		_, _ = b.sched.Load(context.Background(), endpoint)
	}()
}

// Draft is the input for a new transaction.
type Draft struct {
	Type         models.TxType
	Description  string
	Amount       float64
	Quantity     int
	CustomerName string
}

// AddTransaction creates a transaction dated today with the next invoice
// number of the current year and puts it first in the list.
func (b *Book) AddTransaction(d Draft) (models.Transaction, error) {
	if err := d.validate(); err != nil {
		return models.Transaction{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.requireLocked(canEdit); err != nil {
		return models.Transaction{}, err
	}

	now := b.now()
	t := models.Transaction{
		ID:            b.newID(),
		Type:          d.Type,
		Description:   strings.TrimSpace(d.Description),
		Amount:        models.Number(d.Amount),
		Quantity:      models.Number(d.Quantity),
		Date:          now.Format(dateLayout),
		CustomerName:  strings.TrimSpace(d.CustomerName),
		InvoiceNumber: nextInvoiceNumber(b.transactions, now.Year()),
	}
	b.transactions = append([]models.Transaction{t}, b.transactions...)
	b.commitLocked()

	b.log.Info("transaction added", zap.String("id", t.ID), zap.String("invoice", t.InvoiceNumber))
	return t, nil
}

func (d Draft) validate() error {
	if d.Type != models.Income && d.Type != models.Expense {
		return fmt.Errorf("%w: type must be %q or %q", ErrInvalidInput, models.Income, models.Expense)
	}
	if strings.TrimSpace(d.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	if !(d.Amount > 0) || !models.Number(d.Amount).IsFinite() {
		return fmt.Errorf("%w: amount must be a positive number", ErrInvalidInput)
	}
	if d.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", ErrInvalidInput)
	}
	return nil
}

// nextInvoiceNumber returns ST-<year><seq> where seq is one more than the
// highest sequence already used in that year.
func nextInvoiceNumber(txs []models.Transaction, year int) string {
	prefix := "ST-" + strconv.Itoa(year)
	highest := 0
	for _, t := range txs {
		rest, ok := strings.CutPrefix(t.InvoiceNumber, prefix)
		if !ok || len(rest) < 4 {
			continue
		}
		if n, err := strconv.Atoi(rest); err == nil && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s%04d", prefix, highest+1)
}

// DeleteTransaction removes the transaction with id.
func (b *Book) DeleteTransaction(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.requireLocked(canEdit); err != nil {
		return err
	}
	for i, t := range b.transactions {
		if t.ID == id {
			b.transactions = append(b.transactions[:i:i], b.transactions[i+1:]...)
			b.commitLocked()
			b.log.Info("transaction deleted", zap.String("id", id))
			return nil
		}
	}
	return fmt.Errorf("transaction %s: %w", id, ErrNotFound)
}

// Transactions returns a copy of the list, newest first.
func (b *Book) Transactions() ([]models.Transaction, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.requireLocked(canView); err != nil {
		return nil, err
	}
	return append([]models.Transaction(nil), b.transactions...), nil
}

// Transaction returns one transaction by id.
func (b *Book) Transaction(id string) (models.Transaction, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.requireLocked(canView); err != nil {
		return models.Transaction{}, err
	}
	for _, t := range b.transactions {
		if t.ID == id {
			return t, nil
		}
	}
	return models.Transaction{}, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
}

// Stats summarizes the current transactions.
func (b *Book) Stats() (models.FinancialStats, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.requireLocked(canView); err != nil {
		return models.FinancialStats{}, err
	}
	return ComputeStats(b.transactions), nil
}

// Invoice builds the printable invoice for a transaction.
func (b *Book) Invoice(id string) (Invoice, error) {
	t, err := b.Transaction(id)
	if err != nil {
		return Invoice{}, err
	}
	return NewInvoice(t)
}

// NewUser is the input for AddUser.
type NewUser struct {
	Name     string
	Email    string
	Password string
	Role     models.Role
}

// Users lists the accounts. Only the super admin may see them.
func (b *Book) Users() ([]models.User, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.requireLocked(canManageUsers); err != nil {
		return nil, err
	}
	return append([]models.User(nil), b.users...), nil
}

// AddUser creates an admin or viewer account.
func (b *Book) AddUser(nu NewUser) (models.User, error) {
	nu.Name = strings.TrimSpace(nu.Name)
	nu.Email = strings.TrimSpace(nu.Email)
	if nu.Name == "" || nu.Email == "" || nu.Password == "" {
		return models.User{}, fmt.Errorf("%w: name, email and password are required", ErrInvalidInput)
	}
	if nu.Role == "" {
		nu.Role = models.Admin
	}
	if nu.Role != models.Admin && nu.Role != models.Viewer {
		return models.User{}, fmt.Errorf("%w: role must be %q or %q", ErrInvalidInput, models.Admin, models.Viewer)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.requireLocked(canManageUsers); err != nil {
		return models.User{}, err
	}
	for _, u := range b.users {
		if strings.EqualFold(u.Email, nu.Email) {
			return models.User{}, fmt.Errorf("%s: %w", nu.Email, ErrDuplicateEmail)
		}
	}

	u := models.User{
		ID:       b.newID(),
		Name:     nu.Name,
		Email:    nu.Email,
		Password: nu.Password,
		Role:     nu.Role,
	}
	b.users = append(b.users, u)
	b.commitLocked()

	b.log.Info("user added", zap.String("id", u.ID), zap.String("role", string(u.Role)))
	return u, nil
}

// DeleteUser removes an account. The super admin cannot remove their own.
func (b *Book) DeleteUser(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.requireLocked(canManageUsers); err != nil {
		return err
	}
	if b.session.user.ID == id {
		return fmt.Errorf("%w: cannot delete the logged-in account", ErrForbidden)
	}
	for i, u := range b.users {
		if u.ID == id {
			b.users = append(b.users[:i:i], b.users[i+1:]...)
			b.commitLocked()
			b.log.Info("user deleted", zap.String("id", id))
			return nil
		}
	}
	return fmt.Errorf("user %s: %w", id, ErrNotFound)
}

// SetSheetURL normalizes raw and binds it as the sync endpoint. An empty
// value unbinds the sheet and cancels any armed save.
func (b *Book) SetSheetURL(raw string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.requireLocked(canConfigure); err != nil {
		return "", err
	}
	b.config.SheetURL = sheet.Normalize(raw)
	b.commitLocked()

	b.log.Info("sheet endpoint set", zap.String("url", b.config.SheetURL))
	return b.config.SheetURL, nil
}

// SyncConfig returns the sheet binding.
func (b *Book) SyncConfig() models.SyncConfig {
	b.mu.RLock()
	defer b.mu.RUnlock()
	cfg := b.config
	if cfg.LastSync != nil {
		t := *cfg.LastSync
		cfg.LastSync = &t
	}
	return cfg
}

// Sync loads from the bound sheet now. It reports false when another load
// was already running.
func (b *Book) Sync(ctx context.Context) (bool, error) {
	endpoint, err := b.endpoint()
	if err != nil {
		return false, err
	}
	return b.sched.Load(ctx, endpoint)
}

// TestConnection checks that the bound sheet answers a load.
func (b *Book) TestConnection(ctx context.Context) (bool, error) {
	endpoint, err := b.endpoint()
	if err != nil {
		return false, err
	}
	return b.remote.Initialize(ctx, endpoint), nil
}

func (b *Book) endpoint() (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.requireLocked(canView); err != nil {
		return "", err
	}
	if b.config.SheetURL == "" {
		return "", ErrNoEndpoint
	}
	return b.config.SheetURL, nil
}

// SyncStatus returns the scheduler's indicator state.
func (b *Book) SyncStatus() syncer.Status {
	return b.sched.Status()
}

// Close dispatches an armed save, then stops the scheduler and waits for
// requests in flight.
func (b *Book) Close() error {
	b.loads.Wait()
	err := b.sched.Flush()
	b.sched.Stop()
	b.sched.Wait()
	if err != nil {
		return fmt.Errorf("final save: %w", err)
	}
	return nil
}

// applyRemote replaces local collections with a loaded dataset. An empty
// remote collection does not wipe a non-empty local one, so binding a fresh
// sheet pushes local data to it instead.
func (b *Book) applyRemote(ds models.Dataset) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(ds.Transactions) > 0 || len(b.transactions) == 0 {
		b.transactions = ds.Transactions
	}
	if len(ds.Users) > 0 || len(b.users) == 0 {
		b.users = ds.Users
	}
	if b.session != nil {
		b.refreshSessionLocked()
	}
	b.commitLocked()
}

// refreshSessionLocked keeps the session's user in step with a loaded user list.
func (b *Book) refreshSessionLocked() {
	for _, u := range b.users {
		if u.ID == b.session.user.ID {
			b.session = &Session{user: u, started: b.session.started}
			return
		}
	}
}

func (b *Book) markSynced(t time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.config.LastSync = &t
	b.persistLocked()
}

// commitLocked persists the books and arms a save when syncing is active.
func (b *Book) commitLocked() {
	b.persistLocked()
	if b.session == nil {
		return
	}
	b.sched.Notify(b.config.SheetURL, models.Dataset{
		Transactions: b.transactions,
		Users:        b.users,
	})
}

func (b *Book) persistLocked() {
	if !b.loaded || (len(b.transactions) == 0 && len(b.users) == 0) {
		return
	}
	snap := models.Snapshot{
		Transactions: b.transactions,
		Users:        b.users,
		Config:       &b.config,
	}
	if b.session != nil {
		u := b.session.user
		snap.Session = &u
	}
	if err := b.cache.Write(snap); err != nil {
		b.log.Error("cache write failed", zap.Error(err))
	}
}
