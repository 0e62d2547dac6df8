// Package syncer decides when the client talks to the sheet endpoint: it
// debounces saves after local changes, runs loads on session start and on
// demand, and drives the transient status indicator.
//
// Loads and saves are not serialized against each other. If a manual load
// races a dispatched save, whichever response arrives last wins locally and
// whichever write arrives last wins remotely. The model assumes one writer
// per endpoint.
package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/storystudio/ledger/internal/models"
	"github.com/storystudio/ledger/internal/sheet"
)

const (
	// DefaultDebounce is how long the scheduler waits for edits to settle before saving.
	DefaultDebounce = 2 * time.Second
	// DefaultResetAfter is how long Success and Error stay visible.
	DefaultResetAfter = 3 * time.Second
)

// Remote is the sheet endpoint as seen by the scheduler.
type Remote interface {
	Load(ctx context.Context, endpoint string) (models.Dataset, error)
	Save(ctx context.Context, endpoint string, ds models.Dataset) error
}

// Timer is a cancellable scheduled task.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run after d. time.AfterFunc satisfies it through an adapter.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Scheduler owns the timing policy for loads and saves against one endpoint at a time.
type Scheduler struct {
	remote     Remote
	log        *zap.Logger
	debounce   time.Duration
	resetAfter time.Duration
	afterFunc  AfterFunc
	now        func() time.Time

	onLoaded func(models.Dataset)
	onStatus func(Status)
	onSynced func(time.Time)

	mu         sync.Mutex
	status     Status
	stopped    bool
	loading    bool
	pending    Timer
	pendingGen uint64
	pendingURL string
	pendingDS  models.Dataset
	reset      Timer
	resetGen   uint64
	inflight   sync.WaitGroup
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Scheduler) { s.log = log }
}

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(s *Scheduler) { s.debounce = d }
}

// WithResetAfter overrides DefaultResetAfter.
func WithResetAfter(d time.Duration) Option {
	return func(s *Scheduler) { s.resetAfter = d }
}

// WithAfterFunc replaces the timer factory.
func WithAfterFunc(f AfterFunc) Option {
	return func(s *Scheduler) { s.afterFunc = f }
}

// WithClock replaces time.Now for LastSync stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// OnLoaded registers the handler that applies a successful load to local state.
func OnLoaded(f func(models.Dataset)) Option {
	return func(s *Scheduler) { s.onLoaded = f }
}

// OnStatus registers a status observer. It is called without locks held.
func OnStatus(f func(Status)) Option {
	return func(s *Scheduler) { s.onStatus = f }
}

// OnSynced registers a callback invoked with the completion time of every
// successful load or save.
func OnSynced(f func(time.Time)) Option {
	return func(s *Scheduler) { s.onSynced = f }
}

// New creates a Scheduler for remote.
func New(remote Remote, opts ...Option) *Scheduler {
	s := &Scheduler{
		remote:     remote,
		log:        zap.NewNop(),
		debounce:   DefaultDebounce,
		resetAfter: DefaultResetAfter,
		afterFunc:  realAfterFunc,
		now:        time.Now,
		onLoaded:   func(models.Dataset) {},
		onStatus:   func(Status) {},
		onSynced:   func(time.Time) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Status returns the current indicator state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Notify records that local state changed. Any save armed earlier is
// cancelled and a new one is armed carrying ds, so a burst of edits results
// in exactly one save of the last state. An empty endpoint only cancels.
func (s *Scheduler) Notify(endpoint string, ds models.Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.cancelPendingLocked()
	if endpoint == "" {
		return
	}

	s.pendingGen++
	gen := s.pendingGen
	s.pendingURL = endpoint
	s.pendingDS = cloneDataset(ds)
	s.pending = s.afterFunc(s.debounce, func() { s.fire(gen) })
}

// Flush dispatches an armed save immediately instead of waiting for the
// debounce window. It returns the save error, or nil when nothing was armed.
func (s *Scheduler) Flush() error {
	s.mu.Lock()
	if s.pending == nil || s.stopped {
		s.mu.Unlock()
		return nil
	}
	endpoint, ds := s.takePendingLocked()
	s.inflight.Add(1)
	s.mu.Unlock()

	return s.save(endpoint, ds)
}

// Load fetches the remote dataset and hands it to the OnLoaded handler. Only
// one load runs at a time; a call made while another is in flight returns
// false without contacting the endpoint.
func (s *Scheduler) Load(ctx context.Context, endpoint string) (bool, error) {
	s.mu.Lock()
	if s.stopped || s.loading || endpoint == "" {
		s.mu.Unlock()
		return false, nil
	}
	s.loading = true
	s.inflight.Add(1)
	s.setStatusLocked(Loading)
	s.mu.Unlock()
	s.onStatus(Loading)
	defer s.inflight.Done()

	ds, err := s.remote.Load(ctx, endpoint)
	if err == nil {
		s.onLoaded(ds)
		s.onSynced(s.now())
		s.log.Info("sheet load finished",
			zap.Int("transactions", len(ds.Transactions)),
			zap.Int("users", len(ds.Users)),
		)
	} else {
		s.logFailure("sheet load failed", endpoint, err)
	}

	s.mu.Lock()
	s.loading = false
	st := s.finishLocked(err)
	s.mu.Unlock()
	s.onStatus(st)

	return true, err
}

// Stop cancels armed timers. Dispatched requests run to completion; use Wait
// to block until they do.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.cancelPendingLocked()
	if s.reset != nil {
		s.reset.Stop()
		s.reset = nil
	}
}

// Wait blocks until every dispatched load and save has finished.
func (s *Scheduler) Wait() {
	s.inflight.Wait()
}

func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	if s.stopped || s.pending == nil || gen != s.pendingGen {
		s.mu.Unlock()
		return
	}
	endpoint, ds := s.takePendingLocked()
	s.inflight.Add(1)
	s.mu.Unlock()

	_ = s.save(endpoint, ds)
}

// save runs one dispatched save. The caller has already counted it in inflight.
func (s *Scheduler) save(endpoint string, ds models.Dataset) error {
	defer s.inflight.Done()

	s.mu.Lock()
	s.setStatusLocked(Saving)
	s.mu.Unlock()
	s.onStatus(Saving)

	err := s.remote.Save(context.Background(), endpoint, ds)
	if err == nil {
		s.onSynced(s.now())
		s.log.Info("sheet save finished",
			zap.Int("transactions", len(ds.Transactions)),
			zap.Int("users", len(ds.Users)),
		)
	} else {
		s.logFailure("sheet save failed", endpoint, err)
	}

	s.mu.Lock()
	st := s.finishLocked(err)
	s.mu.Unlock()
	s.onStatus(st)
	return err
}

func (s *Scheduler) takePendingLocked() (string, models.Dataset) {
	s.pending.Stop()
	s.pending = nil
	s.pendingGen++
	endpoint, ds := s.pendingURL, s.pendingDS
	s.pendingURL, s.pendingDS = "", models.Dataset{}
	return endpoint, ds
}

func (s *Scheduler) cancelPendingLocked() {
	if s.pending == nil {
		return
	}
	s.pending.Stop()
	s.pending = nil
	s.pendingGen++
	s.pendingURL, s.pendingDS = "", models.Dataset{}
}

func (s *Scheduler) finishLocked(err error) Status {
	st := Success
	if err != nil {
		st = Error
	}
	s.setStatusLocked(st)
	return st
}

// setStatusLocked records st and, for terminal states, arms the auto-reset to Idle.
func (s *Scheduler) setStatusLocked(st Status) {
	s.status = st
	if s.reset != nil {
		s.reset.Stop()
		s.reset = nil
	}
	s.resetGen++
	if (st != Success && st != Error) || s.stopped {
		return
	}
	gen := s.resetGen
	s.reset = s.afterFunc(s.resetAfter, func() {
		s.mu.Lock()
		if gen != s.resetGen {
			s.mu.Unlock()
			return
		}
		s.status = Idle
		s.reset = nil
		s.mu.Unlock()
		s.onStatus(Idle)
	})
}

func (s *Scheduler) logFailure(msg, endpoint string, err error) {
	fields := []zap.Field{
		zap.String("endpoint", endpoint),
		zap.String("kind", FailureKind(err)),
		zap.Error(err),
	}
	if errors.Is(err, sheet.ErrUnexpectedHTML) {
		fields = append(fields, zap.String("hint", sheet.HTMLHint))
	}
	s.log.Error(msg, fields...)
}

// FailureKind names the failure class of a sheet error for logs and diagnostics.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, sheet.ErrUnexpectedHTML):
		return "unexpected_html"
	case errors.Is(err, sheet.ErrMalformedPayload):
		return "malformed_payload"
	case errors.Is(err, sheet.ErrRemoteRejected):
		return "remote_rejected"
	case errors.Is(err, sheet.ErrUnreachable):
		return "unreachable"
	default:
		return "unknown"
	}
}

func cloneDataset(ds models.Dataset) models.Dataset {
	return models.Dataset{
		Transactions: append([]models.Transaction(nil), ds.Transactions...),
		Users:        append([]models.User(nil), ds.Users...),
	}
}
