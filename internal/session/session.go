// Package session holds the pad passphrase for a bounded idle window.
//
// State lives in a temporary storage.Provider under the keys
// temporaryPassphrase, lastModified (unix milliseconds) and
// lockAfterSeconds. A passphrase whose lastModified is older than
// lockAfterSeconds is cleared. The manager keeps at most one expiry timer
// pending and every timer run re-reads state before acting, so a stale
// firing is harmless.
package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/hoverpad/hoverpad/internal/logger"
	"github.com/hoverpad/hoverpad/internal/storage"
)

var (
	// ErrLocked is returned when an operation needs the passphrase and none
	// is held.
	ErrLocked = errors.New("pad is locked")

	// ErrEmptyPassphrase is returned by Unlock for an empty passphrase.
	ErrEmptyPassphrase = errors.New("passphrase must not be empty")

	// ErrLockAfterTooLarge is returned by SetLockAfter for a timeout that
	// does not fit in a time.Duration.
	ErrLockAfterTooLarge = fmt.Errorf("lock timeout must be at most %d seconds", MaxLockAfterSeconds)
)

// MaxLockAfterSeconds is the longest idle timeout the manager accepts.
const MaxLockAfterSeconds = math.MaxInt64 / int64(time.Second)

// State is the lock state of a session.
type State int

const (
	Locked State = iota
	Unlocked
)

func (s State) String() string {
	if s == Unlocked {
		return "unlocked"
	}
	return "locked"
}

// Check is the outcome of one expiry check.
type Check struct {
	State State
	// Expired reports whether this check cleared the passphrase.
	Expired bool
	// Next is the delay of the scheduled follow-up check, zero if none.
	Next time.Duration
}

// Status describes the current session.
type Status struct {
	State        State
	LastModified time.Time
	LockAfter    time.Duration
	Remaining    time.Duration
}

// Timer is a pending scheduled call.
type Timer interface {
	Stop() bool
}

// Scheduler runs fn once after d.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) Timer
}

type timeScheduler struct{}

func (timeScheduler) Schedule(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithScheduler replaces time.AfterFunc.
func WithScheduler(s Scheduler) Option {
	return func(m *Manager) { m.scheduler = s }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithDefaultLockAfter is written by Unlock when no lock timeout is stored.
func WithDefaultLockAfter(seconds int64) Option {
	return func(m *Manager) { m.defaultLockAfter = seconds }
}

// WithOnLock registers a callback run when CheckExpiry, including timer
// runs, clears the passphrase.
func WithOnLock(fn func()) Option {
	return func(m *Manager) { m.onLock = fn }
}

// Manager owns the session state machine.
type Manager struct {
	store            storage.Provider
	now              func() time.Time
	scheduler        Scheduler
	logger           *logger.Logger
	defaultLockAfter int64
	onLock           func()

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	timer Timer
}

// NewManager creates a Manager over the temporary store.
func NewManager(store storage.Provider, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		now:       time.Now,
		scheduler: timeScheduler{},
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.ctx, m.cancel = context.WithCancel(context.Background())
	return m
}

// state is the decoded contents of the store.
type state struct {
	passphrase      string
	lastModified    int64
	hasLastModified bool
	lockAfter       int64
	hasLockAfter    bool
}

func (m *Manager) read(ctx context.Context) (state, error) {
	values, err := m.store.Get(ctx,
		storage.KeyTemporaryPassphrase,
		storage.KeyLastModified,
		storage.KeyLockAfterSeconds,
	)
	if err != nil {
		return state{}, fmt.Errorf("failed to read session: %w", err)
	}

	st := state{passphrase: values[storage.KeyTemporaryPassphrase]}
	st.lastModified, st.hasLastModified = storage.ParseInt(values[storage.KeyLastModified])
	st.lockAfter, st.hasLockAfter = storage.ParseInt(values[storage.KeyLockAfterSeconds])

	// Zero counts as unset for both.
	st.hasLastModified = st.hasLastModified && st.lastModified != 0
	st.hasLockAfter = st.hasLockAfter && st.lockAfter != 0
	if st.lockAfter > MaxLockAfterSeconds {
		st.lockAfter = MaxLockAfterSeconds
	}
	return st, nil
}

// Unlock stores the passphrase and starts the idle window.
func (m *Manager) Unlock(ctx context.Context, passphrase string) error {
	if passphrase == "" {
		return ErrEmptyPassphrase
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	items := map[string]*string{
		storage.KeyTemporaryPassphrase: storage.Value(passphrase),
		storage.KeyLastModified:        storage.FormatInt(m.now().UnixMilli()),
	}

	if m.defaultLockAfter > 0 {
		st, err := m.read(ctx)
		if err != nil {
			return err
		}
		if !st.hasLockAfter {
			items[storage.KeyLockAfterSeconds] = storage.FormatInt(m.defaultLockAfter)
		}
	}

	if err := m.store.Set(ctx, items); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	m.logger.Debug().Msg("session unlocked")

	_, _, err := m.check(ctx)
	return err
}

// CheckExpiry clears an expired passphrase, or schedules the next check
// for the moment the idle window would elapse.
func (m *Manager) CheckExpiry(ctx context.Context) (Check, error) {
	m.mu.Lock()
	c, _, err := m.check(ctx)
	m.mu.Unlock()

	if err == nil && c.Expired && m.onLock != nil {
		m.onLock()
	}
	return c, err
}

// check must be called with m.mu held.
func (m *Manager) check(ctx context.Context) (Check, state, error) {
	st, err := m.read(ctx)
	if err != nil {
		return Check{}, state{}, err
	}

	now := m.now().UnixMilli()

	switch {
	case st.passphrase != "" && st.hasLastModified:
		elapsed := now - st.lastModified
		if elapsed < 0 {
			elapsed = 0
		}
		if !st.hasLockAfter || elapsed > st.lockAfter*1000 {
			if err := m.clear(ctx); err != nil {
				return Check{}, state{}, err
			}
			m.logger.Info().
				Int64("elapsed_ms", elapsed).
				Int64("lock_after_seconds", st.lockAfter).
				Msg("session expired, passphrase cleared")
			return Check{State: Locked, Expired: true}, state{lockAfter: st.lockAfter, hasLockAfter: st.hasLockAfter}, nil
		}

		wait := time.Duration(st.lockAfter*1000-elapsed+1) * time.Millisecond
		m.schedule(wait)
		return Check{State: Unlocked, Next: wait}, st, nil

	case st.passphrase != "" && st.hasLockAfter:
		// No lastModified yet: whoever holds the passphrase will set it.
		wait := time.Duration(st.lockAfter) * time.Second
		m.schedule(wait)
		return Check{State: Unlocked, Next: wait}, st, nil

	case st.passphrase != "":
		return Check{State: Unlocked}, st, nil

	default:
		return Check{State: Locked}, st, nil
	}
}

// schedule must be called with m.mu held.
func (m *Manager) schedule(d time.Duration) {
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = m.scheduler.Schedule(d, m.fire)
	m.logger.Debug().Dur("in", d).Msg("next expiry check scheduled")
}

func (m *Manager) fire() {
	if m.ctx.Err() != nil {
		return
	}
	if _, err := m.CheckExpiry(m.ctx); err != nil {
		m.logger.Error().Err(err).Msg("expiry check failed")
	}
}

// clear must be called with m.mu held.
func (m *Manager) clear(ctx context.Context) error {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}

	err := m.store.Set(ctx, map[string]*string{
		storage.KeyTemporaryPassphrase: nil,
		storage.KeyLastModified:        nil,
	})
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Lock clears the passphrase regardless of timer state.
func (m *Manager) Lock(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.clear(ctx); err != nil {
		return err
	}
	m.logger.Debug().Msg("session locked")
	return nil
}

// Touch records activity, restarting the idle window.
func (m *Manager) Touch(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, _, err := m.check(ctx)
	if err != nil {
		return err
	}
	if c.State == Locked {
		return ErrLocked
	}

	err = m.store.Set(ctx, map[string]*string{
		storage.KeyLastModified: storage.FormatInt(m.now().UnixMilli()),
	})
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}

	_, _, err = m.check(ctx)
	return err
}

// Passphrase returns the held passphrase after checking expiry.
func (m *Manager) Passphrase(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, st, err := m.check(ctx)
	if err != nil {
		return "", err
	}
	if c.State == Locked {
		return "", ErrLocked
	}
	return st.passphrase, nil
}

// Status reports the session after checking expiry.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, st, err := m.check(ctx)
	if err != nil {
		return Status{}, err
	}

	s := Status{State: c.State}
	if st.hasLockAfter {
		s.LockAfter = time.Duration(st.lockAfter) * time.Second
	}
	if c.State == Unlocked && st.hasLastModified {
		s.LastModified = time.UnixMilli(st.lastModified)
		s.Remaining = c.Next
	}
	return s, nil
}

// SetLockAfter stores the idle timeout. Zero or negative removes it, which
// makes the next check clear any held passphrase.
func (m *Manager) SetLockAfter(ctx context.Context, seconds int64) error {
	if seconds > MaxLockAfterSeconds {
		return ErrLockAfterTooLarge
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var v *string
	if seconds > 0 {
		v = storage.FormatInt(seconds)
	}
	if err := m.store.Set(ctx, map[string]*string{storage.KeyLockAfterSeconds: v}); err != nil {
		return fmt.Errorf("failed to store lock timeout: %w", err)
	}

	_, _, err := m.check(ctx)
	return err
}

// Close stops the pending timer. The stored session is left as is.
func (m *Manager) Close() {
	m.cancel()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}
