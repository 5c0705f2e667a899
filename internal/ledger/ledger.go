// Package ledger owns the budget session state. Every mutation flows through
// one of its commands; each command applies a well-defined change, persists
// the whole document, and then notifies save hooks outside the lock. Reads
// hand out copies so projections never race with commands.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"budgetbook/internal/core"
	"budgetbook/internal/persist"
	"budgetbook/internal/storage"
)

// SaveHook runs after a local mutation has been persisted. The snapshot is a
// deep copy owned by the hook.
type SaveHook func(ctx context.Context, snapshot *core.State)

// Options tunes a ledger session. The zero value uses the wall clock.
type Options struct {
	Now func() time.Time
	// CurrentYear is the session year transactions without an explicit year
	// are counted under. Zero means the year of Now().
	CurrentYear int
}

// Ledger is the aggregate root for one budget document.
type Ledger struct {
	mu          sync.RWMutex
	state       *core.State
	store       storage.Store
	now         func() time.Time
	currentYear int
	saveHooks   []SaveHook
}

// errNoChange lets a command report that nothing was mutated: the update is
// treated as a success without a save or hook notification.
var errNoChange = errors.New("no change")

// Open loads the document from the store and runs load-time migrations,
// re-saving immediately when a migration changed anything. A missing or
// unreadable document starts an empty session rather than failing: losing a
// corrupt file beats refusing to start.
func Open(ctx context.Context, store storage.Store, defaults core.Defaults, opts Options) (*Ledger, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	currentYear := opts.CurrentYear
	if currentYear == 0 {
		currentYear = now().Year()
	}

	state, err := store.Load(ctx)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotFound):
		slog.InfoContext(ctx, "no saved document, starting empty")
		state = core.NewState()
	case errors.Is(err, persist.ErrCorruptDocument):
		slog.WarnContext(ctx, "saved document unreadable, starting empty", "error", err)
		state = core.NewState()
	default:
		return nil, fmt.Errorf("load document: %w", err)
	}

	l := &Ledger{
		state:       state,
		store:       store,
		now:         now,
		currentYear: currentYear,
	}

	changes := persist.Migrate(state, defaults, currentYear)
	if len(changes) > 0 {
		for _, change := range changes {
			slog.InfoContext(ctx, "document migration applied", "change", change)
		}
		if err := store.Save(ctx, state); err != nil {
			return nil, fmt.Errorf("save migrated document: %w", err)
		}
	}

	return l, nil
}

// AddSaveHook registers a hook invoked after every persisted mutation.
// ReplaceState does not fire hooks.
func (l *Ledger) AddSaveHook(h SaveHook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.saveHooks = append(l.saveHooks, h)
}

// CurrentYear is the session year used for transactions stored without one.
func (l *Ledger) CurrentYear() int {
	return l.currentYear
}

// update runs fn under the write lock and persists on success. Hooks are
// notified with a snapshot after the lock is released so a hook may call
// back into the ledger.
func (l *Ledger) update(ctx context.Context, fn func(s *core.State) error) error {
	l.mu.Lock()
	if err := fn(l.state); err != nil {
		l.mu.Unlock()
		if errors.Is(err, errNoChange) {
			return nil
		}
		return err
	}
	if err := l.store.Save(ctx, l.state); err != nil {
		l.mu.Unlock()
		return fmt.Errorf("save document: %w", err)
	}
	var snapshot *core.State
	hooks := make([]SaveHook, len(l.saveHooks))
	copy(hooks, l.saveHooks)
	if len(hooks) > 0 {
		snapshot = l.state.Clone()
	}
	l.mu.Unlock()
	for _, hook := range hooks {
		hook(ctx, snapshot)
	}
	return nil
}

// ReplaceState swaps in a complete document, used when a newer remote copy
// wins a sync cycle. Save hooks deliberately do not fire: the caller is the
// sync path itself and re-uploading what it just downloaded would loop.
func (l *Ledger) ReplaceState(ctx context.Context, s *core.State) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = s.Clone()
	if err := l.store.Save(ctx, l.state); err != nil {
		return fmt.Errorf("save replaced document: %w", err)
	}
	return nil
}

// Reload re-reads the document from the store, replacing in-memory state.
// It exists for long-running processes sharing a store with another writer:
// the writer migrated and saved the document, so no migration or save happens
// here and save hooks do not fire.
func (l *Ledger) Reload(ctx context.Context) error {
	state, err := l.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("reload document: %w", err)
	}
	l.mu.Lock()
	l.state = state
	l.mu.Unlock()
	return nil
}

// Snapshot returns a deep copy of the current state.
func (l *Ledger) Snapshot() *core.State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.Clone()
}

// Transactions returns a copy of all transactions in insertion order.
func (l *Ledger) Transactions() []core.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]core.Transaction, len(l.state.Transactions))
	copy(out, l.state.Transactions)
	for i := range out {
		if out[i].CheckDetails != nil {
			cd := *out[i].CheckDetails
			out[i].CheckDetails = &cd
		}
	}
	return out
}

// CheckItems returns a copy of all imported check items.
func (l *Ledger) CheckItems() []core.CheckItem {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]core.CheckItem, len(l.state.CheckItems))
	copy(out, l.state.CheckItems)
	return out
}

// MappingEntries returns the mapping table in insertion order.
func (l *Ledger) MappingEntries() []core.Mapping {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.Mappings.Entries()
}

// Categories returns the category list in insertion order.
func (l *Ledger) Categories() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.state.Categories...)
}

// IncomeItems returns the income item list in insertion order.
func (l *Ledger) IncomeItems() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.state.IncomeItems...)
}

// Selection returns the last selected month, year and color.
func (l *Ledger) Selection() (month, year int, color string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.LastSelectedMonth, l.state.LastSelectedYear, l.state.LastSelectedColor
}

// SetSelection records the working month, year and color.
func (l *Ledger) SetSelection(ctx context.Context, month, year int, color string) error {
	return l.update(ctx, func(s *core.State) error {
		if month < 1 || month > 12 {
			return core.ErrInvalidMonth
		}
		if year < 1 {
			return core.ErrInvalidYear
		}
		if !core.ValidColor(color) {
			return core.ErrInvalidColor
		}
		if s.LastSelectedMonth == month && s.LastSelectedYear == year && s.LastSelectedColor == color {
			return errNoChange
		}
		s.LastSelectedMonth = month
		s.LastSelectedYear = year
		s.LastSelectedColor = color
		return nil
	})
}
