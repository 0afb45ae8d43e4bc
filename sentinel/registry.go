// ABOUTME: Holder registry modelling a process-wide static reference slot
// ABOUTME: Single last-writer-wins slot guarded by a mutex, plus a default instance

package sentinel

import (
	"errors"
	"fmt"
	"sync"

	"github.com/prateek/leaksentinel/internal/logging"
	"github.com/prateek/leaksentinel/retention"
)

var (
	// ErrLeakedOwner is returned by Audit when the slot still resolves to a
	// destroyed owner
	ErrLeakedOwner = errors.New("destroyed owner still reachable through holder")
)

// SlotState describes the slot right after the change that produced an
// event. Seq grows with every change, so an observer notified out of order
// can tell stale state from current state.
type SlotState struct {
	Seq      uint64
	Occupied bool
}

// Observer receives registry events. Implementations must be safe for
// concurrent use and must not call back into the registry.
type Observer interface {
	OnRegister(strategy string, state SlotState)
	OnClear(hadOccupant bool, state SlotState)
}

type slot struct {
	ref      reference
	strategy Strategy
}

// Registry is a single-slot holder. Register overwrites, Clear empties.
type Registry struct {
	mu       sync.Mutex
	slot     *slot
	seq      uint64
	log      *logging.Logger
	observer Observer
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger for registry events.
func WithLogger(l *logging.Logger) Option {
	return func(r *Registry) { r.log = l }
}

// WithObserver attaches an event observer, e.g. metrics.
func WithObserver(o Observer) Option {
	return func(r *Registry) { r.observer = o }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{log: logging.Global()}
	r.Configure(opts...)
	return r
}

// Configure applies options to an existing registry without touching its
// slot. It is how the default registry gets a logger and observer.
func (r *Registry) Configure(opts ...Option) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logging.Nop()
	}
}

// event is a slot change waiting to be reported once the lock is released.
type event struct {
	register    bool
	owner       *Owner
	strategy    Strategy
	replaced    bool
	hadOccupant bool
	state       SlotState
}

// txn is exclusive access to the slot. Every operation in one txn sees the
// effects of the previous ones and nothing else.
type txn struct {
	r      *Registry
	events []event
}

// atomically runs fn with the registry locked, then reports the changes fn
// made, in order, to the logger and observer.
func (r *Registry) atomically(fn func(tx *txn)) {
	tx := &txn{r: r}
	r.mu.Lock()
	fn(tx)
	log, observer := r.log, r.observer
	r.mu.Unlock()

	for _, ev := range tx.events {
		ev.report(log, observer)
	}
}

func (ev event) report(log *logging.Logger, observer Observer) {
	if ev.register {
		if observer != nil {
			observer.OnRegister(ev.strategy.String(), ev.state)
		}
		if ev.owner != nil && log.Enabled(logging.LevelDebug) {
			log.Debug("owner registered", map[string]any{
				"owner_id": ev.owner.ID(),
				"strategy": ev.strategy.String(),
				"replaced": ev.replaced,
			})
		}
		return
	}
	if observer != nil {
		observer.OnClear(ev.hadOccupant, ev.state)
	}
	log.Debug("holder cleared", map[string]any{"had_occupant": ev.hadOccupant})
}

func (tx *txn) register(owner *Owner, strategy Strategy) {
	r := tx.r
	replaced := r.slot != nil
	r.slot = &slot{ref: strategy.hold(owner), strategy: strategy}
	r.seq++
	tx.events = append(tx.events, event{
		register: true,
		owner:    owner,
		strategy: strategy,
		replaced: replaced,
		state:    SlotState{Seq: r.seq, Occupied: true},
	})
}

func (tx *txn) clear() {
	r := tx.r
	hadOccupant := r.slot != nil
	r.slot = nil
	r.seq++
	tx.events = append(tx.events, event{
		hadOccupant: hadOccupant,
		state:       SlotState{Seq: r.seq},
	})
}

func (tx *txn) current() *Owner {
	if tx.r.slot == nil {
		return nil
	}
	return tx.r.slot.ref.resolve()
}

func (tx *txn) snapshot() *retention.MemGraph {
	var (
		target *Owner
		owning bool
	)
	if s := tx.r.slot; s != nil {
		target = s.ref.target()
		owning = s.ref.owning()
	}
	return renderSnapshot(target, owning)
}

// Register stores owner under strategy, replacing any previous occupant.
func (r *Registry) Register(owner *Owner, strategy Strategy) {
	r.atomically(func(tx *txn) { tx.register(owner, strategy) })
}

// Current returns the occupant as resolved by its strategy, or nil when the
// slot is empty or the strategy reports the owner gone.
func (r *Registry) Current() *Owner {
	var o *Owner
	r.atomically(func(tx *txn) { o = tx.current() })
	return o
}

// Clear empties the slot. Clearing an empty slot is a no-op.
func (r *Registry) Clear() {
	r.atomically(func(tx *txn) { tx.clear() })
}

// Strategy returns the strategy of the current registration, if any.
func (r *Registry) Strategy() (Strategy, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.slot == nil {
		return 0, false
	}
	return r.slot.strategy, true
}

// Audit reports ErrLeakedOwner if the slot resolves to a destroyed owner.
// For Cleared registrations this is the check that the controller kept
// its side of the contract.
func (r *Registry) Audit() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.slot == nil {
		return nil
	}
	o := r.slot.ref.resolve()
	if o == nil || !o.Destroyed() {
		return nil
	}
	return fmt.Errorf("%w: owner %s held under %s strategy", ErrLeakedOwner, o.ID(), r.slot.strategy)
}

var holder = NewRegistry()

// Default returns the process-wide registry used by the package-level
// functions.
func Default() *Registry { return holder }

// Register stores owner in the default registry.
func Register(owner *Owner, strategy Strategy) { holder.Register(owner, strategy) }

// Current returns the default registry's resolved occupant.
func Current() *Owner { return holder.Current() }

// Clear empties the default registry.
func Clear() { holder.Clear() }
