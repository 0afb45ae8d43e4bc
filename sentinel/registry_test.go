// ABOUTME: Tests for the holder registry
// ABOUTME: Covers overwrite, clear idempotence, audit, observers, and the default slot

package sentinel

import (
	"bytes"
	"runtime"
	"sync"
	"testing"

	"github.com/prateek/leaksentinel/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu         sync.Mutex
	registered []string
	clears     []bool
	states     []SlotState
	cycles     map[string][]bool
	onRegister func()
}

func (r *recordingObserver) OnRegister(strategy string, state SlotState) {
	r.mu.Lock()
	r.registered = append(r.registered, strategy)
	r.states = append(r.states, state)
	hook := r.onRegister
	r.mu.Unlock()
	if hook != nil {
		hook()
	}
}

func (r *recordingObserver) OnClear(hadOccupant bool, state SlotState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clears = append(r.clears, hadOccupant)
	r.states = append(r.states, state)
}

func (r *recordingObserver) OnCycle(strategy string, leaked bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cycles == nil {
		r.cycles = make(map[string][]bool)
	}
	r.cycles[strategy] = append(r.cycles[strategy], leaked)
}

func newTestRegistry(opts ...Option) *Registry {
	return NewRegistry(append([]Option{WithLogger(logging.Nop())}, opts...)...)
}

func TestRegistryEmpty(t *testing.T) {
	r := newTestRegistry()
	assert.Nil(t, r.Current())
	assert.NoError(t, r.Audit())

	_, ok := r.Strategy()
	assert.False(t, ok)
}

func TestRegistryRetentionAfterDestroy(t *testing.T) {
	tests := []struct {
		strategy  Strategy
		wantAlive bool
	}{
		{Strong, true},
		{Weak, false},
		{Cleared, true}, // until someone calls Clear
	}

	for _, tt := range tests {
		t.Run(tt.strategy.String(), func(t *testing.T) {
			r := newTestRegistry()
			o := NewOwner("main", 32)
			r.Register(o, tt.strategy)
			require.Same(t, o, r.Current())

			o.Destroy()
			if tt.wantAlive {
				assert.Same(t, o, r.Current())
			} else {
				assert.Nil(t, r.Current())
			}

			s, ok := r.Strategy()
			assert.True(t, ok)
			assert.Equal(t, tt.strategy, s)
		})
	}
}

func TestRegistryClearIsIdempotent(t *testing.T) {
	for _, s := range Strategies() {
		t.Run(s.String(), func(t *testing.T) {
			obs := &recordingObserver{}
			r := newTestRegistry(WithObserver(obs))
			r.Register(NewOwner("main", 0), s)

			r.Clear()
			assert.Nil(t, r.Current())
			r.Clear()
			assert.Nil(t, r.Current())

			assert.Equal(t, []bool{true, false}, obs.clears)
		})
	}
}

func TestRegistryOverwrite(t *testing.T) {
	for _, s := range Strategies() {
		t.Run(s.String(), func(t *testing.T) {
			r := newTestRegistry()
			a := NewOwner("a", 0)
			b := NewOwner("b", 0)

			r.Register(a, s)
			r.Register(b, s)
			assert.Same(t, b, r.Current())

			// B's resolution only: A never resurfaces, even when B is gone.
			b.Destroy()
			current := r.Current()
			assert.NotSame(t, a, current)
			if s == Weak {
				assert.Nil(t, current)
			} else {
				assert.Same(t, b, current)
			}

			snap := r.Snapshot()
			owner := snap.Node(OwnerNodeID)
			require.NotNil(t, owner)
			assert.Contains(t, owner.Label, "owner:b#")
			runtime.KeepAlive(b)
		})
	}
}

func TestRegistryOverwriteAcrossStrategies(t *testing.T) {
	r := newTestRegistry()
	a := NewOwner("a", 0)
	b := NewOwner("b", 0)

	r.Register(a, Strong)
	r.Register(b, Weak)
	b.Destroy()

	assert.Nil(t, r.Current())
	s, _ := r.Strategy()
	assert.Equal(t, Weak, s)
}

func TestRegistryAudit(t *testing.T) {
	r := newTestRegistry()
	o := NewOwner("second", 0)

	r.Register(o, Cleared)
	assert.NoError(t, r.Audit())

	o.Destroy()
	err := r.Audit()
	require.ErrorIs(t, err, ErrLeakedOwner)
	assert.Contains(t, err.Error(), o.ID())
	assert.Contains(t, err.Error(), "cleared")

	r.Clear()
	assert.NoError(t, r.Audit())
}

func TestRegistryAuditWeakNeverFails(t *testing.T) {
	r := newTestRegistry()
	o := NewOwner("second", 0)
	r.Register(o, Weak)
	o.Destroy()
	assert.NoError(t, r.Audit())
}

func TestRegistryObserverAndLogging(t *testing.T) {
	var buf bytes.Buffer
	obs := &recordingObserver{}
	r := NewRegistry(
		WithLogger(logging.New(logging.Config{Level: logging.LevelDebug, Output: &buf})),
		WithObserver(obs),
	)

	r.Register(NewOwner("main", 0), Strong)
	r.Register(NewOwner("second", 0), Weak)

	assert.Equal(t, []string{"strong", "weak"}, obs.registered)
	assert.Contains(t, buf.String(), `"message":"owner registered"`)
	assert.Contains(t, buf.String(), `"replaced":true`)
}

func TestRegistryObserverSlotState(t *testing.T) {
	obs := &recordingObserver{}
	r := newTestRegistry(WithObserver(obs))

	r.Register(NewOwner("main", 0), Strong)
	r.Clear()
	r.Clear()
	r.Register(NewOwner("second", 0), Weak)

	assert.Equal(t, []SlotState{
		{Seq: 1, Occupied: true},
		{Seq: 2, Occupied: false},
		{Seq: 3, Occupied: false},
		{Seq: 4, Occupied: true},
	}, obs.states)
}

func TestRegistryNilLoggerOption(t *testing.T) {
	r := NewRegistry(WithLogger(nil))
	r.Register(NewOwner("", 0), Strong)
	r.Clear()
	assert.Nil(t, r.Current())
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := newTestRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := Strategies()[i%3]
			o := NewOwner("", 8)
			r.Register(o, s)
			_ = r.Current()
			_ = r.Snapshot()
			_ = r.Audit()
			if i%5 == 0 {
				r.Clear()
			}
		}(i)
	}
	wg.Wait()
}

func TestWeakLinkDoesNotKeepOwnerAlive(t *testing.T) {
	r := newTestRegistry()
	func() {
		r.Register(NewOwner("second", 1024), Weak)
	}()

	for i := 0; i < 5 && r.Snapshot().NumNodes() > 1; i++ {
		runtime.GC()
	}

	assert.Equal(t, 1, r.Snapshot().NumNodes())
	assert.Nil(t, r.Current())
}

func TestDefaultRegistry(t *testing.T) {
	t.Cleanup(Clear)

	o := NewOwner("main", 0)
	Register(o, Strong)
	assert.Same(t, Default(), Default())
	assert.Same(t, o, Current())
	assert.Same(t, o, Default().Current())

	Clear()
	assert.Nil(t, Current())
}

func TestRegistryConfigureKeepsSlot(t *testing.T) {
	r := newTestRegistry()
	o := NewOwner("main", 0)
	r.Register(o, Strong)

	obs := &recordingObserver{}
	r.Configure(WithObserver(obs))
	assert.Same(t, o, r.Current())

	r.Clear()
	assert.Equal(t, []bool{true}, obs.clears)
}
