// ABOUTME: Lifecycle probe simulating create/register/destroy cycles
// ABOUTME: Produces leak reports with retention paths for leaked owners

package sentinel

import (
	"github.com/prateek/leaksentinel/internal/logging"
	"github.com/prateek/leaksentinel/retention"
)

// DefaultPayloadBytes is the payload size given to simulated owners.
const DefaultPayloadBytes = 1 << 20

// LeakReport is the outcome of inspecting the registry for one owner after
// its destruction.
type LeakReport struct {
	OwnerID  string `json:"ownerId" yaml:"ownerId"`
	Owner    string `json:"owner,omitempty" yaml:"owner,omitempty"`
	Strategy string `json:"strategy" yaml:"strategy"`
	// Leaked is true when the registry still returned the destroyed owner.
	Leaked bool `json:"leaked" yaml:"leaked"`
	// RetainedBytes and RetentionPath explain a leak and are empty otherwise.
	RetainedBytes uint64   `json:"retainedBytes,omitempty" yaml:"retainedBytes,omitempty"`
	RetentionPath []string `json:"retentionPath,omitempty" yaml:"retentionPath,omitempty"`
}

// NavigationReport covers the two-screen flow: main opens second, the user
// navigates back, then main is closed.
type NavigationReport struct {
	Strategy string     `json:"strategy" yaml:"strategy"`
	Main     LeakReport `json:"main" yaml:"main"`
	Second   LeakReport `json:"second" yaml:"second"`
}

// CycleObserver is notified of every inspected owner.
type CycleObserver interface {
	OnCycle(strategy string, leaked bool)
}

// Probe drives lifecycle simulations against a registry. Each simulation
// holds the registry for its whole run, so registrations made concurrently
// by other goroutines land before or after it, never in between.
type Probe struct {
	registry     *Registry
	payloadBytes int
	log          *logging.Logger
	observer     CycleObserver
}

// ProbeOption configures a Probe.
type ProbeOption func(*Probe)

// WithPayloadBytes sets the payload size of simulated owners.
func WithPayloadBytes(n int) ProbeOption {
	return func(p *Probe) { p.payloadBytes = n }
}

// WithProbeLogger sets the probe's logger.
func WithProbeLogger(l *logging.Logger) ProbeOption {
	return func(p *Probe) { p.log = l }
}

// WithCycleObserver attaches an observer for inspection outcomes.
func WithCycleObserver(o CycleObserver) ProbeOption {
	return func(p *Probe) { p.observer = o }
}

// NewProbe creates a probe over reg. A nil reg uses the default registry.
func NewProbe(reg *Registry, opts ...ProbeOption) *Probe {
	if reg == nil {
		reg = Default()
	}
	p := &Probe{
		registry:     reg,
		payloadBytes: DefaultPayloadBytes,
		log:          logging.Global(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logging.Nop()
	}
	return p
}

// Registry returns the registry the probe drives.
func (p *Probe) Registry() *Registry { return p.registry }

// SimulateCycle creates an owner, registers it under strategy, destroys it,
// and reports whether the registry still yields it. collaboratorCallsClear
// only matters for Cleared: it decides whether the destroy hook clears the
// slot.
func (p *Probe) SimulateCycle(strategy Strategy, collaboratorCallsClear bool) LeakReport {
	owner := NewOwner("", p.payloadBytes)
	var seen observation
	p.registry.atomically(func(tx *txn) {
		tx.register(owner, strategy)
		destroy(tx, owner, strategy, collaboratorCallsClear)
		seen = observe(tx, owner)
	})
	return p.report(owner, strategy, seen)
}

// SimulateNavigation runs the two-screen flow. The second screen's
// registration overwrites the main screen's, so main is never reachable
// after that point; whether second leaks depends on the strategy.
func (p *Probe) SimulateNavigation(strategy Strategy, collaboratorCallsClear bool) NavigationReport {
	mainScreen := NewOwner("main", p.payloadBytes)
	second := NewOwner("second", p.payloadBytes)

	var seenMain, seenSecond observation
	p.registry.atomically(func(tx *txn) {
		tx.register(mainScreen, strategy)
		tx.register(second, strategy)

		// back from second
		destroy(tx, second, strategy, collaboratorCallsClear)
		seenSecond = observe(tx, second)

		// main closed
		destroy(tx, mainScreen, strategy, collaboratorCallsClear)
		seenMain = observe(tx, mainScreen)
	})

	secondReport := p.report(second, strategy, seenSecond)
	mainReport := p.report(mainScreen, strategy, seenMain)
	return NavigationReport{
		Strategy: strategy.String(),
		Main:     mainReport,
		Second:   secondReport,
	}
}

// destroy is the controller's destroy hook.
func destroy(tx *txn, owner *Owner, strategy Strategy, collaboratorCallsClear bool) {
	owner.Destroy()
	if strategy.RequiresClear() && collaboratorCallsClear {
		tx.clear()
	}
}

// observation is what the slot showed for one destroyed owner. graph is
// only taken when the owner leaked.
type observation struct {
	leaked bool
	graph  *retention.MemGraph
}

func observe(tx *txn, owner *Owner) observation {
	current := tx.current()
	if current == nil || current != owner || !current.Destroyed() {
		return observation{}
	}
	return observation{leaked: true, graph: tx.snapshot()}
}

func (p *Probe) report(owner *Owner, strategy Strategy, seen observation) LeakReport {
	report := LeakReport{
		OwnerID:  owner.ID(),
		Owner:    owner.Name(),
		Strategy: strategy.String(),
		Leaked:   seen.leaked,
	}

	if report.Leaked {
		g := seen.graph
		report.RetainedBytes = retention.RetainedSize(g, OwnerNodeID)
		if paths := retention.PathsToRoots(g, OwnerNodeID, 1); len(paths) > 0 {
			report.RetentionPath = paths[0].Labels(g)
		}
		p.log.Warn("destroyed owner still reachable", map[string]any{
			"owner_id":       report.OwnerID,
			"strategy":       report.Strategy,
			"retained_bytes": report.RetainedBytes,
		})
	} else {
		p.log.Debug("owner released", map[string]any{
			"owner_id": report.OwnerID,
			"strategy": report.Strategy,
		})
	}

	if p.observer != nil {
		p.observer.OnCycle(report.Strategy, report.Leaked)
	}
	return report
}
