// ABOUTME: Reference strategies deciding how the holder slot retains an owner
// ABOUTME: Strong, Weak (non-owning), and Cleared (cooperative clear-on-destroy)

package sentinel

import (
	"errors"
	"fmt"
	"strings"
	"weak"
)

var (
	// ErrUnknownStrategy is returned by ParseStrategy for unrecognised names
	ErrUnknownStrategy = errors.New("unknown reference strategy")
)

// Strategy governs whether a stored reference keeps its owner reachable
// after the owner is destroyed.
type Strategy int

const (
	// Strong returns the stored owner even after it is destroyed.
	Strong Strategy = iota
	// Weak returns the owner only while it is not destroyed. The link does
	// not keep the owner alive.
	Weak
	// Cleared resolves like Strong. The controller must call Clear during
	// its own destruction; nothing enforces that.
	Cleared
)

// Strategies lists every strategy in declaration order.
func Strategies() []Strategy {
	return []Strategy{Strong, Weak, Cleared}
}

func (s Strategy) String() string {
	switch s {
	case Strong:
		return "strong"
	case Weak:
		return "weak"
	case Cleared:
		return "cleared"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// ParseStrategy converts a name such as "weak" to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "strong":
		return Strong, nil
	case "weak":
		return Weak, nil
	case "cleared":
		return Cleared, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// RequiresClear reports whether the strategy depends on the controller
// calling Clear from its destroy hook.
func (s Strategy) RequiresClear() bool {
	return s == Cleared
}

// hold wraps o in the reference form this strategy stores.
func (s Strategy) hold(o *Owner) reference {
	if s == Weak {
		return weakRef{ptr: weak.Make(o)}
	}
	return strongRef{owner: o}
}

// reference is what the holder slot stores.
type reference interface {
	// resolve applies the strategy's rule and returns the live owner or nil.
	resolve() *Owner
	// target returns the referenced owner regardless of its destroyed
	// flag, or nil if it is no longer reachable at all.
	target() *Owner
	// owning reports whether the link keeps its target alive.
	owning() bool
}

type strongRef struct {
	owner *Owner
}

func (r strongRef) resolve() *Owner { return r.owner }
func (r strongRef) target() *Owner  { return r.owner }
func (r strongRef) owning() bool    { return true }

type weakRef struct {
	ptr weak.Pointer[Owner]
}

func (r weakRef) resolve() *Owner {
	o := r.ptr.Value()
	if o == nil || o.Destroyed() {
		return nil
	}
	return o
}

func (r weakRef) target() *Owner { return r.ptr.Value() }
func (r weakRef) owning() bool   { return false }
