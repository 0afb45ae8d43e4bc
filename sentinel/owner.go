// ABOUTME: Owner models a short-lived controller such as a screen
// ABOUTME: Carries an ID, a destroyed flag, and a payload standing in for heap cost

package sentinel

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Owner is a short-lived controller. The sentinel never frees an Owner; it
// only tracks whether the owner has been destroyed and whether the registry
// still reaches it.
type Owner struct {
	id        string
	name      string
	payload   []byte
	destroyed atomic.Bool
}

// NewOwner creates a live owner with a fresh ID and a payload of
// payloadBytes bytes. Negative sizes are treated as zero.
func NewOwner(name string, payloadBytes int) *Owner {
	if payloadBytes < 0 {
		payloadBytes = 0
	}
	return &Owner{
		id:      uuid.NewString(),
		name:    name,
		payload: make([]byte, payloadBytes),
	}
}

// ID returns the owner's unique identifier.
func (o *Owner) ID() string { return o.id }

// Name returns the owner's display name, e.g. the screen it stands for.
func (o *Owner) Name() string { return o.name }

// PayloadSize returns the simulated heap cost in bytes.
func (o *Owner) PayloadSize() int { return len(o.payload) }

// Destroy marks the owner destroyed. Calling it again has no effect.
func (o *Owner) Destroy() { o.destroyed.Store(true) }

// Destroyed reports whether Destroy has been called.
func (o *Owner) Destroyed() bool { return o.destroyed.Load() }

func (o *Owner) label() string {
	short := o.id
	if len(short) > 8 {
		short = short[:8]
	}
	if o.name == "" {
		return "owner#" + short
	}
	return "owner:" + o.name + "#" + short
}
