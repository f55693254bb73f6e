// Package registry implements the fixed-capacity client slot table
// (spec §4.C): allocation, lookup by name, and the reset-to-empty
// lifecycle every dropped connection goes through.
package registry

import (
	"net"

	"github.com/freeeve/byzantium/pkg/byzantium"
)

// Slot is one entry in the table: a connection's transport handle, its
// wire-codec parser, and its domain-level player state.
type Slot struct {
	Used   bool
	Joined bool
	Conn   net.Conn
	Parser *byzantium.Parser
	Player byzantium.Player

	// ConnID is a short correlation id for log lines, assigned at accept
	// time and retained across the slot's lifetime.
	ConnID string
}

// Registry is the fixed-size (byzantium.MaxClients) table of slots. It is
// not safe for concurrent use; every caller (the engine, and the server's
// accept and read handling) runs on the single actor goroutine that owns
// all game state, per spec §5.
type Registry struct {
	slots    [byzantium.MaxClients]Slot
	numUsers int
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{}
}

// Capacity is the fixed number of slots.
func (r *Registry) Capacity() int { return byzantium.MaxClients }

// NumJoined is the count of slots with Joined == true.
func (r *Registry) NumJoined() int { return r.numUsers }

// Allocate reserves the first free slot and returns its index, or -1 if
// the table is full.
func (r *Registry) Allocate() int {
	for i := range r.slots {
		if !r.slots[i].Used {
			r.slots[i].Used = true
			return i
		}
	}
	return -1
}

// Bind attaches a live connection and correlation id to a freshly
// allocated slot.
func (r *Registry) Bind(i int, conn net.Conn, connID string) {
	r.slots[i].Conn = conn
	r.slots[i].ConnID = connID
	r.slots[i].Parser = byzantium.NewParser()
}

// Slot returns a pointer to slot i's state. Callers must only pass
// indices obtained from Allocate or a Find* method.
func (r *Registry) Slot(i int) *Slot {
	return &r.slots[i]
}

// MarkJoined records that slot i has completed cjoin with the given
// canonical name, incrementing NumJoined.
func (r *Registry) MarkJoined(i int, name string) {
	r.slots[i].Joined = true
	r.slots[i].Player.Name = name
	r.numUsers++
}

// Clear resets slot i to its zero state, preserving its position in the
// array. If the slot was joined, NumJoined is decremented.
func (r *Registry) Clear(i int) {
	if r.slots[i].Joined {
		r.numUsers--
	}
	r.slots[i] = Slot{}
}

// FindByName returns the index of the joined slot with the given
// canonical name, or -1 if none.
func (r *Registry) FindByName(name string) int {
	for i := range r.slots {
		if r.slots[i].Joined && r.slots[i].Player.Name == name {
			return i
		}
	}
	return -1
}

// IsNameTaken reports whether name is already held by a joined slot. It
// satisfies the isTaken callback byzantium.Canonicalize expects.
func (r *Registry) IsNameTaken(name string) bool {
	return r.FindByName(name) >= 0
}

// Each calls fn for every used slot, in ascending index order.
func (r *Registry) Each(fn func(i int, s *Slot)) {
	for i := range r.slots {
		if r.slots[i].Used {
			fn(i, &r.slots[i])
		}
	}
}

// EachJoined calls fn for every joined slot, in ascending index order.
func (r *Registry) EachJoined(fn func(i int, s *Slot)) {
	for i := range r.slots {
		if r.slots[i].Joined {
			fn(i, &r.slots[i])
		}
	}
}
