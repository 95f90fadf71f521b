package studio

import (
	"errors"
	"sync/atomic"
)

// ErrSuperseded reports a result that arrived after a newer request started.
var ErrSuperseded = errors.New("studio: superseded by a newer request")

// Slot orders overlapping requests that write to the same place, such as the
// editor canvas. Only the most recent ticket may publish its result.
// The zero value is ready to use.
type Slot struct {
	seq atomic.Uint64
}

// Ticket identifies one request in a Slot.
type Ticket struct {
	slot *Slot
	n    uint64
}

// Begin starts a request, superseding any ticket issued before.
func (s *Slot) Begin() Ticket {
	return Ticket{slot: s, n: s.seq.Add(1)}
}

// Current reports whether no newer ticket has been issued.
func (t Ticket) Current() bool {
	return t.slot != nil && t.slot.seq.Load() == t.n
}

// Check returns ErrSuperseded unless t is current.
func (t Ticket) Check() error {
	if !t.Current() {
		return ErrSuperseded
	}
	return nil
}
