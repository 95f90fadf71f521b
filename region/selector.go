package region

import (
	"math"
	"sync"
)

// Sink receives the outcome of a selection: a region, or nil for none.
type Sink func(*Region)

// Selector tracks one drag gesture at a time. A new drag replaces any
// earlier region. It is safe for concurrent use; the sink is called
// without the selector's lock held.
type Selector struct {
	mu      sync.Mutex
	sink    Sink
	enabled bool
	drawing bool
	start   Point
	rect    *Rect
	region  *Region
}

// NewSelector creates an enabled selector reporting to sink. sink may be nil.
func NewSelector(sink Sink) *Selector {
	return &Selector{sink: sink, enabled: true}
}

// Start begins a drag at p and clears any previous region.
func (s *Selector) Start(p Point, b Bounds) {
	s.mu.Lock()
	if !s.enabled {
		s.mu.Unlock()
		return
	}
	s.start = clamp(p, b)
	s.rect = &Rect{X: s.start.X, Y: s.start.Y}
	s.region = nil
	s.drawing = true
	s.mu.Unlock()

	s.publish(nil)
}

// Move updates the drag with the pointer at p, clamped to the container.
func (s *Selector) Move(p Point, b Bounds) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.drawing {
		return
	}
	cur := clamp(p, b)
	s.rect = &Rect{
		X: math.Min(s.start.X, cur.X),
		Y: math.Min(s.start.Y, cur.Y),
		W: math.Abs(cur.X - s.start.X),
		H: math.Abs(cur.Y - s.start.Y),
	}
}

// End finishes the drag and publishes the region, or nil when the drag was
// smaller than MinSize on either axis or the container has no size.
func (s *Selector) End(b Bounds) {
	s.mu.Lock()
	if !s.drawing {
		s.mu.Unlock()
		return
	}
	s.drawing = false

	var out *Region
	if r := s.rect; r != nil && r.W >= MinSize && r.H >= MinSize {
		if reg, ok := Normalize(*r, b.Width, b.Height); ok {
			out = &reg
		}
	}
	if out == nil {
		s.rect = nil
	}
	s.region = out
	s.mu.Unlock()

	s.publish(out)
}

// SetEnabled toggles selection. Disabling clears any in-progress or
// completed selection and publishes nil if there was one.
func (s *Selector) SetEnabled(enabled bool) {
	s.mu.Lock()
	s.enabled = enabled
	had := s.drawing || s.rect != nil || s.region != nil
	if !enabled {
		s.drawing = false
		s.rect = nil
		s.region = nil
	}
	s.mu.Unlock()

	if !enabled && had {
		s.publish(nil)
	}
}

// Region returns the last completed region, or nil.
func (s *Selector) Region() *Region {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.region == nil {
		return nil
	}
	r := *s.region
	return &r
}

// Rect returns the rectangle being drawn or last drawn.
func (s *Selector) Rect() (Rect, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rect == nil {
		return Rect{}, false
	}
	return *s.rect, true
}

func (s *Selector) publish(r *Region) {
	if s.sink != nil {
		s.sink(r)
	}
}

// clamp converts p to container coordinates, kept inside the container.
func clamp(p Point, b Bounds) Point {
	return Point{
		X: math.Max(0, math.Min(p.X-b.Left, b.Width)),
		Y: math.Max(0, math.Min(p.Y-b.Top, b.Height)),
	}
}
