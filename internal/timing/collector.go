// Package timing collects per-operation durations for one render job.
package timing

import (
	"sort"
	"time"
)

// Op names a timed pipeline operation.
type Op string

// Timed pipeline operations.
const (
	OpLoadText   Op = "load_text"
	OpLoadFont   Op = "load_font"
	OpRenderLoop Op = "render_loop"
	OpComposite  Op = "composite"
	OpSinkWrite  Op = "sink_write"
	OpEncode     Op = "encode"
)

// Event is one timed operation, attributed to a frame where relevant.
type Event struct {
	Op       Op
	Frame    int
	Duration time.Duration
}

// Collector receives timing events. Implementations must be cheap enough to
// call from the per-tick loop.
type Collector interface {
	Record(Event)
}

// Nop discards all events.
type Nop struct{}

// Record implements Collector.
func (Nop) Record(Event) {}

// Memory accumulates events in memory for post-job summaries. Not safe for
// concurrent use; each job owns its collector.
type Memory struct {
	events []Event
}

// NewMemory returns an empty in-memory collector.
func NewMemory() *Memory {
	return &Memory{}
}

// Record implements Collector.
func (m *Memory) Record(e Event) {
	m.events = append(m.events, e)
}

// Events returns the recorded events in arrival order.
func (m *Memory) Events() []Event {
	return m.events
}

// OpSummary aggregates all events for a single operation.
type OpSummary struct {
	Op    Op
	Count int
	Total time.Duration
	Max   time.Duration
}

// Summary aggregates recorded events per operation, ordered by total
// duration descending.
func (m *Memory) Summary() []OpSummary {
	byOp := map[Op]*OpSummary{}
	for _, e := range m.events {
		s := byOp[e.Op]
		if s == nil {
			s = &OpSummary{Op: e.Op}
			byOp[e.Op] = s
		}
		s.Count++
		s.Total += e.Duration
		if e.Duration > s.Max {
			s.Max = e.Duration
		}
	}
	out := make([]OpSummary, 0, len(byOp))
	for _, s := range byOp {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out
}

// Measure runs fn and records its duration under op for the given frame.
func Measure(c Collector, op Op, frame int, fn func() error) error {
	start := time.Now()
	err := fn()
	c.Record(Event{Op: op, Frame: frame, Duration: time.Since(start)})
	return err
}
