package trace

import (
	"io"
	"sync"
)

// RingTracer is a flight recorder: it keeps the most recent events in
// memory so the trace of a module that failed can be written afterwards.
type RingTracer struct {
	mu    sync.Mutex
	buf   []Event
	next  int // slot of the next event
	count int
	level Level
}

// NewRingTracer creates a recorder holding at most capacity events.
func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = 4096
	}
	return &RingTracer{buf: make([]Event, capacity), level: level}
}

// Emit records a copy of ev, evicting the oldest event when full.
func (t *RingTracer) Emit(ev *Event) {
	if !t.level.ShouldEmit(ev.Scope) {
		return
	}
	stored := *ev
	if stored.Seq == 0 {
		stored.Seq = NextSeq()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf[t.next] = stored
	t.next = (t.next + 1) % len(t.buf)
	t.count = min(t.count+1, len(t.buf))
}

// Snapshot returns the recorded events, oldest first.
func (t *RingTracer) Snapshot() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Event, 0, t.count)
	start := (t.next - t.count + len(t.buf)) % len(t.buf)
	for i := range t.count {
		out = append(out, t.buf[(start+i)%len(t.buf)])
	}
	return out
}

// Subtree returns the recorded events of span root and of every span
// started under it, oldest first. Spans whose begin event was evicted are
// matched only when they are root itself.
func (t *RingTracer) Subtree(root uint64) []Event {
	events := t.Snapshot()
	parent := make(map[uint64]uint64)
	for _, ev := range events {
		if ev.Kind == KindSpanBegin {
			parent[ev.SpanID] = ev.ParentID
		}
	}
	under := func(id uint64) bool {
		for range len(parent) + 1 {
			if id == root {
				return true
			}
			p, ok := parent[id]
			if !ok || p == 0 {
				return false
			}
			id = p
		}
		return false
	}
	var out []Event
	for _, ev := range events {
		if under(ev.SpanID) {
			out = append(out, ev)
		}
	}
	return out
}

// WriteSubtree writes Subtree(root) to w in format.
func (t *RingTracer) WriteSubtree(w io.Writer, format Format, root uint64) error {
	for _, ev := range t.Subtree(root) {
		if _, err := w.Write(FormatEvent(&ev, format)); err != nil {
			return err
		}
	}
	return nil
}

func (t *RingTracer) Flush() error { return nil }
func (t *RingTracer) Close() error { return nil }
func (t *RingTracer) Level() Level { return t.level }

// Enabled returns true if tracing is active.
func (t *RingTracer) Enabled() bool {
	return t.level > LevelOff
}
