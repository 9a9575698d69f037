package bagdrop

import "sync"

// DisplaySink receives the display state every time the phase changes.
// snap is nil whenever Display.SnapshotVisible is false.
type DisplaySink interface {
	Apply(d Display, snap *SnapshotRecord)
}

// DisplaySinkFunc adapts a function to DisplaySink.
type DisplaySinkFunc func(d Display, snap *SnapshotRecord)

func (f DisplaySinkFunc) Apply(d Display, snap *SnapshotRecord) { f(d, snap) }

// DisplayStore is a DisplaySink that keeps the most recent state for a
// renderer polling from another goroutine.
type DisplayStore struct {
	mu   sync.RWMutex
	cur  Display
	snap *SnapshotRecord
}

// NewDisplayStore returns a store holding the idle display.
func NewDisplayStore() *DisplayStore {
	d := DisplayFor(PhaseIdle, Motions{})
	d.ButtonText = DefaultButtonText
	d.Label = DefaultButtonText
	return &DisplayStore{cur: d}
}

func (s *DisplayStore) Apply(d Display, snap *SnapshotRecord) {
	s.mu.Lock()
	s.cur = d
	s.snap = snap
	s.mu.Unlock()
}

// Load returns the latest display and snapshot.
func (s *DisplayStore) Load() (Display, *SnapshotRecord) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur, s.snap
}

// sinks fans a display out to several sinks in order.
type sinks []DisplaySink

func (ss sinks) Apply(d Display, snap *SnapshotRecord) {
	for _, s := range ss {
		s.Apply(d, snap)
	}
}

// MultiSink returns a sink applying to every non-nil sink in order.
func MultiSink(list ...DisplaySink) DisplaySink {
	out := make(sinks, 0, len(list))
	for _, s := range list {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}
