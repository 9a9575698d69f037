package bagdrop

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeMedia struct {
	paused  bool
	pauses  int
	resumes int
}

func (m *fakeMedia) Pause()  { m.paused = true; m.pauses++ }
func (m *fakeMedia) Resume() { m.paused = false; m.resumes++ }

type fakeRegion struct {
	mu     sync.Mutex
	bounds Rect
	err    error
	media  *fakeMedia
}

func (r *fakeRegion) Bounds() (Rect, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bounds, r.err
}

func (r *fakeRegion) Media() Media {
	if r.media == nil {
		return nil
	}
	return r.media
}

func (r *fakeRegion) resize(b Rect) {
	r.mu.Lock()
	r.bounds = b
	r.mu.Unlock()
}

type fakeProvider struct {
	calls atomic.Int32
	err   error
	block bool // wait for ctx cancellation
}

func (p *fakeProvider) Capture(ctx context.Context, _ Region, bounds Rect, _ Color) (image.Image, error) {
	p.calls.Add(1)
	if p.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if p.err != nil {
		return nil, p.err
	}
	return image.NewRGBA(image.Rect(0, 0, int(bounds.Width), int(bounds.Height))), nil
}

type fakeSurface struct {
	clips      map[string]time.Duration
	failPlay   string
	log        []string // "play:<clip>" or "pause"
	unfinished bool
}

func newFakeSurface(names ...string) *fakeSurface {
	s := &fakeSurface{clips: make(map[string]time.Duration)}
	for _, n := range names {
		s.clips[n] = 100 * time.Millisecond
	}
	return s
}

func (s *fakeSurface) Has(clip string) bool { _, ok := s.clips[clip]; return ok }

func (s *fakeSurface) Play(clip string) error {
	if clip == s.failPlay {
		return errors.New("decoder crashed")
	}
	if !s.Has(clip) {
		return ErrClipNotFound
	}
	s.log = append(s.log, "play:"+clip)
	return nil
}

func (s *fakeSurface) Pause() { s.log = append(s.log, "pause") }

func (s *fakeSurface) Finished() bool { return !s.unfinished }

func (s *fakeSurface) ClipDuration(clip string) (time.Duration, bool) {
	d, ok := s.clips[clip]
	return d, ok
}

type recordingSink struct {
	displays []Display
	snaps    []*SnapshotRecord
}

func (r *recordingSink) Apply(d Display, snap *SnapshotRecord) {
	r.displays = append(r.displays, d)
	r.snaps = append(r.snaps, snap)
}

func (r *recordingSink) phases() []Phase {
	out := make([]Phase, len(r.displays))
	for i, d := range r.displays {
		out[i] = d.Phase
	}
	return out
}

type recordingObserver struct {
	mu     sync.Mutex
	events []Event
}

func (o *recordingObserver) Observe(e Event) {
	o.mu.Lock()
	o.events = append(o.events, e)
	o.mu.Unlock()
}

func (o *recordingObserver) kinds() []EventKind {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]EventKind, len(o.events))
	for i, e := range o.events {
		out[i] = e.Kind
	}
	return out
}

func (o *recordingObserver) last(kind EventKind) (Event, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.events) - 1; i >= 0; i-- {
		if o.events[i].Kind == kind {
			return o.events[i], true
		}
	}
	return Event{}, false
}

// fixture bundles a Sequencer with fake collaborators.
type fixture struct {
	seq      *Sequencer
	region   *fakeRegion
	media    *fakeMedia
	provider *fakeProvider
	front    *fakeSurface
	back     *fakeSurface
	sink     *recordingSink
	observer *recordingObserver
}

func newFixture(t *testing.T, mutate ...func(*Config, *fixture)) *fixture {
	t.Helper()
	clips := DefaultClipNames()
	f := &fixture{
		media:    &fakeMedia{},
		provider: &fakeProvider{},
		front:    newFakeSurface(clips.forSurface(SurfaceFront)...),
		back:     newFakeSurface(clips.forSurface(SurfaceBack)...),
		sink:     &recordingSink{},
		observer: &recordingObserver{},
	}
	f.region = &fakeRegion{bounds: Rect{X: 20, Y: 64, Width: 390, Height: 420}, media: f.media}
	cfg := DefaultConfig()
	for _, m := range mutate {
		m(&cfg, f)
	}
	seq, err := NewSequencer(cfg, Deps{
		Region:    f.region,
		Snapshots: f.provider,
		Engine:    SurfacePair{Front: f.front, Back: f.back},
		Sink:      f.sink,
		Observer:  f.observer,
	})
	require.NoError(t, err)
	f.seq = seq
	return f
}

// waitArmed pumps Update until the capture result has been consumed.
func (f *fixture) waitArmed(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool {
		f.seq.Update(0)
		return f.seq.Phase() != PhaseCapturing
	}, time.Second, time.Millisecond)
}

// advance steps the clock in 10ms frames for d.
func (f *fixture) advance(d time.Duration) {
	const frame = 10 * time.Millisecond
	for ; d > 0; d -= frame {
		f.seq.Update(min(frame, d))
	}
}
