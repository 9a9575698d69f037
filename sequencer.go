package bagdrop

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Deps are the collaborators a Sequencer drives. Region, Snapshots and Engine
// are required; the rest are optional.
type Deps struct {
	Region    Region
	Snapshots SnapshotProvider
	Engine    Engine
	Sink      DisplaySink
	Observer  Observer
	Logger    *zap.Logger
}

// Sequencer runs the add-to-bag interaction. A trigger is accepted only when
// no sequence is in flight; an accepted trigger either runs every phase of
// the schedule through Reset exactly once or is aborted, restoring the idle
// display without touching the counter.
//
// Time advances only through Update, which the host calls once per frame.
// All methods are safe for concurrent use. Collaborators and observers are
// called with the Sequencer's lock held and must not call back into it.
type Sequencer struct {
	mu   sync.Mutex
	cfg  Config
	deps Deps
	log  *zap.Logger

	state   SequenceState
	display Display
	counter Counter
	run     *run

	results        chan captureResult
	timingsChecked bool
}

// run is the state owned by one accepted trigger.
type run struct {
	id     uuid.UUID
	ctx    context.Context
	cancel context.CancelFunc

	bounds   Rect
	surfaces [2]Surface
	played   [2]bool
	// awaiting marks surfaces whose last cue was a clip still worth waiting
	// for; a pause cue clears it.
	awaiting [2]bool

	media       Media
	mediaPaused bool

	snapshot *SnapshotRecord
	timeline *timeline // nil while capturing
}

type captureResult struct {
	run   uuid.UUID
	image image.Image
	err   error
}

// NewSequencer validates cfg and returns an idle Sequencer.
func NewSequencer(cfg Config, deps Deps) (*Sequencer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch {
	case deps.Region == nil:
		return nil, errors.New("bagdrop: Deps.Region is required")
	case deps.Snapshots == nil:
		return nil, errors.New("bagdrop: Deps.Snapshots is required")
	case deps.Engine == nil:
		return nil, fmt.Errorf("%w: Deps.Engine is nil", ErrEngineUnavailable)
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	s := &Sequencer{
		cfg:     cfg,
		deps:    deps,
		log:     log,
		counter: NewCounter(cfg.UnitPrice),
		results: make(chan captureResult, 4),
	}
	s.display = s.displayFor(PhaseIdle)
	return s, nil
}

// --- Accessors ---

// State returns the guard state.
func (s *Sequencer) State() SequenceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Phase returns the phase currently shown.
func (s *Sequencer) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.display.Phase
}

// Display returns the display state currently shown.
func (s *Sequencer) Display() Display {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.display
}

// Count returns the number of units added by completed sequences.
func (s *Sequencer) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counter.Count()
}

// Label returns the bag summary for the current count.
func (s *Sequencer) Label() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counter.Label()
}

// Counter returns a copy of the bag counter.
func (s *Sequencer) Counter() Counter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counter
}

// Snapshot returns the in-flight snapshot record, or nil.
func (s *Sequencer) Snapshot() *SnapshotRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run == nil || s.run.snapshot == nil {
		return nil
	}
	rec := *s.run.snapshot
	return &rec
}

// --- Trigger ---

// Trigger starts a sequence. It is a no-op returning false while another
// sequence is running. Otherwise it takes the guard, hides the button text,
// freezes the region geometry and requests the snapshot; the phases start
// from Update once the snapshot arrives. Trigger returns false when the
// sequence was aborted before the capture could be requested.
func (s *Sequencer) Trigger() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateRunning {
		s.notify(Event{Kind: EventRejected, Run: s.run.id, Phase: s.display.Phase, Count: s.counter.Count()})
		return false
	}

	ctx, cancel := s.captureContext()
	r := &run{id: uuid.New(), ctx: ctx, cancel: cancel}
	s.run = r
	s.state = StateRunning
	s.notify(Event{Kind: EventAccepted, Run: r.id, Count: s.counter.Count()})
	s.enter(PhaseCapturing)

	bounds, err := s.deps.Region.Bounds()
	if err == nil && bounds.Empty() {
		err = fmt.Errorf("empty bounds %+v", bounds)
	}
	if err != nil {
		s.abort(r, "measure region", wrapAs(ErrGeometryUnavailable, err))
		return false
	}
	r.bounds = bounds

	if err := s.resolveSurfaces(r); err != nil {
		s.abort(r, "resolve surfaces", err)
		return false
	}

	s.log.Debug("capture requested",
		zap.Stringer("run", r.id),
		zap.Float64("x", bounds.X), zap.Float64("y", bounds.Y),
		zap.Float64("w", bounds.Width), zap.Float64("h", bounds.Height))
	go s.capture(r.ctx, r.id, bounds)
	return true
}

func (s *Sequencer) captureContext() (context.Context, context.CancelFunc) {
	if s.cfg.CaptureTimeout > 0 {
		return context.WithTimeout(context.Background(), s.cfg.CaptureTimeout)
	}
	return context.WithCancel(context.Background())
}

// resolveSurfaces fetches both surfaces and checks every clip up front so a
// missing clip aborts the run before anything is shown.
func (s *Sequencer) resolveSurfaces(r *run) error {
	for _, id := range []SurfaceID{SurfaceFront, SurfaceBack} {
		sf, err := s.deps.Engine.Surface(id)
		if err == nil && sf == nil {
			err = fmt.Errorf("no %s surface", id)
		}
		if err != nil {
			return wrapAs(ErrEngineUnavailable, err)
		}
		for _, clip := range s.cfg.Clips.forSurface(id) {
			if !sf.Has(clip) {
				return fmt.Errorf("%w: %q on %s surface", ErrClipNotFound, clip, id)
			}
		}
		r.surfaces[id] = sf
	}
	if !s.timingsChecked {
		s.timingsChecked = true
		s.checkClipTimings(r)
	}
	return nil
}

// clipMark records the last clip cued on a surface and when.
type clipMark struct {
	clip string
	at   time.Duration
	set  bool
}

// checkClipTimings warns when a clip is cut off by the next cue on the same
// surface because the offsets between them are shorter than its duration.
func (s *Sequencer) checkClipTimings(r *run) {
	var last [2]clipMark
	for _, st := range s.cfg.Schedule {
		for _, cue := range cuesFor(st.Phase, s.cfg.Clips) {
			prev := last[cue.Surface]
			if timer, ok := r.surfaces[cue.Surface].(ClipTimer); ok && prev.set {
				if d, ok := timer.ClipDuration(prev.clip); ok && st.Offset-prev.at < d {
					s.log.Warn("phase offset shorter than clip",
						zap.String("clip", prev.clip),
						zap.Stringer("surface", cue.Surface),
						zap.Duration("clip_duration", d),
						zap.Duration("gap", st.Offset-prev.at))
				}
			}
			last[cue.Surface] = clipMark{clip: cue.Clip, at: st.Offset, set: !cue.Pause()}
		}
	}
}

// capture runs on its own goroutine so the host loop keeps updating while
// the provider works.
func (s *Sequencer) capture(ctx context.Context, id uuid.UUID, bounds Rect) {
	img, err := s.deps.Snapshots.Capture(ctx, s.deps.Region, bounds, s.cfg.Background)
	if err == nil && img == nil {
		err = errors.New("provider returned no image")
	}
	s.results <- captureResult{run: id, image: img, err: err}
}

// --- Update ---

// Update advances the sequence clock by dt and runs every phase that became
// due, in schedule order. It also picks up a finished snapshot capture, in
// which case the clock starts at zero this frame.
func (s *Sequencer) Update(dt time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	armed := s.drainCaptures()
	r := s.run
	if r == nil || r.timeline == nil {
		return
	}
	if armed {
		dt = 0
	}
	r.timeline.advance(dt)
	s.runDue(r)
}

// drainCaptures consumes pending capture results. Results for runs that are
// no longer current are discarded. It reports whether the current run's
// timeline was armed.
func (s *Sequencer) drainCaptures() bool {
	armed := false
	for {
		select {
		case res := <-s.results:
			r := s.run
			if r == nil || res.run != r.id || r.timeline != nil {
				if res.image != nil {
					releaseImage(res.image)
				}
				continue
			}
			if res.err != nil {
				s.abort(r, "capture snapshot", wrapAs(ErrCapture, res.err))
				continue
			}
			s.begin(r, res.image)
			armed = true
		default:
			return armed
		}
	}
}

// begin stores the snapshot, pauses the region's media and arms the clock.
func (s *Sequencer) begin(r *run, img image.Image) {
	r.snapshot = &SnapshotRecord{Image: img, Bounds: r.bounds}
	if m := s.deps.Region.Media(); m != nil {
		m.Pause()
		r.media = m
		r.mediaPaused = true
	}
	r.timeline = newTimeline(s.cfg.Schedule)
}

// runDue executes due steps until the clock catches up, a step is held, or
// the run ends.
func (s *Sequencer) runDue(r *run) {
	tl := r.timeline
	for s.run == r {
		st, ok := tl.due()
		if !ok {
			return
		}
		if s.cfg.AwaitClips && !s.gateOpen(r, st.Phase) {
			if held := tl.hold(); held < s.cfg.AwaitLimit {
				return
			}
			s.log.Debug("await limit reached", zap.Stringer("run", r.id), zap.Stringer("phase", st.Phase))
		}
		tl.pop()
		s.runStep(r, st)
	}
}

// gateOpen reports whether every surface p plays a clip on has finished the
// clip this run last played there. Pause cues and surfaces that cannot report
// completion never hold.
func (s *Sequencer) gateOpen(r *run, p Phase) bool {
	for _, cue := range cuesFor(p, s.cfg.Clips) {
		if cue.Pause() || !r.awaiting[cue.Surface] {
			continue
		}
		if f, ok := r.surfaces[cue.Surface].(ClipFinisher); ok && !f.Finished() {
			return false
		}
	}
	return true
}

func (s *Sequencer) runStep(r *run, st Step) {
	for _, cue := range cuesFor(st.Phase, s.cfg.Clips) {
		sf := r.surfaces[cue.Surface]
		if cue.Pause() {
			sf.Pause()
			r.awaiting[cue.Surface] = false
			continue
		}
		if err := sf.Play(cue.Clip); err != nil {
			s.abort(r, "play "+cue.Clip, wrapAs(ErrClipNotFound, err))
			return
		}
		r.played[cue.Surface] = true
		r.awaiting[cue.Surface] = true
	}

	switch st.Phase {
	case PhaseHideSnapshot:
		s.enter(st.Phase)
		s.discardSnapshot(r)
	case PhaseReset:
		s.complete(r, st)
		return
	default:
		s.enter(st.Phase)
	}
	s.notify(Event{Kind: EventPhaseEntered, Run: r.id, Phase: st.Phase, Offset: r.timeline.elapsed, Count: s.counter.Count()})
}

// complete is the Reset phase: the only writer of the counter and the only
// place a successful run releases the guard.
func (s *Sequencer) complete(r *run, st Step) {
	s.counter.increment()
	s.discardSnapshot(r)
	s.resumeMedia(r)
	r.cancel()
	s.run = nil
	s.state = StateIdle
	s.enter(PhaseReset)
	s.notify(Event{Kind: EventPhaseEntered, Run: r.id, Phase: PhaseReset, Offset: r.timeline.elapsed, Count: s.counter.Count()})
	s.log.Debug("sequence completed",
		zap.Stringer("run", r.id),
		zap.Int("count", s.counter.Count()),
		zap.String("label", s.counter.Label()))
	s.notify(Event{Kind: EventCompleted, Run: r.id, Phase: st.Phase, Offset: r.timeline.elapsed, Count: s.counter.Count()})
}

// --- Teardown ---

// Cancel tears down the running sequence: pending phases are dropped, the
// snapshot is discarded, media resumes and the idle display is restored. The
// counter is not changed. Cancel returns false when nothing was running.
func (s *Sequencer) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.run
	if r == nil {
		return false
	}
	phase := s.display.Phase
	s.teardown(r)
	s.log.Info("sequence cancelled", zap.Stringer("run", r.id), zap.Stringer("phase", phase))
	s.notify(Event{Kind: EventCancelled, Run: r.id, Phase: phase, Offset: r.offset(), Count: s.counter.Count(), Err: ErrCancelled})
	return true
}

// abort reports err to the log sink and restores idle state.
func (s *Sequencer) abort(r *run, op string, err error) {
	phase := s.display.Phase
	serr := &SequenceError{Run: r.id, Phase: phase, Op: op, Err: err}
	s.teardown(r)
	s.log.Warn("sequence aborted",
		zap.Stringer("run", r.id),
		zap.Stringer("phase", phase),
		zap.String("op", op),
		zap.Error(err))
	s.notify(Event{Kind: EventAborted, Run: r.id, Phase: phase, Offset: r.offset(), Count: s.counter.Count(), Err: serr})
}

func (s *Sequencer) teardown(r *run) {
	r.cancel()
	s.discardSnapshot(r)
	s.resumeMedia(r)
	for id, sf := range r.surfaces {
		if sf == nil || !r.played[id] {
			continue
		}
		sf.Pause()
		if err := sf.Play(s.cfg.Clips.Idle); err != nil {
			s.log.Warn("restore idle clip", zap.Stringer("surface", SurfaceID(id)), zap.Error(err))
		}
	}
	s.run = nil
	s.state = StateIdle
	s.enter(PhaseIdle)
}

func (s *Sequencer) discardSnapshot(r *run) {
	if r.snapshot == nil {
		return
	}
	releaseImage(r.snapshot.Image)
	r.snapshot = nil
}

func (s *Sequencer) resumeMedia(r *run) {
	if r.mediaPaused {
		r.media.Resume()
		r.mediaPaused = false
	}
}

func (r *run) offset() time.Duration {
	if r.timeline == nil {
		return 0
	}
	return r.timeline.elapsed
}

// --- Display ---

func (s *Sequencer) displayFor(p Phase) Display {
	d := DisplayFor(p, s.cfg.Motion)
	d.ButtonText = s.cfg.ButtonText
	d.Label = s.counter.Label()
	return d
}

// enter applies the display of phase p and hands it to the sink.
func (s *Sequencer) enter(p Phase) {
	s.display = s.displayFor(p)
	if s.deps.Sink == nil {
		return
	}
	var snap *SnapshotRecord
	if s.display.SnapshotVisible && s.run != nil && s.run.snapshot != nil {
		rec := *s.run.snapshot
		snap = &rec
	}
	s.deps.Sink.Apply(s.display, snap)
}

func (s *Sequencer) notify(e Event) {
	if s.deps.Observer != nil {
		s.deps.Observer.Observe(e)
	}
}
