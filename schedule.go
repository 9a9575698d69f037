package bagdrop

import (
	"fmt"
	"time"
)

// Step is one entry of a Schedule: the phase entered once Offset has elapsed
// since the snapshot became available.
type Step struct {
	Phase  Phase
	Offset time.Duration
}

// Schedule is the ordered phase timeline of one sequence run.
type Schedule []Step

// DefaultSchedule returns the canonical offsets of the interaction.
func DefaultSchedule() Schedule {
	return Schedule{
		{PhaseStart, 0},
		{PhaseAnticipate, 80 * time.Millisecond},
		{PhaseOpen, 500 * time.Millisecond},
		{PhaseEnter, 1000 * time.Millisecond},
		{PhaseHideSnapshot, 1700 * time.Millisecond},
		{PhaseClose, 1750 * time.Millisecond},
		{PhaseReset, 2250 * time.Millisecond},
	}
}

// Validate checks that the schedule names every timed phase exactly once, in
// canonical order, with non-negative and non-decreasing offsets.
func (s Schedule) Validate() error {
	if len(s) != len(timedPhases) {
		return fmt.Errorf("%w: want %d steps, got %d", ErrInvalidSchedule, len(timedPhases), len(s))
	}
	var prev time.Duration
	for i, st := range s {
		if st.Phase != timedPhases[i] {
			return fmt.Errorf("%w: step %d is %s, want %s", ErrInvalidSchedule, i, st.Phase, timedPhases[i])
		}
		if st.Offset < 0 {
			return fmt.Errorf("%w: %s has negative offset %v", ErrInvalidSchedule, st.Phase, st.Offset)
		}
		if st.Offset < prev {
			return fmt.Errorf("%w: %s at %v precedes previous step at %v", ErrInvalidSchedule, st.Phase, st.Offset, prev)
		}
		prev = st.Offset
	}
	return nil
}

// Offset returns the offset of phase p, or false if p is not scheduled.
func (s Schedule) Offset(p Phase) (time.Duration, bool) {
	for _, st := range s {
		if st.Phase == p {
			return st.Offset, true
		}
	}
	return 0, false
}

// Total returns the offset of the last step.
func (s Schedule) Total() time.Duration {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].Offset
}

// timeline is the monotonic logical clock of one run. It is advanced by the
// host loop; steps become due when the clock reaches their offset. A due step
// may be held, which freezes the clock at that step's offset so every later
// step keeps its spacing relative to it.
type timeline struct {
	steps   Schedule
	cursor  int
	elapsed time.Duration
	held    time.Duration
}

func newTimeline(steps Schedule) *timeline {
	return &timeline{steps: steps}
}

func (t *timeline) advance(dt time.Duration) {
	if dt > 0 {
		t.elapsed += dt
	}
}

// due returns the next step if the clock has reached it.
func (t *timeline) due() (Step, bool) {
	if t.cursor >= len(t.steps) {
		return Step{}, false
	}
	st := t.steps[t.cursor]
	if st.Offset > t.elapsed {
		return Step{}, false
	}
	return st, true
}

// hold keeps the current step pending, pulling the clock back to its offset.
// It returns the total time the step has been held so far.
func (t *timeline) hold() time.Duration {
	st := t.steps[t.cursor]
	t.held += t.elapsed - st.Offset
	t.elapsed = st.Offset
	return t.held
}

// pop consumes the current step.
func (t *timeline) pop() {
	t.cursor++
	t.held = 0
}

func (t *timeline) done() bool { return t.cursor >= len(t.steps) }
