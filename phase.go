package bagdrop

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// SequenceState is the re-entrancy guard of a Sequencer.
type SequenceState uint8

const (
	StateIdle    SequenceState = iota // no sequence in flight; Trigger is accepted
	StateRunning                      // a sequence owns the guard; Trigger is a no-op
)

// String returns "idle" or "running".
func (s SequenceState) String() string {
	if s == StateRunning {
		return "running"
	}
	return "idle"
}

// Phase is the single source of truth for what the add-to-bag interaction
// currently shows. Every visibility flag and transform target is derived from
// it by DisplayFor.
type Phase uint8

const (
	PhaseIdle         Phase = iota // resting screen
	PhaseCapturing                 // trigger accepted, waiting for the snapshot
	PhaseStart                     // snapshot overlays the region, front plays "start"
	PhaseAnticipate                // snapshot tilts and shrinks, content blurs
	PhaseOpen                      // back surface shown, both surfaces open
	PhaseEnter                     // snapshot flies into the bag icon
	PhaseHideSnapshot              // snapshot discarded
	PhaseClose                     // front closes, back stops being driven
	PhaseReset                     // idle clips, counter update, guard release
)

var phaseNames = [...]string{
	PhaseIdle:         "idle",
	PhaseCapturing:    "capturing",
	PhaseStart:        "start",
	PhaseAnticipate:   "anticipate",
	PhaseOpen:         "open",
	PhaseEnter:        "enter",
	PhaseHideSnapshot: "hide-snapshot",
	PhaseClose:        "close",
	PhaseReset:        "reset",
}

// String returns the kebab-case name used in config files and logs.
func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

// ParsePhase is the inverse of Phase.String. Matching ignores case and accepts
// underscores in place of dashes.
func ParsePhase(s string) (Phase, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for i, n := range phaseNames {
		if n == name {
			return Phase(i), nil
		}
	}
	return PhaseIdle, fmt.Errorf("bagdrop: unknown phase %q", s)
}

// timedPhases are the phases driven by the schedule, in canonical order.
var timedPhases = [...]Phase{
	PhaseStart, PhaseAnticipate, PhaseOpen, PhaseEnter,
	PhaseHideSnapshot, PhaseClose, PhaseReset,
}

// --- Display mapping ---

// Transform is a target pose for the snapshot, relative to its captured
// position. The zero Transform is not the identity; use IdentityTransform.
type Transform struct {
	ScaleX, ScaleY   float64
	Skew             float64 // horizontal tilt in radians
	OffsetX, OffsetY float64
	Alpha            float64
}

// IdentityTransform leaves the snapshot exactly over the captured region.
var IdentityTransform = Transform{ScaleX: 1, ScaleY: 1, Alpha: 1}

// Motion is a continuous transition of the snapshot toward To.
type Motion struct {
	To       Transform
	Duration time.Duration
	Ease     string // see EaseByName
}

// Effect is the blur and dim applied to the content under the snapshot.
type Effect struct {
	Blur float64 // radius in pixels
	Dim  float64 // 0 = untouched, 1 = black
}

// Motions groups the tunable transform parameters of the interaction.
type Motions struct {
	Anticipate       Motion
	Enter            Motion
	AnticipateEffect Effect
	EnterEffect      Effect
}

// DefaultMotions returns the anticipate/enter motions used by DefaultConfig.
func DefaultMotions() Motions {
	return Motions{
		Anticipate: Motion{
			To: Transform{
				ScaleX: 0.92, ScaleY: 0.92,
				Skew:    -3 * math.Pi / 180,
				OffsetY: -10,
				Alpha:   1,
			},
			Duration: 600 * time.Millisecond,
			Ease:     "out-cubic",
		},
		Enter: Motion{
			To: Transform{
				ScaleX: 0.2, ScaleY: 0.2,
				OffsetY: 140,
				Alpha:   0,
			},
			Duration: 700 * time.Millisecond,
			Ease:     "in-out-cubic",
		},
		AnticipateEffect: Effect{Blur: 4, Dim: 0.25},
		EnterEffect:      Effect{Blur: 10, Dim: 0.4},
	}
}

// Display is everything the rendering layer needs for one phase. The
// renderer only reads it; the Sequencer is the only writer.
type Display struct {
	Phase Phase

	TextVisible        bool
	BackSurfaceVisible bool
	EffectsActive      bool
	SnapshotVisible    bool

	Snapshot Motion
	Effect   Effect

	ButtonText string
	Label      string
}

// DisplayFor maps a phase to its flags and transform targets. It is pure:
// the same phase and motions always give the same Display. ButtonText and
// Label are left empty for the caller to fill.
//
// Each flag is set by exactly one phase and cleared by exactly one phase:
//
//	TextVisible         cleared at Capturing,  set at Reset
//	SnapshotVisible     set at Start,          cleared at HideSnapshot
//	EffectsActive       set at Anticipate,     cleared at Reset
//	BackSurfaceVisible  set at Open,           cleared at Reset
func DisplayFor(p Phase, m Motions) Display {
	d := Display{Phase: p, Snapshot: Motion{To: IdentityTransform}}
	switch p {
	case PhaseIdle, PhaseReset:
		d.TextVisible = true
	case PhaseCapturing:
	case PhaseStart:
		d.SnapshotVisible = true
	case PhaseAnticipate:
		d.SnapshotVisible = true
		d.EffectsActive = true
		d.Snapshot = m.Anticipate
		d.Effect = m.AnticipateEffect
	case PhaseOpen:
		d.SnapshotVisible = true
		d.EffectsActive = true
		d.BackSurfaceVisible = true
		d.Snapshot = m.Anticipate
		d.Effect = m.AnticipateEffect
	case PhaseEnter:
		d.SnapshotVisible = true
		d.EffectsActive = true
		d.BackSurfaceVisible = true
		d.Snapshot = m.Enter
		d.Effect = m.EnterEffect
	case PhaseHideSnapshot, PhaseClose:
		d.EffectsActive = true
		d.BackSurfaceVisible = true
		d.Snapshot = m.Enter
		d.Effect = m.EnterEffect
	}
	return d
}

// --- Clip cues ---

// SurfaceID names one of the two playback surfaces.
type SurfaceID uint8

const (
	SurfaceFront SurfaceID = iota
	SurfaceBack
)

func (id SurfaceID) String() string {
	if id == SurfaceBack {
		return "back"
	}
	return "front"
}

// ClipNames is the clip enumeration the engine must resolve.
type ClipNames struct {
	Start      string
	OpenFront  string
	OpenBack   string
	EnterFront string
	EnterBack  string
	Close      string
	Idle       string
}

// DefaultClipNames returns the clip names of the bag icon asset.
func DefaultClipNames() ClipNames {
	return ClipNames{
		Start:      "start",
		OpenFront:  "open-front",
		OpenBack:   "open-back",
		EnterFront: "enter-front",
		EnterBack:  "enter-back",
		Close:      "close",
		Idle:       "idle",
	}
}

// forSurface lists every clip the sequence may play on the given surface.
func (c ClipNames) forSurface(id SurfaceID) []string {
	if id == SurfaceBack {
		return []string{c.OpenBack, c.EnterBack, c.Idle}
	}
	return []string{c.Start, c.OpenFront, c.EnterFront, c.Close, c.Idle}
}

// Cue is one command issued to a surface when a phase is entered. An empty
// Clip means pause.
type Cue struct {
	Surface SurfaceID
	Clip    string
}

// Pause reports whether the cue pauses instead of playing.
func (c Cue) Pause() bool { return c.Clip == "" }

// cuesFor returns the surface commands of a phase, front before back.
func cuesFor(p Phase, c ClipNames) []Cue {
	switch p {
	case PhaseStart:
		return []Cue{{SurfaceFront, c.Start}}
	case PhaseOpen:
		return []Cue{{SurfaceFront, c.OpenFront}, {SurfaceBack, c.OpenBack}}
	case PhaseEnter:
		return []Cue{{SurfaceFront, c.EnterFront}, {SurfaceBack, c.EnterBack}}
	case PhaseClose:
		return []Cue{{SurfaceFront, c.Close}, {SurfaceBack, ""}}
	case PhaseReset:
		return []Cue{{SurfaceFront, c.Idle}, {SurfaceBack, c.Idle}}
	}
	return nil
}
