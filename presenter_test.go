package bagdrop

import (
	"image"
	"testing"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

const poseTol = 1e-5

type presenterFixture struct {
	p       *Presenter
	overlay *Node
	snap    *Node
	content *Node
	text    *Node
	back    *Node
	motions Motions
}

func newPresenterFixture() *presenterFixture {
	f := &presenterFixture{
		overlay: NewContainer("overlay"),
		snap:    NewSprite("snapshot", nil),
		content: NewContainer("content"),
		text:    NewRect("text", 200, 20, ColorWhite),
		back:    NewSprite("back", nil),
		motions: DefaultMotions(),
	}
	f.overlay.AddChild(f.snap)
	f.p = NewPresenter(PresenterNodes{Snapshot: f.snap, Content: f.content, Text: f.text, Back: f.back})
	return f
}

func (f *presenterFixture) apply(p Phase, snap *SnapshotRecord) {
	d := DisplayFor(p, f.motions)
	d.ButtonText = "Add to Bag"
	d.Label = "1 item - $130.00"
	if !d.SnapshotVisible {
		snap = nil
	}
	f.p.Apply(d, snap)
}

func testSnapshot() *SnapshotRecord {
	return &SnapshotRecord{
		Image:  ebiten.NewImage(100, 80),
		Bounds: Rect{X: 20, Y: 64, Width: 100, Height: 80},
	}
}

func TestPresenterStartsIdle(t *testing.T) {
	f := newPresenterFixture()
	if f.snap.Visible {
		t.Error("snapshot should start hidden")
	}
	if !f.text.Visible {
		t.Error("text should start visible")
	}
	if f.back.Visible {
		t.Error("back surface should start hidden")
	}
	if f.content.Filters != nil {
		t.Errorf("content filters = %v, want none", f.content.Filters)
	}
	if f.p.Phase() != PhaseIdle {
		t.Errorf("Phase = %v, want idle", f.p.Phase())
	}
}

func TestPresenterInstallsSnapshotOverRegion(t *testing.T) {
	f := newPresenterFixture()
	rec := testSnapshot()
	f.apply(PhaseCapturing, nil)
	if f.text.Visible {
		t.Error("text should hide while capturing")
	}

	f.apply(PhaseStart, rec)

	if !f.snap.Visible {
		t.Fatal("snapshot should be visible at start")
	}
	if f.snap.Image() != rec.Image.(*ebiten.Image) {
		t.Error("snapshot node should show the captured image")
	}
	assertRect(t, "snapshot bounds", f.snap.BoundsIn(f.overlay), rec.Bounds)
}

func TestPresenterEasesPoseTowardMotionTarget(t *testing.T) {
	f := newPresenterFixture()
	rec := testSnapshot()
	f.apply(PhaseStart, rec)
	f.apply(PhaseAnticipate, rec)

	if !f.p.Animating() {
		t.Fatal("anticipate should start a transition")
	}
	f.p.Update(f.motions.Anticipate.Duration / 2)
	if f.snap.ScaleX >= 1 || f.snap.ScaleX <= f.motions.Anticipate.To.ScaleX {
		t.Errorf("mid-transition ScaleX = %v, want between target and 1", f.snap.ScaleX)
	}

	f.p.Update(f.motions.Anticipate.Duration)
	to := f.motions.Anticipate.To
	assertNearTol(t, "ScaleX", f.snap.ScaleX, to.ScaleX, poseTol)
	assertNearTol(t, "SkewX", f.snap.SkewX, to.Skew, poseTol)
	assertNearTol(t, "Y", f.snap.Y, 64+40+to.OffsetY, poseTol)
	assertNearTol(t, "X", f.snap.X, 20+50, poseTol)
	if f.p.Animating() {
		t.Error("transition should be done")
	}
}

func TestPresenterSamePoseDoesNotRestart(t *testing.T) {
	f := newPresenterFixture()
	rec := testSnapshot()
	f.apply(PhaseStart, rec)
	f.apply(PhaseAnticipate, rec)
	f.p.Update(time.Second)

	f.apply(PhaseOpen, rec)
	if f.p.Animating() {
		t.Error("open shares the anticipate pose and should not restart it")
	}
	if !f.back.Visible {
		t.Error("back surface should be visible at open")
	}
}

func TestPresenterEffectsFollowDisplay(t *testing.T) {
	f := newPresenterFixture()
	rec := testSnapshot()
	f.apply(PhaseStart, rec)
	if f.content.Filters != nil {
		t.Error("no effects before anticipate")
	}

	f.apply(PhaseAnticipate, rec)
	f.p.Update(time.Second)
	e := f.p.Effect()
	assertNearTol(t, "blur", e.Blur, f.motions.AnticipateEffect.Blur, poseTol)
	assertNearTol(t, "dim", e.Dim, f.motions.AnticipateEffect.Dim, poseTol)
	if len(f.content.Filters) != 2 {
		t.Fatalf("content filters = %d, want blur and dim", len(f.content.Filters))
	}

	f.apply(PhaseReset, nil)
	if f.content.Filters != nil {
		t.Error("reset should clear effects")
	}
	if f.p.Effect() != (Effect{}) {
		t.Errorf("Effect = %+v, want zero", f.p.Effect())
	}
}

func TestPresenterHideSnapshotReleasesImage(t *testing.T) {
	f := newPresenterFixture()
	rec := testSnapshot()
	f.apply(PhaseStart, rec)
	f.apply(PhaseEnter, rec)

	f.apply(PhaseHideSnapshot, rec)

	if f.snap.Visible {
		t.Error("snapshot should be hidden")
	}
	if f.snap.Image() != nil {
		t.Error("snapshot node should drop the image")
	}
	if f.content.Filters == nil {
		t.Error("effects stay active until reset")
	}
}

func TestPresenterConvertsForeignImages(t *testing.T) {
	f := newPresenterFixture()
	rec := &SnapshotRecord{
		Image:  image.NewRGBA(image.Rect(0, 0, 30, 20)),
		Bounds: Rect{Width: 30, Height: 20},
	}
	f.apply(PhaseStart, rec)

	if f.snap.Image() == nil || f.p.owned == nil {
		t.Fatal("a non-ebiten snapshot should be converted")
	}
	f.apply(PhaseHideSnapshot, nil)
	if f.p.owned != nil {
		t.Error("converted image should be released on hide")
	}
}

func TestPresenterZeroDurationJumps(t *testing.T) {
	f := newPresenterFixture()
	f.motions.Anticipate.Duration = 0
	rec := testSnapshot()
	f.apply(PhaseStart, rec)
	f.apply(PhaseAnticipate, rec)

	if f.p.Animating() {
		t.Error("zero-duration motion should complete immediately")
	}
	assertNear(t, "ScaleY", f.snap.ScaleY, f.motions.Anticipate.To.ScaleY)
}

func TestPresenterNewRunReplacesSnapshot(t *testing.T) {
	f := newPresenterFixture()
	first := testSnapshot()
	f.apply(PhaseStart, first)
	f.apply(PhaseReset, nil)

	second := &SnapshotRecord{Image: ebiten.NewImage(50, 50), Bounds: Rect{X: 5, Y: 5, Width: 50, Height: 50}}
	f.apply(PhaseStart, second)

	if f.snap.Image() != second.Image.(*ebiten.Image) {
		t.Error("second run should show its own snapshot")
	}
	assertNear(t, "Width", f.snap.Width, 50)
	assertNear(t, "ScaleX", f.snap.ScaleX, 1)
}

func TestPresenterText(t *testing.T) {
	f := newPresenterFixture()
	f.apply(PhaseReset, nil)
	button, label := f.p.Text()
	if button != "Add to Bag" || label != "1 item - $130.00" {
		t.Errorf("Text = %q, %q", button, label)
	}
}

func TestPresenterTextVisibleFollowsDisplay(t *testing.T) {
	f := newPresenterFixture()
	if !f.p.TextVisible() {
		t.Fatal("text should be visible while idle")
	}

	for _, p := range []Phase{PhaseCapturing, PhaseStart, PhaseEnter, PhaseClose} {
		f.apply(p, testSnapshot())
		if f.p.TextVisible() {
			t.Errorf("%v: text should be hidden during the sequence", p)
		}
		if f.text.Visible {
			t.Errorf("%v: text node should be hidden", p)
		}
	}

	f.apply(PhaseReset, nil)
	if !f.p.TextVisible() || !f.text.Visible {
		t.Error("text should return at reset")
	}
}
