package bagdrop

import (
	"math"
	"testing"
	"time"

	"github.com/tanema/gween/ease"
)

const half = 500 * time.Millisecond

// moveTo tweens only the position of node, leaving scale, skew and alpha at
// their identity values.
func moveTo(node *Node, x, y float64, d time.Duration, fn ease.TweenFunc) *TweenGroup {
	to := IdentityTransform
	to.OffsetX, to.OffsetY = x, y
	return TweenPose(node, Vec2{}, to, d, fn)
}

func TestTweenMoveReachesTarget(t *testing.T) {
	node := NewContainer("pos")
	node.X = 10
	node.Y = 20

	g := moveTo(node, 100, 200, time.Second, ease.Linear)

	// Exact halves avoid float32 accumulation drift.
	g.Update(half)
	g.Update(half)

	if !g.Done {
		t.Fatal("expected Done after full duration")
	}
	if math.Abs(node.X-100) > 0.5 {
		t.Errorf("X = %f, want ~100", node.X)
	}
	if math.Abs(node.Y-200) > 0.5 {
		t.Errorf("Y = %f, want ~200", node.Y)
	}
}

func TestTweenScaleReachesTarget(t *testing.T) {
	node := NewContainer("scale")

	to := IdentityTransform
	to.ScaleX, to.ScaleY = 2, 3
	g := TweenPose(node, Vec2{}, to, half, ease.Linear)

	g.Update(250 * time.Millisecond)
	g.Update(250 * time.Millisecond)

	if !g.Done {
		t.Fatal("expected Done after full duration")
	}
	if math.Abs(node.ScaleX-2.0) > 0.01 {
		t.Errorf("ScaleX = %f, want ~2.0", node.ScaleX)
	}
	if math.Abs(node.ScaleY-3.0) > 0.01 {
		t.Errorf("ScaleY = %f, want ~3.0", node.ScaleY)
	}
}

func TestTweenAlphaInterpolates(t *testing.T) {
	node := NewContainer("alpha")
	node.Alpha = 1.0

	to := IdentityTransform
	to.Alpha = 0
	tw := TweenPose(node, Vec2{}, to, time.Second, ease.Linear)

	tw.Update(half)
	if tw.Done {
		t.Fatal("should not be done at halfway")
	}
	if math.Abs(node.Alpha-0.5) > 0.05 {
		t.Errorf("Alpha = %f, want ~0.5 at halfway", node.Alpha)
	}

	tw.Update(half)
	if !tw.Done {
		t.Fatal("should be done after full duration")
	}
	if math.Abs(node.Alpha) > 0.01 {
		t.Errorf("Alpha = %f, want ~0.0", node.Alpha)
	}
}

func TestTweenPoseAppliesEveryField(t *testing.T) {
	node := NewSprite("snap", nil)
	node.SetPosition(20, 64)
	origin := Vec2{20, 64}
	to := Transform{ScaleX: 0.5, ScaleY: 0.5, Skew: -0.05, OffsetY: 140, Alpha: 0}

	g := TweenPose(node, origin, to, time.Second, ease.Linear)
	g.Update(half)
	g.Update(half)

	if !g.Done {
		t.Fatal("expected Done after full duration")
	}
	assertNearTol(t, "X", node.X, 20, 0.01)
	assertNearTol(t, "Y", node.Y, 204, 0.01)
	assertNearTol(t, "ScaleX", node.ScaleX, 0.5, 0.01)
	assertNearTol(t, "ScaleY", node.ScaleY, 0.5, 0.01)
	assertNearTol(t, "SkewX", node.SkewX, -0.05, 0.001)
	assertNearTol(t, "Alpha", node.Alpha, 0, 0.01)
}

func TestTweenValueHasNoTarget(t *testing.T) {
	radius := 0.0
	g := TweenValue(&radius, 10, time.Second, ease.Linear)
	g.Update(half)
	if math.Abs(radius-5) > 0.05 {
		t.Errorf("radius = %f, want ~5 at halfway", radius)
	}
	g.Update(half)
	if !g.Done {
		t.Fatal("expected Done")
	}
}

func TestTweenFinishJumpsToEnd(t *testing.T) {
	node := NewContainer("finish")
	g := moveTo(node, 30, 40, time.Second, ease.InOutCubic)
	g.Update(100 * time.Millisecond)

	g.Finish()

	if !g.Done {
		t.Fatal("expected Done after Finish")
	}
	if node.X != 30 || node.Y != 40 {
		t.Errorf("position = (%f, %f), want (30, 40)", node.X, node.Y)
	}
}

func TestTweenGroupDoneFlagTransition(t *testing.T) {
	node := NewContainer("done")
	g := moveTo(node, 50, 50, half, ease.Linear)

	if g.Done {
		t.Fatal("should not be Done at start")
	}

	g.Update(250 * time.Millisecond)
	if g.Done {
		t.Fatal("should not be Done partway through")
	}

	g.Update(250 * time.Millisecond)
	if !g.Done {
		t.Fatal("should be Done after full duration")
	}

	// Update after done is a no-op.
	g.Update(100 * time.Millisecond)
	if !g.Done {
		t.Fatal("should remain Done")
	}
}

func TestTweenGroupMarksDirty(t *testing.T) {
	node := NewContainer("dirty")
	node.transformDirty = false

	g := moveTo(node, 100, 100, time.Second, ease.Linear)
	g.Update(100 * time.Millisecond)

	if !node.transformDirty {
		t.Fatal("expected node to be marked dirty after TweenGroup update")
	}
}

func TestTweenGroupDisposedNode(t *testing.T) {
	node := NewContainer("disposed")
	node.X = 10
	node.Y = 20

	g := moveTo(node, 100, 200, time.Second, ease.Linear)
	node.Dispose()

	g.Update(100 * time.Millisecond)

	if !g.Done {
		t.Fatal("expected Done after disposed node detected")
	}
	if node.X != 10 {
		t.Errorf("X changed to %f on disposed node", node.X)
	}
	if node.Y != 20 {
		t.Errorf("Y changed to %f on disposed node", node.Y)
	}
}

func TestTweenEasingFunctionsProduceDifferentCurves(t *testing.T) {
	nodeL := NewContainer("linear")
	nodeC := NewContainer("cubic")

	gL := moveTo(nodeL, 100, 0, time.Second, ease.Linear)
	gC := moveTo(nodeC, 100, 0, time.Second, ease.OutCubic)

	gL.Update(half)
	gC.Update(half)

	if math.Abs(nodeL.X-nodeC.X) < 1.0 {
		t.Errorf("easing curves should differ at midpoint: linear=%f cubic=%f", nodeL.X, nodeC.X)
	}
}

func TestEaseByName(t *testing.T) {
	for _, name := range []string{"", "linear", "out-cubic", "In_Out_Cubic", " in-back "} {
		if _, err := EaseByName(name); err != nil {
			t.Errorf("EaseByName(%q) error: %v", name, err)
		}
	}
	if _, err := EaseByName("wobble"); err == nil {
		t.Error("expected error for unknown easing")
	}
}

func TestTweenGroupUpdateZeroAlloc(t *testing.T) {
	node := NewContainer("alloc")
	g := moveTo(node, 100, 100, time.Second, ease.Linear)

	g.Update(10 * time.Millisecond)

	result := testing.AllocsPerRun(100, func() {
		g.Update(time.Millisecond)
	})
	if result > 0 {
		t.Errorf("TweenGroup.Update allocated %f times per run, want 0", result)
	}
}
