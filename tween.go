package bagdrop

import (
	"fmt"
	"strings"
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// maxTweenFields is the widest group: a full snapshot pose.
const maxTweenFields = 6

// TweenGroup animates up to six float64 fields simultaneously. Create one via
// TweenPose or TweenValue and call Update each frame. The group auto-applies
// values and marks its node dirty. If the target node is disposed, the group
// stops immediately.
//
// There is no global animation manager; owners call Update themselves.
type TweenGroup struct {
	tweens [maxTweenFields]*gween.Tween
	ends   [maxTweenFields]float64
	count  int
	fields [maxTweenFields]*float64
	target *Node
	Done   bool
}

func (g *TweenGroup) add(field *float64, to float64, duration float32, fn ease.TweenFunc) {
	g.tweens[g.count] = gween.New(float32(*field), float32(to), duration, fn)
	g.ends[g.count] = to
	g.fields[g.count] = field
	g.count++
}

// Update advances all tweens by dt, writes values to the target fields,
// and marks the node dirty. If the target node has been disposed, Done is set
// to true and no writes occur.
func (g *TweenGroup) Update(dt time.Duration) {
	if g.Done {
		return
	}

	if g.target != nil && g.target.IsDisposed() {
		g.Done = true
		return
	}

	step := float32(dt.Seconds())
	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(step)
		*g.fields[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone

	if g.target != nil {
		g.target.MarkDirty()
	}
}

// Finish jumps every field to its end value.
func (g *TweenGroup) Finish() {
	for i := 0; i < g.count; i++ {
		*g.fields[i] = g.ends[i]
	}
	g.Done = true
	if g.target != nil && !g.target.IsDisposed() {
		g.target.MarkDirty()
	}
}

func seconds(d time.Duration) float32 {
	return float32(d.Seconds())
}

// TweenPose creates a TweenGroup that moves node toward the pose t relative
// to origin: position, scale, horizontal skew and alpha.
func TweenPose(node *Node, origin Vec2, t Transform, duration time.Duration, fn ease.TweenFunc) *TweenGroup {
	d := seconds(duration)
	g := &TweenGroup{target: node}
	g.add(&node.X, origin.X+t.OffsetX, d, fn)
	g.add(&node.Y, origin.Y+t.OffsetY, d, fn)
	g.add(&node.ScaleX, t.ScaleX, d, fn)
	g.add(&node.ScaleY, t.ScaleY, d, fn)
	g.add(&node.SkewX, t.Skew, d, fn)
	g.add(&node.Alpha, t.Alpha, d, fn)
	return g
}

// TweenValue creates a TweenGroup over a free-standing field such as a blur
// radius or dim amount. No node is marked dirty.
func TweenValue(field *float64, to float64, duration time.Duration, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{}
	g.add(field, to, seconds(duration), fn)
	return g
}

var easings = map[string]ease.TweenFunc{
	"linear":       ease.Linear,
	"in-quad":      ease.InQuad,
	"out-quad":     ease.OutQuad,
	"in-out-quad":  ease.InOutQuad,
	"in-cubic":     ease.InCubic,
	"out-cubic":    ease.OutCubic,
	"in-out-cubic": ease.InOutCubic,
	"in-sine":      ease.InSine,
	"out-sine":     ease.OutSine,
	"in-out-sine":  ease.InOutSine,
	"in-expo":      ease.InExpo,
	"out-expo":     ease.OutExpo,
	"in-out-expo":  ease.InOutExpo,
	"in-back":      ease.InBack,
	"out-back":     ease.OutBack,
	"in-out-back":  ease.InOutBack,
	"out-bounce":   ease.OutBounce,
	"out-elastic":  ease.OutElastic,
}

// EaseByName resolves a kebab-case easing name such as "in-out-cubic". The
// empty name is linear.
func EaseByName(name string) (ease.TweenFunc, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	if key == "" {
		return ease.Linear, nil
	}
	fn, ok := easings[key]
	if !ok {
		return nil, fmt.Errorf("bagdrop: unknown easing %q", name)
	}
	return fn, nil
}
