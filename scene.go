package bagdrop

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// Scene owns the node tree, input state and the renderer. It is driven by the
// host game loop: Update once per tick with the elapsed time, Draw once per
// frame.
type Scene struct {
	root  *Node
	debug bool

	render   renderer
	updaters []updater
	nextID   uint32

	// Input state
	clicks      []clickHandler
	pointer     pointerState
	hitBuf      []*Node
	injectQueue []syntheticPointerEvent
	pollMouse   bool

	// Scripted runs
	script          *ScriptRunner
	screenshotQueue []string
	// ScreenshotDir receives PNGs queued with Screenshot.
	ScreenshotDir string

	stats debugStats
}

type updater struct {
	id uint32
	fn func(dt time.Duration)
}

// NewScene creates a new scene with a pre-created root container.
func NewScene() *Scene {
	root := NewContainer("root")
	root.Interactable = true
	return &Scene{root: root, pollMouse: true, ScreenshotDir: DefaultScreenshotDir}
}

// Root returns the scene's root container node.
func (s *Scene) Root() *Node {
	return s.root
}

// OnUpdate registers fn to run every Update after node updates and before
// input is processed. The returned handle unregisters it.
func (s *Scene) OnUpdate(fn func(dt time.Duration)) CallbackHandle {
	s.nextID++
	s.updaters = append(s.updaters, updater{id: s.nextID, fn: fn})
	return CallbackHandle{id: s.nextID, scene: s, kind: handleUpdate}
}

// Update refreshes world transforms, runs node and scene updaters, advances
// an attached script, then processes pointer input.
func (s *Scene) Update(dt time.Duration) {
	var t0 time.Time
	if s.debug {
		t0 = time.Now()
	}

	updateWorldTransform(s.root, identityTransform, 1.0, false)
	s.root.Walk(func(n *Node) bool {
		if n.OnUpdate != nil {
			n.OnUpdate(dt)
		}
		return true
	})
	for _, u := range s.updaters {
		u.fn(dt)
	}
	// Updaters may move nodes; hit testing needs this frame's positions.
	updateWorldTransform(s.root, identityTransform, 1.0, false)
	if s.script != nil {
		s.script.step(s)
	}
	s.processInput()

	if s.debug {
		s.stats.updateTime = time.Since(t0)
	}
}

// Draw renders the tree to screen.
func (s *Scene) Draw(screen *ebiten.Image) {
	var t0 time.Time
	if s.debug {
		t0 = time.Now()
	}

	s.render.stats = debugStats{}
	s.render.draw(screen, s.root, identityTransform, 1)
	s.render.releaseDeferred()
	s.flushScreenshots(screen)

	if s.debug {
		stats := s.render.stats
		stats.updateTime = s.stats.updateTime
		stats.drawTime = time.Since(t0)
		s.debugLog(stats)
	}
}

// SetDebugMode enables or disables debug mode. When enabled, disposed-node
// access panics, tree depth and child count warnings are printed, and
// per-frame timing stats are logged to stderr.
func (s *Scene) SetDebugMode(enabled bool) {
	s.debug = enabled
	globalDebug = enabled
}

// SetMousePolling turns reading the real mouse on or off. Headless hosts and
// tests turn it off and drive the scene with injected clicks.
func (s *Scene) SetMousePolling(enabled bool) {
	s.pollMouse = enabled
}

// globalDebug mirrors the most recently set Scene debug flag so that node
// operations (which lack a Scene pointer) can check it cheaply. Only valid
// with a single Scene.
var globalDebug bool
