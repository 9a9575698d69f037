package bagdrop

import (
	"testing"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newBagSheet tags three 40ms frames per clip. Only idle loops.
func newBagSheet(t *testing.T, names ClipNames) *ClipSheet {
	t.Helper()
	all := []string{names.Start, names.OpenFront, names.OpenBack, names.EnterFront, names.EnterBack, names.Close, names.Idle}
	frames := make([]Frame, 0, 3*len(all))
	for range 3 * len(all) {
		frames = append(frames, Frame{Image: ebiten.NewImage(48, 48), Duration: 40 * time.Millisecond})
	}
	sheet := NewClipSheet(frames)
	for i, name := range all {
		require.NoError(t, sheet.AddClip(name, 3*i, 3*i+2, name == names.Idle))
	}
	return sheet
}

type pipeline struct {
	scene   *Scene
	seq     *Sequencer
	present *Presenter
	video   *FrameLoop
	button  *Node
	front   *SpriteSurface
	back    *SpriteSurface
	obs     *recordingObserver
}

func newPipeline(t *testing.T, cfg Config) *pipeline {
	t.Helper()
	scene := NewScene()
	scene.SetMousePolling(false)

	page := NewContainer("page")
	page.Interactable = true
	overlay := NewContainer("overlay")
	scene.Root().AddChild(page)
	scene.Root().AddChild(overlay)

	product := NewRect("product", 390, 420, ColorWhite)
	product.SetPosition(20, 64)
	page.AddChild(product)
	video := NewSprite("video", nil)
	product.AddChild(video)
	loop := NewFrameLoop(video, []*ebiten.Image{ebiten.NewImage(4, 4), ebiten.NewImage(4, 4)}, 30)

	text := NewRect("copy", 390, 60, ColorWhite)
	page.AddChild(text)

	button := NewRect("button", 200, 48, ColorWhite)
	button.SetPosition(100, 560)
	button.Interactable = true
	page.AddChild(button)

	sheet := newBagSheet(t, cfg.Clips)
	front := NewSpriteSurface(NewSprite("bag-front", nil), sheet)
	back := NewSpriteSurface(NewSprite("bag-back", nil), sheet)
	scene.Root().AddChild(back.Node())
	scene.Root().AddChild(front.Node())

	snap := NewSprite("snapshot", nil)
	overlay.AddChild(snap)
	present := NewPresenter(PresenterNodes{Snapshot: snap, Content: page, Text: text, Back: back.Node()})

	snapshots := NewNodeSnapshotter(1)
	obs := &recordingObserver{}
	seq, err := NewSequencer(cfg, Deps{
		Region:    NewNodeRegion(product, overlay),
		Snapshots: snapshots,
		Engine:    SurfacePair{Front: front, Back: back},
		Sink:      present,
		Observer:  obs,
	})
	require.NoError(t, err)

	scene.OnUpdate(snapshots.Update)
	scene.OnUpdate(front.Update)
	scene.OnUpdate(back.Update)
	scene.OnUpdate(seq.Update)
	scene.OnUpdate(present.Update)
	button.OnClick = func(ClickContext) { seq.Trigger() }

	return &pipeline{scene: scene, seq: seq, present: present, video: loop, button: button, front: front, back: back, obs: obs}
}

// click presses and releases the button over two frames.
func (p *pipeline) click() {
	p.scene.ClickNode(p.button)
	p.scene.Update(16 * time.Millisecond)
	p.scene.Update(16 * time.Millisecond)
}

// runUntil steps the loop in 16ms frames until cond holds.
func (p *pipeline) runUntil(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		p.scene.Update(16 * time.Millisecond)
		return cond()
	}, 5*time.Second, time.Millisecond)
}

func (p *pipeline) phasesEntered() []Phase {
	p.obs.mu.Lock()
	defer p.obs.mu.Unlock()
	var out []Phase
	for _, e := range p.obs.events {
		if e.Kind == EventPhaseEntered {
			out = append(out, e.Phase)
		}
	}
	return out
}

func TestPipelineClickRunsFullSequence(t *testing.T) {
	p := newPipeline(t, DefaultConfig())

	p.click()
	require.Equal(t, StateRunning, p.seq.State())

	p.runUntil(t, func() bool { return p.seq.Phase() == PhaseAnticipate })
	assert.True(t, p.video.Paused(), "product video is frozen during the sequence")
	assert.NotNil(t, p.present.nodes.Snapshot.Image())
	assert.False(t, p.present.nodes.Text.Visible)

	p.runUntil(t, func() bool { return p.seq.State() == StateIdle })

	assert.Equal(t, 1, p.seq.Count())
	assert.Equal(t, Label(1, Dollars(130)), p.seq.Label())
	assert.Equal(t, PhaseReset, p.present.Phase())
	assert.False(t, p.video.Paused())
	assert.Nil(t, p.present.nodes.Snapshot.Image())
	assert.True(t, p.present.nodes.Text.Visible)
	assert.False(t, p.back.Node().Visible)
	assert.Nil(t, p.present.nodes.Content.Filters)

	name, playing := p.front.Playing()
	assert.Equal(t, "idle", name)
	assert.True(t, playing)

	assert.Equal(t, timedPhases[:], p.phasesEntered())
}

func TestPipelineClickWhileRunningIsIgnored(t *testing.T) {
	p := newPipeline(t, DefaultConfig())
	p.click()
	p.runUntil(t, func() bool { return p.seq.Phase() == PhaseOpen })

	p.click()
	p.runUntil(t, func() bool { return p.seq.State() == StateIdle })

	assert.Equal(t, 1, p.seq.Count())
	assert.Contains(t, p.obs.kinds(), EventRejected)
}

func TestPipelineAwaitClips(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AwaitClips = true
	p := newPipeline(t, cfg)

	p.click()
	p.runUntil(t, func() bool { return p.seq.State() == StateIdle && p.seq.Count() == 1 })

	_, ok := p.obs.last(EventCompleted)
	assert.True(t, ok)
}

func TestPipelineRegionRemovedAborts(t *testing.T) {
	p := newPipeline(t, DefaultConfig())
	p.seq.deps.Region.(*NodeRegion).Node().Dispose()

	p.click()

	assert.Equal(t, StateIdle, p.seq.State())
	assert.Equal(t, 0, p.seq.Count())
	e, ok := p.obs.last(EventAborted)
	require.True(t, ok)
	assert.ErrorIs(t, e.Err, ErrGeometryUnavailable)
	assert.True(t, p.present.nodes.Text.Visible)
}
