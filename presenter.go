package bagdrop

import (
	"image"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/tanema/gween/ease"
)

// PresenterNodes are the scene nodes a Presenter drives. Snapshot must be a
// child of the container the tracked region is measured in, so snapshot
// bounds land exactly over the region. Text and Back may be nil.
type PresenterNodes struct {
	Snapshot *Node // sprite showing the captured image
	Content  *Node // receives the blur and dim filters
	Text     *Node // product copy, hidden while a sequence runs
	Back     *Node // back playback surface
}

// Presenter is a DisplaySink that renders Display states onto the scene
// graph. Snapshot poses and content effects are eased toward each phase's
// targets by Update. Apply and Update must run on the render loop.
type Presenter struct {
	nodes PresenterNodes

	blur    *BlurFilter
	dim     *DimFilter
	radius  float64
	filters [2]Filter

	pose    *TweenGroup
	effects [2]*TweenGroup

	source image.Image   // image currently installed on the snapshot node
	owned  *ebiten.Image // converted copy we must deallocate
	origin Vec2
	target Transform
	effect Effect

	phase       Phase
	textVisible bool
	buttonText  string
	label       string
}

// NewPresenter hides the snapshot and returns a presenter over nodes.
func NewPresenter(nodes PresenterNodes) *Presenter {
	p := &Presenter{
		nodes:  nodes,
		blur:   NewBlurFilter(0),
		dim:    NewDimFilter(0),
		target: IdentityTransform,
	}
	nodes.Snapshot.Visible = false
	p.Apply(NewDisplayStore().Load())
	return p
}

// Phase returns the phase of the last applied display.
func (p *Presenter) Phase() Phase { return p.phase }

// Text returns the button text and bag label of the last applied display.
func (p *Presenter) Text() (button, label string) { return p.buttonText, p.label }

// TextVisible reports whether the trigger text is shown. It is cleared while a
// sequence runs and restored at Reset.
func (p *Presenter) TextVisible() bool { return p.textVisible }

// Effect returns the blur radius and dim amount currently on screen.
func (p *Presenter) Effect() Effect {
	return Effect{Blur: p.radius, Dim: p.dim.Amount}
}

// Animating reports whether a pose or effect transition is in progress.
func (p *Presenter) Animating() bool {
	if p.pose != nil && !p.pose.Done {
		return true
	}
	for _, g := range p.effects {
		if g != nil && !g.Done {
			return true
		}
	}
	return false
}

// Apply implements DisplaySink.
func (p *Presenter) Apply(d Display, snap *SnapshotRecord) {
	p.phase = d.Phase
	p.buttonText, p.label = d.ButtonText, d.Label
	p.textVisible = d.TextVisible
	if p.nodes.Text != nil {
		p.nodes.Text.Visible = d.TextVisible
	}
	if p.nodes.Back != nil {
		p.nodes.Back.Visible = d.BackSurfaceVisible
	}

	if d.SnapshotVisible && snap != nil && snap.Image != nil {
		if snap.Image != p.source {
			p.install(snap)
		}
		if d.Snapshot.To != p.target {
			p.target = d.Snapshot.To
			p.pose = TweenPose(p.nodes.Snapshot, p.origin, d.Snapshot.To, d.Snapshot.Duration, easeOrLinear(d.Snapshot.Ease))
			finishIfInstant(p.pose, d.Snapshot.Duration)
		}
	} else {
		p.hideSnapshot()
	}

	if d.EffectsActive {
		if d.Effect != p.effect {
			p.effect = d.Effect
			fn := easeOrLinear(d.Snapshot.Ease)
			p.effects[0] = TweenValue(&p.radius, d.Effect.Blur, d.Snapshot.Duration, fn)
			p.effects[1] = TweenValue(&p.dim.Amount, clamp01(d.Effect.Dim), d.Snapshot.Duration, fn)
			finishIfInstant(p.effects[0], d.Snapshot.Duration)
			finishIfInstant(p.effects[1], d.Snapshot.Duration)
		}
	} else {
		p.effect = Effect{}
		p.effects = [2]*TweenGroup{}
		p.radius = 0
		p.dim.Amount = 0
	}
	p.syncFilters()
}

// Update advances running transitions by dt. Its signature matches
// Scene.OnUpdate.
func (p *Presenter) Update(dt time.Duration) {
	if p.pose != nil {
		p.pose.Update(dt)
	}
	for _, g := range p.effects {
		if g != nil {
			g.Update(dt)
		}
	}
	p.syncFilters()
}

// install puts a new snapshot on the sprite, pivoted at its center and posed
// exactly over the captured bounds.
func (p *Presenter) install(snap *SnapshotRecord) {
	p.releaseOwned()
	img, ok := snap.Image.(*ebiten.Image)
	if !ok {
		img = ebiten.NewImageFromImage(snap.Image)
		p.owned = img
	}
	p.source = snap.Image

	n := p.nodes.Snapshot
	b := snap.Bounds
	n.SetImage(img)
	n.SetSize(b.Width, b.Height)
	n.PivotX, n.PivotY = b.Width/2, b.Height/2
	p.origin = Vec2{X: b.X + b.Width/2, Y: b.Y + b.Height/2}
	n.applyPose(p.origin, IdentityTransform)
	n.Visible = true
	p.target = IdentityTransform
	p.pose = nil
}

// hideSnapshot drops every reference to the snapshot image; the Sequencer
// deallocates it right after.
func (p *Presenter) hideSnapshot() {
	n := p.nodes.Snapshot
	n.Visible = false
	n.SetImage(nil)
	p.releaseOwned()
	p.source = nil
	p.pose = nil
	p.target = IdentityTransform
}

func (p *Presenter) releaseOwned() {
	if p.owned != nil {
		p.owned.Deallocate()
		p.owned = nil
	}
}

// syncFilters attaches only the filters that currently have a visible effect.
func (p *Presenter) syncFilters() {
	if p.nodes.Content == nil {
		return
	}
	p.blur.SetRadius(p.radius)
	list := p.filters[:0]
	if p.blur.Radius > 0 {
		list = append(list, p.blur)
	}
	if p.dim.Amount > 0 {
		list = append(list, p.dim)
	}
	if len(list) == 0 {
		p.nodes.Content.Filters = nil
		return
	}
	p.nodes.Content.Filters = list
}

func easeOrLinear(name string) ease.TweenFunc {
	fn, err := EaseByName(name)
	if err != nil {
		return ease.Linear
	}
	return fn
}

func finishIfInstant(g *TweenGroup, d time.Duration) {
	if d <= 0 {
		g.Finish()
	}
}
