package bagdrop

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// renderer draws a node tree directly, depth first, in child order. Nodes
// with filters render their subtree into a pooled offscreen image that is
// post-processed and composited back.
type renderer struct {
	pool     renderTexturePool
	op       ebiten.DrawImageOptions
	deferred []*ebiten.Image
	stats    debugStats
}

// geoM converts an affine matrix into an ebiten.GeoM.
func geoM(m [6]float64) ebiten.GeoM {
	var g ebiten.GeoM
	g.SetElement(0, 0, m[0])
	g.SetElement(1, 0, m[1])
	g.SetElement(0, 1, m[2])
	g.SetElement(1, 1, m[3])
	g.SetElement(0, 2, m[4])
	g.SetElement(1, 2, m[5])
	return g
}

// draw renders n under the parent transform. Invisible or fully transparent
// subtrees are skipped.
func (r *renderer) draw(dst *ebiten.Image, n *Node, parent [6]float64, parentAlpha float64) {
	if !n.Visible || n.disposed {
		return
	}
	m := multiplyAffine(parent, computeLocalTransform(n))
	alpha := parentAlpha * n.Alpha
	if alpha <= 0 {
		return
	}
	if len(n.Filters) > 0 {
		r.drawFiltered(dst, n, m, alpha)
		return
	}
	r.drawContent(dst, n, m, alpha)
}

// drawContent draws the node itself and then its children, ignoring the
// node's own filters.
func (r *renderer) drawContent(dst *ebiten.Image, n *Node, m [6]float64, alpha float64) {
	r.drawSelf(dst, n, m, alpha)
	for _, c := range n.children {
		r.draw(dst, c, m, alpha)
	}
}

// drawSelf emits the single draw call for sprite and rect nodes.
func (r *renderer) drawSelf(dst *ebiten.Image, n *Node, m [6]float64, alpha float64) {
	var img *ebiten.Image
	var sw, sh float64
	switch n.Type {
	case NodeTypeSprite:
		if n.image == nil {
			return
		}
		img = n.image
		b := img.Bounds()
		sw, sh = float64(b.Dx()), float64(b.Dy())
	case NodeTypeRect:
		img = ensureWhitePixel()
		sw, sh = 1, 1
	default:
		return
	}
	if n.Width <= 0 || n.Height <= 0 || sw == 0 || sh == 0 {
		return
	}

	op := &r.op
	op.GeoM.Reset()
	op.GeoM.Scale(n.Width/sw, n.Height/sh)
	op.GeoM.Concat(geoM(m))
	op.ColorScale.Reset()
	c := n.Color
	a := c.A * alpha
	op.ColorScale.Scale(float32(c.R*a), float32(c.G*a), float32(c.B*a), float32(a))
	op.Filter = ebiten.FilterLinear
	dst.DrawImage(img, op)
	r.stats.nodeCount++
}

// drawFiltered renders the subtree into an offscreen sized to the node's own
// box plus the filter chain's padding, runs the filters and composites the
// result with the subtree's alpha. Children outside the box are clipped.
func (r *renderer) drawFiltered(dst *ebiten.Image, n *Node, m [6]float64, alpha float64) {
	box := n.boundsUnder(m)
	if box.Empty() {
		return
	}
	pad := float64(filterChainPadding(n.Filters))
	ox := math.Floor(box.X) - pad
	oy := math.Floor(box.Y) - pad
	w := int(math.Ceil(box.X + box.Width - ox + pad))
	h := int(math.Ceil(box.Y + box.Height - oy + pad))

	off := r.pool.Acquire(w, h)
	r.stats.offscreenUsed++
	shift := [6]float64{1, 0, 0, 1, -ox, -oy}
	r.drawContent(off, n, multiplyAffine(shift, m), 1)

	result, scratch := applyFilters(n.Filters, off, &r.pool)
	r.stats.filterPasses += len(n.Filters)

	op := &r.op
	op.GeoM.Reset()
	op.GeoM.Translate(ox, oy)
	op.ColorScale.Reset()
	op.ColorScale.ScaleAlpha(float32(alpha))
	op.Filter = ebiten.FilterNearest
	dst.DrawImage(result, op)

	r.deferred = append(r.deferred, off)
	if scratch != nil {
		r.deferred = append(r.deferred, scratch)
	}
}

// releaseDeferred returns the frame's offscreens to the pool.
func (r *renderer) releaseDeferred() {
	for _, img := range r.deferred {
		r.pool.Release(img)
	}
	r.deferred = r.deferred[:0]
}
