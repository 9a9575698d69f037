package bagdrop

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// Filter is the interface for visual effects applied to a node's rendered output.
type Filter interface {
	// Apply renders src into dst with the filter effect.
	Apply(src, dst *ebiten.Image)
	// Padding returns the extra pixels needed around the source to accommodate
	// the effect (e.g. blur radius). Zero means no padding.
	Padding() int
}

// --- BlurFilter ---

// BlurFilter applies a Kawase iterative blur using downscale/upscale passes.
// Bilinear filtering during DrawImage does the work; no shader is needed.
type BlurFilter struct {
	Radius int
	temps  []*ebiten.Image
	imgOp  ebiten.DrawImageOptions
}

// NewBlurFilter creates a blur filter with the given radius (in pixels).
func NewBlurFilter(radius int) *BlurFilter {
	if radius < 0 {
		radius = 0
	}
	return &BlurFilter{Radius: radius}
}

// SetRadius rounds r to the nearest pixel. Negative values clamp to 0.
func (f *BlurFilter) SetRadius(r float64) {
	f.Radius = max(int(math.Round(r)), 0)
}

// blurPasses returns log2(radius) rounded up, minimum 1.
func blurPasses(radius int) int {
	return max(int(math.Ceil(math.Log2(float64(radius)))), 1)
}

// Apply renders a Kawase blur from src into dst using iterative downscale/upscale.
func (f *BlurFilter) Apply(src, dst *ebiten.Image) {
	if f.Radius <= 0 {
		f.imgOp.GeoM.Reset()
		f.imgOp.ColorScale.Reset()
		f.imgOp.Filter = ebiten.FilterNearest
		dst.DrawImage(src, &f.imgOp)
		return
	}

	passes := blurPasses(f.Radius)

	srcBounds := src.Bounds()
	w, h := srcBounds.Dx(), srcBounds.Dy()

	for len(f.temps) < passes {
		f.temps = append(f.temps, nil)
	}
	// Deallocate excess temp images from previous larger radius.
	for i := passes; i < len(f.temps); i++ {
		if f.temps[i] != nil {
			f.temps[i].Deallocate()
			f.temps[i] = nil
		}
	}
	f.temps = f.temps[:passes]

	// Downscale passes: each half-size
	current := src
	for i := 0; i < passes; i++ {
		w = max(w/2, 1)
		h = max(h/2, 1)
		if f.temps[i] == nil || f.temps[i].Bounds().Dx() != w || f.temps[i].Bounds().Dy() != h {
			if f.temps[i] != nil {
				f.temps[i].Deallocate()
			}
			f.temps[i] = ebiten.NewImage(w, h)
		} else {
			f.temps[i].Clear()
		}
		f.scaleInto(f.temps[i], current)
		current = f.temps[i]
	}

	// Upscale passes: draw each back up
	for i := passes - 2; i >= 0; i-- {
		f.temps[i].Clear()
		f.scaleInto(f.temps[i], current)
		current = f.temps[i]
	}

	f.scaleInto(dst, current)
}

func (f *BlurFilter) scaleInto(dst, src *ebiten.Image) {
	op := &f.imgOp
	op.GeoM.Reset()
	op.ColorScale.Reset()
	sw := float64(src.Bounds().Dx())
	sh := float64(src.Bounds().Dy())
	tw := float64(dst.Bounds().Dx())
	th := float64(dst.Bounds().Dy())
	op.GeoM.Scale(tw/sw, th/sh)
	op.Filter = ebiten.FilterLinear
	dst.DrawImage(src, op)
}

// Padding returns the blur radius; the offscreen buffer is expanded to avoid clipping.
func (f *BlurFilter) Padding() int { return f.Radius }

// --- DimFilter ---

// DimFilter darkens its source toward black while keeping alpha. Amount 0
// leaves the source untouched, 1 turns every opaque pixel black.
type DimFilter struct {
	Amount float64
	imgOp  ebiten.DrawImageOptions
}

// NewDimFilter creates a dim filter with the given amount, clamped to [0, 1].
func NewDimFilter(amount float64) *DimFilter {
	return &DimFilter{Amount: clamp01(amount)}
}

// Apply draws src into dst with its color channels scaled by 1-Amount.
func (f *DimFilter) Apply(src, dst *ebiten.Image) {
	k := float32(1 - clamp01(f.Amount))
	f.imgOp.GeoM.Reset()
	f.imgOp.ColorScale.Reset()
	f.imgOp.ColorScale.Scale(k, k, k, 1)
	dst.DrawImage(src, &f.imgOp)
}

// Padding returns 0; dimming doesn't expand the image bounds.
func (f *DimFilter) Padding() int { return 0 }

// --- Filter chain helpers ---

// filterChainPadding returns the cumulative padding required by a slice of
// filters. The offscreen buffer is sized to the sum of every filter's Padding.
func filterChainPadding(filters []Filter) int {
	pad := 0
	for _, f := range filters {
		pad += f.Padding()
	}
	return pad
}

// applyFilters runs a filter chain on src, ping-ponging between src and one
// pooled scratch image. Returns the image holding the final result and the
// scratch image the caller must release once the result has been drawn.
func applyFilters(filters []Filter, src *ebiten.Image, pool *renderTexturePool) (result, acquired *ebiten.Image) {
	if len(filters) == 0 {
		return src, nil
	}

	bounds := src.Bounds()
	acquired = pool.Acquire(bounds.Dx(), bounds.Dy())

	current, next := src, acquired
	for i, f := range filters {
		if i > 0 {
			next.Clear()
		}
		f.Apply(current, next)
		current, next = next, current
	}
	return current, acquired
}
