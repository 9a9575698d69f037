package bagdrop

import (
	"testing"
)

func TestNewRenderTextureDimensions(t *testing.T) {
	rt := NewRenderTexture(128, 64)
	defer rt.Dispose()

	if rt.Width() != 128 {
		t.Errorf("Width = %d, want 128", rt.Width())
	}
	if rt.Height() != 64 {
		t.Errorf("Height = %d, want 64", rt.Height())
	}
	if rt.Image() == nil {
		t.Error("Image() should not be nil")
	}
}

func TestNewRenderTextureMinimumSize(t *testing.T) {
	rt := NewRenderTexture(0, -3)
	defer rt.Dispose()
	if rt.Width() != 1 || rt.Height() != 1 {
		t.Errorf("size = %dx%d, want 1x1", rt.Width(), rt.Height())
	}
}

func TestRenderTextureDisposeTwice(t *testing.T) {
	rt := NewRenderTexture(4, 4)
	rt.Fill(Color{1, 0, 0, 1})
	rt.Dispose()
	rt.Dispose()
	if rt.Image() != nil {
		t.Error("Image() should be nil after Dispose")
	}
}

func TestRenderTextureDrawSubtree(t *testing.T) {
	root := NewContainer("root")
	card := NewRect("card", 40, 30, ColorWhite)
	card.SetPosition(20, 64)
	card.Filters = []Filter{NewBlurFilter(4)}
	inner := NewRect("inner", 10, 10, Color{1, 0, 0, 1})
	card.AddChild(inner)
	root.AddChild(card)

	rt := NewRenderTexture(40, 30)
	defer rt.Dispose()
	// Must not panic; the card's own blur is skipped.
	rt.DrawSubtree(card, Vec2{20, 64})
}

// --- Pool ---

func TestPoolAcquireRoundsToPowerOfTwo(t *testing.T) {
	var p renderTexturePool
	img := p.Acquire(100, 30)
	b := img.Bounds()
	if b.Dx() != 128 || b.Dy() != 32 {
		t.Errorf("size = %dx%d, want 128x32", b.Dx(), b.Dy())
	}
}

func TestPoolReuse(t *testing.T) {
	var p renderTexturePool
	img := p.Acquire(64, 64)
	p.Release(img)
	if p.size() != 1 {
		t.Fatalf("pool size = %d, want 1", p.size())
	}
	again := p.Acquire(60, 50)
	if again != img {
		t.Error("Acquire should reuse a released image of the same bucket")
	}
	if p.size() != 0 {
		t.Errorf("pool size = %d, want 0", p.size())
	}
	p.Release(nil)
	if p.size() != 0 {
		t.Error("Release(nil) should be a no-op")
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	cases := map[int]int{-1: 1, 0: 1, 1: 1, 2: 2, 3: 4, 64: 64, 65: 128, 1000: 1024}
	for in, want := range cases {
		if got := nextPowerOfTwo(in); got != want {
			t.Errorf("nextPowerOfTwo(%d) = %d, want %d", in, got, want)
		}
	}
}
