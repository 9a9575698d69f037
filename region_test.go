package bagdrop

import (
	"errors"
	"testing"
)

func newRegionTree() (root, page, overlay, product *Node) {
	root = NewContainer("root")
	page = NewContainer("page")
	overlay = NewContainer("overlay")
	product = NewRect("product", 390, 420, ColorWhite)
	root.AddChild(page)
	root.AddChild(overlay)
	page.AddChild(product)
	product.SetPosition(20, 64)
	return
}

func TestNodeRegionBoundsInContainer(t *testing.T) {
	_, page, overlay, product := newRegionTree()
	overlay.SetPosition(0, 10)
	r := NewNodeRegion(product, overlay)

	b, err := r.Bounds()
	if err != nil {
		t.Fatalf("Bounds: %v", err)
	}
	assertRect(t, "bounds", b, Rect{X: 20, Y: 54, Width: 390, Height: 420})

	// Scrolling the page moves the region relative to the fixed overlay.
	page.SetPosition(0, -100)
	b, _ = r.Bounds()
	assertRect(t, "scrolled", b, Rect{X: 20, Y: -46, Width: 390, Height: 420})
}

func TestNodeRegionWorldSpace(t *testing.T) {
	_, page, _, product := newRegionTree()
	page.SetScale(2, 2)
	b, err := NewNodeRegion(product, nil).Bounds()
	if err != nil {
		t.Fatalf("Bounds: %v", err)
	}
	assertRect(t, "world bounds", b, Rect{X: 40, Y: 128, Width: 780, Height: 840})
}

func TestNodeRegionUnavailable(t *testing.T) {
	tests := []struct {
		name  string
		setup func() *NodeRegion
	}{
		{"nil node", func() *NodeRegion { return NewNodeRegion(nil, nil) }},
		{"disposed node", func() *NodeRegion {
			_, _, overlay, product := newRegionTree()
			product.Dispose()
			return NewNodeRegion(product, overlay)
		}},
		{"disposed container", func() *NodeRegion {
			_, _, overlay, product := newRegionTree()
			overlay.Dispose()
			return NewNodeRegion(product, overlay)
		}},
		{"unmounted", func() *NodeRegion {
			_, _, overlay, product := newRegionTree()
			product.RemoveFromParent()
			return NewNodeRegion(product, overlay)
		}},
		{"detached world", func() *NodeRegion {
			return NewNodeRegion(NewRect("loose", 1, 1, ColorWhite), nil)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.setup().Bounds()
			if !errors.Is(err, ErrGeometryUnavailable) {
				t.Errorf("err = %v, want ErrGeometryUnavailable", err)
			}
		})
	}
}

func TestNodeRegionMediaSearchesSubtree(t *testing.T) {
	_, _, overlay, product := newRegionTree()
	r := NewNodeRegion(product, overlay)
	if r.Media() != nil {
		t.Error("no media attached yet")
	}

	video := NewSprite("video", nil)
	product.AddChild(NewContainer("caption"))
	product.AddChild(video)
	loop := NewFrameLoop(video, nil, 30)

	if r.Media() != Media(loop) {
		t.Error("Media should find the loop on a descendant")
	}

	product.Dispose()
	if r.Media() != nil {
		t.Error("disposed region has no media")
	}
}
