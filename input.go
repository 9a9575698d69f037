package bagdrop

import (
	"github.com/hajimehoshi/ebiten/v2"
)

type clickHandler struct {
	id uint32
	fn func(ClickContext)
}

type handleKind uint8

const (
	handleClick handleKind = iota
	handleUpdate
)

// CallbackHandle allows removing a registered scene-level callback.
type CallbackHandle struct {
	id    uint32
	scene *Scene
	kind  handleKind
}

// Remove unregisters this callback so it no longer fires.
func (h CallbackHandle) Remove() {
	if h.scene == nil {
		return
	}
	switch h.kind {
	case handleClick:
		for i, c := range h.scene.clicks {
			if c.id == h.id {
				h.scene.clicks = append(h.scene.clicks[:i], h.scene.clicks[i+1:]...)
				return
			}
		}
	case handleUpdate:
		for i, u := range h.scene.updaters {
			if u.id == h.id {
				h.scene.updaters = append(h.scene.updaters[:i], h.scene.updaters[i+1:]...)
				return
			}
		}
	}
}

// OnClick registers a scene-level click handler. It fires for every click
// that lands on an interactable node, before the node's own OnClick.
func (s *Scene) OnClick(fn func(ClickContext)) CallbackHandle {
	s.nextID++
	s.clicks = append(s.clicks, clickHandler{id: s.nextID, fn: fn})
	return CallbackHandle{id: s.nextID, scene: s, kind: handleClick}
}

// pointerState tracks the single mouse pointer between frames.
type pointerState struct {
	down    bool
	hitNode *Node
}

// --- Hit testing ---

// nodeContainsLocal tests whether (lx, ly) falls inside the node's box.
// Nodes without a size are not hit-testable.
func nodeContainsLocal(n *Node, lx, ly float64) bool {
	if n.Width <= 0 || n.Height <= 0 {
		return false
	}
	return lx >= 0 && lx <= n.Width && ly >= 0 && ly <= n.Height
}

// collectInteractable walks the tree in painter order, appending interactable
// nodes to buf. Skips Visible=false or Interactable=false subtrees.
func (s *Scene) collectInteractable(n *Node, buf []*Node) []*Node {
	if !n.Visible || !n.Interactable {
		return buf
	}
	if n.Width > 0 && n.Height > 0 {
		buf = append(buf, n)
	}
	for _, child := range n.children {
		buf = s.collectInteractable(child, buf)
	}
	return buf
}

// hitTest finds the topmost interactable node at (worldX, worldY).
// World transforms must be current. Returns nil if nothing is hit.
func (s *Scene) hitTest(worldX, worldY float64) *Node {
	s.hitBuf = s.collectInteractable(s.root, s.hitBuf[:0])

	// Iterate backward (reverse painter order): topmost visual node first.
	for i := len(s.hitBuf) - 1; i >= 0; i-- {
		n := s.hitBuf[i]
		lx, ly := transformPoint(invertAffine(n.worldTransform), worldX, worldY)
		if nodeContainsLocal(n, lx, ly) {
			return n
		}
	}
	return nil
}

// --- Input processing ---

// processInput consumes one injected event if any is queued, otherwise reads
// the real mouse when polling is enabled.
func (s *Scene) processInput() {
	if s.processInjectedInput() {
		return
	}
	if !s.pollMouse {
		return
	}
	mx, my := ebiten.CursorPosition()
	s.processPointer(float64(mx), float64(my), ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft))
}

// processPointer runs the press/release state machine. A click fires when
// the pointer is released over the same node it was pressed on.
func (s *Scene) processPointer(wx, wy float64, pressed bool) {
	ps := &s.pointer
	switch {
	case pressed && !ps.down:
		ps.down = true
		ps.hitNode = s.hitTest(wx, wy)
	case !pressed && ps.down:
		target := s.hitTest(wx, wy)
		if ps.hitNode != nil && ps.hitNode == target {
			s.fireClick(target, wx, wy)
		}
		ps.down = false
		ps.hitNode = nil
	}
}

func (s *Scene) fireClick(node *Node, wx, wy float64) {
	lx, ly := transformPoint(invertAffine(node.worldTransform), wx, wy)
	ctx := ClickContext{
		Node:    node,
		GlobalX: wx, GlobalY: wy,
		LocalX: lx, LocalY: ly,
	}
	for _, h := range s.clicks {
		h.fn(ctx)
	}
	if node.OnClick != nil {
		node.OnClick(ctx)
	}
}
