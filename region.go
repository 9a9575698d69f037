package bagdrop

import "fmt"

// NodeRegion is a Region backed by a scene node. Bounds are measured in the
// local space of container, the fixed overlay the snapshot is drawn in, so
// scrolling the page changes them while the overlay stays put.
type NodeRegion struct {
	node      *Node
	container *Node
}

// NewNodeRegion tracks node relative to container. A nil container measures
// in world space.
func NewNodeRegion(node, container *Node) *NodeRegion {
	return &NodeRegion{node: node, container: container}
}

// Node returns the tracked node.
func (r *NodeRegion) Node() *Node {
	return r.node
}

// Bounds returns the node's box in the container's space. It fails with
// ErrGeometryUnavailable when the node is disposed or not mounted in the same
// tree as the container.
func (r *NodeRegion) Bounds() (Rect, error) {
	n := r.node
	switch {
	case n == nil:
		return Rect{}, fmt.Errorf("%w: no region node", ErrGeometryUnavailable)
	case n.IsDisposed():
		return Rect{}, fmt.Errorf("%w: region node %q is disposed", ErrGeometryUnavailable, n.Name)
	case r.container != nil && r.container.IsDisposed():
		return Rect{}, fmt.Errorf("%w: container %q is disposed", ErrGeometryUnavailable, r.container.Name)
	case r.container != nil && n.Root() != r.container.Root():
		return Rect{}, fmt.Errorf("%w: region node %q is not mounted", ErrGeometryUnavailable, n.Name)
	case r.container == nil && n.Parent == nil:
		return Rect{}, fmt.Errorf("%w: region node %q is not mounted", ErrGeometryUnavailable, n.Name)
	}
	return n.BoundsIn(r.container), nil
}

// Media returns the first media element attached to the node or one of its
// descendants, or nil.
func (r *NodeRegion) Media() Media {
	if r.node == nil || r.node.IsDisposed() {
		return nil
	}
	var found Media
	r.node.Walk(func(n *Node) bool {
		if n.Media != nil {
			found = n.Media
			return false
		}
		return true
	})
	return found
}
