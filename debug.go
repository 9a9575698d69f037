package bagdrop

import (
	"fmt"
	"os"
	"time"
)

// debugStats holds per-frame timing and draw metrics.
// Only populated when Scene.debug is true.
type debugStats struct {
	updateTime    time.Duration
	drawTime      time.Duration
	nodeCount     int
	filterPasses  int
	offscreenUsed int
}

// debugLog prints timing and draw stats to stderr.
func (s *Scene) debugLog(stats debugStats) {
	if !s.debug {
		return
	}
	_, _ = fmt.Fprintf(os.Stderr,
		"[bagdrop] update: %v | draw: %v | nodes: %d | filter passes: %d | offscreens: %d\n",
		stats.updateTime, stats.drawTime, stats.nodeCount, stats.filterPasses, stats.offscreenUsed)
}

// debugCheckDisposed panics with a descriptive message when a disposed node is
// used in a tree operation. Only called in debug mode.
func debugCheckDisposed(n *Node, op string) {
	if n.disposed {
		panic(fmt.Sprintf("bagdrop debug: %s on disposed node %q (ID was %d)", op, n.Name, n.ID))
	}
}

// debugCheckTreeDepth warns on stderr if tree depth exceeds the threshold.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(n *Node) {
	depth := 0
	for p := n; p != nil; p = p.Parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		_, _ = fmt.Fprintf(os.Stderr, "[bagdrop] warning: tree depth %d exceeds %d (node %q)\n",
			depth, debugMaxTreeDepth, n.Name)
	}
}

// debugCheckChildCount warns on stderr if a node has more than 1000 children.
const debugMaxChildCount = 1000

func debugCheckChildCount(n *Node) {
	if len(n.children) > debugMaxChildCount {
		_, _ = fmt.Fprintf(os.Stderr, "[bagdrop] warning: node %q has %d children (threshold %d)\n",
			n.Name, len(n.children), debugMaxChildCount)
	}
}

// debugCheckCaptureLag warns when a capture job sat in the snapshotter queue
// for longer than one frame before the render loop served it.
func debugCheckCaptureLag(node string, waited, frame time.Duration) {
	if frame > 0 && waited > frame {
		_, _ = fmt.Fprintf(os.Stderr, "[bagdrop] warning: capture of %q waited %v (frame %v)\n",
			node, waited, frame)
	}
}
