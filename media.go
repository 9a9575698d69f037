package bagdrop

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// FrameLoop plays a fixed list of images on a sprite node in a loop, the way
// a muted autoplaying product video would. It implements Media so a running
// sequence can freeze it.
type FrameLoop struct {
	node      *Node
	frames    []*ebiten.Image
	frameTime time.Duration
	elapsed   time.Duration
	index     int
	paused    bool
}

// NewFrameLoop attaches a loop to node at the given frame rate. The node
// becomes the loop's sprite, its Media and its OnUpdate driver.
func NewFrameLoop(node *Node, frames []*ebiten.Image, fps float64) *FrameLoop {
	if fps <= 0 {
		fps = 24
	}
	l := &FrameLoop{
		node:      node,
		frames:    frames,
		frameTime: time.Duration(float64(time.Second) / fps),
	}
	node.Media = l
	node.OnUpdate = l.Update
	l.show()
	return l
}

// Pause freezes the loop on its current frame.
func (l *FrameLoop) Pause() { l.paused = true }

// Resume continues from the frozen frame.
func (l *FrameLoop) Resume() { l.paused = false }

// Paused reports whether the loop is frozen.
func (l *FrameLoop) Paused() bool { return l.paused }

// Frame returns the index of the frame on screen.
func (l *FrameLoop) Frame() int { return l.index }

// Update advances the loop by dt unless paused.
func (l *FrameLoop) Update(dt time.Duration) {
	if l.paused || len(l.frames) < 2 {
		return
	}
	l.elapsed += dt
	steps := int(l.elapsed / l.frameTime)
	if steps == 0 {
		return
	}
	l.elapsed -= time.Duration(steps) * l.frameTime
	l.index = (l.index + steps) % len(l.frames)
	l.show()
}

func (l *FrameLoop) show() {
	if len(l.frames) > 0 {
		l.node.SetImage(l.frames[l.index])
	}
}
