package bagdrop

import (
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// fpsRefresh is how often the FPS widget redraws.
const fpsRefresh = 500 * time.Millisecond

// NewFPSWidget creates a sprite node that displays the current FPS and TPS,
// redrawn every half second with ebitenutil.DebugPrint.
func NewFPSWidget() *Node {
	// 100x32 is enough for "FPS: 60.0\nTPS: 60.0"
	img := ebiten.NewImage(100, 32)
	node := NewSprite("fps_widget", img)

	var sinceRedraw time.Duration
	node.OnUpdate = func(dt time.Duration) {
		sinceRedraw += dt
		if sinceRedraw < fpsRefresh {
			return
		}
		sinceRedraw = 0

		img.Clear()
		// Semi-transparent background for readability
		img.Fill(color.RGBA{0, 0, 0, 128})
		ebitenutil.DebugPrint(img, fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS()))
	}
	return node
}
