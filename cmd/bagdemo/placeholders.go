package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/bagdrop"
)

const (
	iconSize   = 48
	frameDelay = 40 * time.Millisecond
)

var (
	bagBody  = color.RGBA{0x11, 0x11, 0x11, 0xff}
	bagFlap  = color.RGBA{0x44, 0x44, 0x44, 0xff}
	bagInner = color.RGBA{0xe0, 0x5a, 0x2b, 0xff}
)

// bagFrame draws a bag icon with its flap lifted by open (0 closed, 1 open).
func bagFrame(open float64, back bool) *ebiten.Image {
	img := ebiten.NewImage(iconSize, iconSize)
	fill(img, image.Rect(6, 18, iconSize-6, iconSize-2), bagBody)
	if back {
		// The back surface shows the inside of the open bag.
		fill(img, image.Rect(10, 18, iconSize-10, 18+int(10*open)), bagInner)
		return img
	}
	h := 3 + int(12*open)
	fill(img, image.Rect(6, 18-h, iconSize-6, 18), bagFlap)
	return img
}

func fill(img *ebiten.Image, r image.Rectangle, c color.Color) {
	img.SubImage(r).(*ebiten.Image).Fill(c)
}

// placeholderSheet builds a clip sheet with every clip the sequence needs,
// drawn procedurally.
func placeholderSheet(names bagdrop.ClipNames, back bool) (*bagdrop.ClipSheet, error) {
	type ramp struct {
		name     string
		from, to float64
		frames   int
		loop     bool
	}
	ramps := []ramp{
		{names.Idle, 0, 0.08, 2, true},
		{names.Start, 0, 0.25, 3, false},
		{names.OpenFront, 0.25, 1, 5, false},
		{names.OpenBack, 0, 1, 5, false},
		{names.EnterFront, 1, 0.9, 4, false},
		{names.EnterBack, 1, 0.8, 4, false},
		{names.Close, 1, 0, 6, false},
	}

	var frames []bagdrop.Frame
	type span struct{ from, to int }
	spans := make(map[string]span, len(ramps))
	for _, r := range ramps {
		start := len(frames)
		for i := range r.frames {
			t := float64(i) / float64(max(r.frames-1, 1))
			frames = append(frames, bagdrop.Frame{
				Image:    bagFrame(r.from+(r.to-r.from)*t, back),
				Duration: frameDelay,
			})
		}
		spans[r.name] = span{start, len(frames) - 1}
	}

	sheet := bagdrop.NewClipSheet(frames)
	for _, r := range ramps {
		sp := spans[r.name]
		if err := sheet.AddClip(r.name, sp.from, sp.to, r.loop); err != nil {
			return nil, err
		}
	}
	return sheet, nil
}

// loadSheet reads an Aseprite/TexturePacker export and its page image.
func loadSheet(jsonPath, pngPath string) (*bagdrop.ClipSheet, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}
	f, err := os.Open(pngPath)
	if err != nil {
		return nil, fmt.Errorf("open sheet image: %w", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode sheet image: %w", err)
	}
	return bagdrop.LoadClipSheet(data, ebiten.NewImageFromImage(img))
}

// videoFrames is a looping product "video": a highlight sweeping across the
// shoe render.
func videoFrames(w, h, n int) []*ebiten.Image {
	frames := make([]*ebiten.Image, n)
	for i := range frames {
		img := ebiten.NewImage(w, h)
		img.Fill(color.RGBA{0xf2, 0xf2, 0xf2, 0xff})
		fill(img, image.Rect(w/8, h/2, w*7/8, h*3/4), color.RGBA{0xd9, 0x30, 0x25, 0xff})
		fill(img, image.Rect(w/8, h*3/4, w*7/8, h*3/4+h/16), color.RGBA{0x22, 0x22, 0x22, 0xff})
		x := i * w / n
		fill(img, image.Rect(x, h/2, x+w/10, h*3/4), color.RGBA{0xff, 0x8a, 0x7a, 0xff})
		frames[i] = img
	}
	return frames
}
