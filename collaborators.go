package bagdrop

import (
	"context"
	"fmt"
	"image"
	"time"
)

// Region is the tracked area the snapshot is taken from.
type Region interface {
	// Bounds returns the region's current bounding box relative to the
	// fixed container. It fails with ErrGeometryUnavailable when the region
	// is not mounted.
	Bounds() (Rect, error)
	// Media returns the live media element inside the region, or nil.
	Media() Media
}

// Media is an embedded element that keeps playing on its own, like a video
// loop. It is paused for the duration of a sequence.
type Media interface {
	Pause()
	Resume()
}

// SnapshotProvider rasterizes a region. Capture is called at most once per
// sequence run, from its own goroutine, and must honor ctx cancellation.
// The returned image becomes owned by the sequence; if it has a
// Deallocate method it is called when the sequence discards it.
type SnapshotProvider interface {
	Capture(ctx context.Context, region Region, bounds Rect, fill Color) (image.Image, error)
}

// Surface is one independently rendered playback surface of the vector
// animation engine. Play switches to a named clip; there is no completion
// callback.
type Surface interface {
	Play(clip string) error
	Pause()
	Has(clip string) bool
}

// ClipFinisher is implemented by surfaces that can report whether the clip
// they are playing has reached its end. Sequencers configured with
// AwaitClips use it to hold a step until the previous clip finished.
type ClipFinisher interface {
	Finished() bool
}

// ClipTimer is implemented by surfaces that know their clip durations. The
// Sequencer uses it to warn about offsets shorter than the clips they follow.
type ClipTimer interface {
	ClipDuration(clip string) (time.Duration, bool)
}

// Engine hands out the two playback surfaces.
type Engine interface {
	Surface(id SurfaceID) (Surface, error)
}

// SurfacePair is an Engine backed by two fixed surfaces.
type SurfacePair struct {
	Front Surface
	Back  Surface
}

// Surface returns the requested surface or ErrEngineUnavailable when it is nil.
func (p SurfacePair) Surface(id SurfaceID) (Surface, error) {
	var s Surface
	switch id {
	case SurfaceFront:
		s = p.Front
	case SurfaceBack:
		s = p.Back
	}
	if s == nil {
		return nil, fmt.Errorf("%w: no %s surface", ErrEngineUnavailable, id)
	}
	return s, nil
}

// SnapshotRecord is the point-in-time capture owned by a running sequence.
// Bounds is frozen at trigger time and never recomputed.
type SnapshotRecord struct {
	Image  image.Image
	Bounds Rect
}

// releaseImage frees GPU-backed images such as *ebiten.Image.
func releaseImage(img image.Image) {
	if d, ok := img.(interface{ Deallocate() }); ok {
		d.Deallocate()
	}
}
