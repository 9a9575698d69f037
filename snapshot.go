package bagdrop

import (
	"context"
	"fmt"
	"image"
	"math"
	"time"
)

// NodeSnapshotter is a SnapshotProvider that rasterizes a NodeRegion's
// subtree into a RenderTexture filled with the background color. The scene
// graph is only touched on the render loop: Capture queues a job and blocks
// until Update, called from the loop, has served it.
type NodeSnapshotter struct {
	jobs chan *captureJob

	// Frame is the expected frame interval. In debug mode, jobs that waited
	// longer than one frame are reported on stderr.
	Frame time.Duration
}

type captureJob struct {
	ctx    context.Context
	node   *Node
	bounds Rect
	fill   Color
	queued time.Time
	done   chan captureReply
}

type captureReply struct {
	rt  *RenderTexture
	err error
}

// nodeRegion is implemented by regions backed by a scene node.
type nodeRegion interface {
	Node() *Node
}

// NewNodeSnapshotter returns a snapshotter accepting up to queue pending
// jobs before Capture blocks.
func NewNodeSnapshotter(queue int) *NodeSnapshotter {
	return &NodeSnapshotter{
		jobs:  make(chan *captureJob, max(queue, 1)),
		Frame: time.Second / 60,
	}
}

// Capture implements SnapshotProvider. The returned image is an
// *ebiten.Image sized to bounds, rounded up to whole pixels.
func (s *NodeSnapshotter) Capture(ctx context.Context, region Region, bounds Rect, fill Color) (image.Image, error) {
	nr, ok := region.(nodeRegion)
	if !ok || nr.Node() == nil {
		return nil, fmt.Errorf("bagdrop: cannot snapshot region of type %T", region)
	}
	job := &captureJob{
		ctx:    ctx,
		node:   nr.Node(),
		bounds: bounds,
		fill:   fill,
		queued: time.Now(),
		done:   make(chan captureReply, 1),
	}

	select {
	case s.jobs <- job:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case rep := <-job.done:
		if rep.err != nil {
			return nil, rep.err
		}
		return rep.rt.Image(), nil
	case <-ctx.Done():
		// The loop may already have rendered it.
		select {
		case rep := <-job.done:
			if rep.rt != nil {
				rep.rt.Dispose()
			}
		default:
		}
		return nil, ctx.Err()
	}
}

// Pending returns the number of queued jobs.
func (s *NodeSnapshotter) Pending() int {
	return len(s.jobs)
}

// Update serves every queued job. It must run on the goroutine that owns the
// scene graph; its signature matches Scene.OnUpdate.
func (s *NodeSnapshotter) Update(time.Duration) {
	for {
		select {
		case job := <-s.jobs:
			job.done <- s.serve(job)
		default:
			return
		}
	}
}

func (s *NodeSnapshotter) serve(job *captureJob) captureReply {
	if err := job.ctx.Err(); err != nil {
		return captureReply{err: err}
	}
	if globalDebug {
		debugCheckCaptureLag(job.node.Name, time.Since(job.queued), s.Frame)
	}
	n := job.node
	if n.IsDisposed() {
		return captureReply{err: fmt.Errorf("%w: region node disposed before capture", ErrGeometryUnavailable)}
	}
	w := int(math.Ceil(job.bounds.Width))
	h := int(math.Ceil(job.bounds.Height))
	if w <= 0 || h <= 0 {
		return captureReply{err: fmt.Errorf("bagdrop: cannot snapshot %vx%v region", job.bounds.Width, job.bounds.Height)}
	}

	rt := NewRenderTexture(w, h)
	rt.Fill(job.fill)
	rt.DrawSubtree(n, n.WorldBounds().Position())
	return captureReply{rt: rt}
}
