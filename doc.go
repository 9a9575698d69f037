// Package bagdrop sequences the "Add to Bag" interaction of a product page
// on [Ebitengine].
//
// A click on the trigger control snapshots the product region, tilts the
// snapshot and flies it into an animated bag icon. The bag label then
// updates ("1 item · $130"). The choreography is a fixed schedule of phases
// driven by a [Sequencer]:
//
//	idle → capturing → start → anticipate → open → enter → hide-snapshot → close → reset
//
// The Sequencer owns no rendering. It talks to four collaborators: a
// [Region] that reports the product bounds, a [SnapshotProvider] that
// rasterizes it, an [Engine] holding the front and back bag [Surface]s, and
// a [DisplaySink] that receives the [Display] of every phase.
//
// # Quick start
//
// The package ships a scene graph implementation of every collaborator:
//
//	scene := bagdrop.NewScene()
//	// ... build page, overlay, product and button nodes ...
//
//	snapshots := bagdrop.NewNodeSnapshotter(1)
//	seq, err := bagdrop.NewSequencer(bagdrop.DefaultConfig(), bagdrop.Deps{
//		Region:    bagdrop.NewNodeRegion(product, overlay),
//		Snapshots: snapshots,
//		Engine:    bagdrop.SurfacePair{Front: front, Back: back},
//		Sink:      bagdrop.NewPresenter(nodes),
//	})
//
//	scene.OnUpdate(snapshots.Update)
//	scene.OnUpdate(seq.Update)
//	button.OnClick = func(bagdrop.ClickContext) { seq.Trigger() }
//
// Time only advances through [Sequencer.Update]; call it once per frame
// from the game loop. See cmd/bagdemo for a complete page.
//
// # Configuration
//
// [DefaultConfig] reproduces the canonical timing. [LoadConfig] reads YAML
// or TOML over the defaults and [Config.ApplyEnv] overrides single values
// from BAGDROP_* variables.
//
// # Observing runs
//
// [Observer]s receive every accepted, rejected, completed or aborted run and
// every phase entered. [Metrics] exports them to Prometheus and the ecs
// subpackage mirrors them onto a [Donburi] entity.
//
// [Ebitengine]: https://ebitengine.org
// [Donburi]: https://github.com/yohamta/donburi
package bagdrop
