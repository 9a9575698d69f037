// Package ecs bridges bagdrop sequencer events into a Donburi world.
//
// [NewDonburiObserver] publishes every sequencer event as a [PhaseEventType]
// event and mirrors the bag state onto a singleton entity carrying
// [BagComponent], so ECS systems can react to the add-to-bag interaction
// without holding a reference to the Sequencer.
//
// Usage:
//
//	obs := ecs.NewDonburiObserver(world)
//	seq, _ := bagdrop.NewSequencer(cfg, bagdrop.Deps{..., Observer: obs})
//
// The world is not safe for concurrent use; drive the Sequencer from the
// same loop that runs the ECS systems.
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
