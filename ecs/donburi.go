package ecs

import (
	"github.com/phanxgames/bagdrop"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// PhaseEventType is the Donburi event type for sequencer events. Events are
// queued; call ProcessEvents from a system to deliver them.
var PhaseEventType = events.NewEventType[bagdrop.Event]()

// BagState mirrors the sequencer onto an entity.
type BagState struct {
	Count   int
	Phase   bagdrop.Phase
	Running bool
}

// BagComponent holds the BagState of the observer's entity.
var BagComponent = donburi.NewComponentType[BagState]()

// DonburiObserver is a bagdrop.Observer backed by a Donburi world.
type DonburiObserver struct {
	world  donburi.World
	entity donburi.Entity
}

// NewDonburiObserver creates the bag entity in world and returns an observer
// that keeps it current.
func NewDonburiObserver(world donburi.World) *DonburiObserver {
	return &DonburiObserver{world: world, entity: world.Create(BagComponent)}
}

// Entity returns the entity carrying BagComponent.
func (o *DonburiObserver) Entity() donburi.Entity {
	return o.entity
}

// Observe implements bagdrop.Observer.
func (o *DonburiObserver) Observe(e bagdrop.Event) {
	if o.world.Valid(o.entity) {
		state := BagComponent.Get(o.world.Entry(o.entity))
		state.Count = e.Count
		switch e.Kind {
		case bagdrop.EventAccepted:
			state.Running = true
			state.Phase = bagdrop.PhaseCapturing
		case bagdrop.EventPhaseEntered:
			state.Phase = e.Phase
		case bagdrop.EventCompleted:
			state.Running = false
		case bagdrop.EventAborted, bagdrop.EventCancelled:
			state.Running = false
			state.Phase = bagdrop.PhaseIdle
		}
	}
	PhaseEventType.Publish(o.world, e)
}
