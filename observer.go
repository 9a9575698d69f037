package bagdrop

import (
	"time"

	"github.com/google/uuid"
)

// EventKind classifies sequencer events.
type EventKind uint8

const (
	EventAccepted     EventKind = iota // trigger took the guard
	EventRejected                      // trigger arrived while running
	EventPhaseEntered                  // a phase was applied
	EventCompleted                     // Reset ran and the guard was released
	EventAborted                       // a failure tore the run down
	EventCancelled                     // Cancel tore the run down
)

var eventKindNames = [...]string{
	EventAccepted:     "accepted",
	EventRejected:     "rejected",
	EventPhaseEntered: "phase",
	EventCompleted:    "completed",
	EventAborted:      "aborted",
	EventCancelled:    "cancelled",
}

func (k EventKind) String() string {
	if int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return "unknown"
}

// Event describes one step of a sequence run. Offset is the logical time
// since the snapshot became available (zero before that).
type Event struct {
	Kind   EventKind
	Run    uuid.UUID
	Phase  Phase
	Offset time.Duration
	Count  int
	Err    error
}

// Observer is notified synchronously from the Sequencer. Observers must not
// call back into the Sequencer.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

// Observers fans an event out to every member.
type Observers []Observer

func (os Observers) Observe(e Event) {
	for _, o := range os {
		if o != nil {
			o.Observe(e)
		}
	}
}
