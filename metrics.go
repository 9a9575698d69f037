package bagdrop

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is an Observer exporting sequencer activity to Prometheus.
type Metrics struct {
	SequencesTotal   *prometheus.CounterVec // by outcome
	TriggersRejected prometheus.Counter
	PhasesEntered    *prometheus.CounterVec // by phase
	SequenceDuration prometheus.Histogram   // logical time from snapshot to end
	CaptureLatency   prometheus.Histogram   // wall time from trigger to first phase
	BagItems         prometheus.Gauge
	Running          prometheus.Gauge

	mu       sync.Mutex
	accepted map[uuid.UUID]time.Time
	now      func() time.Time
}

// NewMetrics registers the bagdrop collectors on reg. A nil reg uses the
// default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		SequencesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bagdrop_sequences_total",
				Help: "Accepted add-to-bag sequences by outcome",
			},
			[]string{"outcome"},
		),
		TriggersRejected: f.NewCounter(
			prometheus.CounterOpts{
				Name: "bagdrop_triggers_rejected_total",
				Help: "Triggers ignored because a sequence was running",
			},
		),
		PhasesEntered: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bagdrop_phases_entered_total",
				Help: "Phases entered by name",
			},
			[]string{"phase"},
		),
		SequenceDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bagdrop_sequence_duration_seconds",
				Help:    "Sequence clock at completion or teardown",
				Buckets: []float64{.25, .5, 1, 1.5, 2, 2.5, 3, 4, 6},
			},
		),
		CaptureLatency: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bagdrop_capture_latency_seconds",
				Help:    "Time from trigger to the first animated phase",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
		),
		BagItems: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "bagdrop_bag_items",
				Help: "Units in the bag",
			},
		),
		Running: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "bagdrop_sequence_running",
				Help: "1 while a sequence holds the guard",
			},
		),
		accepted: make(map[uuid.UUID]time.Time),
		now:      time.Now,
	}
}

// Observe implements Observer.
func (m *Metrics) Observe(e Event) {
	switch e.Kind {
	case EventAccepted:
		m.mu.Lock()
		m.accepted[e.Run] = m.now()
		m.mu.Unlock()
		m.Running.Set(1)
	case EventRejected:
		m.TriggersRejected.Inc()
	case EventPhaseEntered:
		m.PhasesEntered.WithLabelValues(e.Phase.String()).Inc()
		if e.Phase == PhaseStart {
			m.mu.Lock()
			if t, ok := m.accepted[e.Run]; ok {
				m.CaptureLatency.Observe(m.now().Sub(t).Seconds())
			}
			m.mu.Unlock()
		}
	case EventCompleted, EventAborted, EventCancelled:
		m.SequencesTotal.WithLabelValues(e.Kind.String()).Inc()
		m.SequenceDuration.Observe(e.Offset.Seconds())
		m.BagItems.Set(float64(e.Count))
		m.Running.Set(0)
		m.mu.Lock()
		delete(m.accepted, e.Run)
		m.mu.Unlock()
	}
}
