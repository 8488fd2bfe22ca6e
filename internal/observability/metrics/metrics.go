package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BookingMetrics exposes counters/histograms for the booking engine.
type BookingMetrics struct {
	commitsTotal     *prometheus.CounterVec
	commitLatency    prometheus.Histogram
	transitionsTotal *prometheus.CounterVec
	chatInputsTotal  *prometheus.CounterVec
	slotsOffered     prometheus.Histogram
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		commitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "physio",
			Subsystem: "booking",
			Name:      "commits_total",
			Help:      "Appointment commit attempts by outcome",
		}, []string{"outcome"}),
		commitLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "physio",
			Subsystem: "booking",
			Name:      "commit_latency_seconds",
			Help:      "Latency of appointment store commits",
			Buckets:   prometheus.DefBuckets,
		}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "physio",
			Subsystem: "booking",
			Name:      "transitions_total",
			Help:      "Booking flow events by outcome",
		}, []string{"event", "outcome"}),
		chatInputsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "physio",
			Subsystem: "booking",
			Name:      "chat_inputs_total",
			Help:      "Conversational inputs by phase and whether they matched an event",
		}, []string{"phase", "matched"}),
		slotsOffered: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "physio",
			Subsystem: "booking",
			Name:      "slots_offered",
			Help:      "Number of slots offered for a single date",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64},
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.commitsTotal, m.commitLatency, m.transitionsTotal, m.chatInputsTotal, m.slotsOffered)
	return m
}

// ObserveCommit records a commit outcome ("booked", "slot_taken", "timeout", "error").
func (m *BookingMetrics) ObserveCommit(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.commitsTotal.WithLabelValues(outcome).Inc()
	m.commitLatency.Observe(elapsed.Seconds())
}

func (m *BookingMetrics) ObserveTransition(event, outcome string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(event, outcome).Inc()
}

func (m *BookingMetrics) ObserveChatInput(phase string, matched bool) {
	if m == nil {
		return
	}
	label := "false"
	if matched {
		label = "true"
	}
	m.chatInputsTotal.WithLabelValues(phase, label).Inc()
}

func (m *BookingMetrics) ObserveSlotsOffered(n int) {
	if m == nil {
		return
	}
	m.slotsOffered.Observe(float64(n))
}
