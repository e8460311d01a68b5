package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sessionlink"

// Metrics holds every collector exported by sessionlink.
type Metrics struct {
	ConnectAttempts     prometheus.Counter
	Connected           prometheus.Gauge
	Subscribers         prometheus.Gauge
	ReconnectsScheduled prometheus.Counter
	ReconnectsExhausted prometheus.Counter
	FramesReceived      *prometheus.CounterVec
	FramesDropped       *prometheus.CounterVec
	FramesSent          prometheus.Counter
	SendsDropped        prometheus.Counter
	Notifications       *prometheus.CounterVec
	AlertErrors         *prometheus.CounterVec
	SnapshotPolls       *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		ConnectAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "socket",
			Name:      "connect_attempts_total",
			Help:      "Number of physical socket connection attempts.",
		}),
		Connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "socket",
			Name:      "connected",
			Help:      "1 when the realtime socket is open, 0 otherwise.",
		}),
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "socket",
			Name:      "subscribers",
			Help:      "Number of registered subscribers.",
		}),
		ReconnectsScheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "socket",
			Name:      "reconnects_scheduled_total",
			Help:      "Number of reconnect timers armed after a close.",
		}),
		ReconnectsExhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "socket",
			Name:      "reconnects_exhausted_total",
			Help:      "Number of times reconnection stopped after reaching max attempts.",
		}),
		FramesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "frames",
			Name:      "received_total",
			Help:      "Inbound frames fanned out to subscribers, by type.",
		}, []string{"type"}),
		FramesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "frames",
			Name:      "dropped_total",
			Help:      "Inbound frames dropped before fan-out, by reason.",
		}, []string{"reason"}),
		FramesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "frames",
			Name:      "sent_total",
			Help:      "Outbound frames written to the socket.",
		}),
		SendsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "frames",
			Name:      "send_dropped_total",
			Help:      "Outbound frames dropped because the socket was not open.",
		}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "fired_total",
			Help:      "Waiting-session notifications fired, by source.",
		}, []string{"source"}),
		AlertErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "alert_errors_total",
			Help:      "Best-effort alert side effects that failed, by alert.",
		}, []string{"alert"}),
		SnapshotPolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "polls_total",
			Help:      "Snapshot poll cycles, by result.",
		}, []string{"result"}),
	}

	collectors := []prometheus.Collector{
		m.ConnectAttempts,
		m.Connected,
		m.Subscribers,
		m.ReconnectsScheduled,
		m.ReconnectsExhausted,
		m.FramesReceived,
		m.FramesDropped,
		m.FramesSent,
		m.SendsDropped,
		m.Notifications,
		m.AlertErrors,
		m.SnapshotPolls,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}

	return m, nil
}
