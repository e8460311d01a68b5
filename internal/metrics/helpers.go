package metrics

// IncConnectAttempt counts one socket dial.
func (m *Metrics) IncConnectAttempt() {
	if m == nil {
		return
	}
	m.ConnectAttempts.Inc()
}

// SetConnected records the socket open state.
func (m *Metrics) SetConnected(connected bool) {
	if m == nil {
		return
	}
	if connected {
		m.Connected.Set(1)
	} else {
		m.Connected.Set(0)
	}
}

// SetSubscribers records the subscriber count.
func (m *Metrics) SetSubscribers(n int) {
	if m == nil {
		return
	}
	m.Subscribers.Set(float64(n))
}

// IncReconnectScheduled counts an armed reconnect timer.
func (m *Metrics) IncReconnectScheduled() {
	if m == nil {
		return
	}
	m.ReconnectsScheduled.Inc()
}

// IncReconnectExhausted counts a give-up after max attempts.
func (m *Metrics) IncReconnectExhausted() {
	if m == nil {
		return
	}
	m.ReconnectsExhausted.Inc()
}

// IncFrameReceived counts an inbound frame of the given type.
func (m *Metrics) IncFrameReceived(frameType string) {
	if m == nil {
		return
	}
	m.FramesReceived.WithLabelValues(frameType).Inc()
}

// IncFrameDropped counts an inbound frame dropped for reason.
func (m *Metrics) IncFrameDropped(reason string) {
	if m == nil {
		return
	}
	m.FramesDropped.WithLabelValues(reason).Inc()
}

// IncFrameSent counts an outbound frame.
func (m *Metrics) IncFrameSent() {
	if m == nil {
		return
	}
	m.FramesSent.Inc()
}

// IncSendDropped counts an outbound frame dropped while not connected.
func (m *Metrics) IncSendDropped() {
	if m == nil {
		return
	}
	m.SendsDropped.Inc()
}

// IncNotification counts a fired notification from source ("realtime" or "snapshot").
func (m *Metrics) IncNotification(source string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(source).Inc()
}

// IncAlertError counts a failed alert side effect.
func (m *Metrics) IncAlertError(alert string) {
	if m == nil {
		return
	}
	m.AlertErrors.WithLabelValues(alert).Inc()
}

// IncSnapshotPoll counts a poll cycle with result ("ok" or "error").
func (m *Metrics) IncSnapshotPoll(result string) {
	if m == nil {
		return
	}
	m.SnapshotPolls.WithLabelValues(result).Inc()
}
