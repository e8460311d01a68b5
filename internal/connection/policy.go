package connection

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ReconnectPolicy is the reconnect policy derived from all registered subscribers.
type ReconnectPolicy struct {
	Enabled     bool
	Delay       time.Duration
	MaxAttempts int
}

// AggregatePolicy combines subscriber preferences. Reconnection is enabled if
// any subscriber wants it; among those that do, the shortest interval and the
// largest attempt budget win. With no opted-in subscriber the delay falls back
// to DefaultReconnectInterval and MaxAttempts is zero.
func AggregatePolicy(subs []Subscriber) ReconnectPolicy {
	p := ReconnectPolicy{Delay: DefaultReconnectInterval}
	for _, s := range subs {
		if !s.AutoReconnect {
			continue
		}
		if !p.Enabled || s.ReconnectInterval < p.Delay {
			p.Delay = s.ReconnectInterval
		}
		if s.MaxReconnectAttempts > p.MaxAttempts {
			p.MaxAttempts = s.MaxReconnectAttempts
		}
		p.Enabled = true
	}
	return p
}

// Backoff returns the wait before reconnect attempt n (zero-based):
// min(delay * 2^n, max).
func Backoff(delay, max time.Duration, attempt int) time.Duration {
	if delay <= 0 {
		delay = DefaultReconnectInterval
	}
	if max <= 0 {
		max = DefaultMaxBackoff
	}
	if delay >= max {
		return max
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = delay
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = max
	b.MaxElapsedTime = 0
	b.Reset()

	next := delay
	for i := 0; i <= attempt; i++ {
		next = b.NextBackOff()
		if next >= max {
			return max
		}
	}
	return next
}
