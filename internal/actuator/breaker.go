package actuator

import (
	"fmt"
	"log"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerNotifier wraps a Notifier with a circuit breaker so a dead
// channel fails fast instead of stalling every supervisor that notifies.
type BreakerNotifier struct {
	next Notifier
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerNotifier opens after maxFailures consecutive failures and
// probes again after timeout.
func NewBreakerNotifier(next Notifier, maxFailures uint32, timeout time.Duration) *BreakerNotifier {
	if maxFailures == 0 {
		maxFailures = 1
	}
	st := gobreaker.Settings{
		Name:    "notify",
		Timeout: timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("actuator: %s breaker %s -> %s", name, from, to)
		},
	}
	return &BreakerNotifier{next: next, cb: gobreaker.NewCircuitBreaker(st)}
}

// Notify forwards msg unless the breaker is open.
func (b *BreakerNotifier) Notify(msg string) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Notify(msg)
	})
	if err != nil {
		return fmt.Errorf("breaker %s: %w", b.cb.Name(), err)
	}
	return nil
}

// State returns the breaker state.
func (b *BreakerNotifier) State() gobreaker.State {
	return b.cb.State()
}
