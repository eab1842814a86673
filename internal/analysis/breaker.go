package analysis

import (
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// breakerFailures consecutive provider failures open the breaker for breakerTimeout
const (
	breakerFailures = 5
	breakerTimeout  = 30 * time.Second
)

func newBreaker(name string) *gobreaker.CircuitBreaker[string] {
	return gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "analysis-" + name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}
