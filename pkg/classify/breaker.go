package classify

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
)

// Breaker stops calling a failing remote classifier for a while so imports
// fall back immediately instead of waiting on every attempt.
type Breaker struct {
	next Classifier
	cb   *gobreaker.CircuitBreaker
}

var _ Classifier = (*Breaker)(nil)

func NewBreaker(name string, next Classifier) *Breaker {
	return &Breaker{
		next: next,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
	}
}

func (b *Breaker) Classify(ctx context.Context, descriptions []string) ([]Result, error) {
	out, err := b.cb.Execute(func() (any, error) {
		return b.next.Classify(ctx, descriptions)
	})
	if err != nil {
		return nil, fmt.Errorf("classifier %s: %w", b.cb.Name(), err)
	}
	results, _ := out.([]Result)
	return results, nil
}

// State exposes the breaker state for health reporting.
func (b *Breaker) State() string {
	return b.cb.State().String()
}
