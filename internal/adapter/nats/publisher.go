package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/pscheid92/textpulse/internal/adapter/metrics"
)

const breakerComponent = "nats"

// Conn is the subset of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
}

// Publisher JSON-encodes payloads and publishes them. After 5 consecutive
// failures it stops calling NATS for 30s.
type Publisher struct {
	conn Conn
	cb   *gobreaker.CircuitBreaker
}

func NewPublisher(conn Conn, bm *metrics.BreakerMetrics) *Publisher {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        breakerComponent,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed",
				"component", breakerComponent,
				"from", from.String(),
				"to", to.String(),
			)
			bm.Transition(breakerComponent, to.String(), stateValue(to))
		},
	})
	return &Publisher{conn: conn, cb: cb}
}

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return metrics.BreakerHalfOpen
	case gobreaker.StateOpen:
		return metrics.BreakerOpen
	default:
		return metrics.BreakerClosed
	}
}

// Publish sends payload as JSON on subject. It does not wait for the server
// to acknowledge the message.
func (p *Publisher) Publish(ctx context.Context, subject string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", subject, err)
	}

	_, err = p.cb.Execute(func() (any, error) {
		return nil, p.conn.Publish(subject, data)
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}
	return nil
}

// State returns the breaker state.
func (p *Publisher) State() gobreaker.State {
	return p.cb.State()
}
