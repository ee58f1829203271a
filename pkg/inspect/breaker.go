package inspect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/opd-ai/go-broadphase/pkg/config"
	"github.com/opd-ai/go-broadphase/pkg/logging"
)

// BreakerSettings configures the circuit breaker that guards sends to one
// inspector client.
type BreakerSettings struct {
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	MaxConsecutiveFails uint32
}

// DefaultBreakerSettings matches the BROADPHASE_CB_* defaults.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:         3,
		Interval:            60 * time.Second,
		Timeout:             10 * time.Second,
		MaxConsecutiveFails: 5,
	}
}

// BreakerSettingsFromEnv copies the circuit breaker fields of env.
func BreakerSettingsFromEnv(env *config.EnvironmentConfig) BreakerSettings {
	return BreakerSettings{
		MaxRequests:         env.CircuitBreakerMaxRequests,
		Interval:            env.CircuitBreakerInterval,
		Timeout:             env.CircuitBreakerTimeout,
		MaxConsecutiveFails: env.CircuitBreakerMaxConsecutiveFails,
	}
}

// sender runs writes to one client through a circuit breaker. Once the
// breaker opens the client is considered gone.
type sender struct {
	breaker *gobreaker.CircuitBreaker
	logger  *logging.Logger
}

func newSender(name string, s BreakerSettings, logger *logging.Logger) *sender {
	maxFails := s.MaxConsecutiveFails
	if maxFails == 0 {
		maxFails = 1
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFails
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info(context.Background(), "circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &sender{
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}
}

// Send runs write through the breaker.
func (s *sender) Send(write func() error) error {
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, write()
	})
	if err != nil {
		return fmt.Errorf("circuit breaker: %w", err)
	}
	return nil
}

// Open reports whether the breaker rejects sends.
func (s *sender) Open() bool {
	return s.breaker.State() == gobreaker.StateOpen
}

// State returns the current breaker state.
func (s *sender) State() gobreaker.State {
	return s.breaker.State()
}

// Counts returns the breaker's request counters.
func (s *sender) Counts() gobreaker.Counts {
	return s.breaker.Counts()
}

// rejected reports whether err came from the breaker rather than the write.
func rejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
