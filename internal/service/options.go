package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

const tracerName = "inventory-ledger"

var tracer = otel.Tracer(tracerName)

// SystemActor is recorded when a movement is requested without an operator
const SystemActor = "system"

type actorKey struct{}

// WithActor returns a context carrying the operator responsible for writes
// made with it
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFrom(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
		return actor
	}
	return SystemActor
}

type settings struct {
	clock  func() time.Time
	logger logrus.FieldLogger
}

type Option func(*settings)

// WithClock replaces time.Now as the source of timestamps
func WithClock(clock func() time.Time) Option {
	return func(s *settings) { s.clock = clock }
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *settings) { s.logger = logger }
}

func newSettings(opts []Option) settings {
	s := settings{clock: time.Now, logger: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// now is truncated to microseconds so every backend stores it unchanged
func (s settings) now() time.Time {
	return s.clock().UTC().Truncate(time.Microsecond)
}
