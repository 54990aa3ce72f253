package events

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

// Fanout publishes every event to all of its sinks. A failing sink is logged
// and does not stop the others.
type Fanout struct {
	publishers []Publisher
}

// NewFanout creates a fan-out publisher; nil publishers are skipped
func NewFanout(publishers ...Publisher) *Fanout {
	f := &Fanout{}
	for _, p := range publishers {
		if p != nil {
			f.publishers = append(f.publishers, p)
		}
	}
	return f
}

// Add appends another sink
func (f *Fanout) Add(p Publisher) {
	if p != nil {
		f.publishers = append(f.publishers, p)
	}
}

// Publish sends the event to every sink and joins their errors
func (f *Fanout) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range f.publishers {
		if err := p.Publish(ctx, event); err != nil {
			log.Error().
				Err(err).
				Str("event_id", event.ID.String()).
				Str("event_type", string(event.Type)).
				Str("order_id", event.OrderID).
				Msg("failed to publish event")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogPublisher writes events to the structured log. It is the sink used when
// no broker is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, event Event) error {
	log.Info().
		Str("event_id", event.ID.String()).
		Str("event_type", string(event.Type)).
		Str("order_id", event.OrderID).
		RawJSON("data", event.Data).
		Msg("order event")
	return nil
}
