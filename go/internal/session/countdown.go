package session

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/buffet/go/internal/models"
	"github.com/rs/zerolog/log"
)

// countdown owns the single ticker of a controller. It is only touched from
// the controller loop.
type countdown struct {
	ticker  clockwork.Ticker
	orderID models.ID
}

// C returns the tick channel, or nil when no ticker is armed. Receiving from a
// nil channel blocks forever, which keeps the loop's select idle.
func (t *countdown) C() <-chan time.Time {
	if t.ticker == nil {
		return nil
	}
	return t.ticker.Chan()
}

// sync arms or tears down the ticker to match the state. A ticker is bound to
// one order id so a new session never inherits the old one's ticks.
func (t *countdown) sync(clock clockwork.Clock, interval time.Duration, s State) {
	if !s.TimerActive() {
		t.stop()
		return
	}
	if t.ticker != nil && t.orderID == s.Order.ID {
		return
	}
	t.stop()
	t.ticker = clock.NewTicker(interval)
	t.orderID = s.Order.ID
	log.Debug().
		Str("order_id", t.orderID.String()).
		Int("remaining_seconds", s.RemainingSeconds).
		Msg("countdown armed")
}

func (t *countdown) stop() {
	if t.ticker == nil {
		return
	}
	t.ticker.Stop()
	// Drop a tick that fired but was never received.
	select {
	case <-t.ticker.Chan():
	default:
	}
	log.Debug().Str("order_id", t.orderID.String()).Msg("countdown stopped")
	t.ticker = nil
	t.orderID = ""
}
