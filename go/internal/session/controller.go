package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/buffet/go/clients"
	"github.com/mcdev12/buffet/go/internal/models"
	"github.com/rs/zerolog/log"
)

// OrderAPI is what the controller needs from the backend client
type OrderAPI interface {
	StartOrder(ctx context.Context, tableNumber string) (*models.Order, error)
	GetOrder(ctx context.Context, orderID models.ID) (*models.Order, error)
	AddItem(ctx context.Context, orderID, menuItemID models.ID, quantity int) (*models.OrderItem, error)
	Checkout(ctx context.Context, orderID models.ID) (*models.CheckoutResponse, error)
}

// MenuRefresher is the menu cache as seen by the controller
type MenuRefresher interface {
	Refresh(ctx context.Context) error
}

// Observer is called on the controller loop after every transition. It must
// not call back into the controller.
type Observer func(State)

// Option configures a Controller
type Option func(*Controller)

// WithClock replaces the real clock, for tests
func WithClock(clock clockwork.Clock) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// WithTickInterval changes the countdown period
func WithTickInterval(d time.Duration) Option {
	return func(c *Controller) {
		c.tickInterval = d
	}
}

// WithObserver registers a state observer
func WithObserver(o Observer) Option {
	return func(c *Controller) {
		c.observers = append(c.observers, o)
	}
}

// Controller runs one ordering session. All transitions happen on the Run
// loop; network calls run on their own goroutines and post their outcome back
// to it.
type Controller struct {
	api          OrderAPI
	menu         MenuRefresher
	clock        clockwork.Clock
	tickInterval time.Duration
	observers    []Observer

	inbox chan envelope
	done  chan struct{}

	mu    sync.RWMutex
	state State

	// owned by the loop
	timer    countdown
	calls    sync.WaitGroup
	runCtx   context.Context
	stopOnce sync.Once
}

type envelope struct {
	event Event
	op    *operation
}

// operation tracks one user action across its chain of commands
type operation struct {
	pending int
	err     error
	done    chan error
}

// NewController creates a session controller. menu may be nil.
func NewController(api OrderAPI, menu MenuRefresher, opts ...Option) *Controller {
	c := &Controller{
		api:          api,
		menu:         menu,
		clock:        clockwork.NewRealClock(),
		tickInterval: time.Second,
		inbox:        make(chan envelope, 16),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run processes events until ctx is cancelled. The countdown is torn down on
// return.
func (c *Controller) Run(ctx context.Context) error {
	c.runCtx = ctx
	log.Info().Msg("session controller started")

	defer func() {
		c.timer.stop()
		c.stopOnce.Do(func() { close(c.done) })
		c.calls.Wait()
		log.Info().Msg("session controller stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case env := <-c.inbox:
			c.apply(env)
		case <-c.timer.C():
			c.apply(envelope{event: Ticked{}})
		}
	}
}

// Start opens a new session, optionally tagged with a table number.
func (c *Controller) Start(ctx context.Context, tableNumber string) error {
	return c.dispatch(ctx, StartRequested{TableNumber: tableNumber})
}

// AddItem appends one unit of a menu item and resynchronises the order.
func (c *Controller) AddItem(ctx context.Context, menuItemID models.ID) error {
	return c.dispatch(ctx, AddItemRequested{MenuItemID: menuItemID})
}

// Checkout finalizes the session.
func (c *Controller) Checkout(ctx context.Context) error {
	return c.dispatch(ctx, CheckoutRequested{})
}

// Reset drops the current order and returns to the start screen.
func (c *Controller) Reset(ctx context.Context) error {
	return c.dispatch(ctx, ResetRequested{})
}

// Snapshot returns a copy of the current state
func (c *Controller) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Clone()
}

// dispatch posts a user request and waits until every command it caused has
// reported back.
func (c *Controller) dispatch(ctx context.Context, ev Event) error {
	op := &operation{pending: 1, done: make(chan error, 1)}

	select {
	case c.inbox <- envelope{event: ev, op: op}:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrStopped
	}

	select {
	case err := <-op.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrStopped
	}
}

func (c *Controller) apply(env envelope) {
	next, cmds, err := Reduce(c.state, env.event)

	c.mu.Lock()
	c.state = next
	c.mu.Unlock()

	c.timer.sync(c.clock, c.tickInterval, next)

	if err != nil {
		log.Warn().
			Err(err).
			Str("kind", string(KindOf(err))).
			Msg("session action failed")
	}

	op := env.op
	if op != nil {
		op.pending--
		if err != nil && op.err == nil {
			op.err = err
		}
	}

	for _, cmd := range cmds {
		if _, detached := cmd.(RefreshMenu); detached || op == nil {
			c.execute(cmd, nil)
			continue
		}
		op.pending++
		c.execute(cmd, op)
	}

	snapshot := next.Clone()
	for _, o := range c.observers {
		o(snapshot)
	}

	if op != nil && op.pending == 0 {
		op.done <- op.err
	}
}

func (c *Controller) execute(cmd Command, op *operation) {
	c.calls.Add(1)
	go func() {
		defer c.calls.Done()
		ev := c.perform(c.runCtx, cmd)
		if ev == nil {
			return
		}
		select {
		case c.inbox <- envelope{event: ev, op: op}:
		case <-c.done:
		}
	}()
}

// perform makes the network call a command describes
func (c *Controller) perform(ctx context.Context, cmd Command) Event {
	switch cmd := cmd.(type) {
	case CreateOrder:
		order, err := c.api.StartOrder(ctx, cmd.TableNumber)
		if err != nil {
			return StartFailed{Err: err}
		}
		log.Info().
			Str("order_id", order.ID.String()).
			Str("table_number", order.Table()).
			Int("remaining_seconds", order.RemainingSeconds).
			Msg("order started")
		return OrderStarted{Order: order}

	case AppendItem:
		if _, err := c.api.AddItem(ctx, cmd.OrderID, cmd.MenuItemID, cmd.Quantity); err != nil {
			// Only a 400 is the server refusing this item for this order.
			var apiErr *clients.APIError
			if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest {
				return ItemRejected{OrderID: cmd.OrderID, Message: apiErr.Detail, Err: err}
			}
			return ItemFailed{OrderID: cmd.OrderID, Err: err}
		}
		return ItemAppended{OrderID: cmd.OrderID}

	case SubmitCheckout:
		if _, err := c.api.Checkout(ctx, cmd.OrderID); err != nil {
			return CheckoutFailed{OrderID: cmd.OrderID, Err: err}
		}
		return CheckedOut{OrderID: cmd.OrderID}

	case FetchOrder:
		order, err := c.api.GetOrder(ctx, cmd.OrderID)
		if err != nil {
			return FetchFailed{Seq: cmd.Seq, OrderID: cmd.OrderID, Err: err}
		}
		log.Debug().
			Str("order_id", order.ID.String()).
			Uint64("seq", cmd.Seq).
			Bool("is_active", order.IsActive).
			Bool("is_checked_out", order.IsCheckedOut).
			Int("remaining_seconds", order.RemainingSeconds).
			Msg("order fetched")
		return OrderFetched{Seq: cmd.Seq, Order: order, ZeroTimer: cmd.ZeroTimer}

	case RefreshMenu:
		if c.menu != nil {
			if err := c.menu.Refresh(ctx); err != nil {
				log.Error().Err(err).Msg("menu refresh after start failed")
			}
		}
		return nil
	}

	log.Error().Msgf("unhandled session command %T", cmd)
	return nil
}
