package ordering

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/buffet/go/internal/models"
	"github.com/mcdev12/buffet/go/internal/ordering/events"
)

// Repository defines what the app layer needs from storage
type Repository interface {
	ListMenuItems(ctx context.Context, availableOnly bool) ([]models.MenuItem, error)
	GetMenuItem(ctx context.Context, id models.ID) (*models.MenuItem, error)
	CreateMenuItem(ctx context.Context, item models.MenuItem) (*models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, item models.MenuItem) (*models.MenuItem, error)
	CountMenuItems(ctx context.Context) (int, error)

	CreateOrder(ctx context.Context, order models.Order) (*models.Order, error)
	GetOrder(ctx context.Context, id models.ID) (*models.Order, error)
	AddOrderItem(ctx context.Context, orderID models.ID, item models.MenuItem, quantity int, at time.Time) (*models.OrderItem, error)
	ExpireOrder(ctx context.Context, id models.ID) (bool, error)
	CheckoutOrder(ctx context.Context, id models.ID) (*models.Order, error)
}

// SeedResult is returned by POST /api/seed
type SeedResult struct {
	Message string `json:"message"`
	Created int    `json:"created"`
}

// App holds the buffet business rules
type App struct {
	repo          Repository
	publisher     events.Publisher
	clock         clockwork.Clock
	sessionLength time.Duration
}

type AppOption func(*App)

// WithClock replaces the wall clock, mostly for tests
func WithClock(c clockwork.Clock) AppOption {
	return func(a *App) { a.clock = c }
}

// WithSessionLength overrides the 105 minute default
func WithSessionLength(d time.Duration) AppOption {
	return func(a *App) {
		if d > 0 {
			a.sessionLength = d
		}
	}
}

// NewApp creates a new ordering App. A nil publisher logs events only.
func NewApp(repo Repository, publisher events.Publisher, opts ...AppOption) *App {
	if publisher == nil {
		publisher = events.LogPublisher{}
	}
	a := &App{
		repo:          repo,
		publisher:     publisher,
		clock:         clockwork.NewRealClock(),
		sessionLength: DefaultSessionLength,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SessionLength returns the configured ordering window
func (a *App) SessionLength() time.Duration {
	return a.sessionLength
}

// remaining is whole seconds left on an open order, 0 otherwise
func (a *App) remaining(order *models.Order) int {
	if !order.Open() {
		return 0
	}
	left := a.sessionLength - a.clock.Since(order.StartTime)
	if left <= 0 {
		return 0
	}
	return int(left / time.Second)
}

// publish never fails the caller; sinks log their own errors
func (a *App) publish(ctx context.Context, eventType events.EventType, order *models.Order, payload interface{}) {
	ev, err := events.New(eventType, order.ID.String(), order.TableNumber, a.clock.Now(), payload)
	if err != nil {
		log.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to build event")
		return
	}
	if err := a.publisher.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).Str("event_type", string(eventType)).Str("order_id", order.ID.String()).Msg("event not delivered to every sink")
	}
}

// expireIfDue deactivates an open order whose time is up. It returns the
// order with RemainingSeconds filled in.
func (a *App) expireIfDue(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.Open() && a.remaining(order) == 0 {
		changed, err := a.repo.ExpireOrder(ctx, order.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to expire order %s: %w", order.ID, err)
		}
		order.IsActive = false
		if changed {
			log.Info().Str("order_id", order.ID.String()).Msg("order expired")
			a.publish(ctx, events.EventTypeOrderExpired, order, events.OrderExpiredPayload{
				EndTime:   order.EndTime,
				ItemCount: len(order.Items),
			})
		}
	}
	order.RemainingSeconds = a.remaining(order)
	return order, nil
}

// StartOrder opens a new session for the table
func (a *App) StartOrder(ctx context.Context, tableNumber *string) (*models.Order, error) {
	if tableNumber != nil {
		t := strings.TrimSpace(*tableNumber)
		if t == "" {
			tableNumber = nil
		} else {
			tableNumber = &t
		}
	}

	start := a.clock.Now().UTC()
	order, err := a.repo.CreateOrder(ctx, models.Order{
		TableNumber: tableNumber,
		StartTime:   start,
		EndTime:     start.Add(a.sessionLength),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start order: %w", err)
	}
	order.RemainingSeconds = int(a.sessionLength / time.Second)

	log.Info().
		Str("order_id", order.ID.String()).
		Str("table_number", order.Table()).
		Time("end_time", order.EndTime).
		Msg("order started")
	a.publish(ctx, events.EventTypeOrderStarted, order, events.OrderStartedPayload{
		StartTime: order.StartTime,
		EndTime:   order.EndTime,
	})
	return order, nil
}

// GetOrder returns the order, expiring it first when its time is up
func (a *App) GetOrder(ctx context.Context, id models.ID) (*models.Order, error) {
	order, err := a.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", id, err)
	}
	return a.expireIfDue(ctx, order)
}

// AddItem appends a dish to an open order
func (a *App) AddItem(ctx context.Context, orderID models.ID, req models.AddItemRequest) (*models.OrderItem, error) {
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}

	order, err := a.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Open() {
		return nil, ErrOrderClosed
	}

	item, err := a.repo.GetMenuItem(ctx, req.MenuItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get menu item %s: %w", req.MenuItemID, err)
	}
	if !item.IsAvailable {
		return nil, ErrMenuItemUnavailable
	}

	line, err := a.repo.AddOrderItem(ctx, order.ID, *item, quantity, a.clock.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to add item to order %s: %w", order.ID, err)
	}

	log.Info().
		Str("order_id", order.ID.String()).
		Str("menu_item_id", item.ID.String()).
		Int("quantity", quantity).
		Msg("item added")
	a.publish(ctx, events.EventTypeItemAdded, order, events.ItemAddedPayload{
		OrderItemID: line.ID.String(),
		MenuItemID:  item.ID.String(),
		Name:        item.Name,
		Category:    item.Category,
		Quantity:    quantity,
	})
	return line, nil
}

// Checkout closes the bill. Expired orders can still be checked out.
func (a *App) Checkout(ctx context.Context, orderID models.ID) (*models.CheckoutResponse, error) {
	order, err := a.repo.CheckoutOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to checkout order %s: %w", orderID, err)
	}

	itemCount := 0
	if full, err := a.repo.GetOrder(ctx, order.ID); err == nil {
		itemCount = len(full.Items)
		order = full
	}

	log.Info().
		Str("order_id", order.ID.String()).
		Float64("total_amount", order.TotalAmount).
		Msg("order checked out")
	a.publish(ctx, events.EventTypeOrderCheckedOut, order, events.OrderCheckedOutPayload{
		TotalAmount: order.TotalAmount,
		ItemCount:   itemCount,
	})
	return &models.CheckoutResponse{
		Message:     "Order checked out successfully",
		OrderID:     order.ID,
		TotalAmount: order.TotalAmount,
	}, nil
}

// ListMenu returns the dishes that can currently be ordered
func (a *App) ListMenu(ctx context.Context) ([]models.MenuItem, error) {
	items, err := a.repo.ListMenuItems(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list menu: %w", err)
	}
	return items, nil
}

func validateMenuItem(item models.MenuItem) error {
	if strings.TrimSpace(item.Name) == "" || strings.TrimSpace(item.Category) == "" || item.Price < 0 {
		return ErrInvalidMenuItem
	}
	return nil
}

// CreateMenuItem adds a dish; it is available unless the request says otherwise
func (a *App) CreateMenuItem(ctx context.Context, req CreateMenuItemRequest) (*models.MenuItem, error) {
	item := models.MenuItem{
		Name:        strings.TrimSpace(req.Name),
		Category:    strings.TrimSpace(req.Category),
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		IsAvailable: true,
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}
	if err := validateMenuItem(item); err != nil {
		return nil, err
	}

	created, err := a.repo.CreateMenuItem(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("failed to create menu item: %w", err)
	}
	log.Info().Str("menu_item_id", created.ID.String()).Str("name", created.Name).Msg("menu item created")
	return created, nil
}

// UpdateMenuItem applies the non-nil fields of req
func (a *App) UpdateMenuItem(ctx context.Context, id models.ID, req UpdateMenuItemRequest) (*models.MenuItem, error) {
	item, err := a.repo.GetMenuItem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get menu item %s: %w", id, err)
	}

	if req.Name != nil {
		item.Name = strings.TrimSpace(*req.Name)
	}
	if req.Category != nil {
		item.Category = strings.TrimSpace(*req.Category)
	}
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.ImageURL != nil {
		item.ImageURL = req.ImageURL
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}
	if err := validateMenuItem(*item); err != nil {
		return nil, err
	}

	updated, err := a.repo.UpdateMenuItem(ctx, *item)
	if err != nil {
		return nil, fmt.Errorf("failed to update menu item %s: %w", id, err)
	}
	return updated, nil
}

// DeleteMenuItem hides a dish from the menu. Past order lines keep their reference.
func (a *App) DeleteMenuItem(ctx context.Context, id models.ID) error {
	unavailable := false
	if _, err := a.UpdateMenuItem(ctx, id, UpdateMenuItemRequest{IsAvailable: &unavailable}); err != nil {
		return err
	}
	log.Info().Str("menu_item_id", id.String()).Msg("menu item removed")
	return nil
}

// Seed loads the default menu when the menu is empty
func (a *App) Seed(ctx context.Context) (*SeedResult, error) {
	n, err := a.repo.CountMenuItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to seed menu: %w", err)
	}
	if n > 0 {
		return &SeedResult{Message: "Data already exists"}, nil
	}

	seed, err := SeedMenu()
	if err != nil {
		return nil, err
	}
	var errs []error
	created := 0
	for _, req := range seed {
		if _, err := a.CreateMenuItem(ctx, req); err != nil {
			errs = append(errs, err)
			continue
		}
		created++
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to seed %d menu items: %w", len(errs), errors.Join(errs...))
	}
	return &SeedResult{Message: "Seed data created successfully", Created: created}, nil
}
