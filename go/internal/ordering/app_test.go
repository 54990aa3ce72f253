package ordering

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/buffet/go/internal/models"
	"github.com/mcdev12/buffet/go/internal/ordering/events"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(ctx context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingPublisher) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

var testStart = time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

func newTestApp(t *testing.T) (*App, *MemoryRepository, *recordingPublisher, interface {
	clockwork.Clock
	Advance(time.Duration)
}) {
	t.Helper()
	repo := NewMemoryRepository()
	pub := &recordingPublisher{}
	clock := clockwork.NewFakeClockAt(testStart)
	app := NewApp(repo, pub, WithClock(clock))
	return app, repo, pub, clock
}

func seedItem(t *testing.T, app *App, name string, price float64) *models.MenuItem {
	t.Helper()
	item, err := app.CreateMenuItem(context.Background(), CreateMenuItemRequest{Name: name, Category: "อาหารจานหลัก", Price: price})
	if err != nil {
		t.Fatalf("CreateMenuItem(%s): %v", name, err)
	}
	return item
}

func TestStartOrder(t *testing.T) {
	app, _, pub, _ := newTestApp(t)
	table := " 5 "

	order, err := app.StartOrder(context.Background(), &table)
	if err != nil {
		t.Fatalf("StartOrder: %v", err)
	}
	if order.Table() != "5" || !order.IsActive || order.IsCheckedOut {
		t.Errorf("unexpected order %+v", order)
	}
	if order.RemainingSeconds != 6300 {
		t.Errorf("RemainingSeconds = %d, want 6300", order.RemainingSeconds)
	}
	if !order.EndTime.Equal(testStart.Add(105 * time.Minute)) {
		t.Errorf("EndTime = %v", order.EndTime)
	}
	if got := pub.types(); len(got) != 1 || got[0] != events.EventTypeOrderStarted {
		t.Errorf("events = %v", got)
	}

	blank := "  "
	order, err = app.StartOrder(context.Background(), &blank)
	if err != nil {
		t.Fatal(err)
	}
	if order.TableNumber != nil {
		t.Errorf("blank table should be stored as null, got %q", *order.TableNumber)
	}
}

func TestGetOrderCountsDownAndExpiresOnce(t *testing.T) {
	app, _, pub, clock := newTestApp(t)
	ctx := context.Background()
	order, _ := app.StartOrder(ctx, nil)

	clock.Advance(100*time.Second + 400*time.Millisecond)
	got, err := app.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.RemainingSeconds != 6199 || !got.IsActive {
		t.Errorf("after 100.4s: remaining %d active %v", got.RemainingSeconds, got.IsActive)
	}

	clock.Advance(105 * time.Minute)
	for i := 0; i < 2; i++ {
		got, err = app.GetOrder(ctx, order.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.IsActive || got.RemainingSeconds != 0 {
			t.Errorf("expired order: active %v remaining %d", got.IsActive, got.RemainingSeconds)
		}
	}

	want := []events.EventType{events.EventTypeOrderStarted, events.EventTypeOrderExpired}
	if got := pub.types(); len(got) != len(want) || got[1] != want[1] {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestAddItem(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		setup   func(t *testing.T, app *App, clock interface{ Advance(time.Duration) }) (models.ID, models.AddItemRequest)
		wantErr error
	}{
		{
			name: "unknown order",
			setup: func(t *testing.T, app *App, _ interface{ Advance(time.Duration) }) (models.ID, models.AddItemRequest) {
				item := seedItem(t, app, "ข้าวผัด", 0)
				return "999", models.AddItemRequest{MenuItemID: item.ID}
			},
			wantErr: ErrOrderNotFound,
		},
		{
			name: "expired order",
			setup: func(t *testing.T, app *App, clock interface{ Advance(time.Duration) }) (models.ID, models.AddItemRequest) {
				item := seedItem(t, app, "ข้าวผัด", 0)
				order, _ := app.StartOrder(ctx, nil)
				clock.Advance(106 * time.Minute)
				return order.ID, models.AddItemRequest{MenuItemID: item.ID}
			},
			wantErr: ErrOrderClosed,
		},
		{
			name: "checked out order",
			setup: func(t *testing.T, app *App, _ interface{ Advance(time.Duration) }) (models.ID, models.AddItemRequest) {
				item := seedItem(t, app, "ข้าวผัด", 0)
				order, _ := app.StartOrder(ctx, nil)
				if _, err := app.Checkout(ctx, order.ID); err != nil {
					t.Fatal(err)
				}
				return order.ID, models.AddItemRequest{MenuItemID: item.ID}
			},
			wantErr: ErrOrderClosed,
		},
		{
			name: "unknown menu item",
			setup: func(t *testing.T, app *App, _ interface{ Advance(time.Duration) }) (models.ID, models.AddItemRequest) {
				order, _ := app.StartOrder(ctx, nil)
				return order.ID, models.AddItemRequest{MenuItemID: "42"}
			},
			wantErr: ErrMenuItemNotFound,
		},
		{
			name: "unavailable menu item",
			setup: func(t *testing.T, app *App, _ interface{ Advance(time.Duration) }) (models.ID, models.AddItemRequest) {
				item := seedItem(t, app, "ข้าวผัด", 0)
				if err := app.DeleteMenuItem(ctx, item.ID); err != nil {
					t.Fatal(err)
				}
				order, _ := app.StartOrder(ctx, nil)
				return order.ID, models.AddItemRequest{MenuItemID: item.ID}
			},
			wantErr: ErrMenuItemUnavailable,
		},
		{
			name: "negative quantity",
			setup: func(t *testing.T, app *App, _ interface{ Advance(time.Duration) }) (models.ID, models.AddItemRequest) {
				item := seedItem(t, app, "ข้าวผัด", 0)
				order, _ := app.StartOrder(ctx, nil)
				return order.ID, models.AddItemRequest{MenuItemID: item.ID, Quantity: -2}
			},
			wantErr: ErrInvalidQuantity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _, _, clock := newTestApp(t)
			orderID, req := tt.setup(t, app, clock)
			_, err := app.AddItem(ctx, orderID, req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("AddItem error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAddItemAccumulatesTotal(t *testing.T) {
	app, _, pub, _ := newTestApp(t)
	ctx := context.Background()
	soup := seedItem(t, app, "ต้มยำกุ้ง", 120)
	drink := seedItem(t, app, "น้ำผลไม้", 35.5)
	order, _ := app.StartOrder(ctx, nil)

	line, err := app.AddItem(ctx, order.ID, models.AddItemRequest{MenuItemID: soup.ID})
	if err != nil {
		t.Fatal(err)
	}
	if line.Quantity != 1 || line.MenuItem.Name != "ต้มยำกุ้ง" {
		t.Errorf("default quantity line = %+v", line)
	}
	if _, err := app.AddItem(ctx, order.ID, models.AddItemRequest{MenuItemID: drink.ID, Quantity: 2}); err != nil {
		t.Fatal(err)
	}
	if _, err := app.AddItem(ctx, order.ID, models.AddItemRequest{MenuItemID: soup.ID}); err != nil {
		t.Fatal(err)
	}

	got, _ := app.GetOrder(ctx, order.ID)
	if len(got.Items) != 3 {
		t.Fatalf("items = %d, want 3 separate lines", len(got.Items))
	}
	if got.TotalAmount != 311 {
		t.Errorf("TotalAmount = %v, want 311", got.TotalAmount)
	}

	resp, err := app.Checkout(ctx, order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Message != "Order checked out successfully" || resp.OrderID != order.ID || resp.TotalAmount != 311 {
		t.Errorf("checkout response = %+v", resp)
	}

	types := pub.types()
	last := pub.events[len(pub.events)-1]
	if types[len(types)-1] != events.EventTypeOrderCheckedOut {
		t.Errorf("last event = %s", types[len(types)-1])
	}
	text, ok, err := events.StaffNotice(last)
	if err != nil || !ok || text == "" {
		t.Errorf("checkout notice = %q, %v, %v", text, ok, err)
	}
}

func TestCheckout(t *testing.T) {
	app, _, _, clock := newTestApp(t)
	ctx := context.Background()

	if _, err := app.Checkout(ctx, "1"); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("unknown order error = %v", err)
	}

	order, _ := app.StartOrder(ctx, nil)
	clock.Advance(2 * time.Hour)
	if _, err := app.Checkout(ctx, order.ID); err != nil {
		t.Errorf("expired order should still check out: %v", err)
	}
	if _, err := app.Checkout(ctx, order.ID); !errors.Is(err, ErrAlreadyCheckedOut) {
		t.Errorf("second checkout error = %v", err)
	}

	got, _ := app.GetOrder(ctx, order.ID)
	if !got.IsCheckedOut || got.IsActive || got.RemainingSeconds != 0 {
		t.Errorf("checked out order = %+v", got)
	}
}

func TestMenuLifecycle(t *testing.T) {
	app, _, _, _ := newTestApp(t)
	ctx := context.Background()

	if _, err := app.CreateMenuItem(ctx, CreateMenuItemRequest{Name: "", Category: "ยำ"}); !errors.Is(err, ErrInvalidMenuItem) {
		t.Errorf("blank name error = %v", err)
	}

	res, err := app.Seed(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.Created != 10 || res.Message != "Seed data created successfully" {
		t.Errorf("first seed = %+v", res)
	}
	res, err = app.Seed(ctx)
	if err != nil || res.Message != "Data already exists" {
		t.Errorf("second seed = %+v, %v", res, err)
	}

	menu, _ := app.ListMenu(ctx)
	if len(menu) != 10 {
		t.Fatalf("menu = %d items", len(menu))
	}

	price := 59.0
	updated, err := app.UpdateMenuItem(ctx, menu[0].ID, UpdateMenuItemRequest{Price: &price})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Price != 59 || updated.Name != menu[0].Name {
		t.Errorf("updated = %+v", updated)
	}

	if err := app.DeleteMenuItem(ctx, menu[0].ID); err != nil {
		t.Fatal(err)
	}
	menu, _ = app.ListMenu(ctx)
	if len(menu) != 9 {
		t.Errorf("menu after delete = %d items, want 9", len(menu))
	}
	if err := app.DeleteMenuItem(ctx, "404"); !errors.Is(err, ErrMenuItemNotFound) {
		t.Errorf("delete unknown error = %v", err)
	}
}
