package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/buffet/go/clients"
	"github.com/mcdev12/buffet/go/internal/models"
)

// fakeAPI is an in-memory OrderAPI that records every call
type fakeAPI struct {
	mu sync.Mutex

	startOrder *models.Order
	startErr   error
	getOrder   *models.Order
	getErr     error
	addErr     error
	checkout   error

	startCalls    int
	getCalls      int
	addCalls      int
	checkoutCalls int
}

func (f *fakeAPI) StartOrder(ctx context.Context, tableNumber string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startCalls++
	if f.startErr != nil {
		return nil, f.startErr
	}
	return f.startOrder.Clone(), nil
}

func (f *fakeAPI) GetOrder(ctx context.Context, orderID models.ID) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOrder.Clone(), nil
}

func (f *fakeAPI) AddItem(ctx context.Context, orderID, menuItemID models.ID, quantity int) (*models.OrderItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addCalls++
	if f.addErr != nil {
		return nil, f.addErr
	}
	return &models.OrderItem{ID: "1", MenuItemID: menuItemID, Quantity: quantity}, nil
}

func (f *fakeAPI) Checkout(ctx context.Context, orderID models.ID) (*models.CheckoutResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkoutCalls++
	if f.checkout != nil {
		return nil, f.checkout
	}
	return &models.CheckoutResponse{OrderID: orderID}, nil
}

func (f *fakeAPI) set(fn func(f *fakeAPI)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeAPI) calls() (start, get, add, checkout int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.startCalls, f.getCalls, f.addCalls, f.checkoutCalls
}

type countingMenu struct {
	mu    sync.Mutex
	calls int
}

func (m *countingMenu) Refresh(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return nil
}

func (m *countingMenu) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type fakeClock interface {
	clockwork.Clock
	Advance(d time.Duration)
}

func runController(t *testing.T, api *fakeAPI, menu MenuRefresher, opts ...Option) (*Controller, fakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	opts = append([]Option{WithClock(clock)}, opts...)
	c := NewController(api, menu, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return c, clock
}

func waitFor(t *testing.T, c *Controller, what string, cond func(State) bool) State {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		s := c.Snapshot()
		if cond(s) {
			return s
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s; last state %+v", what, s)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestControllerStartRefreshesMenu(t *testing.T) {
	api := &fakeAPI{startOrder: &models.Order{ID: "A1", TableNumber: tableOf("5"), IsActive: true, RemainingSeconds: 6300, Items: []models.OrderItem{}}}
	menu := &countingMenu{}
	c, _ := runController(t, api, menu)

	if err := c.Start(context.Background(), "5"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	s := c.Snapshot()
	if s.Screen() != ScreenActive || s.RemainingSeconds != 6300 || s.Order.Table() != "5" {
		t.Errorf("unexpected state %+v", s)
	}
	deadline := time.Now().Add(2 * time.Second)
	for menu.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if menu.count() != 1 {
		t.Errorf("menu refreshed %d times, want 1", menu.count())
	}
}

func TestControllerCountdownReconcilesOnce(t *testing.T) {
	api := &fakeAPI{
		startOrder: &models.Order{ID: "A1", IsActive: true, RemainingSeconds: 3, Items: []models.OrderItem{}},
		getOrder:   &models.Order{ID: "A1", IsActive: false, RemainingSeconds: 0, Items: []models.OrderItem{}},
	}
	c, clock := runController(t, api, nil)

	if err := c.Start(context.Background(), ""); err != nil {
		t.Fatalf("Start: %v", err)
	}

	for want := 2; want >= 1; want-- {
		clock.Advance(time.Second)
		waitFor(t, c, "tick", func(s State) bool { return s.RemainingSeconds == want })
	}

	clock.Advance(time.Second)
	s := waitFor(t, c, "expired screen", func(s State) bool { return s.Screen() == ScreenExpired })
	if s.RemainingSeconds != 0 {
		t.Errorf("RemainingSeconds = %d, want 0", s.RemainingSeconds)
	}

	for i := 0; i < 5; i++ {
		clock.Advance(time.Second)
	}
	time.Sleep(20 * time.Millisecond)

	if _, get, _, _ := api.calls(); get != 1 {
		t.Errorf("GetOrder called %d times, want 1", get)
	}
}

func TestControllerAddItemWithoutOrderMakesNoCalls(t *testing.T) {
	api := &fakeAPI{}
	c, _ := runController(t, api, nil)

	err := c.AddItem(context.Background(), "soup")
	if KindOf(err) != IneligibleAction {
		t.Fatalf("AddItem error = %v, want ineligible", err)
	}
	start, get, add, checkout := api.calls()
	if start+get+add+checkout != 0 {
		t.Errorf("ineligible add made network calls: start=%d get=%d add=%d checkout=%d", start, get, add, checkout)
	}
	if c.Snapshot().LastError != MsgAddIneligible {
		t.Errorf("LastError = %q", c.Snapshot().LastError)
	}
}

func TestControllerAddItemRejected(t *testing.T) {
	api := &fakeAPI{
		startOrder: &models.Order{ID: "A1", IsActive: true, RemainingSeconds: 100, Items: []models.OrderItem{}},
	}
	c, _ := runController(t, api, nil)
	if err := c.Start(context.Background(), ""); err != nil {
		t.Fatalf("Start: %v", err)
	}

	api.set(func(f *fakeAPI) {
		f.addErr = &clients.APIError{StatusCode: 400, Detail: "หมดเวลาแล้ว"}
		f.getOrder = &models.Order{ID: "A1", IsActive: false, Items: []models.OrderItem{}}
	})

	err := c.AddItem(context.Background(), "soup")
	if KindOf(err) != AddItemRejected {
		t.Fatalf("AddItem error = %v, want rejected", err)
	}

	s := c.Snapshot()
	if s.LastError != "หมดเวลาแล้ว" {
		t.Errorf("LastError = %q", s.LastError)
	}
	if s.Order.IsActive || s.Screen() != ScreenExpired {
		t.Errorf("follow-up fetch did not apply: %+v", s.Order)
	}
	if _, get, add, _ := api.calls(); add != 1 || get != 1 {
		t.Errorf("add=%d get=%d, want 1 and 1", add, get)
	}
}

func TestControllerAddItemTransportFailure(t *testing.T) {
	api := &fakeAPI{
		startOrder: &models.Order{ID: "A1", IsActive: true, RemainingSeconds: 100, Items: []models.OrderItem{}},
	}
	c, _ := runController(t, api, nil)
	if err := c.Start(context.Background(), ""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	api.set(func(f *fakeAPI) { f.addErr = errors.New("connection reset") })

	if err := c.AddItem(context.Background(), "soup"); KindOf(err) != AddItemFailure {
		t.Fatalf("AddItem error = %v, want failure", err)
	}
	if _, get, _, _ := api.calls(); get != 0 {
		t.Errorf("transport failure should not refetch, got %d fetches", get)
	}
	if c.Snapshot().LastError != MsgAddFailed {
		t.Errorf("LastError = %q", c.Snapshot().LastError)
	}
}

func TestControllerAddItemNotFoundIsFailure(t *testing.T) {
	api := &fakeAPI{
		startOrder: &models.Order{ID: "A1", IsActive: true, RemainingSeconds: 100, Items: []models.OrderItem{}},
	}
	c, _ := runController(t, api, nil)
	if err := c.Start(context.Background(), ""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	api.set(func(f *fakeAPI) { f.addErr = &clients.APIError{StatusCode: 404, Detail: "Order not found"} })

	if err := c.AddItem(context.Background(), "soup"); KindOf(err) != AddItemFailure {
		t.Fatalf("AddItem error = %v, want failure", err)
	}
	if _, get, _, _ := api.calls(); get != 0 {
		t.Errorf("404 should not refetch, got %d fetches", get)
	}
	if c.Snapshot().LastError != MsgAddFailed {
		t.Errorf("LastError = %q, want %q", c.Snapshot().LastError, MsgAddFailed)
	}
}

func TestControllerCheckoutStopsCountdown(t *testing.T) {
	api := &fakeAPI{
		startOrder: &models.Order{ID: "A1", IsActive: true, RemainingSeconds: 100, Items: []models.OrderItem{}},
		getOrder:   &models.Order{ID: "A1", IsActive: false, IsCheckedOut: true, RemainingSeconds: 42, Items: []models.OrderItem{}},
	}
	c, clock := runController(t, api, nil)
	if err := c.Start(context.Background(), ""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Checkout(context.Background()); err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	s := c.Snapshot()
	if s.Screen() != ScreenCheckedOut || s.RemainingSeconds != 0 {
		t.Fatalf("unexpected state %+v", s)
	}

	clock.Advance(10 * time.Second)
	time.Sleep(20 * time.Millisecond)
	if got := c.Snapshot().RemainingSeconds; got != 0 {
		t.Errorf("countdown kept running after checkout: %d", got)
	}
}

func TestControllerStartFailure(t *testing.T) {
	api := &fakeAPI{startErr: errors.New("no route to host")}
	c, _ := runController(t, api, nil)

	err := c.Start(context.Background(), "5")
	if KindOf(err) != StartFailure {
		t.Fatalf("Start error = %v, want start failure", err)
	}
	s := c.Snapshot()
	if s.Order != nil || s.LastError != MsgStartFailed || s.Starting {
		t.Errorf("unexpected state %+v", s)
	}
}

func TestControllerResetAndRestart(t *testing.T) {
	api := &fakeAPI{
		startOrder: &models.Order{ID: "A1", IsActive: true, RemainingSeconds: 100, Items: []models.OrderItem{}},
	}
	c, clock := runController(t, api, nil)
	if err := c.Start(context.Background(), ""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Reset(context.Background()); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if c.Snapshot().Screen() != ScreenStart {
		t.Fatalf("Screen() = %s after reset", c.Snapshot().Screen())
	}

	api.set(func(f *fakeAPI) {
		f.startOrder = &models.Order{ID: "B2", IsActive: true, RemainingSeconds: 50, Items: []models.OrderItem{}}
	})
	if err := c.Start(context.Background(), ""); err != nil {
		t.Fatalf("second Start: %v", err)
	}

	clock.Advance(time.Second)
	s := waitFor(t, c, "tick on new order", func(s State) bool { return s.RemainingSeconds == 49 })
	if s.Order.ID != "B2" {
		t.Errorf("order id = %s, want B2", s.Order.ID)
	}
}

func TestControllerObserverSeesEveryTransition(t *testing.T) {
	api := &fakeAPI{startOrder: &models.Order{ID: "A1", IsActive: true, RemainingSeconds: 10, Items: []models.OrderItem{}}}

	var mu sync.Mutex
	var screens []Screen
	observer := func(s State) {
		mu.Lock()
		defer mu.Unlock()
		screens = append(screens, s.Screen())
	}
	c, _ := runController(t, api, nil, WithObserver(observer))

	if err := c.Start(context.Background(), ""); err != nil {
		t.Fatalf("Start: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(screens) != 2 || screens[0] != ScreenStart || screens[1] != ScreenActive {
		t.Errorf("observed screens %v, want [start active]", screens)
	}
}

func TestDispatchAfterStop(t *testing.T) {
	c := NewController(&fakeAPI{}, nil, WithClock(clockwork.NewFakeClock()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.Run(ctx)

	if err := c.Start(context.Background(), ""); !errors.Is(err, ErrStopped) {
		t.Errorf("Start after stop = %v, want ErrStopped", err)
	}
}
