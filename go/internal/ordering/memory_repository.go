package ordering

import (
	"context"
	"sync"
	"time"

	"github.com/mcdev12/buffet/go/internal/models"
)

// MemoryRepository keeps everything in process. Used by tests and by the
// server when no database is configured.
type MemoryRepository struct {
	mu        sync.Mutex
	menu      []models.MenuItem
	orders    map[models.ID]*models.Order
	nextMenu  int64
	nextOrder int64
	nextLine  int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{orders: make(map[models.ID]*models.Order)}
}

func (r *MemoryRepository) ListMenuItems(ctx context.Context, availableOnly bool) ([]models.MenuItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := []models.MenuItem{}
	for _, item := range r.menu {
		if availableOnly && !item.IsAvailable {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *MemoryRepository) menuIndex(id models.ID) int {
	for i := range r.menu {
		if r.menu[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *MemoryRepository) GetMenuItem(ctx context.Context, id models.ID) (*models.MenuItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.menuIndex(id)
	if i < 0 {
		return nil, ErrMenuItemNotFound
	}
	item := r.menu[i]
	return &item, nil
}

func (r *MemoryRepository) CreateMenuItem(ctx context.Context, item models.MenuItem) (*models.MenuItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextMenu++
	item.ID = models.IDFromInt64(r.nextMenu)
	r.menu = append(r.menu, item)
	return &item, nil
}

func (r *MemoryRepository) UpdateMenuItem(ctx context.Context, item models.MenuItem) (*models.MenuItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.menuIndex(item.ID)
	if i < 0 {
		return nil, ErrMenuItemNotFound
	}
	r.menu[i] = item
	return &item, nil
}

func (r *MemoryRepository) CountMenuItems(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.menu), nil
}

func (r *MemoryRepository) CreateOrder(ctx context.Context, order models.Order) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextOrder++
	stored := &models.Order{
		ID:          models.IDFromInt64(r.nextOrder),
		TableNumber: order.TableNumber,
		StartTime:   order.StartTime,
		EndTime:     order.EndTime,
		IsActive:    true,
		Items:       []models.OrderItem{},
	}
	r.orders[stored.ID] = stored
	return stored.Clone(), nil
}

func (r *MemoryRepository) GetOrder(ctx context.Context, id models.ID) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return order.Clone(), nil
}

func (r *MemoryRepository) AddOrderItem(ctx context.Context, orderID models.ID, item models.MenuItem, quantity int, at time.Time) (*models.OrderItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	if !order.Open() {
		return nil, ErrOrderClosed
	}

	r.nextLine++
	line := models.OrderItem{
		ID:         models.IDFromInt64(r.nextLine),
		MenuItemID: item.ID,
		Quantity:   quantity,
		CreatedAt:  at,
		MenuItem:   item,
	}
	order.Items = append(order.Items, line)
	order.TotalAmount += item.Price * float64(quantity)
	return &line, nil
}

func (r *MemoryRepository) ExpireOrder(ctx context.Context, id models.ID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return false, ErrOrderNotFound
	}
	if !order.Open() {
		return false, nil
	}
	order.IsActive = false
	return true, nil
}

func (r *MemoryRepository) CheckoutOrder(ctx context.Context, id models.ID) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	if order.IsCheckedOut {
		return nil, ErrAlreadyCheckedOut
	}
	order.IsCheckedOut = true
	order.IsActive = false
	return order.Clone(), nil
}
