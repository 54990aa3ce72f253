package ordering

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mcdev12/buffet/go/internal/models"
	"github.com/mcdev12/buffet/go/internal/sqlutil"
)

const menuItemColumns = `id, name, category, price, image_url, is_available`

const orderColumns = `id, table_number, start_time, end_time, is_active, is_checked_out, total_amount`

// PostgresRepository implements Repository on database/sql with lib/pq
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new Postgres backed repository
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMenuItem(row rowScanner) (*models.MenuItem, error) {
	var (
		id       int64
		item     models.MenuItem
		imageURL sql.NullString
	)
	if err := row.Scan(&id, &item.Name, &item.Category, &item.Price, &imageURL, &item.IsAvailable); err != nil {
		return nil, err
	}
	item.ID = models.IDFromInt64(id)
	item.ImageURL = sqlutil.FromSqlStringPtr(imageURL)
	return &item, nil
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var (
		id    int64
		order models.Order
		table sql.NullString
	)
	if err := row.Scan(&id, &table, &order.StartTime, &order.EndTime, &order.IsActive, &order.IsCheckedOut, &order.TotalAmount); err != nil {
		return nil, err
	}
	order.ID = models.IDFromInt64(id)
	order.TableNumber = sqlutil.FromSqlStringPtr(table)
	order.Items = []models.OrderItem{}
	return &order, nil
}

// ListMenuItems returns menu items ordered by id
func (r *PostgresRepository) ListMenuItems(ctx context.Context, availableOnly bool) ([]models.MenuItem, error) {
	query := `SELECT ` + menuItemColumns + ` FROM menu_items`
	if availableOnly {
		query += ` WHERE is_available`
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list menu items: %w", err)
	}
	defer rows.Close()

	items := []models.MenuItem{}
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list menu items: %w", err)
	}
	return items, nil
}

// GetMenuItem retrieves a menu item by ID
func (r *PostgresRepository) GetMenuItem(ctx context.Context, id models.ID) (*models.MenuItem, error) {
	key, err := id.Int64()
	if err != nil {
		return nil, ErrMenuItemNotFound
	}
	item, err := scanMenuItem(r.db.QueryRowContext(ctx,
		`SELECT `+menuItemColumns+` FROM menu_items WHERE id = $1`, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMenuItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get menu item: %w", err)
	}
	return item, nil
}

// CreateMenuItem inserts a menu item; the ID field is ignored
func (r *PostgresRepository) CreateMenuItem(ctx context.Context, item models.MenuItem) (*models.MenuItem, error) {
	created, err := scanMenuItem(r.db.QueryRowContext(ctx,
		`INSERT INTO menu_items (name, category, price, image_url, is_available)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+menuItemColumns,
		item.Name, item.Category, item.Price, sqlutil.ToSqlString(item.ImageURL), item.IsAvailable))
	if err != nil {
		return nil, fmt.Errorf("failed to create menu item: %w", err)
	}
	return created, nil
}

// UpdateMenuItem overwrites every column of an existing menu item
func (r *PostgresRepository) UpdateMenuItem(ctx context.Context, item models.MenuItem) (*models.MenuItem, error) {
	key, err := item.ID.Int64()
	if err != nil {
		return nil, ErrMenuItemNotFound
	}
	updated, err := scanMenuItem(r.db.QueryRowContext(ctx,
		`UPDATE menu_items
		 SET name = $2, category = $3, price = $4, image_url = $5, is_available = $6
		 WHERE id = $1
		 RETURNING `+menuItemColumns,
		key, item.Name, item.Category, item.Price, sqlutil.ToSqlString(item.ImageURL), item.IsAvailable))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMenuItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update menu item: %w", err)
	}
	return updated, nil
}

// CountMenuItems counts every menu item, available or not
func (r *PostgresRepository) CountMenuItems(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM menu_items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count menu items: %w", err)
	}
	return n, nil
}

// CreateOrder inserts a new active order
func (r *PostgresRepository) CreateOrder(ctx context.Context, order models.Order) (*models.Order, error) {
	created, err := scanOrder(r.db.QueryRowContext(ctx,
		`INSERT INTO orders (table_number, start_time, end_time, is_active, is_checked_out, total_amount)
		 VALUES ($1, $2, $3, TRUE, FALSE, 0)
		 RETURNING `+orderColumns,
		sqlutil.ToSqlString(order.TableNumber), order.StartTime, order.EndTime))
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return created, nil
}

// GetOrder retrieves an order with its lines in insertion order
func (r *PostgresRepository) GetOrder(ctx context.Context, id models.ID) (*models.Order, error) {
	key, err := id.Int64()
	if err != nil {
		return nil, ErrOrderNotFound
	}

	order, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT oi.id, oi.quantity, oi.created_at,
		        m.id, m.name, m.category, m.price, m.image_url, m.is_available
		 FROM order_items oi
		 JOIN menu_items m ON m.id = oi.menu_item_id
		 WHERE oi.order_id = $1
		 ORDER BY oi.id`, key)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			lineID, menuID int64
			line           models.OrderItem
			imageURL       sql.NullString
		)
		if err := rows.Scan(&lineID, &line.Quantity, &line.CreatedAt,
			&menuID, &line.MenuItem.Name, &line.MenuItem.Category, &line.MenuItem.Price, &imageURL, &line.MenuItem.IsAvailable); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		line.ID = models.IDFromInt64(lineID)
		line.MenuItemID = models.IDFromInt64(menuID)
		line.MenuItem.ID = line.MenuItemID
		line.MenuItem.ImageURL = sqlutil.FromSqlStringPtr(imageURL)
		order.Items = append(order.Items, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	return order, nil
}

// AddOrderItem appends a line and adds price × quantity to the order total in
// one transaction. The order row is locked so a concurrent checkout cannot
// slip in between the open check and the insert.
func (r *PostgresRepository) AddOrderItem(ctx context.Context, orderID models.ID, item models.MenuItem, quantity int, at time.Time) (*models.OrderItem, error) {
	orderKey, err := orderID.Int64()
	if err != nil {
		return nil, ErrOrderNotFound
	}
	menuKey, err := item.ID.Int64()
	if err != nil {
		return nil, ErrMenuItemNotFound
	}

	line := models.OrderItem{MenuItemID: item.ID, Quantity: quantity, MenuItem: item}
	err = sqlutil.Run(ctx, r.db, func(tx *sql.Tx) error {
		var active, checkedOut bool
		err := tx.QueryRowContext(ctx,
			`SELECT is_active, is_checked_out FROM orders WHERE id = $1 FOR UPDATE`, orderKey).
			Scan(&active, &checkedOut)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOrderNotFound
		}
		if err != nil {
			return err
		}
		if !active || checkedOut {
			return ErrOrderClosed
		}

		var lineID int64
		if err := tx.QueryRowContext(ctx,
			`INSERT INTO order_items (order_id, menu_item_id, quantity, created_at)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id, created_at`,
			orderKey, menuKey, quantity, at).Scan(&lineID, &line.CreatedAt); err != nil {
			return err
		}
		line.ID = models.IDFromInt64(lineID)

		_, err = tx.ExecContext(ctx,
			`UPDATE orders SET total_amount = total_amount + $2 WHERE id = $1`,
			orderKey, item.Price*float64(quantity))
		return err
	})
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) || errors.Is(err, ErrOrderClosed) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to add order item: %w", err)
	}
	return &line, nil
}

// ExpireOrder deactivates an open order. It reports whether this call made
// the change, so callers can emit the expiry exactly once.
func (r *PostgresRepository) ExpireOrder(ctx context.Context, id models.ID) (bool, error) {
	key, err := id.Int64()
	if err != nil {
		return false, ErrOrderNotFound
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET is_active = FALSE WHERE id = $1 AND is_active AND NOT is_checked_out`, key)
	if err != nil {
		return false, fmt.Errorf("failed to expire order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to expire order: %w", err)
	}
	return n == 1, nil
}

// CheckoutOrder marks an order checked out and inactive
func (r *PostgresRepository) CheckoutOrder(ctx context.Context, id models.ID) (*models.Order, error) {
	key, err := id.Int64()
	if err != nil {
		return nil, ErrOrderNotFound
	}

	var order *models.Order
	err = sqlutil.Run(ctx, r.db, func(tx *sql.Tx) error {
		var checkedOut bool
		err := tx.QueryRowContext(ctx,
			`SELECT is_checked_out FROM orders WHERE id = $1 FOR UPDATE`, key).Scan(&checkedOut)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOrderNotFound
		}
		if err != nil {
			return err
		}
		if checkedOut {
			return ErrAlreadyCheckedOut
		}
		order, err = scanOrder(tx.QueryRowContext(ctx,
			`UPDATE orders SET is_checked_out = TRUE, is_active = FALSE
			 WHERE id = $1
			 RETURNING `+orderColumns, key))
		return err
	})
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) || errors.Is(err, ErrAlreadyCheckedOut) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to checkout order: %w", err)
	}
	return order, nil
}
