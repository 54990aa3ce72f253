package models

import "time"

// Order is one buffet session. The server owns it; clients cache the last
// fetched copy.
type Order struct {
	ID               ID          `json:"id"`
	TableNumber      *string     `json:"table_number"`
	StartTime        time.Time   `json:"start_time"`
	EndTime          time.Time   `json:"end_time"`
	IsActive         bool        `json:"is_active"`
	IsCheckedOut     bool        `json:"is_checked_out"`
	TotalAmount      float64     `json:"total_amount"`
	Items            []OrderItem `json:"items"`
	RemainingSeconds int         `json:"remaining_seconds"`
}

// OrderItem is one line of an order
type OrderItem struct {
	ID         ID        `json:"id"`
	MenuItemID ID        `json:"menu_item_id"`
	Quantity   int       `json:"quantity"`
	CreatedAt  time.Time `json:"created_at"`
	MenuItem   MenuItem  `json:"menu_item"`
}

// Open reports whether the order still accepts items.
func (o *Order) Open() bool {
	return o != nil && o.IsActive && !o.IsCheckedOut
}

// Clone returns a deep copy so cached state cannot be mutated through a
// shared items slice.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	if o.TableNumber != nil {
		t := *o.TableNumber
		c.TableNumber = &t
	}
	if o.Items != nil {
		c.Items = make([]OrderItem, len(o.Items))
		copy(c.Items, o.Items)
	}
	return &c
}

// Table returns the table label or an empty string
func (o *Order) Table() string {
	if o == nil || o.TableNumber == nil {
		return ""
	}
	return *o.TableNumber
}

// StartOrderRequest is the body of POST /api/orders/start
type StartOrderRequest struct {
	TableNumber *string `json:"table_number"`
}

// AddItemRequest is the body of POST /api/orders/{id}/items
type AddItemRequest struct {
	MenuItemID ID  `json:"menu_item_id"`
	Quantity   int `json:"quantity"`
}

// CheckoutResponse is returned by POST /api/orders/{id}/checkout
type CheckoutResponse struct {
	Message     string  `json:"message"`
	OrderID     ID      `json:"order_id"`
	TotalAmount float64 `json:"total_amount"`
}

// ErrorResponse is the JSON body of every non-2xx API response
type ErrorResponse struct {
	Detail string `json:"detail"`
}
