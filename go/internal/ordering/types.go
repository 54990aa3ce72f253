package ordering

import (
	"errors"
	"time"
)

// DefaultSessionLength is how long a table may order after starting
const DefaultSessionLength = 105 * time.Minute

// Messages are returned verbatim as the API error detail.
var (
	ErrOrderNotFound       = errors.New("Order not found")
	ErrOrderClosed         = errors.New("Order has expired or been checked out")
	ErrAlreadyCheckedOut   = errors.New("Order already checked out")
	ErrMenuItemNotFound    = errors.New("Menu item not found")
	ErrMenuItemUnavailable = errors.New("Menu item is not available")
	ErrInvalidQuantity     = errors.New("Quantity must be a positive integer")
	ErrInvalidMenuItem     = errors.New("Menu item requires a name, a category and a non-negative price")
)

// CreateMenuItemRequest is the body of POST /api/menu
type CreateMenuItemRequest struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	ImageURL    *string `json:"image_url,omitempty"`
	IsAvailable *bool   `json:"is_available,omitempty"`
}

// UpdateMenuItemRequest is the body of PUT /api/menu/{id}. Nil fields are left unchanged.
type UpdateMenuItemRequest struct {
	Name        *string  `json:"name,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	ImageURL    *string  `json:"image_url,omitempty"`
	IsAvailable *bool    `json:"is_available,omitempty"`
}

// CloseReason says why an order stopped accepting items
type CloseReason int

const (
	CloseExpired CloseReason = iota
	CloseCheckedOut
)
