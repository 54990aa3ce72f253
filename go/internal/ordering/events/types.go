package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType names an order lifecycle event
type EventType string

const (
	EventTypeOrderStarted    EventType = "OrderStarted"
	EventTypeItemAdded       EventType = "ItemAdded"
	EventTypeOrderCheckedOut EventType = "OrderCheckedOut"
	EventTypeOrderExpired    EventType = "OrderExpired"
)

// Event is the envelope every publisher receives
type Event struct {
	ID          uuid.UUID       `json:"id"`
	Type        EventType       `json:"type"`
	OrderID     string          `json:"order_id"`
	TableNumber *string         `json:"table_number,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
	Data        json.RawMessage `json:"data"`
}

// OrderStartedPayload is emitted when a session opens
type OrderStartedPayload struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// ItemAddedPayload is what the kitchen needs to cook
type ItemAddedPayload struct {
	OrderItemID string `json:"order_item_id"`
	MenuItemID  string `json:"menu_item_id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Quantity    int    `json:"quantity"`
}

// OrderCheckedOutPayload closes the bill
type OrderCheckedOutPayload struct {
	TotalAmount float64 `json:"total_amount"`
	ItemCount   int     `json:"item_count"`
}

// OrderExpiredPayload is emitted once when the server notices the deadline passed
type OrderExpiredPayload struct {
	EndTime   time.Time `json:"end_time"`
	ItemCount int       `json:"item_count"`
}

// Publisher delivers events to one sink
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// New builds an event envelope with a fresh id
func New(eventType EventType, orderID string, tableNumber *string, at time.Time, payload interface{}) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return Event{
		ID:          uuid.New(),
		Type:        eventType,
		OrderID:     orderID,
		TableNumber: tableNumber,
		Timestamp:   at.UTC(),
		Data:        data,
	}, nil
}

// Subject returns the messaging subject suffix for the event
func (e Event) Subject() string {
	return string(e.Type)
}
