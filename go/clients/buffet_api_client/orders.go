package buffet_api_client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/mcdev12/buffet/go/internal/models"
)

// StartOrder opens a new session. An empty table number is sent as null.
func (c *BuffetApiClient) StartOrder(ctx context.Context, tableNumber string) (*models.Order, error) {
	req := models.StartOrderRequest{}
	if tableNumber != "" {
		req.TableNumber = &tableNumber
	}

	body, err := c.postJSON(ctx, StartOrderEndpoint, req)
	if err != nil {
		return nil, fmt.Errorf("failed to start order: %w", err)
	}

	return decodeOrder(body)
}

// GetOrder fetches the authoritative state of an order
func (c *BuffetApiClient) GetOrder(ctx context.Context, orderID models.ID) (*models.Order, error) {
	body, err := c.Get(ctx, fmt.Sprintf(OrderEndpoint, url.PathEscape(orderID.String())))
	if err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", orderID, err)
	}

	return decodeOrder(body)
}

// AddItem appends quantity units of a menu item to the order
func (c *BuffetApiClient) AddItem(ctx context.Context, orderID, menuItemID models.ID, quantity int) (*models.OrderItem, error) {
	req := models.AddItemRequest{MenuItemID: menuItemID, Quantity: quantity}

	body, err := c.postJSON(ctx, fmt.Sprintf(OrderItemsEndpoint, url.PathEscape(orderID.String())), req)
	if err != nil {
		return nil, fmt.Errorf("failed to add item to order %s: %w", orderID, err)
	}

	var item models.OrderItem
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w, raw response: %s", err, string(body))
	}
	return &item, nil
}

// Checkout finalizes the order
func (c *BuffetApiClient) Checkout(ctx context.Context, orderID models.ID) (*models.CheckoutResponse, error) {
	body, err := c.Post(ctx, fmt.Sprintf(CheckoutEndpoint, url.PathEscape(orderID.String())), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to checkout order %s: %w", orderID, err)
	}

	var resp models.CheckoutResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w, raw response: %s", err, string(body))
	}
	return &resp, nil
}

func (c *BuffetApiClient) postJSON(ctx context.Context, endpoint string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.Post(ctx, endpoint, bytes.NewReader(data))
}

func decodeOrder(body []byte) (*models.Order, error) {
	var order models.Order
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w, raw response: %s", err, string(body))
	}
	return &order, nil
}
