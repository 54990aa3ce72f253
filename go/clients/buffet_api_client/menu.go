package buffet_api_client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mcdev12/buffet/go/internal/models"
)

// GetMenu returns every available menu item
func (c *BuffetApiClient) GetMenu(ctx context.Context) ([]models.MenuItem, error) {
	body, err := c.Get(ctx, MenuEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to get menu: %w", err)
	}

	var items []models.MenuItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w, raw response: %s", err, string(body))
	}

	return items, nil
}
