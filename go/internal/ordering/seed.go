package ordering

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed seed_menu.json
var seedMenuJSON []byte

// SeedMenu returns the default dishes loaded by POST /api/seed and the
// seed_menu tool.
func SeedMenu() ([]CreateMenuItemRequest, error) {
	var items []CreateMenuItemRequest
	if err := json.Unmarshal(seedMenuJSON, &items); err != nil {
		return nil, fmt.Errorf("failed to decode seed menu: %w", err)
	}
	return items, nil
}
