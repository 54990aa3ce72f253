package models

// MenuItem is a dish on the buffet menu. Category is a free-form grouping key.
type MenuItem struct {
	ID          ID      `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	ImageURL    *string `json:"image_url"`
	IsAvailable bool    `json:"is_available"`
}
