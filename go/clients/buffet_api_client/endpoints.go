package buffet_api_client

const (
	// Base URL
	DefaultBaseURL = "http://localhost:8000"

	// API Endpoints
	MenuEndpoint       = "/api/menu"
	StartOrderEndpoint = "/api/orders/start"
	OrderEndpoint      = "/api/orders/%s"
	OrderItemsEndpoint = "/api/orders/%s/items"
	CheckoutEndpoint   = "/api/orders/%s/checkout"

	// Headers
	AcceptHeader    = "Accept"
	JsonContentType = "application/json"
)
