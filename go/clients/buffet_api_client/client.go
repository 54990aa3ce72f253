package buffet_api_client

import (
	"github.com/mcdev12/buffet/go/clients"
)

// BuffetApiClient talks to the buffet ordering backend
type BuffetApiClient struct {
	*clients.BaseClient
}

func NewBuffetApiClient(baseURL string) *BuffetApiClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := &BuffetApiClient{
		BaseClient: clients.NewBaseClient(baseURL),
	}

	client.SetHeader(AcceptHeader, JsonContentType)

	return client
}
