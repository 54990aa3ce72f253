package buffet_api_client

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mcdev12/buffet/go/clients"
	"github.com/mcdev12/buffet/go/internal/models"
)

func TestStartOrderSendsNullTable(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != StartOrderEndpoint {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{"id":7,"table_number":null,"is_active":true,"is_checked_out":false,"items":[],"remaining_seconds":6300}`))
	}))
	defer srv.Close()

	order, err := NewBuffetApiClient(srv.URL).StartOrder(t.Context(), "")
	if err != nil {
		t.Fatalf("StartOrder: %v", err)
	}
	if v, ok := got["table_number"]; !ok || v != nil {
		t.Errorf("table_number = %v (present %v), want null", v, ok)
	}
	if order.ID != "7" {
		t.Errorf("order.ID = %q, want %q", order.ID, "7")
	}
	if order.RemainingSeconds != 6300 || !order.IsActive {
		t.Errorf("unexpected order %+v", order)
	}
}

func TestAddItemRejectionCarriesDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/orders/A1/items" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req models.AddItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if req.MenuItemID != "soup" || req.Quantity != 1 {
			t.Errorf("unexpected request %+v", req)
		}
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"หมดเวลาแล้ว"}`))
	}))
	defer srv.Close()

	_, err := NewBuffetApiClient(srv.URL).AddItem(t.Context(), "A1", "soup", 1)
	var apiErr *clients.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %v is not an APIError", err)
	}
	if !apiErr.IsClientError() {
		t.Errorf("status %d should be a client error", apiErr.StatusCode)
	}
	if apiErr.Detail != "หมดเวลาแล้ว" {
		t.Errorf("detail = %q", apiErr.Detail)
	}
}

func TestGetMenu(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":1,"name":"ข้าวผัด","category":"อาหารจานหลัก","price":0,"image_url":null,"is_available":true}]`))
	}))
	defer srv.Close()

	items, err := NewBuffetApiClient(srv.URL).GetMenu(t.Context())
	if err != nil {
		t.Fatalf("GetMenu: %v", err)
	}
	if len(items) != 1 || items[0].ID != "1" || items[0].Category != "อาหารจานหลัก" {
		t.Errorf("unexpected menu %+v", items)
	}
}

func TestServerErrorIsNotClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewBuffetApiClient(srv.URL).Checkout(t.Context(), "A1")
	var apiErr *clients.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %v is not an APIError", err)
	}
	if apiErr.IsClientError() {
		t.Errorf("500 must not be a client error")
	}
}
