package paypal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"course-marketplace/internal/config"
	"course-marketplace/internal/domain"
)

func newTestClient(baseURL string) *Client {
	return NewClient(config.PayPal{
		BaseURL:      baseURL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Currency:     "EGP",
		BrandName:    "LMS",
		ReturnURL:    "http://localhost:3000/payment-success",
		CancelURL:    "http://localhost:3000/payment-canceled",
	})
}

func tokenHandler(t *testing.T, w http.ResponseWriter, r *http.Request) {
	t.Helper()
	user, pass, ok := r.BasicAuth()
	if !ok || user != "client-id" || pass != "client-secret" {
		t.Errorf("token request missing client credentials")
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"access_token":"test-token"}`))
}

func TestCreateOrder_SendsTwoDecimalAmount(t *testing.T) {
	var got orderRequest
	var requestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/oauth2/token":
			tokenHandler(t, w, r)
		case "/v2/checkout/orders":
			if auth := r.Header.Get("Authorization"); auth != "Bearer test-token" {
				t.Errorf("unexpected authorization %q", auth)
			}
			requestID = r.Header.Get("PayPal-Request-Id")
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Errorf("decode order request: %v", err)
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{
				"id": "PAY-123",
				"status": "CREATED",
				"links": [
					{"rel": "self", "href": "https://gateway/self"},
					{"rel": "approve", "href": "https://gateway/approve"}
				]
			}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	remote, err := client.CreateOrder(context.Background(), CreateOrderInput{
		Value:       decimal.RequireFromString("149.98"),
		Description: "two courses",
		ReferenceID: "order-1",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if remote.ID != "PAY-123" || remote.Status != "CREATED" {
		t.Fatalf("unexpected remote order %+v", remote)
	}
	if remote.ApproveURL != "https://gateway/approve" {
		t.Fatalf("expected approve link, got %q", remote.ApproveURL)
	}
	if requestID == "" {
		t.Fatal("expected PayPal-Request-Id header")
	}
	if got.Intent != "CAPTURE" {
		t.Fatalf("expected CAPTURE intent, got %q", got.Intent)
	}
	if len(got.PurchaseUnits) != 1 {
		t.Fatalf("expected 1 purchase unit, got %d", len(got.PurchaseUnits))
	}
	unit := got.PurchaseUnits[0]
	if unit.Amount.Value != "149.98" || unit.Amount.CurrencyCode != "EGP" {
		t.Fatalf("unexpected amount %+v", unit.Amount)
	}
	if unit.ReferenceID != "order-1" {
		t.Fatalf("unexpected reference id %q", unit.ReferenceID)
	}
}

func TestCreateOrder_PadsWholeAmounts(t *testing.T) {
	var got orderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/oauth2/token":
			tokenHandler(t, w, r)
		default:
			json.NewDecoder(r.Body).Decode(&got)
			w.Write([]byte(`{"id":"PAY-1","status":"CREATED"}`))
		}
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	if _, err := client.CreateOrder(context.Background(), CreateOrderInput{
		Value: decimal.NewFromInt(150),
	}); err != nil {
		t.Fatalf("create order: %v", err)
	}
	if got.PurchaseUnits[0].Amount.Value != "150.00" {
		t.Fatalf("expected 150.00 on the wire, got %q", got.PurchaseUnits[0].Amount.Value)
	}
}

func TestCaptureOrder_ParsesResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/oauth2/token":
			tokenHandler(t, w, r)
		case "/v2/checkout/orders/PAY-123/capture":
			if r.Method != http.MethodPost {
				t.Errorf("expected POST, got %s", r.Method)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"id": "PAY-123",
				"status": "COMPLETED",
				"payer": {"email_address": "buyer@example.com"}
			}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	res, err := client.CaptureOrder(context.Background(), "PAY-123")
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if res.GatewayOrderID != "PAY-123" || res.Status != "COMPLETED" {
		t.Fatalf("unexpected capture result %+v", res)
	}
	if res.PayerEmail != "buyer@example.com" {
		t.Fatalf("unexpected payer %q", res.PayerEmail)
	}
}

func TestCaptureOrder_GatewayErrorCarriesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/oauth2/token":
			tokenHandler(t, w, r)
		default:
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"name":"UNPROCESSABLE_ENTITY","details":[{"issue":"INSTRUMENT_DECLINED"}]}`))
		}
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.CaptureOrder(context.Background(), "PAY-123")

	var gwErr *domain.GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected *domain.GatewayError, got %v", err)
	}
	if gwErr.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", gwErr.StatusCode)
	}
	if gwErr.Message == "" {
		t.Fatal("expected gateway message from response body")
	}
}

func TestCreateOrder_FailsWithoutToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid_client"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.CreateOrder(context.Background(), CreateOrderInput{
		Value: decimal.NewFromInt(10),
	})

	var gwErr *domain.GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected *domain.GatewayError, got %v", err)
	}
	if gwErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", gwErr.StatusCode)
	}
}
