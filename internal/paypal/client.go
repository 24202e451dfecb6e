package paypal

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"course-marketplace/internal/config"
	"course-marketplace/internal/domain"
)

// Client talks to the PayPal checkout v2 REST API. It is the only component
// aware of the gateway's wire format.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	clientID     string
	clientSecret string
	currency     string
	brandName    string
	returnURL    string
	cancelURL    string
}

func NewClient(cfg config.PayPal) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		currency:     cfg.Currency,
		brandName:    cfg.BrandName,
		returnURL:    cfg.ReturnURL,
		cancelURL:    cfg.CancelURL,
	}
}

// CreateOrderInput carries everything the gateway needs for order creation.
// The amount is formatted to two decimals on the wire.
type CreateOrderInput struct {
	Value       decimal.Decimal
	Description string
	ReferenceID string
}

// CreateOrder submits a CAPTURE-intent order and returns the gateway's id
// plus the approval link the buyer must visit. Any transport or gateway-side
// failure comes back as *domain.GatewayError; nothing internal is mutated.
func (c *Client) CreateOrder(ctx context.Context, in CreateOrderInput) (*RemoteOrder, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	payload := orderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []purchaseUnitRequest{
			{
				ReferenceID: in.ReferenceID,
				Amount: amount{
					CurrencyCode: c.currency,
					Value:        in.Value.StringFixed(2),
				},
				Description: in.Description,
			},
		},
		ApplicationContext: applicationContext{
			BrandName: c.brandName,
			ReturnURL: c.returnURL,
			CancelURL: c.cancelURL,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/checkout/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")
	req.Header.Set("PayPal-Request-Id", uuid.NewString())

	var result orderResponse
	if err := c.do(req, &result); err != nil {
		return nil, err
	}

	return &RemoteOrder{
		ID:         result.ID,
		Status:     result.Status,
		ApproveURL: approveURL(result.Links),
	}, nil
}

// CaptureOrder finalizes fund collection for a previously created order.
func (c *Client) CaptureOrder(ctx context.Context, gatewayOrderID string) (*CaptureResult, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v2/checkout/orders/%s/capture", c.baseURL, gatewayOrderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader([]byte("{}")))
	if err != nil {
		return nil, fmt.Errorf("build capture request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	var result orderResponse
	if err := c.do(req, &result); err != nil {
		return nil, err
	}

	return &CaptureResult{
		GatewayOrderID: result.ID,
		Status:         result.Status,
		PayerEmail:     result.Payer.Email,
	}, nil
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	auth := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/oauth2/token",
		strings.NewReader("grant_type=client_credentials"))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var res struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.do(req, &res); err != nil {
		return "", err
	}
	if res.AccessToken == "" {
		return "", &domain.GatewayError{Message: "empty access token"}
	}
	return res.AccessToken, nil
}

// do executes the request and decodes a 2xx body into out. Everything else
// becomes a *domain.GatewayError carrying the gateway's message.
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.GatewayError{Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.GatewayError{StatusCode: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &domain.GatewayError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return &domain.GatewayError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("decode response: %v", err)}
		}
	}
	return nil
}

func approveURL(links []link) string {
	for _, l := range links {
		if l.Rel == "approve" {
			return l.Href
		}
	}
	return ""
}
