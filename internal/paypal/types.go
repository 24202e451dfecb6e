package paypal

// Wire shapes for the PayPal checkout v2 REST API. These never leak out of
// this package; the rest of the system sees RemoteOrder and CaptureResult.

type amount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type purchaseUnitRequest struct {
	ReferenceID string `json:"reference_id,omitempty"`
	Amount      amount `json:"amount"`
	Description string `json:"description,omitempty"`
}

type applicationContext struct {
	BrandName string `json:"brand_name,omitempty"`
	ReturnURL string `json:"return_url,omitempty"`
	CancelURL string `json:"cancel_url,omitempty"`
}

type orderRequest struct {
	Intent             string                `json:"intent"`
	PurchaseUnits      []purchaseUnitRequest `json:"purchase_units"`
	ApplicationContext applicationContext    `json:"application_context"`
}

type link struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

type payer struct {
	Email string `json:"email_address"`
}

type capture struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount amount `json:"amount"`
	Final  bool   `json:"final_capture"`
}

type payments struct {
	Captures []capture `json:"captures"`
}

type purchaseUnitResponse struct {
	ReferenceID string   `json:"reference_id"`
	Payments    payments `json:"payments"`
}

type orderResponse struct {
	ID            string                 `json:"id"`
	Status        string                 `json:"status"`
	Links         []link                 `json:"links"`
	Payer         payer                  `json:"payer"`
	PurchaseUnits []purchaseUnitResponse `json:"purchase_units"`
}

// RemoteOrder is the gateway's view of a freshly created order.
type RemoteOrder struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	ApproveURL string `json:"approveUrl,omitempty"`
}

// CaptureResult is the gateway's confirmation that funds were captured.
type CaptureResult struct {
	GatewayOrderID string `json:"gatewayOrderId"`
	Status         string `json:"status"`
	PayerEmail     string `json:"payerEmail,omitempty"`
}
