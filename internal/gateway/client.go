package gateway

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Failure classes for invoice creation. Callers branch on these with
// errors.Is; the wrapped message carries the gateway detail.
var (
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrGatewayRejected    = errors.New("payment gateway rejected request")
	ErrGatewayTimeout     = errors.New("payment gateway timeout")
)

// Customer identifies the paying user on the hosted invoice page.
type Customer struct {
	Name    string `json:"given_names"`
	Email   string `json:"email"`
	Phone   string `json:"mobile_number"`
	Address string `json:"address,omitempty"`
}

// InvoiceItem is one billable line on the invoice.
type InvoiceItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
}

// InvoiceRequest is the payload for creating a hosted-payment invoice.
// ExternalID is our order id; the gateway echoes it back in callbacks.
type InvoiceRequest struct {
	ExternalID  string        `json:"external_id"`
	Amount      int64         `json:"amount"`
	Description string        `json:"description,omitempty"`
	PayerEmail  string        `json:"payer_email"`
	Customer    Customer      `json:"customer"`
	Items       []InvoiceItem `json:"items"`
}

// Invoice is the subset of the gateway's invoice object we care about.
type Invoice struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id"`
	InvoiceURL string `json:"invoice_url"`
	Status     string `json:"status"`
}

// Client talks to the Xendit-style invoicing API over HTTPS and verifies
// inbound callback tokens.
type Client struct {
	baseURL       string
	apiKey        string
	callbackToken string
	httpClient    *http.Client
}

// NewClient creates a gateway client. All requests are bounded by timeout
// in addition to the caller's context.
func NewClient(baseURL, apiKey, callbackToken string, timeout time.Duration) *Client {
	return &Client{
		baseURL:       baseURL,
		apiKey:        apiKey,
		callbackToken: callbackToken,
		httpClient:    &http.Client{Timeout: timeout},
	}
}

// CreateInvoice registers a pending invoice with the gateway and returns its
// id and hosted payment URL. The remote side records the invoice; nothing is
// written locally.
func (c *Client) CreateInvoice(ctx context.Context, invReq InvoiceRequest) (*Invoice, error) {
	body, err := json.Marshal(invReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal invoice request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/invoices", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build invoice request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.apiKey, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrGatewayTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrGatewayUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: status %d", ErrGatewayRejected, resp.StatusCode)
	}

	var invoice Invoice
	if err := json.NewDecoder(resp.Body).Decode(&invoice); err != nil {
		return nil, fmt.Errorf("%w: malformed invoice response: %v", ErrGatewayRejected, err)
	}
	if invoice.ID == "" || invoice.InvoiceURL == "" {
		return nil, fmt.Errorf("%w: invoice response missing id or url", ErrGatewayRejected)
	}
	return &invoice, nil
}

// VerifyCallbackToken compares an inbound webhook token against the shared
// secret. Constant-time to avoid leaking the secret via timing.
func (c *Client) VerifyCallbackToken(provided string) bool {
	if provided == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c.callbackToken), []byte(provided)) == 1
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
