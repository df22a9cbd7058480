package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pasarumkm/internal/gateway"
	"pasarumkm/internal/models"
	"pasarumkm/internal/repositories"
	"pasarumkm/pkg/logging"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Checkout failure classes, matched by handlers with errors.Is.
var (
	ErrInvalidRequest        = errors.New("invalid checkout request")
	ErrOrderCreationFailed   = errors.New("failed to create order")
	ErrInvoiceCreationFailed = errors.New("failed to create invoice")
)

// CheckoutItem is one client-supplied cart line. Prices are snapshots taken
// by the storefront; the service recomputes the total from them and ignores
// any client-side total.
type CheckoutItem struct {
	ProductName string `json:"product_name" validate:"required"`
	UMKMName    string `json:"umkm_name"`
	Price       int64  `json:"price" validate:"gte=0"`
	Quantity    int    `json:"quantity" validate:"gt=0"`
}

// CheckoutRequest is the checkout submission from the storefront.
type CheckoutRequest struct {
	UserID          string         `json:"userId" validate:"required"`
	CustomerName    string         `json:"customerName" validate:"required"`
	CustomerEmail   string         `json:"customerEmail" validate:"required,email"`
	CustomerPhone   string         `json:"customerPhone" validate:"required"`
	CustomerAddress string         `json:"customerAddress" validate:"required"`
	Notes           string         `json:"notes"`
	CartItems       []CheckoutItem `json:"cartItems" validate:"required,min=1,dive"`
}

// CheckoutResult is returned to the storefront so it can redirect the buyer
// to the hosted payment page.
type CheckoutResult struct {
	OrderID    string `json:"orderId"`
	InvoiceID  string `json:"invoiceId,omitempty"`
	InvoiceURL string `json:"invoiceUrl,omitempty"`
}

// CheckoutService turns a validated cart submission into a pending order
// plus a payable invoice.
type CheckoutService struct {
	orderRepo repositories.OrderRepository
	gateway   InvoiceGateway
	publisher EventPublisher
	validate  *validator.Validate
}

// NewCheckoutService creates a new CheckoutService. publisher may be nil
// when no broker is configured.
func NewCheckoutService(orderRepo repositories.OrderRepository, gw InvoiceGateway, publisher EventPublisher) *CheckoutService {
	return &CheckoutService{
		orderRepo: orderRepo,
		gateway:   gw,
		publisher: publisher,
		validate:  validator.New(),
	}
}

// Checkout validates the submission, persists a pending order, and requests
// a hosted invoice for it.
//
// Partial-failure policy: once the order row exists it is never rolled back.
// An invoice failure returns ErrInvoiceCreationFailed together with a result
// carrying the order id, so the caller can retry invoice creation without
// the buyer re-entering checkout. A failed invoice-link patch is logged as a
// reconciliation gap and does not fail the checkout: the buyer already has a
// usable payment URL.
func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	var totalAmount int64
	items := make([]models.OrderItem, 0, len(req.CartItems))
	for _, item := range req.CartItems {
		items = append(items, models.OrderItem{
			ProductName: item.ProductName,
			UMKMName:    item.UMKMName,
			Price:       item.Price,
			Quantity:    item.Quantity,
		})
		totalAmount += item.Price * int64(item.Quantity)
	}

	now := time.Now()
	order := &models.Order{
		ID:            uuid.New().String(),
		UserID:        req.UserID,
		Items:         items,
		TotalAmount:   totalAmount,
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusPending,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Address:       req.CustomerAddress,
		Notes:         req.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.orderRepo.Create(order); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderCreationFailed, err)
	}

	publishEvent(s.publisher, "order.created", map[string]interface{}{
		"orderID": order.ID,
		"userID":  order.UserID,
		"status":  order.Status,
		"total":   order.TotalAmount,
	})

	return s.issueInvoice(ctx, order, req)
}

// RetryInvoice requests an invoice for an existing pending order that lost
// the race at checkout time. Idempotent: an order that already carries an
// invoice reference gets the stored reference back instead of a duplicate
// invoice.
func (s *CheckoutService) RetryInvoice(ctx context.Context, orderID string) (*CheckoutResult, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	if order.InvoiceID != nil {
		return &CheckoutResult{
			OrderID:    order.ID,
			InvoiceID:  *order.InvoiceID,
			InvoiceURL: order.InvoiceURL,
		}, nil
	}

	req := CheckoutRequest{
		UserID:          order.UserID,
		CustomerName:    order.CustomerName,
		CustomerEmail:   order.CustomerEmail,
		CustomerPhone:   order.CustomerPhone,
		CustomerAddress: order.Address,
	}
	for _, item := range order.Items {
		req.CartItems = append(req.CartItems, CheckoutItem{
			ProductName: item.ProductName,
			UMKMName:    item.UMKMName,
			Price:       item.Price,
			Quantity:    item.Quantity,
		})
	}
	return s.issueInvoice(ctx, order, req)
}

// issueInvoice asks the gateway for a hosted invoice and links it to the
// order.
func (s *CheckoutService) issueInvoice(ctx context.Context, order *models.Order, req CheckoutRequest) (*CheckoutResult, error) {
	invoiceItems := make([]gateway.InvoiceItem, 0, len(req.CartItems))
	for _, item := range req.CartItems {
		invoiceItems = append(invoiceItems, gateway.InvoiceItem{
			Name:     item.ProductName,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	invoice, err := s.gateway.CreateInvoice(ctx, gateway.InvoiceRequest{
		ExternalID:  order.ID,
		Amount:      order.TotalAmount,
		Description: fmt.Sprintf("Pesanan %s", order.ID),
		PayerEmail:  req.CustomerEmail,
		Customer: gateway.Customer{
			Name:    req.CustomerName,
			Email:   req.CustomerEmail,
			Phone:   req.CustomerPhone,
			Address: req.CustomerAddress,
		},
		Items: invoiceItems,
	})
	if err != nil {
		// The order stays in pending/pending so the invoice can be retried.
		return &CheckoutResult{OrderID: order.ID}, fmt.Errorf("%w: %v", ErrInvoiceCreationFailed, err)
	}

	patch := map[string]interface{}{
		"invoice_id":  invoice.ID,
		"invoice_url": invoice.InvoiceURL,
		"updated_at":  time.Now(),
	}
	if err := s.orderRepo.Update(order.ID, patch); err != nil {
		// Reconciliation gap: the invoice exists at the gateway but is not
		// linked to the order. Reported for manual or async repair, not
		// surfaced to the buyer who already has a payment URL.
		logging.GetSugaredLogger().Errorw("invoice created but not linked to order",
			"orderID", order.ID, "invoiceID", invoice.ID, "error", err)
	}

	return &CheckoutResult{
		OrderID:    order.ID,
		InvoiceID:  invoice.ID,
		InvoiceURL: invoice.InvoiceURL,
	}, nil
}

// publishEvent marshals and publishes a lifecycle event. Best-effort: a nil
// publisher or a broker failure is logged and swallowed.
func publishEvent(publisher EventPublisher, routingKey string, payload map[string]interface{}) {
	if publisher == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		logging.GetSugaredLogger().Errorw("failed to marshal event", "event", routingKey, "error", err)
		return
	}
	if err := publisher.Publish(routingKey, body); err != nil {
		logging.GetSugaredLogger().Warnw("failed to publish event", "event", routingKey, "error", err)
	}
}
