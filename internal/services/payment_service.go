package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pasarumkm/internal/models"
	"pasarumkm/internal/repositories"
	"pasarumkm/pkg/logging"
)

// ErrUnauthorized is returned when a webhook carries a missing or invalid
// callback token.
var ErrUnauthorized = errors.New("invalid callback token")

// InvoiceCallback is the gateway's payment-status notification payload.
type InvoiceCallback struct {
	ExternalID string `json:"external_id"` // our order id
	Status     string `json:"status"`
	ID         string `json:"id"` // gateway transaction/invoice id
}

// PaymentService applies gateway status callbacks to orders.
type PaymentService struct {
	orderRepo repositories.OrderRepository
	cartRepo  repositories.CartRepository
	gateway   InvoiceGateway
	publisher EventPublisher
}

// NewPaymentService creates a new PaymentService. publisher may be nil when
// no broker is configured.
func NewPaymentService(orderRepo repositories.OrderRepository, cartRepo repositories.CartRepository, gw InvoiceGateway, publisher EventPublisher) *PaymentService {
	return &PaymentService{
		orderRepo: orderRepo,
		cartRepo:  cartRepo,
		gateway:   gw,
		publisher: publisher,
	}
}

// HandleCallback authenticates and applies one payment-status notification.
//
// Safe under at-least-once delivery: re-applying an already-applied status is
// a no-op, and a callback that would move a settled order backwards is
// ignored. Cart clearing and event publishing on PAID are best-effort side
// effects; their failure never fails the reconciliation, whose status update
// has already committed.
func (s *PaymentService) HandleCallback(ctx context.Context, token string, callback InvoiceCallback) error {
	if token == "" || !s.gateway.VerifyCallbackToken(token) {
		return ErrUnauthorized
	}

	order, err := s.orderRepo.GetByID(callback.ExternalID)
	if err != nil {
		return err
	}

	paymentStatus, orderStatus := models.MapInvoiceStatus(callback.Status)
	logger := logging.GetSugaredLogger()

	if order.Settled() {
		if order.PaymentStatus == paymentStatus && order.Status == orderStatus {
			// Duplicate delivery of an applied status.
			return nil
		}
		logger.Warnw("ignoring callback that would move a settled order backwards",
			"orderID", order.ID, "current", order.PaymentStatus, "reported", callback.Status)
		return nil
	}

	patch := map[string]interface{}{
		"payment_status": paymentStatus,
		"status":         orderStatus,
		"updated_at":     time.Now(),
	}
	if callback.ID != "" {
		patch["midtrans_transaction_id"] = callback.ID
	}
	if err := s.orderRepo.Update(order.ID, patch); err != nil {
		return fmt.Errorf("failed to apply callback to order %s: %w", order.ID, err)
	}

	if paymentStatus == models.PaymentStatusPaid {
		if err := s.cartRepo.DeleteByUser(order.UserID); err != nil {
			logger.Errorw("failed to clear cart after payment", "orderID", order.ID, "userID", order.UserID, "error", err)
		}
		publishEvent(s.publisher, "order.paid", map[string]interface{}{
			"orderID":       order.ID,
			"userID":        order.UserID,
			"transactionID": callback.ID,
			"total":         order.TotalAmount,
		})
	}
	return nil
}
