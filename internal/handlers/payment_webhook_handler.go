package handlers

import (
	"errors"

	"pasarumkm/internal/repositories"
	"pasarumkm/internal/services"
	"pasarumkm/pkg/logging"

	"github.com/gofiber/fiber/v2"
)

// CallbackTokenHeader carries the shared-secret token the gateway sends with
// every webhook.
const CallbackTokenHeader = "x-callback-token"

// PaymentWebhookHandler handles inbound payment-status callbacks from the
// invoicing gateway.
type PaymentWebhookHandler struct {
	service *services.PaymentService
}

// NewPaymentWebhookHandler creates a new PaymentWebhookHandler.
func NewPaymentWebhookHandler(service *services.PaymentService) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{
		service: service,
	}
}

// RegisterRoutes registers the webhook route with the Fiber app. The route
// is authenticated by the callback token, not by user auth.
func (h *PaymentWebhookHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/payments/callback", h.HandleCallback)
}

// HandleCallback applies one gateway notification. Every outcome gets a
// terminated response so the gateway's retry policy is respected: 401 stops
// retries for bad auth, 404 for a permanently-unmatchable order id.
func (h *PaymentWebhookHandler) HandleCallback(c *fiber.Ctx) error {
	token := c.Get(CallbackTokenHeader)

	var callback services.InvoiceCallback
	if err := c.BodyParser(&callback); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid callback body",
		})
	}

	if err := h.service.HandleCallback(c.UserContext(), token, callback); err != nil {
		logger := logging.GetSugaredLogger()
		switch {
		case errors.Is(err, services.ErrUnauthorized):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid callback token",
			})
		case errors.Is(err, repositories.ErrOrderNotFound):
			logger.Warnw("callback for unknown order", "externalID", callback.ExternalID)
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "order not found",
			})
		default:
			logger.Errorw("failed to process payment callback", "externalID", callback.ExternalID, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to process callback",
			})
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
	})
}
