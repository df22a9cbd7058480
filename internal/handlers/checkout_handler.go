package handlers

import (
	"errors"

	"pasarumkm/internal/repositories"
	"pasarumkm/internal/services"
	"pasarumkm/pkg/logging"

	"github.com/gofiber/fiber/v2"
)

// CheckoutHandler handles HTTP requests for checkout.
type CheckoutHandler struct {
	service *services.CheckoutService
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(service *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
	}
}

// RegisterRoutes registers the checkout routes with the Fiber app.
func (h *CheckoutHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/checkout", h.HandleCheckout)
	router.Post("/checkout/:orderId/invoice", h.HandleRetryInvoice)
}

// HandleCheckout validates a cart submission and returns the order id plus
// the hosted payment URL.
func (h *CheckoutHandler) HandleCheckout(c *fiber.Ctx) error {
	var req services.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "invalid request body",
			"details": err.Error(),
		})
	}

	result, err := h.service.Checkout(c.UserContext(), req)
	if err != nil {
		logger := logging.GetSugaredLogger()
		switch {
		case errors.Is(err, services.ErrInvalidRequest):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "invalid checkout request",
				"details": err.Error(),
			})
		case errors.Is(err, services.ErrInvoiceCreationFailed):
			// The order survived; hand its id back so the client can retry
			// invoice creation without re-entering checkout.
			logger.Errorw("invoice creation failed", "orderID", result.OrderID, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "failed to create invoice",
				"orderId": result.OrderID,
			})
		default:
			logger.Errorw("checkout failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to create order",
			})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":    true,
		"orderId":    result.OrderID,
		"invoiceUrl": result.InvoiceURL,
		"invoiceId":  result.InvoiceID,
	})
}

// HandleRetryInvoice re-requests an invoice for a pending order that has
// none yet. Returns the stored reference when one already exists.
func (h *CheckoutHandler) HandleRetryInvoice(c *fiber.Ctx) error {
	orderID := c.Params("orderId")

	result, err := h.service.RetryInvoice(c.UserContext(), orderID)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrOrderNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "order not found",
			})
		case errors.Is(err, services.ErrInvoiceCreationFailed):
			logging.GetSugaredLogger().Errorw("invoice retry failed", "orderID", orderID, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "failed to create invoice",
				"orderId": orderID,
			})
		default:
			logging.GetSugaredLogger().Errorw("invoice retry failed", "orderID", orderID, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to retry invoice",
			})
		}
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"orderId":    result.OrderID,
		"invoiceUrl": result.InvoiceURL,
		"invoiceId":  result.InvoiceID,
	})
}
