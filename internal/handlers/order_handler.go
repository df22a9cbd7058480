package handlers

import (
	"errors"

	"pasarumkm/internal/repositories"
	"pasarumkm/internal/services"
	"pasarumkm/pkg/logging"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for order reads.
type OrderHandler struct {
	service *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service: service,
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
}

// HandleGetOrders lists orders: a user's own when user_id is given, all of
// them for the admin screens otherwise.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	userID := c.Query("user_id")

	var err error
	var orders interface{}
	if userID != "" {
		orders, err = h.service.GetOrdersByUser(userID)
	} else {
		orders, err = h.service.GetAllOrders()
	}
	if err != nil {
		logging.GetSugaredLogger().Errorw("failed to list orders", "userID", userID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "could not retrieve orders",
		})
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	orderID := c.Params("id")

	order, err := h.service.GetOrderByID(orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "order not found",
			})
		}
		logging.GetSugaredLogger().Errorw("failed to get order", "orderID", orderID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "could not retrieve order",
		})
	}
	return c.JSON(order)
}
