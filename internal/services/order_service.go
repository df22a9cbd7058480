package services

import (
	"pasarumkm/internal/models"
	"pasarumkm/internal/repositories"
)

// OrderService handles order reads for the confirmation page and the admin
// screens. Order mutations go through CheckoutService and PaymentService
// only, so the status machines stay in one place.
type OrderService struct {
	orderRepo repositories.OrderRepository
}

// NewOrderService creates a new OrderService.
func NewOrderService(orderRepo repositories.OrderRepository) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
	}
}

// GetOrderByID retrieves a single order by its ID.
func (s *OrderService) GetOrderByID(id string) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// GetOrdersByUser retrieves a user's orders, newest first.
func (s *OrderService) GetOrdersByUser(userID string) ([]models.Order, error) {
	return s.orderRepo.GetByUser(userID)
}

// GetAllOrders retrieves all orders for the admin screens.
func (s *OrderService) GetAllOrders() ([]models.Order, error) {
	return s.orderRepo.GetAll()
}
