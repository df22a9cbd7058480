package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"pasarumkm/internal/models"

	"github.com/google/uuid"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
type MockOrderRepository struct {
	orders map[string]models.Order
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]models.Order),
	}
}

// Create adds a new order.
func (r *MockOrderRepository) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	r.orders[order.ID] = *order
	return nil
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return &order, nil
}

// GetByUser returns all orders for a user, newest first.
func (r *MockOrderRepository) GetByUser(userID string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orders []models.Order
	for _, order := range r.orders {
		if order.UserID == userID {
			orders = append(orders, order)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders, nil
}

// GetAll returns every order.
func (r *MockOrderRepository) GetAll() ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orders := make([]models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		orders = append(orders, order)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders, nil
}

// Update applies a partial patch to a stored order.
func (r *MockOrderRepository) Update(id string, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	for key, value := range fields {
		switch key {
		case "status":
			order.Status = value.(string)
		case "payment_status":
			order.PaymentStatus = value.(string)
		case "invoice_id":
			order.InvoiceID = toStringPtr(value)
		case "invoice_url":
			order.InvoiceURL = value.(string)
		case "midtrans_transaction_id":
			order.TransactionID = toStringPtr(value)
		case "updated_at":
			order.UpdatedAt = value.(time.Time)
		default:
			return fmt.Errorf("unsupported patch field %q", key)
		}
	}
	r.orders[id] = order
	return nil
}

func toStringPtr(value interface{}) *string {
	switch v := value.(type) {
	case *string:
		return v
	case string:
		return &v
	default:
		return nil
	}
}
