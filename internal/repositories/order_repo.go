package repositories

import (
	"errors"

	"pasarumkm/internal/models"
)

// ErrOrderNotFound is returned when an order id has no matching row.
var ErrOrderNotFound = errors.New("order not found")

// OrderRepository defines the interface for order data access.
// Update is a partial patch: only the given columns change, and callers are
// expected to limit them to invoice/transaction references, statuses and
// updated_at (the total amount is immutable once the order exists).
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id string) (*models.Order, error)
	GetByUser(userID string) ([]models.Order, error)
	GetAll() ([]models.Order, error)
	Update(id string, fields map[string]interface{}) error
}
