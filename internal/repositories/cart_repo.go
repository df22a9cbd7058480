package repositories

import (
	"pasarumkm/internal/models"
)

// CartRepository defines the interface for cart data access. The storefront
// owns cart writes; the core only reads a user's cart and clears it after a
// successful payment. DeleteByUser on an empty cart is a no-op, not an error.
type CartRepository interface {
	GetByUser(userID string) ([]models.CartItem, error)
	DeleteByUser(userID string) error
}
