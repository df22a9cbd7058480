package repositories

import (
	"sync"

	"pasarumkm/internal/models"
)

// MockCartRepository is an in-memory implementation of CartRepository.
type MockCartRepository struct {
	items map[string][]models.CartItem // keyed by user id
	mu    sync.RWMutex
}

// NewMockCartRepository creates a new instance of MockCartRepository.
func NewMockCartRepository() *MockCartRepository {
	return &MockCartRepository{
		items: make(map[string][]models.CartItem),
	}
}

// Add stores a cart item for its user. Test seeding helper.
func (r *MockCartRepository) Add(item models.CartItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.UserID] = append(r.items[item.UserID], item)
}

// GetByUser returns the cart items for a user.
func (r *MockCartRepository) GetByUser(userID string) ([]models.CartItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]models.CartItem, len(r.items[userID]))
	copy(items, r.items[userID])
	return items, nil
}

// DeleteByUser clears a user's cart. Clearing an empty cart is a no-op.
func (r *MockCartRepository) DeleteByUser(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, userID)
	return nil
}
