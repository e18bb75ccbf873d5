package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/aaravmahajanofficial/ebike-storefront/internal/models"
)

// memoryCartStore keeps carts in process memory. Used in development and
// tests; carts do not survive a restart.
type memoryCartStore struct {
	mu    sync.RWMutex
	carts map[string]*models.Cart
}

func NewMemoryCartStore() CartStore {
	return &memoryCartStore{carts: make(map[string]*models.Cart)}
}

func (m *memoryCartStore) Load(_ context.Context, key string) (*models.Cart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored, ok := m.carts[key]
	if !ok {
		return models.NewCart(), nil
	}
	return cloneCart(stored), nil
}

func (m *memoryCartStore) Save(_ context.Context, key string, cart *models.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.carts[key] = cloneCart(cart)
	return nil
}

func cloneCart(c *models.Cart) *models.Cart {
	out := &models.Cart{UpdatedAt: c.UpdatedAt, Items: slices.Clone(c.Items)}
	if out.Items == nil {
		out.Items = []models.CartItem{}
	}
	for i := range out.Items {
		out.Items[i].Product.Images = slices.Clone(out.Items[i].Product.Images)
	}
	return out
}
