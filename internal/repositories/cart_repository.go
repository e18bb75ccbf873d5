package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aaravmahajanofficial/ebike-storefront/internal/models"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/utils"
)

// CartNamespace prefixes every persisted cart key.
const CartNamespace = "ebike-cart"

func CartKey(sessionID string) string {
	return CartNamespace + ":" + sessionID
}

// CartStore is the pluggable persistence capability of the cart engine.
// Load returns an empty cart when nothing was saved under key.
type CartStore interface {
	Load(ctx context.Context, key string) (*models.Cart, error)
	Save(ctx context.Context, key string, cart *models.Cart) error
}

type cartRepository struct {
	DB *sql.DB
}

func NewCartRepo(db *sql.DB) CartStore {
	return &cartRepository{DB: db}
}

func (r *cartRepository) Load(ctx context.Context, key string) (*models.Cart, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT items, updated_at
		FROM carts
		WHERE session_key = $1
	`

	var itemsJSON []byte
	var updatedAt time.Time

	err := r.DB.QueryRowContext(dbCtx, query, key).Scan(&itemsJSON, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.NewCart(), nil
		}
		return nil, fmt.Errorf("querying database: %w", err)
	}

	cart := models.NewCart()
	cart.UpdatedAt = updatedAt

	if err := json.Unmarshal(itemsJSON, &cart.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cart items: %w", err)
	}

	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}

	return cart, nil
}

func (r *cartRepository) Save(ctx context.Context, key string, cart *models.Cart) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	itemsJSON, err := json.Marshal(cart.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal cart items: %w", err)
	}

	query := `
		INSERT INTO carts (session_key, items, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_key)
		DO UPDATE SET items = EXCLUDED.items, updated_at = EXCLUDED.updated_at
	`

	if _, err := r.DB.ExecContext(dbCtx, query, key, itemsJSON, cart.UpdatedAt); err != nil {
		return fmt.Errorf("failed to save the cart: %w", err)
	}

	return nil
}
