package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aaravmahajanofficial/ebike-storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/cache"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/errors"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/models"
	"github.com/aaravmahajanofficial/ebike-storefront/pkg/storeapi"
)

// ProductService resolves catalogue products for the cart.
type ProductService interface {
	GetProduct(ctx context.Context, productID string) (*models.ProductSnapshot, error)
}

type productService struct {
	client storeapi.Client
	cache  cache.Cache
	ttl    time.Duration
}

func NewProductService(client storeapi.Client, cache cache.Cache, ttl time.Duration) ProductService {
	return &productService{client: client, cache: cache, ttl: ttl}
}

func (s *productService) GetProduct(ctx context.Context, productID string) (*models.ProductSnapshot, error) {

	logger := middleware.LoggerFromContext(ctx)

	key := cache.Key(cache.ProductKeyPrefix, productID)

	product, err := cache.Remember(ctx, s.cache, key, s.ttl, func(ctx context.Context) (models.ProductSnapshot, error) {
		p, err := s.client.GetProduct(ctx, productID)
		if err != nil {
			return models.ProductSnapshot{}, err
		}
		return *p, nil
	})
	if err != nil {
		if storeapi.IsNotFound(err) {
			return nil, errors.NotFoundError("Product not found").WithDetail(productID).WithError(err)
		}
		logger.Error("Failed to resolve product", slog.String("productId", productID), slog.Any("error", err))
		return nil, err
	}

	return &product, nil
}
