package service

import (
	"context"
	"hash/fnv"
	"log/slog"
	"sync"

	"github.com/aaravmahajanofficial/ebike-storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/currency"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/errors"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/models"
	repository "github.com/aaravmahajanofficial/ebike-storefront/internal/repositories"
)

type CartService interface {
	GetCart(ctx context.Context, sessionID string) (*models.Cart, error)
	AddItem(ctx context.Context, sessionID string, req *models.AddItemRequest) (*models.Cart, error)
	// UpdateQuantity sets the quantity exactly; zero or below removes the line.
	UpdateQuantity(ctx context.Context, sessionID, productID string, quantity int) (*models.Cart, error)
	UpdateItemOptions(ctx context.Context, sessionID, productID string, opts *models.ItemOptions) (*models.Cart, error)
	RemoveItem(ctx context.Context, sessionID, productID string) (*models.Cart, error)
	Clear(ctx context.Context, sessionID string) (*models.Cart, error)
	// Summary prices the cart with the applied coupon in the session's
	// preferred currency.
	Summary(ctx context.Context, sessionID string) (*models.CartSummary, error)
}

const lockStripes = 64

type cartService struct {
	store    repository.CartStore
	products ProductService
	coupons  CouponService
	prefs    PreferencesService

	// load-mutate-save runs under the stripe lock of the session key
	locks [lockStripes]sync.Mutex
}

func NewCartService(store repository.CartStore, products ProductService, coupons CouponService, prefs PreferencesService) CartService {
	return &cartService{store: store, products: products, coupons: coupons, prefs: prefs}
}

func (s *cartService) lock(key string) func() {
	h := fnv.New32a()
	h.Write([]byte(key))
	mu := &s.locks[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}

func (s *cartService) load(ctx context.Context, key string) (*models.Cart, error) {
	cart, err := s.store.Load(ctx, key)
	if err != nil {
		middleware.LoggerFromContext(ctx).Error("Failed to load cart", slog.String("key", key), slog.Any("error", err))
		return nil, errors.DatabaseError("Failed to load cart").WithError(err)
	}
	return cart, nil
}

func (s *cartService) mutate(ctx context.Context, sessionID string, fn func(cart *models.Cart)) (*models.Cart, error) {

	key := repository.CartKey(sessionID)

	unlock := s.lock(key)
	defer unlock()

	cart, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}

	fn(cart)

	if err := s.store.Save(ctx, key, cart); err != nil {
		middleware.LoggerFromContext(ctx).Error("Failed to save cart", slog.String("key", key), slog.Any("error", err))
		return nil, errors.DatabaseError("Failed to update cart").WithError(err)
	}

	return cart, nil
}

func (s *cartService) GetCart(ctx context.Context, sessionID string) (*models.Cart, error) {
	return s.load(ctx, repository.CartKey(sessionID))
}

func (s *cartService) AddItem(ctx context.Context, sessionID string, req *models.AddItemRequest) (*models.Cart, error) {

	// resolve the product before taking the lock
	product, err := s.products.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, sessionID, func(cart *models.Cart) {
		cart.AddItem(*product, req.Quantity, req.Options)
	})
}

func (s *cartService) UpdateQuantity(ctx context.Context, sessionID, productID string, quantity int) (*models.Cart, error) {
	return s.mutate(ctx, sessionID, func(cart *models.Cart) {
		cart.UpdateQuantity(productID, quantity)
	})
}

func (s *cartService) UpdateItemOptions(ctx context.Context, sessionID, productID string, opts *models.ItemOptions) (*models.Cart, error) {
	return s.mutate(ctx, sessionID, func(cart *models.Cart) {
		cart.UpdateItemOptions(productID, opts)
	})
}

func (s *cartService) RemoveItem(ctx context.Context, sessionID, productID string) (*models.Cart, error) {
	return s.mutate(ctx, sessionID, func(cart *models.Cart) {
		cart.RemoveItem(productID)
	})
}

func (s *cartService) Clear(ctx context.Context, sessionID string) (*models.Cart, error) {
	return s.mutate(ctx, sessionID, func(cart *models.Cart) {
		cart.Clear()
	})
}

func (s *cartService) Summary(ctx context.Context, sessionID string) (*models.CartSummary, error) {

	cart, err := s.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	coupon, err := s.coupons.Applied(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	prefs, err := s.prefs.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return BuildSummary(cart, coupon, currency.Code(prefs.Currency))
}

// BuildSummary prices cart with coupon and renders the amounts in code.
func BuildSummary(cart *models.Cart, coupon *models.AppliedCoupon, code currency.Code) (*models.CartSummary, error) {

	subtotal := cart.TotalPrice()
	total := cart.FinalTotal(coupon)
	discount := subtotal - total

	summary := &models.CartSummary{
		Items:      cart.Items,
		ItemCount:  cart.ItemCount(),
		Subtotal:   subtotal,
		Discount:   discount,
		Total:      total,
		Coupon:     coupon,
		Currency:   string(code),
		Categories: cart.Categories(),
	}

	var err error
	if summary.Display.Subtotal, err = currency.Format(subtotal, code); err != nil {
		return nil, err
	}
	if summary.Display.Discount, err = currency.Format(discount, code); err != nil {
		return nil, err
	}
	if summary.Display.Total, err = currency.Format(total, code); err != nil {
		return nil, err
	}

	return summary, nil
}
