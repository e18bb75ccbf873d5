package mocks

import (
	"context"

	"github.com/aaravmahajanofficial/ebike-storefront/internal/models"
	"github.com/stretchr/testify/mock"
)

type CartService struct {
	mock.Mock
}

func (m *CartService) cart(args mock.Arguments) (*models.Cart, error) {
	if c := args.Get(0); c != nil {
		return c.(*models.Cart), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CartService) GetCart(ctx context.Context, sessionID string) (*models.Cart, error) {
	return m.cart(m.Called(ctx, sessionID))
}

func (m *CartService) AddItem(ctx context.Context, sessionID string, req *models.AddItemRequest) (*models.Cart, error) {
	return m.cart(m.Called(ctx, sessionID, req))
}

func (m *CartService) UpdateQuantity(ctx context.Context, sessionID, productID string, quantity int) (*models.Cart, error) {
	return m.cart(m.Called(ctx, sessionID, productID, quantity))
}

func (m *CartService) UpdateItemOptions(ctx context.Context, sessionID, productID string, opts *models.ItemOptions) (*models.Cart, error) {
	return m.cart(m.Called(ctx, sessionID, productID, opts))
}

func (m *CartService) RemoveItem(ctx context.Context, sessionID, productID string) (*models.Cart, error) {
	return m.cart(m.Called(ctx, sessionID, productID))
}

func (m *CartService) Clear(ctx context.Context, sessionID string) (*models.Cart, error) {
	return m.cart(m.Called(ctx, sessionID))
}

func (m *CartService) Summary(ctx context.Context, sessionID string) (*models.CartSummary, error) {
	args := m.Called(ctx, sessionID)
	if s := args.Get(0); s != nil {
		return s.(*models.CartSummary), args.Error(1)
	}
	return nil, args.Error(1)
}

type CouponService struct {
	mock.Mock
}

func (m *CouponService) coupon(args mock.Arguments) (*models.AppliedCoupon, error) {
	if c := args.Get(0); c != nil {
		return c.(*models.AppliedCoupon), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CouponService) Validate(ctx context.Context, sessionID, code string, orderAmount int64, categories []string) (*models.AppliedCoupon, error) {
	return m.coupon(m.Called(ctx, sessionID, code, orderAmount, categories))
}

func (m *CouponService) ApplyToCart(ctx context.Context, sessionID, code string) (*models.AppliedCoupon, error) {
	return m.coupon(m.Called(ctx, sessionID, code))
}

func (m *CouponService) Cancel(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

func (m *CouponService) Applied(ctx context.Context, sessionID string) (*models.AppliedCoupon, error) {
	return m.coupon(m.Called(ctx, sessionID))
}

type ProductService struct {
	mock.Mock
}

func (m *ProductService) GetProduct(ctx context.Context, productID string) (*models.ProductSnapshot, error) {
	args := m.Called(ctx, productID)
	if p := args.Get(0); p != nil {
		return p.(*models.ProductSnapshot), args.Error(1)
	}
	return nil, args.Error(1)
}

type PreferencesService struct {
	mock.Mock
}

func (m *PreferencesService) Get(ctx context.Context, sessionID string) (*models.Preferences, error) {
	args := m.Called(ctx, sessionID)
	if p := args.Get(0); p != nil {
		return p.(*models.Preferences), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PreferencesService) Update(ctx context.Context, sessionID string, req *models.UpdatePreferencesRequest) (*models.Preferences, error) {
	args := m.Called(ctx, sessionID, req)
	if p := args.Get(0); p != nil {
		return p.(*models.Preferences), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PreferencesService) ChatIdentity(ctx context.Context, sessionID string) (*models.ChatCustomer, string, error) {
	args := m.Called(ctx, sessionID)
	var customer *models.ChatCustomer
	if c := args.Get(0); c != nil {
		customer = c.(*models.ChatCustomer)
	}
	return customer, args.String(1), args.Error(2)
}

func (m *PreferencesService) SaveChatIdentity(ctx context.Context, sessionID string, customer *models.ChatCustomer, chatSessionID string) error {
	return m.Called(ctx, sessionID, customer, chatSessionID).Error(0)
}
