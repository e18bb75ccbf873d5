package mocks

import (
	"context"
	"time"

	"github.com/aaravmahajanofficial/ebike-storefront/internal/models"
	"github.com/stretchr/testify/mock"
)

// StoreAPI mocks storeapi.Client.
type StoreAPI struct {
	mock.Mock
}

func (m *StoreAPI) GetProduct(ctx context.Context, productID string) (*models.ProductSnapshot, error) {
	args := m.Called(ctx, productID)
	if p := args.Get(0); p != nil {
		return p.(*models.ProductSnapshot), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StoreAPI) ValidateCoupon(ctx context.Context, req models.CouponValidationRequest) (*models.AppliedCoupon, error) {
	args := m.Called(ctx, req)
	if c := args.Get(0); c != nil {
		return c.(*models.AppliedCoupon), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StoreAPI) CreateChat(ctx context.Context, req models.CreateChatRequest) (*models.ChatSession, error) {
	args := m.Called(ctx, req)
	if s := args.Get(0); s != nil {
		return s.(*models.ChatSession), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StoreAPI) SendChatMessage(ctx context.Context, req models.ChatMessageRequest) (*models.Message, error) {
	args := m.Called(ctx, req)
	if msg := args.Get(0); msg != nil {
		return msg.(*models.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StoreAPI) ListChats(ctx context.Context, token string) ([]models.ChatSummary, error) {
	args := m.Called(ctx, token)
	if l := args.Get(0); l != nil {
		return l.([]models.ChatSummary), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StoreAPI) GetChat(ctx context.Context, token string, chatID string) (*models.ChatSession, error) {
	args := m.Called(ctx, token, chatID)
	if s := args.Get(0); s != nil {
		return s.(*models.ChatSession), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StoreAPI) AdminSendMessage(ctx context.Context, token string, req models.ChatMessageRequest) (*models.Message, error) {
	args := m.Called(ctx, token, req)
	if msg := args.Get(0); msg != nil {
		return msg.(*models.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StoreAPI) CloseChat(ctx context.Context, token string, chatID string) error {
	return m.Called(ctx, token, chatID).Error(0)
}

func (m *StoreAPI) ChatUnreadStats(ctx context.Context, token string) (*models.UnreadStats, error) {
	args := m.Called(ctx, token)
	if s := args.Get(0); s != nil {
		return s.(*models.UnreadStats), args.Error(1)
	}
	return nil, args.Error(1)
}

type RateLimiter struct {
	mock.Mock
}

func (m *RateLimiter) CheckCouponRateLimit(ctx context.Context, sessionID string) (bool, int, int, error) {
	args := m.Called(ctx, sessionID)
	return args.Bool(0), args.Int(1), args.Int(2), args.Error(3)
}

type PreferencesRepository struct {
	mock.Mock
}

func (m *PreferencesRepository) Load(ctx context.Context, sessionID string) (*models.Preferences, error) {
	args := m.Called(ctx, sessionID)
	if p := args.Get(0); p != nil {
		return p.(*models.Preferences), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PreferencesRepository) Save(ctx context.Context, sessionID string, prefs *models.Preferences) error {
	return m.Called(ctx, sessionID, prefs).Error(0)
}

type CartStore struct {
	mock.Mock
}

func (m *CartStore) Load(ctx context.Context, key string) (*models.Cart, error) {
	args := m.Called(ctx, key)
	if c := args.Get(0); c != nil {
		return c.(*models.Cart), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CartStore) Save(ctx context.Context, key string, cart *models.Cart) error {
	return m.Called(ctx, key, cart).Error(0)
}

// Cache mocks cache.Cache. Get results are written through the dest
// pointer by the Run hook of the expectation.
type Cache struct {
	mock.Mock
}

func (m *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	args := m.Called(ctx, key, dest)
	return args.Bool(0), args.Error(1)
}

func (m *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *Cache) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *Cache) Close() error {
	return m.Called().Error(0)
}
