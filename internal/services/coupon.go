package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aaravmahajanofficial/ebike-storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/cache"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/errors"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/metrics"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/models"
	repository "github.com/aaravmahajanofficial/ebike-storefront/internal/repositories"
	"github.com/aaravmahajanofficial/ebike-storefront/pkg/storeapi"
)

// CouponService keeps the single applied coupon of a storefront session.
type CouponService interface {
	// Validate checks code against the backend. Success replaces the applied
	// coupon; failure leaves it untouched.
	Validate(ctx context.Context, sessionID, code string, orderAmount int64, categories []string) (*models.AppliedCoupon, error)
	// ApplyToCart validates code against the session's current cart.
	ApplyToCart(ctx context.Context, sessionID, code string) (*models.AppliedCoupon, error)
	// Cancel drops the applied coupon locally; the backend is not told.
	Cancel(ctx context.Context, sessionID string) error
	// Applied returns nil when no coupon is applied.
	Applied(ctx context.Context, sessionID string) (*models.AppliedCoupon, error)
}

type couponService struct {
	client  storeapi.Client
	cache   cache.Cache
	limiter repository.RateLimitRepository
	carts   repository.CartStore
	ttl     time.Duration
}

func NewCouponService(client storeapi.Client, cache cache.Cache, limiter repository.RateLimitRepository, carts repository.CartStore, ttl time.Duration) CouponService {
	return &couponService{client: client, cache: cache, limiter: limiter, carts: carts, ttl: ttl}
}

// NormalizeCode returns the canonical upper-case form of a coupon code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func distinct(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := []string{}
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func (s *couponService) Validate(ctx context.Context, sessionID, code string, orderAmount int64, categories []string) (*models.AppliedCoupon, error) {

	logger := middleware.LoggerFromContext(ctx)

	code = NormalizeCode(code)
	if code == "" {
		return nil, errors.ValidationError("Coupon code is required")
	}

	allowed, _, retryAfter, err := s.limiter.CheckCouponRateLimit(ctx, sessionID)
	if err != nil {
		logger.Warn("Coupon rate limit check failed, continuing", slog.Any("error", err))
	} else if !allowed {
		metrics.CouponValidations.WithLabelValues("rate_limited").Inc()
		return nil, errors.TooManyRequestsError("Too many coupon attempts").
			WithDetail(fmt.Sprintf("retry after %d seconds", retryAfter))
	}

	coupon, err := s.client.ValidateCoupon(ctx, models.CouponValidationRequest{
		Code:        code,
		OrderAmount: orderAmount,
		Categories:  distinct(categories),
	})
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeInvalidCoupon) {
			metrics.CouponValidations.WithLabelValues("rejected").Inc()
			logger.Info("Coupon rejected", slog.String("code", code))
		} else {
			metrics.CouponValidations.WithLabelValues("error").Inc()
			logger.Error("Coupon validation failed", slog.String("code", code), slog.Any("error", err))
		}
		return nil, err
	}

	coupon.Code = NormalizeCode(coupon.Code)
	if coupon.Code == "" {
		coupon.Code = code
	}
	coupon.Discount = max(0, coupon.Discount)

	if err := s.cache.Set(ctx, cache.Key(cache.CouponKeyPrefix, sessionID), coupon, s.ttl); err != nil {
		return nil, errors.InternalError("Failed to store applied coupon").WithError(err)
	}

	metrics.CouponValidations.WithLabelValues("applied").Inc()
	logger.Info("Coupon applied", slog.String("code", coupon.Code), slog.Int64("discount", coupon.Discount))

	return coupon, nil
}

func (s *couponService) ApplyToCart(ctx context.Context, sessionID, code string) (*models.AppliedCoupon, error) {

	cart, err := s.carts.Load(ctx, repository.CartKey(sessionID))
	if err != nil {
		return nil, errors.DatabaseError("Failed to load cart").WithError(err)
	}

	if len(cart.Items) == 0 {
		return nil, errors.ValidationError("Cart is empty")
	}

	return s.Validate(ctx, sessionID, code, cart.TotalPrice(), cart.Categories())
}

func (s *couponService) Cancel(ctx context.Context, sessionID string) error {
	if err := s.cache.Delete(ctx, cache.Key(cache.CouponKeyPrefix, sessionID)); err != nil {
		return errors.InternalError("Failed to cancel coupon").WithError(err)
	}
	return nil
}

func (s *couponService) Applied(ctx context.Context, sessionID string) (*models.AppliedCoupon, error) {

	var coupon models.AppliedCoupon

	found, err := s.cache.Get(ctx, cache.Key(cache.CouponKeyPrefix, sessionID), &coupon)
	if err != nil {
		return nil, errors.InternalError("Failed to read applied coupon").WithError(err)
	}
	if !found {
		return nil, nil
	}

	return &coupon, nil
}
