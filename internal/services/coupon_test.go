package service_test

import (
	"errors"
	"testing"
	"time"

	"github.com/aaravmahajanofficial/ebike-storefront/internal/cache"
	appErrors "github.com/aaravmahajanofficial/ebike-storefront/internal/errors"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/models"
	repository "github.com/aaravmahajanofficial/ebike-storefront/internal/repositories"
	service "github.com/aaravmahajanofficial/ebike-storefront/internal/services"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/services/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type couponFixture struct {
	api     *mocks.StoreAPI
	cache   *mocks.Cache
	limiter *mocks.RateLimiter
	carts   repository.CartStore
	svc     service.CouponService
}

const couponTTL = time.Hour

func newCouponFixture(t *testing.T) *couponFixture {
	t.Helper()

	f := &couponFixture{
		api:     &mocks.StoreAPI{},
		cache:   &mocks.Cache{},
		limiter: &mocks.RateLimiter{},
		carts:   repository.NewMemoryCartStore(),
	}
	f.svc = service.NewCouponService(f.api, f.cache, f.limiter, f.carts, couponTTL)

	return f
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "SPRING10", service.NormalizeCode("  spring10 "))
	assert.Equal(t, "", service.NormalizeCode("   "))
}

func TestCouponValidate(t *testing.T) {
	ctx := t.Context()
	key := cache.Key(cache.CouponKeyPrefix, "s1")

	t.Run("Success - Normalised Code And Distinct Categories", func(t *testing.T) {
		// Arrange
		f := newCouponFixture(t)
		f.limiter.On("CheckCouponRateLimit", ctx, "s1").Return(true, 4, 0, nil).Once()
		expectedReq := models.CouponValidationRequest{Code: "SPRING10", OrderAmount: 210000, Categories: []string{"city", "mountain"}}
		f.api.On("ValidateCoupon", ctx, expectedReq).
			Return(&models.AppliedCoupon{Code: "spring10", Discount: 50000, Description: "Spring"}, nil).Once()
		f.cache.On("Set", ctx, key, mock.AnythingOfType("*models.AppliedCoupon"), couponTTL).Return(nil).Once()

		// Act
		coupon, err := f.svc.Validate(ctx, "s1", " spring10", 210000, []string{"city", "mountain", "city", ""})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "SPRING10", coupon.Code)
		assert.Equal(t, int64(50000), coupon.Discount)
		f.api.AssertExpectations(t)
		f.cache.AssertExpectations(t)
	})

	t.Run("Success - Negative Discount Is Clamped", func(t *testing.T) {
		// Arrange
		f := newCouponFixture(t)
		f.limiter.On("CheckCouponRateLimit", ctx, "s1").Return(true, 4, 0, nil).Once()
		f.api.On("ValidateCoupon", ctx, mock.Anything).Return(&models.AppliedCoupon{Code: "ODD", Discount: -10}, nil).Once()
		f.cache.On("Set", ctx, key, mock.Anything, couponTTL).Return(nil).Once()

		// Act
		coupon, err := f.svc.Validate(ctx, "s1", "odd", 1000, nil)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, int64(0), coupon.Discount)
	})

	t.Run("Failure - Empty Code Makes No Backend Call", func(t *testing.T) {
		// Arrange
		f := newCouponFixture(t)

		// Act
		coupon, err := f.svc.Validate(ctx, "s1", "  ", 1000, nil)

		// Assert
		require.Error(t, err)
		assert.Nil(t, coupon)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeValidation))
		f.api.AssertNotCalled(t, "ValidateCoupon", mock.Anything, mock.Anything)
		f.limiter.AssertNotCalled(t, "CheckCouponRateLimit", mock.Anything, mock.Anything)
	})

	t.Run("Failure - Invalid Coupon Leaves Applied Coupon Untouched", func(t *testing.T) {
		// Arrange
		f := newCouponFixture(t)
		f.limiter.On("CheckCouponRateLimit", ctx, "s1").Return(true, 3, 0, nil).Once()
		f.api.On("ValidateCoupon", ctx, mock.Anything).Return(nil, appErrors.InvalidCouponError("Coupon has expired")).Once()

		// Act
		coupon, err := f.svc.Validate(ctx, "s1", "OLD", 1000, nil)

		// Assert
		require.Error(t, err)
		assert.Nil(t, coupon)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeInvalidCoupon))
		f.cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.cache.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("Failure - Rate Limited", func(t *testing.T) {
		// Arrange
		f := newCouponFixture(t)
		f.limiter.On("CheckCouponRateLimit", ctx, "s1").Return(false, 0, 42, nil).Once()

		// Act
		coupon, err := f.svc.Validate(ctx, "s1", "GUESS", 1000, nil)

		// Assert
		require.Error(t, err)
		assert.Nil(t, coupon)
		appErr, ok := appErrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeTooManyRequests, appErr.Code)
		assert.Contains(t, appErr.Detail, "42")
		f.api.AssertNotCalled(t, "ValidateCoupon", mock.Anything, mock.Anything)
	})

	t.Run("Success - Limiter Outage Fails Open", func(t *testing.T) {
		// Arrange
		f := newCouponFixture(t)
		f.limiter.On("CheckCouponRateLimit", ctx, "s1").Return(false, 0, 0, errors.New("redis down")).Once()
		f.api.On("ValidateCoupon", ctx, mock.Anything).Return(&models.AppliedCoupon{Code: "OK", Discount: 1}, nil).Once()
		f.cache.On("Set", ctx, key, mock.Anything, couponTTL).Return(nil).Once()

		// Act
		coupon, err := f.svc.Validate(ctx, "s1", "ok", 1000, nil)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "OK", coupon.Code)
	})

	t.Run("Failure - Network Error", func(t *testing.T) {
		// Arrange
		f := newCouponFixture(t)
		f.limiter.On("CheckCouponRateLimit", ctx, "s1").Return(true, 3, 0, nil).Once()
		f.api.On("ValidateCoupon", ctx, mock.Anything).Return(nil, appErrors.NetworkError("Store API is unreachable")).Once()

		// Act
		_, err := f.svc.Validate(ctx, "s1", "ANY", 1000, nil)

		// Assert
		require.Error(t, err)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeNetwork))
	})
}

func TestCouponApplyToCart(t *testing.T) {
	ctx := t.Context()

	t.Run("Success - Amount And Categories From Cart", func(t *testing.T) {
		// Arrange
		f := newCouponFixture(t)
		cart := models.NewCart()
		cart.AddItem(models.ProductSnapshot{ID: "p1", Price: 100000, Category: "city"}, 2, nil)
		cart.AddItem(models.ProductSnapshot{ID: "p2", Price: 50000, Category: "city"}, 1, nil)
		require.NoError(t, f.carts.Save(ctx, repository.CartKey("s1"), cart))

		f.limiter.On("CheckCouponRateLimit", ctx, "s1").Return(true, 4, 0, nil).Once()
		f.api.On("ValidateCoupon", ctx, models.CouponValidationRequest{Code: "CITY", OrderAmount: 250000, Categories: []string{"city"}}).
			Return(&models.AppliedCoupon{Code: "CITY", Discount: 25000}, nil).Once()
		f.cache.On("Set", ctx, mock.Anything, mock.Anything, couponTTL).Return(nil).Once()

		// Act
		coupon, err := f.svc.ApplyToCart(ctx, "s1", "city")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, int64(25000), coupon.Discount)
		f.api.AssertExpectations(t)
	})

	t.Run("Failure - Empty Cart", func(t *testing.T) {
		// Arrange
		f := newCouponFixture(t)

		// Act
		coupon, err := f.svc.ApplyToCart(ctx, "s1", "CITY")

		// Assert
		require.Error(t, err)
		assert.Nil(t, coupon)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeValidation))
	})
}

func TestCouponAppliedAndCancel(t *testing.T) {
	ctx := t.Context()
	key := cache.Key(cache.CouponKeyPrefix, "s1")

	t.Run("Success - Applied Found", func(t *testing.T) {
		// Arrange
		f := newCouponFixture(t)
		f.cache.On("Get", ctx, key, mock.AnythingOfType("*models.AppliedCoupon")).
			Run(func(args mock.Arguments) {
				dest := args.Get(2).(*models.AppliedCoupon)
				*dest = models.AppliedCoupon{Code: "SPRING10", Discount: 50000}
			}).
			Return(true, nil).Once()

		// Act
		coupon, err := f.svc.Applied(ctx, "s1")

		// Assert
		require.NoError(t, err)
		require.NotNil(t, coupon)
		assert.Equal(t, "SPRING10", coupon.Code)
	})

	t.Run("Success - None Applied", func(t *testing.T) {
		f := newCouponFixture(t)
		f.cache.On("Get", ctx, key, mock.Anything).Return(false, nil).Once()

		coupon, err := f.svc.Applied(ctx, "s1")

		require.NoError(t, err)
		assert.Nil(t, coupon)
	})

	t.Run("Success - Validate Then Cancel Restores Totals", func(t *testing.T) {
		// Arrange
		f := newCouponFixture(t)
		cart := models.NewCart()
		cart.AddItem(models.ProductSnapshot{ID: "p1", Price: 100000}, 1, nil)

		f.limiter.On("CheckCouponRateLimit", ctx, "s1").Return(true, 4, 0, nil).Once()
		f.api.On("ValidateCoupon", ctx, mock.Anything).Return(&models.AppliedCoupon{Code: "TEN", Discount: 10000}, nil).Once()
		f.cache.On("Set", ctx, key, mock.Anything, couponTTL).Return(nil).Once()
		f.cache.On("Delete", ctx, key).Return(nil).Once()
		f.cache.On("Get", ctx, key, mock.Anything).Return(false, nil).Once()

		// Act
		applied, err := f.svc.Validate(ctx, "s1", "ten", cart.TotalPrice(), nil)
		require.NoError(t, err)
		assert.Equal(t, int64(90000), cart.FinalTotal(applied))

		require.NoError(t, f.svc.Cancel(ctx, "s1"))
		afterCancel, err := f.svc.Applied(ctx, "s1")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, cart.TotalPrice(), cart.FinalTotal(afterCancel))
		f.cache.AssertExpectations(t)
	})

	t.Run("Failure - Cancel Cache Error", func(t *testing.T) {
		f := newCouponFixture(t)
		f.cache.On("Delete", ctx, key).Return(errors.New("redis down")).Once()

		err := f.svc.Cancel(ctx, "s1")

		require.Error(t, err)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeInternal))
	})
}
