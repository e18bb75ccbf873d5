package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/ebike-storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/models"
	service "github.com/aaravmahajanofficial/ebike-storefront/internal/services"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/utils"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type CouponHandler struct {
	couponService service.CouponService
	validator     *validator.Validate
}

func NewCouponHandler(couponService service.CouponService) *CouponHandler {
	return &CouponHandler{couponService: couponService, validator: validator.New()}
}

// ApplyCoupon godoc
//	@Summary		Apply a coupon to the cart
//	@Description	Validates the code against the current cart total and categories. A rejected code leaves any previously applied coupon in place.
//	@Tags			Coupons
//	@Accept			json
//	@Produce		json
//	@Param			coupon	body		models.ApplyCouponRequest	true	"Coupon code"
//	@Success		200		{object}	models.AppliedCoupon		"Coupon applied"
//	@Failure		400		{object}	response.ErrorResponse		"Validation error or empty cart"
//	@Failure		422		{object}	response.ErrorResponse		"Coupon rejected"
//	@Failure		429		{object}	response.ErrorResponse		"Too many attempts"
//	@Failure		502		{object}	response.ErrorResponse		"Store API unreachable"
//	@Router			/cart/coupon [post]
func (h *CouponHandler) ApplyCoupon() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())
		sessionID := middleware.SessionFromContext(r.Context())

		var req models.ApplyCouponRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid coupon input")
			return
		}

		coupon, err := h.couponService.ApplyToCart(r.Context(), sessionID, req.Code)
		if err != nil {
			logger.Warn("Coupon not applied", slog.String("code", service.NormalizeCode(req.Code)), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Coupon applied to cart", slog.String("code", coupon.Code))
		response.Success(w, http.StatusOK, coupon)
	}
}

// CancelCoupon godoc
//	@Summary		Remove the applied coupon
//	@Tags			Coupons
//	@Produce		json
//	@Success		200	{object}	response.APIResponse	"Coupon removed"
//	@Failure		500	{object}	response.ErrorResponse	"Internal server error"
//	@Router			/cart/coupon [delete]
func (h *CouponHandler) CancelCoupon() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())
		sessionID := middleware.SessionFromContext(r.Context())

		if err := h.couponService.Cancel(r.Context(), sessionID); err != nil {
			logger.Error("Failed to cancel coupon", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Coupon cancelled")
		response.Success(w, http.StatusOK, map[string]bool{"cancelled": true})
	}
}
