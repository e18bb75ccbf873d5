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

type CartHandler struct {
	cartService service.CartService
	validator   *validator.Validate
}

func NewCartHandler(cartService service.CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		validator:   validator.New(),
	}
}

// every cart endpoint answers with the priced summary
func (h *CartHandler) respondSummary(w http.ResponseWriter, r *http.Request, logger *slog.Logger, sessionID string) {

	summary, err := h.cartService.Summary(r.Context(), sessionID)
	if err != nil {
		logger.Error("Failed to price cart", slog.Any("error", err))
		response.Error(w, err)
		return
	}

	response.Success(w, http.StatusOK, summary)
}

// GetCart godoc
//	@Summary		Get the session cart
//	@Description	Returns the cart of the storefront session priced in the session's preferred currency, with the applied coupon.
//	@Tags			Cart
//	@Produce		json
//	@Param			X-Session-ID	header		string					false	"Storefront session id"
//	@Success		200				{object}	models.CartSummary		"Priced cart"
//	@Failure		500				{object}	response.ErrorResponse	"Internal server error"
//	@Router			/cart [get]
func (h *CartHandler) GetCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())
		sessionID := middleware.SessionFromContext(r.Context())

		h.respondSummary(w, r, logger, sessionID)
	}
}

// AddItem godoc
//	@Summary		Add a product to the cart
//	@Description	Adds a product line or increments the quantity of an existing line. Options of the first add are kept.
//	@Tags			Cart
//	@Accept			json
//	@Produce		json
//	@Param			item	body		models.AddItemRequest	true	"Product and options"
//	@Success		200		{object}	models.CartSummary		"Updated cart"
//	@Failure		400		{object}	response.ErrorResponse	"Validation error"
//	@Failure		404		{object}	response.ErrorResponse	"Product not found"
//	@Failure		502		{object}	response.ErrorResponse	"Store API unreachable"
//	@Router			/cart/items [post]
func (h *CartHandler) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())
		sessionID := middleware.SessionFromContext(r.Context())

		var req models.AddItemRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid add item input")
			return
		}

		logger = logger.With(slog.String("productId", req.ProductID))

		if _, err := h.cartService.AddItem(r.Context(), sessionID, &req); err != nil {
			logger.Error("Failed to add item to cart", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Item added to cart", slog.Int("quantity", req.Quantity))
		h.respondSummary(w, r, logger, sessionID)
	}
}

// UpdateItemOptions godoc
//	@Summary		Change battery or condition of a cart line
//	@Description	Partially updates the selected battery, condition and their price adjustments. Unknown products are ignored.
//	@Tags			Cart
//	@Accept			json
//	@Produce		json
//	@Param			productId	path		string					true	"Product ID"
//	@Param			options		body		models.ItemOptions		true	"Option patch"
//	@Success		200			{object}	models.CartSummary		"Updated cart"
//	@Failure		400			{object}	response.ErrorResponse	"Validation error"
//	@Router			/cart/items/{productId} [patch]
func (h *CartHandler) UpdateItemOptions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())
		sessionID := middleware.SessionFromContext(r.Context())

		productID, err := utils.PathParam(r, "productId")
		if err != nil {
			response.Error(w, err)
			return
		}
		logger = logger.With(slog.String("productId", productID))

		var opts models.ItemOptions
		if !utils.ParseAndValidate(r, w, &opts, h.validator) {
			logger.Warn("Invalid item options input")
			return
		}

		if _, err := h.cartService.UpdateItemOptions(r.Context(), sessionID, productID, &opts); err != nil {
			logger.Error("Failed to update item options", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Cart item options updated")
		h.respondSummary(w, r, logger, sessionID)
	}
}

// UpdateQuantity godoc
//	@Summary		Set the quantity of a cart line
//	@Description	Sets the quantity exactly. Zero or a negative quantity removes the line.
//	@Tags			Cart
//	@Accept			json
//	@Produce		json
//	@Param			productId	path		string							true	"Product ID"
//	@Param			quantity	body		models.UpdateQuantityRequest	true	"New quantity"
//	@Success		200			{object}	models.CartSummary				"Updated cart"
//	@Failure		400			{object}	response.ErrorResponse			"Validation error"
//	@Router			/cart/items/{productId}/quantity [put]
func (h *CartHandler) UpdateQuantity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())
		sessionID := middleware.SessionFromContext(r.Context())

		productID, err := utils.PathParam(r, "productId")
		if err != nil {
			response.Error(w, err)
			return
		}
		logger = logger.With(slog.String("productId", productID))

		var req models.UpdateQuantityRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid quantity input")
			return
		}

		if _, err := h.cartService.UpdateQuantity(r.Context(), sessionID, productID, *req.Quantity); err != nil {
			logger.Error("Failed to update quantity", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Cart quantity updated", slog.Int("quantity", *req.Quantity))
		h.respondSummary(w, r, logger, sessionID)
	}
}

// RemoveItem godoc
//	@Summary		Remove a cart line
//	@Tags			Cart
//	@Produce		json
//	@Param			productId	path		string					true	"Product ID"
//	@Success		200			{object}	models.CartSummary		"Updated cart"
//	@Failure		500			{object}	response.ErrorResponse	"Internal server error"
//	@Router			/cart/items/{productId} [delete]
func (h *CartHandler) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())
		sessionID := middleware.SessionFromContext(r.Context())

		productID, err := utils.PathParam(r, "productId")
		if err != nil {
			response.Error(w, err)
			return
		}
		logger = logger.With(slog.String("productId", productID))

		if _, err := h.cartService.RemoveItem(r.Context(), sessionID, productID); err != nil {
			logger.Error("Failed to remove cart item", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Cart item removed")
		h.respondSummary(w, r, logger, sessionID)
	}
}

// ClearCart godoc
//	@Summary		Empty the cart
//	@Description	Removes every line. The applied coupon is kept.
//	@Tags			Cart
//	@Produce		json
//	@Success		200	{object}	models.CartSummary		"Empty cart"
//	@Failure		500	{object}	response.ErrorResponse	"Internal server error"
//	@Router			/cart [delete]
func (h *CartHandler) ClearCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())
		sessionID := middleware.SessionFromContext(r.Context())

		if _, err := h.cartService.Clear(r.Context(), sessionID); err != nil {
			logger.Error("Failed to clear cart", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Cart cleared")
		h.respondSummary(w, r, logger, sessionID)
	}
}
