package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/ebike-storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/currency"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/models"
	service "github.com/aaravmahajanofficial/ebike-storefront/internal/services"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/utils"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type PreferencesHandler struct {
	preferencesService service.PreferencesService
	validator          *validator.Validate
}

func NewPreferencesHandler(preferencesService service.PreferencesService) *PreferencesHandler {
	return &PreferencesHandler{preferencesService: preferencesService, validator: validator.New()}
}

// ListCurrencies godoc
//	@Summary	List display currencies
//	@Tags		Preferences
//	@Produce	json
//	@Success	200	{array}	currency.Definition	"Supported currencies"
//	@Router		/currencies [get]
func (h *PreferencesHandler) ListCurrencies() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, http.StatusOK, currency.All())
	}
}

// GetPreferences godoc
//	@Summary	Get session preferences
//	@Tags		Preferences
//	@Produce	json
//	@Success	200	{object}	models.Preferences		"Language and currency"
//	@Failure	500	{object}	response.ErrorResponse	"Internal server error"
//	@Router		/preferences [get]
func (h *PreferencesHandler) GetPreferences() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())
		sessionID := middleware.SessionFromContext(r.Context())

		prefs, err := h.preferencesService.Get(r.Context(), sessionID)
		if err != nil {
			logger.Error("Failed to load preferences", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, prefs)
	}
}

// UpdatePreferences godoc
//	@Summary		Update session preferences
//	@Description	Changes the display language and/or currency. Unknown values are rejected.
//	@Tags			Preferences
//	@Accept			json
//	@Produce		json
//	@Param			preferences	body		models.UpdatePreferencesRequest	true	"Fields to change"
//	@Success		200			{object}	models.Preferences				"Updated preferences"
//	@Failure		400			{object}	response.ErrorResponse			"Validation error"
//	@Router			/preferences [put]
func (h *PreferencesHandler) UpdatePreferences() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())
		sessionID := middleware.SessionFromContext(r.Context())

		var req models.UpdatePreferencesRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid preferences input")
			return
		}

		prefs, err := h.preferencesService.Update(r.Context(), sessionID, &req)
		if err != nil {
			logger.Warn("Failed to update preferences", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Preferences updated", slog.String("language", string(prefs.Language)), slog.String("currency", prefs.Currency))
		response.Success(w, http.StatusOK, prefs)
	}
}
