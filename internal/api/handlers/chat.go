package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/ebike-storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/chat"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/models"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/utils"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

// ChatHandler serves the customer chat widget of a storefront session.
type ChatHandler struct {
	manager   *chat.Manager
	validator *validator.Validate
}

func NewChatHandler(manager *chat.Manager) *ChatHandler {
	return &ChatHandler{manager: manager, validator: validator.New()}
}

// StartChat godoc
//	@Summary		Start or resume the customer chat
//	@Description	Creates a chat session with the backend, or resumes the one stored for this storefront session, and joins its room.
//	@Tags			Chat
//	@Accept			json
//	@Produce		json
//	@Param			customer	body		models.ChatCustomer		true	"Customer contact details"
//	@Success		200			{object}	chat.CustomerView		"Widget state"
//	@Failure		400			{object}	response.ErrorResponse	"Name and email are required"
//	@Failure		409			{object}	response.ErrorResponse	"Start already in progress or chat closed"
//	@Failure		502			{object}	response.ErrorResponse	"Store API unreachable"
//	@Router			/chat [post]
func (h *ChatHandler) StartChat() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())
		sessionID := middleware.SessionFromContext(r.Context())

		var req models.ChatCustomer
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid chat start input")
			return
		}

		widget, err := h.manager.Customer(sessionID)
		if err != nil {
			response.Error(w, err)
			return
		}

		view, err := widget.Start(r.Context(), req)
		if err != nil {
			logger.Warn("Failed to start chat", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Chat started", slog.String("chatId", view.ChatID), slog.String("state", string(view.State)))
		response.Success(w, http.StatusOK, view)
	}
}

// GetChat godoc
//	@Summary		Get the customer chat
//	@Description	Returns the widget state. A returning customer with a stored chat identity is resumed transparently.
//	@Tags			Chat
//	@Produce		json
//	@Success		200	{object}	chat.CustomerView		"Widget state"
//	@Failure		502	{object}	response.ErrorResponse	"Store API unreachable"
//	@Router			/chat [get]
func (h *ChatHandler) GetChat() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())
		sessionID := middleware.SessionFromContext(r.Context())

		widget, err := h.manager.Customer(sessionID)
		if err != nil {
			response.Error(w, err)
			return
		}

		view := widget.View()
		if view.State == chat.StateNoSession {
			if view, err = widget.Restore(r.Context()); err != nil {
				logger.Warn("Failed to restore chat", slog.Any("error", err))
				response.Error(w, err)
				return
			}
		}

		response.Success(w, http.StatusOK, view)
	}
}

// SendMessage godoc
//	@Summary		Send a customer message
//	@Description	The message is shown immediately as pending and confirmed in place, or removed if the backend rejects it.
//	@Tags			Chat
//	@Accept			json
//	@Produce		json
//	@Param			message	body		models.SendMessageRequest	true	"Message content"
//	@Success		201		{object}	chat.CustomerView			"Widget state with the confirmed message"
//	@Failure		400		{object}	response.ErrorResponse		"Empty message"
//	@Failure		409		{object}	response.ErrorResponse		"No active chat or send in progress"
//	@Failure		502		{object}	response.ErrorResponse		"Store API unreachable"
//	@Router			/chat/messages [post]
func (h *ChatHandler) SendMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())
		sessionID := middleware.SessionFromContext(r.Context())

		var req models.SendMessageRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid chat message input")
			return
		}

		widget, err := h.manager.Customer(sessionID)
		if err != nil {
			response.Error(w, err)
			return
		}

		view, err := widget.Send(r.Context(), req.Content)
		if err != nil {
			logger.Warn("Chat message not sent", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusCreated, view)
	}
}

// Typing godoc
//	@Summary	Signal that the customer is typing
//	@Tags		Chat
//	@Accept		json
//	@Produce	json
//	@Param		typing	body		models.TypingRequest	true	"Typing state"
//	@Success	202		{object}	response.APIResponse	"Accepted"
//	@Failure	409		{object}	response.ErrorResponse	"No active chat"
//	@Router		/chat/typing [post]
func (h *ChatHandler) Typing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		sessionID := middleware.SessionFromContext(r.Context())

		var req models.TypingRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		widget, err := h.manager.Customer(sessionID)
		if err != nil {
			response.Error(w, err)
			return
		}

		if err := widget.Typing(r.Context(), req.IsTyping); err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusAccepted, nil)
	}
}

// EndChat godoc
//	@Summary		Leave the customer chat
//	@Description	Releases the widget and its realtime connection. The stored chat identity is kept so the chat can be resumed.
//	@Tags			Chat
//	@Produce		json
//	@Success		200	{object}	response.APIResponse	"Released"
//	@Router			/chat [delete]
func (h *ChatHandler) EndChat() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())
		sessionID := middleware.SessionFromContext(r.Context())

		ctx, cancel := utils.Detached(r.Context(), utils.ReleaseTimeout)
		defer cancel()

		h.manager.ReleaseCustomer(ctx, sessionID)

		logger.Info("Chat widget released")
		response.Success(w, http.StatusOK, map[string]bool{"released": true})
	}
}
