package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/ebike-storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/chat"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/errors"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/models"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/utils"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

// AdminChatHandler serves the admin chat console. Routes are mounted behind
// RequireAdmin, so claims are always present.
type AdminChatHandler struct {
	manager   *chat.Manager
	validator *validator.Validate
}

func NewAdminChatHandler(manager *chat.Manager) *AdminChatHandler {
	return &AdminChatHandler{manager: manager, validator: validator.New()}
}

func (h *AdminChatHandler) console(r *http.Request) (*chat.AdminConsole, *slog.Logger, error) {

	logger := middleware.LoggerFromContext(r.Context())

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		logger.Warn("Admin chat access without claims")
		return nil, logger, errors.UnauthorizedError("Authentication required")
	}

	console, err := h.manager.Admin(claims.UserID.String(), claims.Name, middleware.TokenFromContext(r.Context()))
	if err != nil {
		return nil, logger, err
	}

	return console, logger.With(slog.String("adminId", claims.UserID.String())), nil
}

// ensureOpen switches the console to chatID unless it is already open.
func ensureOpen(r *http.Request, console *chat.AdminConsole, chatID string) error {
	if open := console.View().Open; open != nil && open.ChatID == chatID {
		return nil
	}
	_, err := console.Open(r.Context(), chatID)
	return err
}

// ListChats godoc
//	@Summary		List chat conversations
//	@Description	Joins the admin room on first use and returns every conversation, newest first, with unread stats.
//	@Tags			Admin Chat
//	@Produce		json
//	@Success		200	{object}	chat.AdminView			"Conversation list"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		403	{object}	response.ErrorResponse	"Admin access required"
//	@Failure		502	{object}	response.ErrorResponse	"Store API unreachable"
//	@Security		BearerAuth
//	@Router			/admin/chats [get]
func (h *AdminChatHandler) ListChats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		console, logger, err := h.console(r)
		if err != nil {
			response.Error(w, err)
			return
		}

		view, err := console.Load(r.Context())
		if err != nil {
			logger.Error("Failed to load conversations", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, view)
	}
}

// Stats godoc
//	@Summary	Unread chat statistics
//	@Tags		Admin Chat
//	@Produce	json
//	@Success	200	{object}	models.UnreadStats		"Unread messages and active chats"
//	@Failure	502	{object}	response.ErrorResponse	"Store API unreachable"
//	@Security	BearerAuth
//	@Router		/admin/chats/stats [get]
func (h *AdminChatHandler) Stats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		console, logger, err := h.console(r)
		if err != nil {
			response.Error(w, err)
			return
		}

		stats, err := console.Stats(r.Context())
		if err != nil {
			logger.Error("Failed to fetch unread stats", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, stats)
	}
}

// OpenChat godoc
//	@Summary		Open a conversation
//	@Description	Leaves the previously open conversation, joins this one and returns its history.
//	@Tags			Admin Chat
//	@Produce		json
//	@Param			id	path		string					true	"Chat ID"
//	@Success		200	{object}	chat.AdminView			"Console with the open conversation"
//	@Failure		404	{object}	response.ErrorResponse	"Chat not found"
//	@Failure		409	{object}	response.ErrorResponse	"Another open is in progress"
//	@Security		BearerAuth
//	@Router			/admin/chats/{id} [get]
func (h *AdminChatHandler) OpenChat() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		chatID, err := utils.PathParam(r, "id")
		if err != nil {
			response.Error(w, err)
			return
		}

		console, logger, err := h.console(r)
		if err != nil {
			response.Error(w, err)
			return
		}
		logger = logger.With(slog.String("chatId", chatID))

		view, err := console.Open(r.Context(), chatID)
		if err != nil {
			logger.Warn("Failed to open conversation", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Conversation opened")
		response.Success(w, http.StatusOK, view)
	}
}

// LeaveChat godoc
//	@Summary	Close the open conversation view
//	@Tags		Admin Chat
//	@Produce	json
//	@Success	200	{object}	chat.AdminView	"Console without an open conversation"
//	@Security	BearerAuth
//	@Router		/admin/chats/open [delete]
func (h *AdminChatHandler) LeaveChat() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		console, _, err := h.console(r)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, console.Leave(r.Context()))
	}
}

// SendMessage godoc
//	@Summary		Reply to a conversation
//	@Description	Opens the conversation if needed. The reply is appended once the backend has stored it.
//	@Tags			Admin Chat
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Chat ID"
//	@Param			message	body		models.SendMessageRequest	true	"Message content"
//	@Success		201		{object}	chat.AdminView				"Console with the reply"
//	@Failure		400		{object}	response.ErrorResponse		"Empty message"
//	@Failure		404		{object}	response.ErrorResponse		"Chat not found"
//	@Failure		409		{object}	response.ErrorResponse		"Chat closed or send in progress"
//	@Security		BearerAuth
//	@Router			/admin/chats/{id}/messages [post]
func (h *AdminChatHandler) SendMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		chatID, err := utils.PathParam(r, "id")
		if err != nil {
			response.Error(w, err)
			return
		}

		console, logger, err := h.console(r)
		if err != nil {
			response.Error(w, err)
			return
		}
		logger = logger.With(slog.String("chatId", chatID))

		var req models.SendMessageRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid admin message input")
			return
		}

		if err := ensureOpen(r, console, chatID); err != nil {
			logger.Warn("Failed to open conversation for reply", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		view, err := console.Send(r.Context(), req.Content)
		if err != nil {
			logger.Warn("Admin reply not sent", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Admin reply sent")
		response.Success(w, http.StatusCreated, view)
	}
}

// Typing godoc
//	@Summary	Signal that the admin is typing
//	@Tags		Admin Chat
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string					true	"Chat ID"
//	@Param		typing	body		models.TypingRequest	true	"Typing state"
//	@Success	202		{object}	response.APIResponse	"Accepted"
//	@Security	BearerAuth
//	@Router		/admin/chats/{id}/typing [post]
func (h *AdminChatHandler) Typing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		chatID, err := utils.PathParam(r, "id")
		if err != nil {
			response.Error(w, err)
			return
		}

		console, _, err := h.console(r)
		if err != nil {
			response.Error(w, err)
			return
		}

		var req models.TypingRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		if open := console.View().Open; open == nil || open.ChatID != chatID {
			response.Error(w, errors.ConflictError("Chat is not open").WithDetail(chatID))
			return
		}

		if err := console.Typing(r.Context(), req.IsTyping); err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusAccepted, nil)
	}
}

// CloseChat godoc
//	@Summary		Close a conversation
//	@Description	Ends the conversation for good. Closed conversations cannot be reopened.
//	@Tags			Admin Chat
//	@Produce		json
//	@Param			id	path		string					true	"Chat ID"
//	@Success		200	{object}	chat.AdminView			"Console after closing"
//	@Failure		404	{object}	response.ErrorResponse	"Chat not found"
//	@Security		BearerAuth
//	@Router			/admin/chats/{id}/close [post]
func (h *AdminChatHandler) CloseChat() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		chatID, err := utils.PathParam(r, "id")
		if err != nil {
			response.Error(w, err)
			return
		}

		console, logger, err := h.console(r)
		if err != nil {
			response.Error(w, err)
			return
		}
		logger = logger.With(slog.String("chatId", chatID))

		view, err := console.CloseChat(r.Context(), chatID)
		if err != nil {
			logger.Error("Failed to close conversation", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Conversation closed")
		response.Success(w, http.StatusOK, view)
	}
}
