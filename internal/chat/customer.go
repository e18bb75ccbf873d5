package chat

import (
	"context"
	"encoding/json"
	"html"
	"log/slog"
	"strings"
	"sync"
	"time"

	appErrors "github.com/aaravmahajanofficial/ebike-storefront/internal/errors"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/metrics"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/models"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/realtime"
	service "github.com/aaravmahajanofficial/ebike-storefront/internal/services"
	"github.com/aaravmahajanofficial/ebike-storefront/pkg/storeapi"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/time/rate"
)

type State string

const (
	StateNoSession  State = "no_session"
	StateConnecting State = "connecting"
	StateActive     State = "active"
	StateClosed     State = "closed"
)

// CustomerView is what the page renders for the chat widget.
type CustomerView struct {
	State    State                `json:"state"`
	ChatID   string               `json:"chatId,omitempty"`
	Customer *models.ChatCustomer `json:"customer,omitempty"`
	Messages []Entry              `json:"messages"`
}

// CustomerWidget is the chat state of one storefront session.
type CustomerWidget struct {
	sessionID string
	api       storeapi.Client
	prefs     service.PreferencesService
	transport Transport
	policy    *bluemonday.Policy
	typing    *rate.Limiter
	logger    *slog.Logger
	now       func() time.Time

	unsubscribe func()

	mu         sync.Mutex
	state      State
	customer   *models.ChatCustomer
	chatID     string
	log        MessageLog
	generation uint64
	inFlight   inFlight
	lastUsed   time.Time
}

func newCustomerWidget(sessionID string, api storeapi.Client, prefs service.PreferencesService,
	transport Transport, typingEvery time.Duration, logger *slog.Logger, now func() time.Time) *CustomerWidget {

	w := &CustomerWidget{
		sessionID: sessionID,
		api:       api,
		prefs:     prefs,
		transport: transport,
		policy:    bluemonday.StrictPolicy(),
		typing:    rate.NewLimiter(rate.Every(typingEvery), 1),
		logger:    logger.With(slog.String("role", string(models.SenderCustomer))),
		now:       now,
		state:     StateNoSession,
		inFlight:  make(inFlight),
		lastUsed:  now(),
	}
	w.unsubscribe = transport.Subscribe(w.handleEvent)

	return w
}

func (w *CustomerWidget) View() CustomerView {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.lastUsed = w.now()
	return w.viewLocked()
}

func (w *CustomerWidget) viewLocked() CustomerView {
	return CustomerView{
		State:    w.state,
		ChatID:   w.chatID,
		Customer: w.customer,
		Messages: w.log.Entries(),
	}
}

// Start opens the session's chat. Name and email are required; when either is
// blank the call fails without reaching the backend.
func (w *CustomerWidget) Start(ctx context.Context, customer models.ChatCustomer) (CustomerView, error) {
	customer.Name = strings.TrimSpace(customer.Name)
	customer.Email = strings.TrimSpace(customer.Email)
	customer.Phone = strings.TrimSpace(customer.Phone)

	if customer.Name == "" || customer.Email == "" {
		return w.View(), appErrors.ValidationError("Name and email are required")
	}

	w.mu.Lock()
	switch w.state {
	case StateActive:
		view := w.viewLocked()
		w.mu.Unlock()
		return view, nil
	case StateClosed:
		w.mu.Unlock()
		return w.View(), appErrors.ConflictError("Chat has been closed")
	}
	if err := w.inFlight.acquire(actionStart); err != nil {
		w.mu.Unlock()
		return w.View(), err
	}
	w.state = StateConnecting
	w.generation++
	gen := w.generation
	w.lastUsed = w.now()
	w.mu.Unlock()

	session, err := w.create(ctx, &customer)

	w.mu.Lock()
	defer w.mu.Unlock()

	w.inFlight.release(actionStart)

	if gen != w.generation {
		w.logger.Info("Discarding late chat start", slog.String("session_id", w.sessionID))
		return w.viewLocked(), nil
	}

	if err != nil {
		w.state = StateNoSession
		return w.viewLocked(), err
	}

	w.customer = &customer
	w.chatID = session.ChatID
	w.log.Reset(session.Messages)
	w.state = StateActive
	if session.Status == models.ChatStatusClosed {
		w.state = StateClosed
	}

	w.logger.Info("Chat started",
		slog.String("session_id", w.sessionID),
		slog.String("chat_id", session.ChatID),
		slog.Int("history", len(session.Messages)),
	)

	return w.viewLocked(), nil
}

// Restore resumes the chat of a returning customer from the stored identity.
// Without one the widget stays in NoSession.
func (w *CustomerWidget) Restore(ctx context.Context) (CustomerView, error) {
	customer, chatSessionID, err := w.prefs.ChatIdentity(ctx, w.sessionID)
	if err != nil {
		return w.View(), err
	}
	if customer == nil || chatSessionID == "" {
		return w.View(), nil
	}

	return w.Start(ctx, *customer)
}

func (w *CustomerWidget) create(ctx context.Context, customer *models.ChatCustomer) (*models.ChatSession, error) {
	_, chatSessionID, err := w.prefs.ChatIdentity(ctx, w.sessionID)
	if err != nil {
		w.logger.Warn("Chat identity unavailable, minting a new one", slog.Any("error", err))
	}
	if chatSessionID == "" {
		chatSessionID = uuid.New().String()
	}

	session, err := w.api.CreateChat(ctx, models.CreateChatRequest{
		SessionID:     chatSessionID,
		CustomerEmail: customer.Email,
		CustomerName:  customer.Name,
		CustomerPhone: customer.Phone,
	})
	if err != nil {
		w.logger.Warn("Failed to create chat", slog.String("session_id", w.sessionID), slog.Any("error", err))
		return nil, err
	}

	if err := w.prefs.SaveChatIdentity(ctx, w.sessionID, customer, chatSessionID); err != nil {
		w.logger.Warn("Failed to persist chat identity", slog.Any("error", err))
	}

	if err := w.transport.JoinChat(ctx, session.ChatID); err != nil {
		w.logger.Warn("Failed to join chat room", slog.String("chat_id", session.ChatID), slog.Any("error", err))
	}

	return session, nil
}

// Send appends the message optimistically, then confirms or rolls back that
// exact entry once the backend answers.
func (w *CustomerWidget) Send(ctx context.Context, content string) (CustomerView, error) {
	content = strings.TrimSpace(html.UnescapeString(w.policy.Sanitize(content)))
	if content == "" {
		return w.View(), appErrors.ValidationError("Message content is required")
	}

	w.mu.Lock()
	if w.state != StateActive {
		w.mu.Unlock()
		return w.View(), appErrors.ConflictError("Chat is not active")
	}
	if err := w.inFlight.acquire(actionSend); err != nil {
		w.mu.Unlock()
		return w.View(), err
	}

	pending := models.Message{
		Sender:     models.SenderCustomer,
		SenderName: w.customer.Name,
		Content:    content,
		CreatedAt:  w.now(),
		ClientID:   uuid.New().String(),
	}
	w.log.AppendPending(pending)
	chatID := w.chatID
	gen := w.generation
	w.lastUsed = w.now()
	w.mu.Unlock()

	stored, err := w.api.SendChatMessage(ctx, models.ChatMessageRequest{
		ChatID:     chatID,
		Content:    content,
		SenderName: pending.SenderName,
		ClientID:   pending.ClientID,
	})

	w.mu.Lock()
	defer w.mu.Unlock()

	w.inFlight.release(actionSend)

	if gen != w.generation {
		return w.viewLocked(), nil
	}

	if err != nil {
		w.log.Rollback(pending.ClientID)
		metrics.ChatMessages.WithLabelValues(string(models.SenderCustomer), "failed").Inc()
		w.logger.Warn("Chat message not delivered", slog.String("chat_id", chatID), slog.Any("error", err))
		return w.viewLocked(), err
	}

	w.log.Confirm(pending.ClientID, *stored)
	metrics.ChatMessages.WithLabelValues(string(models.SenderCustomer), "sent").Inc()

	return w.viewLocked(), nil
}

// Typing forwards a typing indicator. Start notifications beyond the
// configured rate are dropped; stop notifications always go out.
func (w *CustomerWidget) Typing(ctx context.Context, isTyping bool) error {
	w.mu.Lock()
	if w.state != StateActive {
		w.mu.Unlock()
		return appErrors.ConflictError("Chat is not active")
	}
	ev := models.TypingEvent{ChatID: w.chatID, IsTyping: isTyping, SenderName: w.customer.Name}
	w.lastUsed = w.now()
	w.mu.Unlock()

	if isTyping && !w.typing.Allow() {
		return nil
	}

	if err := w.transport.Typing(ctx, ev); err != nil {
		w.logger.Debug("Typing notification dropped", slog.Any("error", err))
	}
	return nil
}

func (w *CustomerWidget) handleEvent(event string, data json.RawMessage) {
	switch event {
	case realtime.EventNewMessage:
		var ev models.NewMessageEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			w.logger.Warn("Malformed newMessage event", slog.Any("error", err))
			return
		}

		w.mu.Lock()
		defer w.mu.Unlock()

		// own messages come back through the room; only the other side is appended
		if w.state != StateActive || ev.ChatID != w.chatID || ev.Message.Sender == models.SenderCustomer {
			return
		}
		w.log.Append(ev.Message)
		metrics.ChatMessages.WithLabelValues(string(models.SenderCustomer), "received").Inc()

	case realtime.EventChatClosed:
		var ev models.ChatClosedEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			w.logger.Warn("Malformed chatClosed event", slog.Any("error", err))
			return
		}

		w.mu.Lock()
		if ev.ChatID == "" || ev.ChatID != w.chatID || w.state == StateClosed {
			w.mu.Unlock()
			return
		}
		w.state = StateClosed
		w.mu.Unlock()

		w.logger.Info("Chat closed by admin", slog.String("chat_id", ev.ChatID))
	}
}

func (w *CustomerWidget) idleSince() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.lastUsed
}

// release leaves the chat room and closes the transport. Requests still in
// flight resolve into the discarded generation.
func (w *CustomerWidget) release(ctx context.Context) {
	w.mu.Lock()
	w.generation++
	chatID := w.chatID
	w.mu.Unlock()

	w.unsubscribe()

	if chatID != "" {
		if err := w.transport.LeaveChat(ctx, chatID); err != nil {
			w.logger.Debug("Leave chat failed", slog.Any("error", err))
		}
	}
	if err := w.transport.Close(); err != nil {
		w.logger.Warn("Failed to close transport", slog.Any("error", err))
	}
}
