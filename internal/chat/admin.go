package chat

import (
	"context"
	"encoding/json"
	"html"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	appErrors "github.com/aaravmahajanofficial/ebike-storefront/internal/errors"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/metrics"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/models"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/realtime"
	"github.com/aaravmahajanofficial/ebike-storefront/pkg/storeapi"
	"github.com/microcosm-cc/bluemonday"
)

const refreshTimeout = 10 * time.Second

type OpenChat struct {
	ChatID        string            `json:"chatId"`
	CustomerName  string            `json:"customerName"`
	CustomerEmail string            `json:"customerEmail"`
	CustomerPhone string            `json:"customerPhone,omitempty"`
	Status        models.ChatStatus `json:"status"`
	Messages      []Entry           `json:"messages"`
}

type AdminView struct {
	Chats []models.ChatSummary `json:"chats"`
	Stats models.UnreadStats   `json:"stats"`
	Open  *OpenChat            `json:"open,omitempty"`
}

// AdminConsole is the chat back office of one admin. It listens on the admin
// room for every conversation and on one chat room for the open conversation.
// Sends are appended only after the backend confirms them.
type AdminConsole struct {
	adminID   string
	adminName string
	api       storeapi.Client
	transport Transport
	policy    *bluemonday.Policy
	logger    *slog.Logger
	now       func() time.Time

	unsubscribe func()
	refresh     chan struct{}
	stop        chan struct{}
	wg          sync.WaitGroup

	mu         sync.Mutex
	token      string
	joined     bool
	chats      []models.ChatSummary
	stats      models.UnreadStats
	open       *models.ChatSession
	log        MessageLog
	generation uint64
	inFlight   inFlight
	lastUsed   time.Time
}

func newAdminConsole(adminID, adminName string, api storeapi.Client, transport Transport,
	logger *slog.Logger, now func() time.Time) *AdminConsole {

	a := &AdminConsole{
		adminID:   adminID,
		adminName: adminName,
		api:       api,
		transport: transport,
		policy:    bluemonday.StrictPolicy(),
		logger:    logger.With(slog.String("role", string(models.SenderAdmin)), slog.String("admin_id", adminID)),
		now:       now,
		refresh:   make(chan struct{}, 1),
		stop:      make(chan struct{}),
		inFlight:  make(inFlight),
		lastUsed:  now(),
	}
	a.unsubscribe = transport.Subscribe(a.handleEvent)

	a.wg.Add(1)
	go a.refreshLoop()

	return a
}

// SetToken records the bearer token forwarded on backend calls.
func (a *AdminConsole) SetToken(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.token = token
	a.lastUsed = a.now()
}

func (a *AdminConsole) View() AdminView {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.viewLocked()
}

func (a *AdminConsole) viewLocked() AdminView {
	view := AdminView{
		Chats: append([]models.ChatSummary(nil), a.chats...),
		Stats: a.stats,
	}
	if a.open != nil {
		view.Open = &OpenChat{
			ChatID:        a.open.ChatID,
			CustomerName:  a.open.CustomerName,
			CustomerEmail: a.open.CustomerEmail,
			CustomerPhone: a.open.CustomerPhone,
			Status:        a.open.Status,
			Messages:      a.log.Entries(),
		}
	}
	return view
}

// Load joins the admin room on first use and fetches the conversation list
// and unread stats.
func (a *AdminConsole) Load(ctx context.Context) (AdminView, error) {
	a.mu.Lock()
	join := !a.joined
	a.joined = true
	a.lastUsed = a.now()
	a.mu.Unlock()

	if join {
		if err := a.transport.JoinAdmin(ctx); err != nil {
			a.logger.Warn("Failed to join admin room", slog.Any("error", err))
		}
	}

	if err := a.refreshAll(ctx); err != nil {
		return a.View(), err
	}
	return a.View(), nil
}

// Stats refetches the unread counters only.
func (a *AdminConsole) Stats(ctx context.Context) (models.UnreadStats, error) {
	token := a.currentToken()

	stats, err := a.api.ChatUnreadStats(ctx, token)
	if err != nil {
		return models.UnreadStats{}, err
	}

	a.mu.Lock()
	a.stats = *stats
	a.mu.Unlock()

	return *stats, nil
}

// Open switches the console to chatID: leaves the previous chat room, joins
// the new one and loads its full history.
func (a *AdminConsole) Open(ctx context.Context, chatID string) (AdminView, error) {
	if strings.TrimSpace(chatID) == "" {
		return a.View(), appErrors.ValidationError("Chat id is required")
	}

	a.mu.Lock()
	if err := a.inFlight.acquire(actionOpen); err != nil {
		a.mu.Unlock()
		return a.View(), err
	}
	prev := ""
	if a.open != nil {
		prev = a.open.ChatID
	}
	a.generation++
	gen := a.generation
	token := a.token
	a.lastUsed = a.now()
	a.mu.Unlock()

	if prev != chatID {
		if prev != "" {
			a.leaveRoom(ctx, prev)
		}
		if err := a.transport.JoinChat(ctx, chatID); err != nil {
			a.logger.Warn("Failed to join chat room", slog.String("chat_id", chatID), slog.Any("error", err))
		}
	}

	session, err := a.api.GetChat(ctx, token, chatID)

	a.mu.Lock()
	a.inFlight.release(actionOpen)

	if gen != a.generation {
		view := a.viewLocked()
		a.mu.Unlock()

		// drop the reference taken above; a newer open of the same chat holds its own
		if prev != chatID {
			a.leaveRoom(ctx, chatID)
		}
		return view, nil
	}

	if err != nil {
		if prev != chatID {
			a.open = nil
			a.log.Reset(nil)
		}
		a.mu.Unlock()

		if prev != chatID {
			a.leaveRoom(ctx, chatID)
		}
		if storeapi.IsNotFound(err) {
			return a.View(), appErrors.NotFoundError("Chat not found").WithDetail(chatID).WithError(err)
		}
		return a.View(), err
	}

	a.open = session
	a.log.Reset(session.Messages)
	a.mu.Unlock()

	a.refreshAfterMutation(ctx)

	return a.View(), nil
}

// Leave closes the open conversation view without touching the chat itself.
func (a *AdminConsole) Leave(ctx context.Context) AdminView {
	a.mu.Lock()
	a.generation++
	chatID := ""
	if a.open != nil {
		chatID = a.open.ChatID
	}
	a.open = nil
	a.log.Reset(nil)
	a.mu.Unlock()

	if chatID != "" {
		a.leaveRoom(ctx, chatID)
	}
	return a.View()
}

// Send posts a reply into the open chat and appends it once stored.
func (a *AdminConsole) Send(ctx context.Context, content string) (AdminView, error) {
	content = strings.TrimSpace(html.UnescapeString(a.policy.Sanitize(content)))
	if content == "" {
		return a.View(), appErrors.ValidationError("Message content is required")
	}

	a.mu.Lock()
	if a.open == nil {
		a.mu.Unlock()
		return a.View(), appErrors.ConflictError("No chat is open")
	}
	if a.open.Status == models.ChatStatusClosed {
		a.mu.Unlock()
		return a.View(), appErrors.ConflictError("Chat has been closed")
	}
	if err := a.inFlight.acquire(actionSend); err != nil {
		a.mu.Unlock()
		return a.View(), err
	}
	chatID := a.open.ChatID
	gen := a.generation
	token := a.token
	a.lastUsed = a.now()
	a.mu.Unlock()

	stored, err := a.api.AdminSendMessage(ctx, token, models.ChatMessageRequest{
		ChatID:     chatID,
		Content:    content,
		SenderName: a.adminName,
	})

	a.mu.Lock()
	defer a.mu.Unlock()

	a.inFlight.release(actionSend)

	if err != nil {
		metrics.ChatMessages.WithLabelValues(string(models.SenderAdmin), "failed").Inc()
		a.logger.Warn("Admin reply not delivered", slog.String("chat_id", chatID), slog.Any("error", err))
		return a.viewLocked(), err
	}

	metrics.ChatMessages.WithLabelValues(string(models.SenderAdmin), "sent").Inc()

	if gen == a.generation && a.open != nil && a.open.ChatID == chatID {
		a.log.Append(*stored)
	}
	a.touchSummaryLocked(chatID, stored.CreatedAt)

	return a.viewLocked(), nil
}

// CloseChat ends a conversation. There is no way back: closed chats accept
// no further messages.
func (a *AdminConsole) CloseChat(ctx context.Context, chatID string) (AdminView, error) {
	a.mu.Lock()
	if err := a.inFlight.acquire(actionClose); err != nil {
		a.mu.Unlock()
		return a.View(), err
	}
	token := a.token
	a.lastUsed = a.now()
	a.mu.Unlock()

	err := a.api.CloseChat(ctx, token, chatID)

	a.mu.Lock()
	a.inFlight.release(actionClose)
	if err != nil {
		a.mu.Unlock()
		if storeapi.IsNotFound(err) {
			return a.View(), appErrors.NotFoundError("Chat not found").WithDetail(chatID).WithError(err)
		}
		return a.View(), err
	}
	a.markClosedLocked(chatID)
	a.mu.Unlock()

	a.logger.Info("Chat closed", slog.String("chat_id", chatID))
	a.refreshAfterMutation(ctx)

	return a.View(), nil
}

func (a *AdminConsole) Typing(ctx context.Context, isTyping bool) error {
	a.mu.Lock()
	if a.open == nil {
		a.mu.Unlock()
		return appErrors.ConflictError("No chat is open")
	}
	ev := models.TypingEvent{ChatID: a.open.ChatID, IsTyping: isTyping, SenderName: a.adminName}
	a.mu.Unlock()

	if err := a.transport.Typing(ctx, ev); err != nil {
		a.logger.Debug("Typing notification dropped", slog.Any("error", err))
	}
	return nil
}

func (a *AdminConsole) handleEvent(event string, data json.RawMessage) {
	switch event {
	case realtime.EventNewMessage:
		var ev models.NewMessageEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			a.logger.Warn("Malformed newMessage event", slog.Any("error", err))
			return
		}

		a.mu.Lock()
		isOpen := a.open != nil && a.open.ChatID == ev.ChatID
		if isOpen && ev.Message.Sender != models.SenderAdmin {
			a.log.Append(ev.Message)
		}
		if i := a.summaryIndexLocked(ev.ChatID); i >= 0 {
			if ev.Message.Sender == models.SenderCustomer && !isOpen {
				a.chats[i].UnreadCount++
			}
		}
		a.touchSummaryLocked(ev.ChatID, ev.Message.CreatedAt)
		a.mu.Unlock()

		if ev.Message.Sender == models.SenderCustomer {
			metrics.ChatMessages.WithLabelValues(string(models.SenderAdmin), "received").Inc()
		}
		a.requestRefresh()

	case realtime.EventChatClosed:
		var ev models.ChatClosedEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			a.logger.Warn("Malformed chatClosed event", slog.Any("error", err))
			return
		}

		a.mu.Lock()
		a.markClosedLocked(ev.ChatID)
		a.mu.Unlock()

		a.requestRefresh()
	}
}

func (a *AdminConsole) summaryIndexLocked(chatID string) int {
	for i := range a.chats {
		if a.chats[i].ChatID == chatID {
			return i
		}
	}
	return -1
}

// touchSummaryLocked moves chatID's last activity forward and keeps the list
// ordered newest first.
func (a *AdminConsole) touchSummaryLocked(chatID string, at time.Time) {
	i := a.summaryIndexLocked(chatID)
	if i < 0 || at.Before(a.chats[i].LastMessageAt) {
		return
	}
	a.chats[i].LastMessageAt = at
	sortSummaries(a.chats)
}

func (a *AdminConsole) markClosedLocked(chatID string) {
	if i := a.summaryIndexLocked(chatID); i >= 0 {
		a.chats[i].Status = models.ChatStatusClosed
	}
	if a.open != nil && a.open.ChatID == chatID {
		a.open.Status = models.ChatStatusClosed
	}
}

func (a *AdminConsole) leaveRoom(ctx context.Context, chatID string) {
	if err := a.transport.LeaveChat(ctx, chatID); err != nil {
		a.logger.Debug("Leave chat failed", slog.String("chat_id", chatID), slog.Any("error", err))
	}
}

func (a *AdminConsole) currentToken() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.token
}

// refreshAll replaces the conversation list and unread stats with the
// backend's view. Counters are never derived locally.
func (a *AdminConsole) refreshAll(ctx context.Context) error {
	token := a.currentToken()

	chats, err := a.api.ListChats(ctx, token)
	if err != nil {
		return err
	}
	stats, err := a.api.ChatUnreadStats(ctx, token)
	if err != nil {
		return err
	}

	chats = append([]models.ChatSummary(nil), chats...)
	sortSummaries(chats)

	a.mu.Lock()
	a.chats = chats
	a.stats = *stats
	a.mu.Unlock()

	return nil
}

func (a *AdminConsole) refreshAfterMutation(ctx context.Context) {
	if err := a.refreshAll(ctx); err != nil {
		a.logger.Warn("Failed to refresh chat list", slog.Any("error", err))
	}
}

func (a *AdminConsole) requestRefresh() {
	select {
	case a.refresh <- struct{}{}:
	default:
	}
}

func (a *AdminConsole) refreshLoop() {
	defer a.wg.Done()

	for {
		select {
		case <-a.stop:
			return
		case <-a.refresh:
			ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
			a.refreshAfterMutation(ctx)
			cancel()
		}
	}
}

func (a *AdminConsole) idleSince() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.lastUsed
}

func (a *AdminConsole) release(ctx context.Context) {
	a.unsubscribe()
	close(a.stop)
	a.wg.Wait()

	a.Leave(ctx)

	if err := a.transport.Close(); err != nil {
		a.logger.Warn("Failed to close transport", slog.Any("error", err))
	}
}

func sortSummaries(chats []models.ChatSummary) {
	sort.SliceStable(chats, func(i, j int) bool {
		return chats[i].LastMessageAt.After(chats[j].LastMessageAt)
	})
}
