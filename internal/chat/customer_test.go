package chat_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/aaravmahajanofficial/ebike-storefront/internal/chat"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/chat/chattest"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/config"
	appErrors "github.com/aaravmahajanofficial/ebike-storefront/internal/errors"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/models"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/realtime"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/services/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type chatFixture struct {
	api       *mocks.StoreAPI
	prefs     *mocks.PreferencesService
	clock     *fakeClock
	manager   *chat.Manager
	mu        sync.Mutex
	transport []*chattest.Transport
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()

	f := &chatFixture{
		api:   &mocks.StoreAPI{},
		prefs: &mocks.PreferencesService{},
		clock: &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)},
	}
	factory := func() chat.Transport {
		tr := chattest.NewTransport()
		f.mu.Lock()
		f.transport = append(f.transport, tr)
		f.mu.Unlock()
		return tr
	}
	cfg := config.Chat{IdleTTL: 30 * time.Minute, TypingInterval: time.Hour}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f.manager = chat.NewManagerWithClock(f.api, f.prefs, factory, cfg, logger, f.clock.Now)
	t.Cleanup(func() { _ = f.manager.Shutdown(context.Background()) })

	return f
}

func (f *chatFixture) lastTransport() *chattest.Transport {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.transport[len(f.transport)-1]
}

var (
	customerAn = models.ChatCustomer{Name: "An", Email: "an@example.com"}
	msgA       = models.Message{ID: "a", Sender: models.SenderCustomer, Content: "A"}
	msgB       = models.Message{ID: "b", Sender: models.SenderAdmin, Content: "B"}
)

// startActive brings the widget for s1 into Active on chat c1 with history [A, B].
func startActive(t *testing.T, f *chatFixture) (*chat.CustomerWidget, *chattest.Transport) {
	t.Helper()
	ctx := t.Context()

	widget, err := f.manager.Customer("s1")
	require.NoError(t, err)

	f.prefs.On("ChatIdentity", ctx, "s1").Return(nil, "", nil).Once()
	f.api.On("CreateChat", ctx, mock.AnythingOfType("models.CreateChatRequest")).
		Return(&models.ChatSession{ChatID: "c1", Messages: []models.Message{msgA, msgB}, Status: models.ChatStatusOpen}, nil).Once()
	f.prefs.On("SaveChatIdentity", ctx, "s1", mock.Anything, mock.AnythingOfType("string")).Return(nil).Once()

	view, err := widget.Start(ctx, customerAn)
	require.NoError(t, err)
	require.Equal(t, chat.StateActive, view.State)

	return widget, f.lastTransport()
}

func contents(entries []chat.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Content)
	}
	return out
}

func TestCustomerStart(t *testing.T) {
	t.Run("Failure - Empty Email Makes No Backend Call", func(t *testing.T) {
		// Arrange
		f := newChatFixture(t)
		widget, err := f.manager.Customer("s1")
		require.NoError(t, err)

		// Act
		view, err := widget.Start(t.Context(), models.ChatCustomer{Name: "An", Email: "  "})

		// Assert
		require.Error(t, err)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeValidation))
		assert.Equal(t, chat.StateNoSession, view.State)
		f.api.AssertNotCalled(t, "CreateChat", mock.Anything, mock.Anything)
		f.prefs.AssertNotCalled(t, "ChatIdentity", mock.Anything, mock.Anything)
	})

	t.Run("Success - Creates Chat And Joins Room", func(t *testing.T) {
		// Arrange
		f := newChatFixture(t)
		ctx := t.Context()
		widget, err := f.manager.Customer("s1")
		require.NoError(t, err)

		f.prefs.On("ChatIdentity", ctx, "s1").Return(nil, "", nil).Once()
		f.api.On("CreateChat", ctx, mock.MatchedBy(func(req models.CreateChatRequest) bool {
			return req.SessionID != "" && req.CustomerName == "An" && req.CustomerEmail == "an@example.com"
		})).Return(&models.ChatSession{ChatID: "c1", Messages: []models.Message{msgA}, Status: models.ChatStatusOpen}, nil).Once()
		f.prefs.On("SaveChatIdentity", ctx, "s1", &customerAn, mock.AnythingOfType("string")).Return(nil).Once()

		// Act
		view, err := widget.Start(ctx, models.ChatCustomer{Name: " An ", Email: "an@example.com"})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, chat.StateActive, view.State)
		assert.Equal(t, "c1", view.ChatID)
		assert.Equal(t, []string{"A"}, contents(view.Messages))
		assert.Equal(t, []string{"chat:c1"}, f.lastTransport().Rooms())
		f.api.AssertExpectations(t)
		f.prefs.AssertExpectations(t)
	})

	t.Run("Success - Reuses Stored Chat Session Id", func(t *testing.T) {
		// Arrange
		f := newChatFixture(t)
		ctx := t.Context()
		widget, err := f.manager.Customer("s1")
		require.NoError(t, err)

		f.prefs.On("ChatIdentity", ctx, "s1").Return(&customerAn, "chat-sid-1", nil)
		f.api.On("CreateChat", ctx, mock.MatchedBy(func(req models.CreateChatRequest) bool {
			return req.SessionID == "chat-sid-1"
		})).Return(&models.ChatSession{ChatID: "c1", Status: models.ChatStatusOpen}, nil).Once()
		f.prefs.On("SaveChatIdentity", ctx, "s1", &customerAn, "chat-sid-1").Return(nil).Once()

		// Act
		view, err := widget.Restore(ctx)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, chat.StateActive, view.State)
		f.api.AssertExpectations(t)
	})

	t.Run("Success - Restore Without Identity Stays In NoSession", func(t *testing.T) {
		f := newChatFixture(t)
		widget, err := f.manager.Customer("s1")
		require.NoError(t, err)
		f.prefs.On("ChatIdentity", t.Context(), "s1").Return(nil, "", nil).Once()

		view, err := widget.Restore(t.Context())

		require.NoError(t, err)
		assert.Equal(t, chat.StateNoSession, view.State)
		f.api.AssertNotCalled(t, "CreateChat", mock.Anything, mock.Anything)
	})

	t.Run("Failure - Backend Error Returns To NoSession And Retry Works", func(t *testing.T) {
		// Arrange
		f := newChatFixture(t)
		ctx := t.Context()
		widget, err := f.manager.Customer("s1")
		require.NoError(t, err)

		f.prefs.On("ChatIdentity", ctx, "s1").Return(nil, "", nil)
		f.api.On("CreateChat", ctx, mock.Anything).Return(nil, appErrors.NetworkError("Store API is unreachable")).Once()
		f.api.On("CreateChat", ctx, mock.Anything).Return(&models.ChatSession{ChatID: "c1", Status: models.ChatStatusOpen}, nil).Once()
		f.prefs.On("SaveChatIdentity", ctx, "s1", mock.Anything, mock.Anything).Return(nil).Once()

		// Act
		view, err := widget.Start(ctx, customerAn)

		// Assert
		require.Error(t, err)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeNetwork))
		assert.Equal(t, chat.StateNoSession, view.State)

		// Act
		view, err = widget.Start(ctx, customerAn)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, chat.StateActive, view.State)
	})

	t.Run("Success - Late Result After Release Is Ignored", func(t *testing.T) {
		// Arrange
		f := newChatFixture(t)
		ctx := t.Context()
		widget, err := f.manager.Customer("s1")
		require.NoError(t, err)

		f.prefs.On("ChatIdentity", ctx, "s1").Return(nil, "", nil).Once()
		f.api.On("CreateChat", ctx, mock.Anything).
			Run(func(mock.Arguments) { f.manager.ReleaseCustomer(ctx, "s1") }).
			Return(&models.ChatSession{ChatID: "c1", Status: models.ChatStatusOpen}, nil).Once()
		f.prefs.On("SaveChatIdentity", ctx, "s1", mock.Anything, mock.Anything).Return(nil).Once()

		// Act
		view, err := widget.Start(ctx, customerAn)

		// Assert
		require.NoError(t, err)
		assert.NotEqual(t, chat.StateActive, view.State)
		assert.Empty(t, view.ChatID)
		assert.True(t, f.lastTransport().Closed())
	})
}

func TestCustomerSend(t *testing.T) {
	t.Run("Success - Confirmed In Place", func(t *testing.T) {
		// Arrange
		f := newChatFixture(t)
		widget, _ := startActive(t, f)
		ctx := t.Context()
		f.api.On("SendChatMessage", ctx, mock.MatchedBy(func(req models.ChatMessageRequest) bool {
			return req.ChatID == "c1" && req.Content == "C" && req.ClientID != "" && req.SenderName == "An"
		})).Return(&models.Message{ID: "c", Sender: models.SenderCustomer, Content: "C"}, nil).Once()

		// Act
		view, err := widget.Send(ctx, "C")

		// Assert
		require.NoError(t, err)
		require.Len(t, view.Messages, 3)
		last := view.Messages[2]
		assert.Equal(t, "c", last.ID)
		assert.False(t, last.Pending)
		assert.NotEmpty(t, last.ClientID)
	})

	t.Run("Failure - Offline Send Leaves History Intact", func(t *testing.T) {
		// Arrange
		f := newChatFixture(t)
		widget, _ := startActive(t, f)
		ctx := t.Context()
		f.api.On("SendChatMessage", ctx, mock.Anything).
			Run(func(mock.Arguments) {
				// the optimistic entry is visible while the request runs
				view := widget.View()
				require.Len(t, view.Messages, 3)
				assert.True(t, view.Messages[2].Pending)
			}).
			Return(nil, appErrors.NetworkError("Store API is unreachable")).Once()

		// Act
		view, err := widget.Send(ctx, "C")

		// Assert
		require.Error(t, err)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeNetwork))
		assert.Equal(t, []string{"A", "B"}, contents(view.Messages))
	})

	t.Run("Failure - Rollback Keeps Concurrent Inbound Message", func(t *testing.T) {
		// Arrange
		f := newChatFixture(t)
		widget, tr := startActive(t, f)
		ctx := t.Context()
		f.api.On("SendChatMessage", ctx, mock.Anything).
			Run(func(mock.Arguments) {
				_ = tr.Deliver(realtime.EventNewMessage, models.NewMessageEvent{
					ChatID:  "c1",
					Message: models.Message{ID: "d", Sender: models.SenderAdmin, Content: "D"},
				})
			}).
			Return(nil, errors.New("offline")).Once()

		// Act
		view, err := widget.Send(ctx, "C")

		// Assert
		require.Error(t, err)
		assert.Equal(t, []string{"A", "B", "D"}, contents(view.Messages))
	})

	t.Run("Failure - Second Send While One Is In Flight", func(t *testing.T) {
		// Arrange
		f := newChatFixture(t)
		widget, _ := startActive(t, f)
		ctx := t.Context()
		var secondErr error
		f.api.On("SendChatMessage", ctx, mock.Anything).
			Run(func(mock.Arguments) {
				_, secondErr = widget.Send(ctx, "again")
			}).
			Return(&models.Message{ID: "c", Sender: models.SenderCustomer, Content: "C"}, nil).Once()

		// Act
		_, err := widget.Send(ctx, "C")

		// Assert
		require.NoError(t, err)
		require.Error(t, secondErr)
		assert.ErrorIs(t, secondErr, chat.ErrActionInFlight)
		assert.True(t, appErrors.HasCode(secondErr, appErrors.ErrCodeConflict))
		f.api.AssertNumberOfCalls(t, "SendChatMessage", 1)
	})

	t.Run("Success - Markup Is Stripped", func(t *testing.T) {
		f := newChatFixture(t)
		widget, _ := startActive(t, f)
		ctx := t.Context()
		f.api.On("SendChatMessage", ctx, mock.MatchedBy(func(req models.ChatMessageRequest) bool {
			return req.Content == "hi & bye"
		})).Return(&models.Message{ID: "c", Content: "hi & bye"}, nil).Once()

		_, err := widget.Send(ctx, "<b>hi</b> & bye<script>alert(1)</script>")

		require.NoError(t, err)
		f.api.AssertExpectations(t)
	})

	t.Run("Failure - Empty After Sanitising", func(t *testing.T) {
		f := newChatFixture(t)
		widget, _ := startActive(t, f)

		_, err := widget.Send(t.Context(), "<img src=x>")

		require.Error(t, err)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeValidation))
	})

	t.Run("Failure - No Active Chat", func(t *testing.T) {
		f := newChatFixture(t)
		widget, err := f.manager.Customer("s1")
		require.NoError(t, err)

		_, err = widget.Send(t.Context(), "hello")

		require.Error(t, err)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeConflict))
	})
}

func TestCustomerReceive(t *testing.T) {
	t.Run("Success - Only Admin Messages For The Open Chat Are Appended", func(t *testing.T) {
		// Arrange
		f := newChatFixture(t)
		widget, tr := startActive(t, f)

		// Act
		require.NoError(t, tr.Deliver(realtime.EventNewMessage, models.NewMessageEvent{
			ChatID: "other", Message: models.Message{Sender: models.SenderAdmin, Content: "elsewhere"},
		}))
		require.NoError(t, tr.Deliver(realtime.EventNewMessage, models.NewMessageEvent{
			ChatID: "c1", Message: models.Message{Sender: models.SenderCustomer, Content: "echo"},
		}))
		require.NoError(t, tr.Deliver(realtime.EventNewMessage, models.NewMessageEvent{
			ChatID: "c1", Message: models.Message{Sender: models.SenderAdmin, Content: "reply"},
		}))

		// Assert
		assert.Equal(t, []string{"A", "B", "reply"}, contents(widget.View().Messages))
	})

	t.Run("Success - Chat Closed Event", func(t *testing.T) {
		// Arrange
		f := newChatFixture(t)
		widget, tr := startActive(t, f)

		// Act
		require.NoError(t, tr.Deliver(realtime.EventChatClosed, models.ChatClosedEvent{ChatID: "c1"}))

		// Assert
		assert.Equal(t, chat.StateClosed, widget.View().State)
		_, err := widget.Send(t.Context(), "still there?")
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeConflict))
	})
}

func TestCustomerTyping(t *testing.T) {
	// Arrange
	f := newChatFixture(t)
	widget, tr := startActive(t, f)
	ctx := t.Context()

	// Act
	require.NoError(t, widget.Typing(ctx, true))
	require.NoError(t, widget.Typing(ctx, true))
	require.NoError(t, widget.Typing(ctx, false))

	// Assert
	events := tr.TypingEvents()
	require.Len(t, events, 2)
	assert.True(t, events[0].IsTyping)
	assert.False(t, events[1].IsTyping)
	assert.Equal(t, "c1", events[0].ChatID)
	assert.Equal(t, "An", events[0].SenderName)
}
