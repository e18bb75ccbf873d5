// Package chat holds the client side of the support chat: one customer widget
// per storefront session and one console per signed-in admin, each riding its
// own realtime connection.
package chat

import (
	"context"
	"errors"
	"net/http"

	appErrors "github.com/aaravmahajanofficial/ebike-storefront/internal/errors"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/models"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/realtime"
)

// Transport is the realtime connection a widget or console listens on.
// *realtime.Client implements it.
type Transport interface {
	Subscribe(h realtime.Handler) func()
	JoinAdmin(ctx context.Context) error
	JoinChat(ctx context.Context, chatID string) error
	LeaveChat(ctx context.Context, chatID string) error
	Typing(ctx context.Context, ev models.TypingEvent) error
	Close() error
}

type TransportFactory func() Transport

var ErrActionInFlight = errors.New("action already in flight")

func errShuttingDown() error {
	return appErrors.NewAppError(appErrors.ErrCodeInternal, "Chat is shutting down", http.StatusServiceUnavailable)
}

type action int

const (
	actionStart action = iota
	actionSend
	actionOpen
	actionClose
)

func (a action) String() string {
	switch a {
	case actionStart:
		return "start"
	case actionSend:
		return "send"
	case actionOpen:
		return "open"
	case actionClose:
		return "close"
	default:
		return "unknown"
	}
}

// inFlight holds one flag per logical action. Callers hold the owner's mutex.
type inFlight map[action]bool

func (f inFlight) acquire(a action) error {
	if f[a] {
		return appErrors.ConflictError("Another " + a.String() + " request is still running").WithError(ErrActionInFlight)
	}
	f[a] = true
	return nil
}

func (f inFlight) release(a action) {
	delete(f, a)
}
