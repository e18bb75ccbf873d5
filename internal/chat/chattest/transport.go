// Package chattest provides an in-memory chat transport for tests.
package chattest

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/aaravmahajanofficial/ebike-storefront/internal/models"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/realtime"
)

// Transport records every emitted signal and lets tests deliver inbound
// events synchronously.
type Transport struct {
	mu     sync.Mutex
	subs   map[int]realtime.Handler
	nextID int
	rooms  *realtime.Rooms
	emits  []string
	typing []models.TypingEvent
	closed bool
}

func NewTransport() *Transport {
	return &Transport{subs: make(map[int]realtime.Handler), rooms: realtime.NewRooms()}
}

func (t *Transport) Subscribe(h realtime.Handler) func() {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextID
	t.nextID++
	t.subs[id] = h

	return func() {
		t.mu.Lock()
		delete(t.subs, id)
		t.mu.Unlock()
	}
}

func (t *Transport) JoinAdmin(context.Context) error {
	if t.rooms.Join(realtime.AdminRoom) {
		t.record(realtime.EventJoinAdmin)
	}
	return nil
}

func (t *Transport) JoinChat(_ context.Context, chatID string) error {
	if t.rooms.Join(realtime.ChatRoom(chatID)) {
		t.record(realtime.EventJoinChat + ":" + chatID)
	}
	return nil
}

func (t *Transport) LeaveChat(_ context.Context, chatID string) error {
	if t.rooms.Leave(realtime.ChatRoom(chatID)) {
		t.record(realtime.EventLeaveChat + ":" + chatID)
	}
	return nil
}

func (t *Transport) Typing(_ context.Context, ev models.TypingEvent) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.typing = append(t.typing, ev)
	t.emits = append(t.emits, realtime.EventTyping)
	return nil
}

func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	return nil
}

// Deliver hands an inbound event to every subscriber, in subscription order.
func (t *Transport) Deliver(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	t.mu.Lock()
	ids := make([]int, 0, len(t.subs))
	for id := range t.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	handlers := make([]realtime.Handler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, t.subs[id])
	}
	t.mu.Unlock()

	for _, h := range handlers {
		h(event, data)
	}
	return nil
}

// Emitted lists the signals sent so far, joins and leaves as "event:chatId".
func (t *Transport) Emitted() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return append([]string(nil), t.emits...)
}

func (t *Transport) TypingEvents() []models.TypingEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	return append([]models.TypingEvent(nil), t.typing...)
}

func (t *Transport) Rooms() []string {
	return t.rooms.Joined()
}

func (t *Transport) Subscribers() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.subs)
}

func (t *Transport) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.closed
}

func (t *Transport) record(event string) {
	t.mu.Lock()
	t.emits = append(t.emits, event)
	t.mu.Unlock()
}
