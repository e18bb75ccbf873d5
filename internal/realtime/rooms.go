package realtime

import (
	"slices"
	"strings"
	"sync"
)

// AdminRoom receives every new message across all chats.
const AdminRoom = "admin"

const chatRoomPrefix = "chat:"

func ChatRoom(chatID string) string {
	return chatRoomPrefix + chatID
}

// Rooms tracks the rooms joined on one connection. Joins are reference
// counted so several listeners can share a room; only the first join and
// the last leave reach the server.
type Rooms struct {
	mu     sync.Mutex
	counts map[string]int
}

func NewRooms() *Rooms {
	return &Rooms{counts: make(map[string]int)}
}

// Join reports whether this was the first reference to room.
func (r *Rooms) Join(room string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.counts[room]++
	return r.counts[room] == 1
}

// Leave reports whether this dropped the last reference to room. Leaving a
// room that was never joined is a no-op.
func (r *Rooms) Leave(room string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.counts[room]
	if !ok {
		return false
	}
	if n <= 1 {
		delete(r.counts, room)
		return true
	}
	r.counts[room] = n - 1
	return false
}

func (r *Rooms) Has(room string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.counts[room] > 0
}

// Joined returns the joined rooms, admin room first, chat rooms sorted.
func (r *Rooms) Joined() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms := make([]string, 0, len(r.counts))
	for room := range r.counts {
		rooms = append(rooms, room)
	}
	slices.SortFunc(rooms, func(a, b string) int {
		if a == AdminRoom {
			return -1
		}
		if b == AdminRoom {
			return 1
		}
		return strings.Compare(a, b)
	})
	return rooms
}

// ChatID extracts the chat id from a chat room name.
func ChatID(room string) (string, bool) {
	return strings.CutPrefix(room, chatRoomPrefix)
}
