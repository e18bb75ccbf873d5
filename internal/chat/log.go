package chat

import "github.com/aaravmahajanofficial/ebike-storefront/internal/models"

// Entry is one message in a local log. Pending entries were appended before
// the backend confirmed them.
type Entry struct {
	models.Message
	Pending bool `json:"pending,omitempty"`
}

// MessageLog is an append-only message history with optimistic entries
// addressed by correlation id. It is not safe for concurrent use; owners
// guard it with their own mutex.
type MessageLog struct {
	entries []Entry
}

func (l *MessageLog) Reset(msgs []models.Message) {
	l.entries = make([]Entry, 0, len(msgs))
	for _, m := range msgs {
		l.entries = append(l.entries, Entry{Message: m})
	}
}

func (l *MessageLog) Append(msg models.Message) {
	l.entries = append(l.entries, Entry{Message: msg})
}

// AppendPending adds msg as an unconfirmed entry. msg.ClientID must be set.
func (l *MessageLog) AppendPending(msg models.Message) {
	l.entries = append(l.entries, Entry{Message: msg, Pending: true})
}

// Confirm replaces the pending entry for clientID in place with the stored
// message. It reports false when no such entry exists.
func (l *MessageLog) Confirm(clientID string, stored models.Message) bool {
	i := l.indexPending(clientID)
	if i < 0 {
		return false
	}
	stored.ClientID = clientID
	l.entries[i] = Entry{Message: stored}
	return true
}

// Rollback removes exactly the pending entry for clientID, wherever it sits.
func (l *MessageLog) Rollback(clientID string) bool {
	i := l.indexPending(clientID)
	if i < 0 {
		return false
	}
	l.entries = append(l.entries[:i], l.entries[i+1:]...)
	return true
}

func (l *MessageLog) Len() int {
	return len(l.entries)
}

func (l *MessageLog) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *MessageLog) indexPending(clientID string) int {
	if clientID == "" {
		return -1
	}
	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].Pending && l.entries[i].ClientID == clientID {
			return i
		}
	}
	return -1
}
