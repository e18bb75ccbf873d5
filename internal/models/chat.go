package models

import "time"

type SenderRole string

const (
	SenderCustomer SenderRole = "customer"
	SenderAdmin    SenderRole = "admin"
)

type ChatStatus string

const (
	ChatStatusOpen   ChatStatus = "open"
	ChatStatusClosed ChatStatus = "closed"
)

// Message is immutable once created except for Read.
type Message struct {
	ID         string     `json:"_id,omitempty"`
	Sender     SenderRole `json:"sender"`
	SenderName string     `json:"senderName,omitempty"`
	Content    string     `json:"content"`
	CreatedAt  time.Time  `json:"createdAt"`
	Read       bool       `json:"read,omitempty"`
	ClientID   string     `json:"clientId,omitempty"`
}

type ChatSession struct {
	ChatID        string     `json:"chatId"`
	SessionID     string     `json:"sessionId"`
	CustomerName  string     `json:"customerName"`
	CustomerEmail string     `json:"customerEmail"`
	CustomerPhone string     `json:"customerPhone,omitempty"`
	Messages      []Message  `json:"messages"`
	Status        ChatStatus `json:"status"`
}

// ChatSummary is one row of the admin conversation list.
type ChatSummary struct {
	ChatID        string     `json:"chatId"`
	CustomerName  string     `json:"customerName"`
	CustomerEmail string     `json:"customerEmail"`
	LastMessageAt time.Time  `json:"lastMessageAt"`
	UnreadCount   int        `json:"unreadCount"`
	Status        ChatStatus `json:"status"`
}

type UnreadStats struct {
	UnreadMessages int `json:"unreadMessages"`
	ActiveChats    int `json:"activeChats"`
}

// ChatCustomer is the identity a customer enters in the chat form. It is
// persisted so a returning customer is not asked again.
type ChatCustomer struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone,omitempty" validate:"omitempty,max=20"`
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

type TypingRequest struct {
	IsTyping bool `json:"isTyping"`
}

// Wire payloads exchanged with the backend.

type CreateChatRequest struct {
	SessionID     string `json:"sessionId"`
	CustomerEmail string `json:"customerEmail"`
	CustomerName  string `json:"customerName"`
	CustomerPhone string `json:"customerPhone,omitempty"`
}

type ChatMessageRequest struct {
	ChatID     string `json:"chatId"`
	Content    string `json:"content"`
	SenderName string `json:"senderName,omitempty"`
	ClientID   string `json:"clientId,omitempty"`
}

// Realtime events.

type NewMessageEvent struct {
	ChatID  string  `json:"chatId"`
	Message Message `json:"message"`
}

type ChatClosedEvent struct {
	ChatID string `json:"chatId"`
}

type TypingEvent struct {
	ChatID     string `json:"chatId"`
	IsTyping   bool   `json:"isTyping"`
	SenderName string `json:"senderName,omitempty"`
}
