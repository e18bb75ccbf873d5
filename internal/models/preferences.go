package models

type Language string

const (
	LanguageVietnamese Language = "vi"
	LanguageEnglish    Language = "en"
)

// Preferences is the durable per-session client state.
type Preferences struct {
	Language      Language      `json:"language"`
	Currency      string        `json:"currency"`
	ChatCustomer  *ChatCustomer `json:"chat_customer,omitempty"`
	ChatSessionID string        `json:"chat_session_id,omitempty"`
}

type UpdatePreferencesRequest struct {
	Language *string `json:"language,omitempty" validate:"omitempty,oneof=vi en"`
	Currency *string `json:"currency,omitempty" validate:"omitempty,len=3"`
}
