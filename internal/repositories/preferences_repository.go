package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aaravmahajanofficial/ebike-storefront/internal/models"
	"github.com/redis/go-redis/v9"
)

// Hash fields of a storefront session.
const (
	FieldLanguage      = "language"
	FieldCurrency      = "currency"
	FieldChatCustomer  = "chat-customer"
	FieldChatSessionID = "chat-session-id"
)

type PreferencesRepository interface {
	// Load returns zero-valued preferences for an unknown session.
	Load(ctx context.Context, sessionID string) (*models.Preferences, error)
	Save(ctx context.Context, sessionID string, prefs *models.Preferences) error
}

type preferencesRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPreferencesRepo(client *redis.Client, ttl time.Duration) PreferencesRepository {
	return &preferencesRepository{client: client, ttl: ttl}
}

func PreferencesKey(sessionID string) string {
	return "storefront:" + sessionID
}

func (r *preferencesRepository) Load(ctx context.Context, sessionID string) (*models.Preferences, error) {

	key := PreferencesKey(sessionID)

	fields, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read preferences %s: %w", key, err)
	}

	prefs := &models.Preferences{
		Language:      models.Language(fields[FieldLanguage]),
		Currency:      fields[FieldCurrency],
		ChatSessionID: fields[FieldChatSessionID],
	}

	if raw := fields[FieldChatCustomer]; raw != "" {
		var customer models.ChatCustomer
		if err := json.Unmarshal([]byte(raw), &customer); err != nil {
			return nil, fmt.Errorf("failed to unmarshal chat customer for %s: %w", key, err)
		}
		prefs.ChatCustomer = &customer
	}

	return prefs, nil
}

func (r *preferencesRepository) Save(ctx context.Context, sessionID string, prefs *models.Preferences) error {

	key := PreferencesKey(sessionID)

	customer := ""
	if prefs.ChatCustomer != nil {
		data, err := json.Marshal(prefs.ChatCustomer)
		if err != nil {
			return fmt.Errorf("failed to marshal chat customer: %w", err)
		}
		customer = string(data)
	}

	if err := r.client.HSet(ctx, key,
		FieldLanguage, string(prefs.Language),
		FieldCurrency, prefs.Currency,
		FieldChatCustomer, customer,
		FieldChatSessionID, prefs.ChatSessionID,
	).Err(); err != nil {
		return fmt.Errorf("failed to save preferences %s: %w", key, err)
	}

	if r.ttl > 0 {
		if err := r.client.Expire(ctx, key, r.ttl).Err(); err != nil {
			return fmt.Errorf("failed to set expiry on %s: %w", key, err)
		}
	}

	return nil
}
