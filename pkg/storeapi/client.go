package storeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	appErrors "github.com/aaravmahajanofficial/ebike-storefront/internal/errors"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Client is the storefront's view of the backend REST API.
type Client interface {
	GetProduct(ctx context.Context, productID string) (*models.ProductSnapshot, error)
	ValidateCoupon(ctx context.Context, req models.CouponValidationRequest) (*models.AppliedCoupon, error)

	CreateChat(ctx context.Context, req models.CreateChatRequest) (*models.ChatSession, error)
	SendChatMessage(ctx context.Context, req models.ChatMessageRequest) (*models.Message, error)

	// Admin operations forward the admin's bearer token.
	ListChats(ctx context.Context, token string) ([]models.ChatSummary, error)
	GetChat(ctx context.Context, token string, chatID string) (*models.ChatSession, error)
	AdminSendMessage(ctx context.Context, token string, req models.ChatMessageRequest) (*models.Message, error)
	CloseChat(ctx context.Context, token string, chatID string) error
	ChatUnreadStats(ctx context.Context, token string) (*models.UnreadStats, error)
}

// envelope is the backend's response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type restClient struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) Client {
	return &restClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// NewClientWithHTTP uses a caller supplied http.Client.
func NewClientWithHTTP(baseURL string, httpClient *http.Client) Client {
	return &restClient{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *restClient) GetProduct(ctx context.Context, productID string) (*models.ProductSnapshot, error) {
	var product models.ProductSnapshot
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(productID), "", nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// ValidateCoupon maps a rejection (400, 404, 422) to InvalidCouponError
// carrying the backend's message. Other failures stay network errors.
func (c *restClient) ValidateCoupon(ctx context.Context, req models.CouponValidationRequest) (*models.AppliedCoupon, error) {
	var coupon models.AppliedCoupon
	err := c.do(ctx, http.MethodPost, "/coupons/validate", "", req, &coupon)
	if err != nil {
		var statusErr *StatusError
		if asStatusError(err, &statusErr) && isCouponRejection(statusErr.StatusCode) {
			msg := statusErr.Message
			if msg == "" {
				msg = "Coupon is not valid"
			}
			return nil, appErrors.InvalidCouponError(msg).WithDetail(req.Code)
		}
		return nil, err
	}
	return &coupon, nil
}

func isCouponRejection(status int) bool {
	switch status {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity:
		return true
	default:
		return false
	}
}

func (c *restClient) CreateChat(ctx context.Context, req models.CreateChatRequest) (*models.ChatSession, error) {
	var session models.ChatSession
	if err := c.do(ctx, http.MethodPost, "/chat/sessions", "", req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *restClient) SendChatMessage(ctx context.Context, req models.ChatMessageRequest) (*models.Message, error) {
	var msg models.Message
	if err := c.do(ctx, http.MethodPost, "/chat/messages", "", req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *restClient) ListChats(ctx context.Context, token string) ([]models.ChatSummary, error) {
	var chats []models.ChatSummary
	if err := c.do(ctx, http.MethodGet, "/chat/admin/sessions", token, nil, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

func (c *restClient) GetChat(ctx context.Context, token string, chatID string) (*models.ChatSession, error) {
	var session models.ChatSession
	if err := c.do(ctx, http.MethodGet, "/chat/admin/sessions/"+url.PathEscape(chatID), token, nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *restClient) AdminSendMessage(ctx context.Context, token string, req models.ChatMessageRequest) (*models.Message, error) {
	var msg models.Message
	path := "/chat/admin/sessions/" + url.PathEscape(req.ChatID) + "/messages"
	if err := c.do(ctx, http.MethodPost, path, token, req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *restClient) CloseChat(ctx context.Context, token string, chatID string) error {
	return c.do(ctx, http.MethodPatch, "/chat/admin/sessions/"+url.PathEscape(chatID)+"/close", token, nil, nil)
}

func (c *restClient) ChatUnreadStats(ctx context.Context, token string) (*models.UnreadStats, error) {
	var stats models.UnreadStats
	if err := c.do(ctx, http.MethodGet, "/chat/admin/unread", token, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *restClient) do(ctx context.Context, method, path, token string, body any, dest any) error {

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return appErrors.ConfigurationError("Invalid store API request").WithError(err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return appErrors.NetworkError("Store API is unreachable").WithError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return appErrors.NetworkError("Failed to read store API response").WithError(err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{StatusCode: resp.StatusCode, Method: method, Path: path}
		if decodeErr == nil {
			statusErr.Message = env.Message
		}
		return appErrors.NetworkError("Store API request failed").
			WithDetail(fmt.Sprintf("%s %s returned %d", method, path, resp.StatusCode)).
			WithError(statusErr)
	}

	if dest == nil {
		return nil
	}

	if decodeErr != nil {
		return appErrors.NetworkError("Malformed store API response").WithError(decodeErr)
	}

	if !env.Success {
		return appErrors.NetworkError("Store API reported a failure").WithDetail(env.Message)
	}

	if err := json.Unmarshal(env.Data, dest); err != nil {
		return appErrors.NetworkError("Malformed store API response").WithError(err)
	}

	return nil
}
