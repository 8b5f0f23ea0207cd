package haptik

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/deskbridge/zoom-relay/internal/config"
	"github.com/deskbridge/zoom-relay/internal/store"
)

const chatHistoryPath = "/integration/external/v1.0/get_chat_history/"

// Client fetches chat transcripts from the chat-support platform.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a transcript client from configuration.
func NewClient(log *slog.Logger, cfg config.HaptikConfig) *Client {
	if log == nil {
		log = slog.Default()
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		logger:     log.With(slog.String("client", "haptik")),
	}
}

// ChatTranscript returns the plain-text transcript of a conversation.
// Authentication uses the tenant's own credentials, not service-level ones.
func (c *Client) ChatTranscript(ctx context.Context, creds store.Credentials, userName string, conversationNo int) (string, error) {
	query := url.Values{}
	query.Set("user_name", userName)
	query.Set("business_id", creds.BusinessID)
	query.Set("response_type", "text")
	query.Set("conversation_no", strconv.Itoa(conversationNo))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+chatHistoryPath+"?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build chat history request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("client-id", creds.APIClientID)
	req.Header.Set("Authorization", creds.ChatAuth)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat history: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("chat history unexpected status", slog.Int("status", resp.StatusCode))
		return "", fmt.Errorf("chat history: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		ChatText string `json:"chat_text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("chat history: parse response: %w", err)
	}
	return body.ChatText, nil
}
