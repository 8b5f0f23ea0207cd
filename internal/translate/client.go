package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/deskbridge/zoom-relay/internal/config"
)

// Client calls the translation collaborator. The call is synchronous: the
// router blocks on the translated text before sending.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a translation client from configuration.
func NewClient(log *slog.Logger, cfg config.TranslationConfig) *Client {
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
		logger:     log.With(slog.String("client", "translate")),
	}
}

type translateRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
	Source  string `json:"source"`
}

type translateResponse struct {
	TranslatedMessage string `json:"translated_message"`
}

// Translate converts an agent-side message into the user's language.
func (c *Client) Translate(ctx context.Context, message, userID string) (string, error) {
	reqBody, err := json.Marshal(translateRequest{Message: message, UserID: userID, Source: "agent"})
	if err != nil {
		return "", fmt.Errorf("marshal translate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/translate", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("build translate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translate: unexpected status %d", resp.StatusCode)
	}

	var body translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("translate: parse response: %w", err)
	}
	c.logger.Debug("translated message", slog.String("user_id", userID))
	return body.TranslatedMessage, nil
}
