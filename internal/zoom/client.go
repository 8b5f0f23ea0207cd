package zoom

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/deskbridge/zoom-relay/internal/config"
)

const sendMessagePath = "/v2/im/chat/messages"

// agentIconEmoji is attached to sends attributed to a human agent.
const agentIconEmoji = ":computer:"

// Client posts composed payloads to the Zoom IM chat API. A fresh bearer
// token is exchanged on every send; nothing is cached between calls.
type Client struct {
	httpClient *http.Client
	oauthURL   string
	apiURL     string
	clientAuth string
	logger     *slog.Logger
}

// SendInput is one outbound message: routing identifiers, head text, the
// accumulated body blocks, and the agent attribution decision.
type SendInput struct {
	RobotJID  string
	ToJID     string
	AccountID string
	Message   string
	Links     []Block
	Buttons   []Button
	AsAgent   bool
	AgentName string
}

// Delivery is the platform's acknowledgment of a created message.
type Delivery struct {
	Channel   string `json:"channel"`
	MessageID string `json:"id"`
}

// NewClient creates a Zoom transport client from configuration.
func NewClient(log *slog.Logger, cfg config.ZoomConfig) *Client {
	if log == nil {
		log = slog.Default()
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		oauthURL:   cfg.OAuthURL,
		apiURL:     cfg.APIURL,
		clientAuth: cfg.ClientAuth,
		logger:     log.With(slog.String("client", "zoom")),
	}
}

// authToken exchanges the fixed service credentials for a bearer token.
// Called once per send; the token is never reused across calls.
func (c *Client) authToken(ctx context.Context) (string, error) {
	url := c.oauthURL + "?grant_type=client_credentials"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+c.clientAuth)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token exchange: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("token exchange: parse response: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("token exchange: empty access token")
	}
	return "Bearer " + body.AccessToken, nil
}

// Send authenticates and posts one message. Success is solely an HTTP 201;
// any other status or transport failure is an error the router treats as
// "not delivered" without retrying.
func (c *Client) Send(ctx context.Context, in SendInput) (*Delivery, error) {
	token, err := c.authToken(ctx)
	if err != nil {
		c.logger.Error("send aborted: token exchange failed", slog.Any("error", err))
		return nil, err
	}

	payload := Payload{
		RobotJID:  in.RobotJID,
		ToJID:     in.ToJID,
		AccountID: in.AccountID,
		Content:   BuildContent(in.Message, in.Links, in.Buttons),
	}
	if in.AsAgent {
		payload.Username = in.AgentName
		payload.IconEmoji = agentIconEmoji
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+sendMessagePath, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("Authorization", token)
	req.Header.Set("Content-Type", "application/json")

	c.logger.Info("sending message",
		slog.String("to_jid", in.ToJID),
		slog.Bool("as_agent", in.AsAgent),
		slog.Int("links", len(in.Links)),
		slog.Int("buttons", len(in.Buttons)),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("send failed", slog.Any("error", err))
		return nil, fmt.Errorf("send message: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("send failed",
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(body)),
		)
		return nil, fmt.Errorf("send message: unexpected status %d", resp.StatusCode)
	}

	var delivery Delivery
	if err := json.NewDecoder(resp.Body).Decode(&delivery); err != nil {
		return nil, fmt.Errorf("send message: parse response: %w", err)
	}
	c.logger.Info("send success", slog.String("channel", delivery.Channel), slog.String("message_id", delivery.MessageID))
	return &delivery, nil
}
