package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/deskbridge/zoom-relay/internal/event"
	"github.com/deskbridge/zoom-relay/internal/relay"
)

// tokenHeader carries the shared verification token on webhook callbacks.
const tokenHeader = "X-Relay-Token"

const webhookMaxBodyBytes int64 = 1 << 20 // 1 MiB

type eventRouter interface {
	Handle(ctx context.Context, env event.Envelope) error
}

// WebhookHandler receives inbound conversation events from the chat-support
// platform and hands them to the router. Transport-level rejects (bad token,
// oversized or unreadable body) get real error statuses; everything past
// decoding is acknowledged with a fixed 200 regardless of routing outcome.
type WebhookHandler struct {
	logger *slog.Logger
	router eventRouter
	token  string
}

// NewWebhookHandler creates the webhook handler. An empty token disables
// the header check.
func NewWebhookHandler(log *slog.Logger, router eventRouter, token string) *WebhookHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WebhookHandler{
		logger: log.With(slog.String("handler", "webhook")),
		router: router,
		token:  strings.TrimSpace(token),
	}
}

// Register registers the webhook callback route.
func (h *WebhookHandler) Register(e *echo.Echo) {
	e.POST("/webhooks/haptik", h.Handle)
}

// Handle processes one inbound event callback.
func (h *WebhookHandler) Handle(c echo.Context) error {
	if h.router == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "webhook router not configured")
	}
	if h.token != "" && strings.TrimSpace(c.Request().Header.Get(tokenHeader)) != h.token {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid webhook token")
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, webhookMaxBodyBytes+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("read body: %v", err))
	}
	if int64(len(payload)) > webhookMaxBodyBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, fmt.Sprintf("payload too large: max %d bytes", webhookMaxBodyBytes))
	}

	env, err := event.Decode(payload)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	// The acknowledgment is fixed: the sender cannot distinguish a delivered
	// event from a silently dropped one, and never retries on our behalf.
	_ = relay.Timed(h.logger, string(env.Kind()), env.UserRef, func() error {
		return h.router.Handle(c.Request().Context(), env)
	})

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
