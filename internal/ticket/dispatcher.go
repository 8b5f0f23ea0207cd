package ticket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

// Event names understood by the ticketing workflow.
const (
	EventResolution = "TICKET_RESOLUTION"
	EventAttachment = "TICKET_ATTACHMENT"
)

// source identifies this relay to the ticketing workflow.
const source = "zoom"

// Envelope is the wire shape of a ticket dispatch. Payload varies by event.
type Envelope struct {
	ITSM    string `json:"itsm"`
	Payload any    `json:"payload"`
}

// Resolution closes out a conversation and carries its transcript.
type Resolution struct {
	TenantID    string `json:"client_id"`
	Source      string `json:"source"`
	Event       string `json:"event"`
	User        string `json:"user"`
	ChatHistory string `json:"chat_history"`
	IsAutomated bool   `json:"is_automated"`
}

// Attachment forwards a file reference from the conversation to the ticket.
type Attachment struct {
	Event      string `json:"event"`
	Source     string `json:"source"`
	User       string `json:"user"`
	FromHaptik bool   `json:"from_haptik"`
	TenantID   string `json:"client_id"`
	Email      string `json:"email"`
	FileType   string `json:"file_type"`
	FileName   string `json:"file_name"`
	FileLink   string `json:"file_link"`
}

// Dispatcher publishes ticket envelopes to a topic exchange. Dispatches are
// fire-and-forget: no confirmation is awaited and no correlation comes back.
type Dispatcher struct {
	conn     *amqp091.Connection
	exchange string
	logger   *slog.Logger
}

// NewDispatcher declares the exchange and returns a dispatcher on the given
// connection.
func NewDispatcher(log *slog.Logger, conn *amqp091.Connection, exchange string) (*Dispatcher, error) {
	if log == nil {
		log = slog.Default()
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %q: %w", exchange, err)
	}
	return &Dispatcher{
		conn:     conn,
		exchange: exchange,
		logger:   log.With(slog.String("service", "ticket_dispatcher")),
	}, nil
}

// DispatchResolution fires a conversation-resolution ticket event.
func (d *Dispatcher) DispatchResolution(ctx context.Context, itsm string, r Resolution) error {
	r.Source = source
	r.Event = EventResolution
	return d.publish(ctx, itsm, EventResolution, Envelope{ITSM: itsm, Payload: r})
}

// DispatchAttachment fires a ticket-attachment event for one file.
func (d *Dispatcher) DispatchAttachment(ctx context.Context, itsm string, a Attachment) error {
	a.Source = source
	a.Event = EventAttachment
	a.FromHaptik = true
	return d.publish(ctx, itsm, EventAttachment, Envelope{ITSM: itsm, Payload: a})
}

func (d *Dispatcher) publish(ctx context.Context, itsm, eventName string, env Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal ticket envelope: %w", err)
	}

	ch, err := d.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	key := routingKey(itsm, eventName)
	err = ch.PublishWithContext(ctx, d.exchange, key, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	d.logger.Info("dispatched", slog.String("key", key), slog.String("exchange", d.exchange))
	return nil
}

func routingKey(itsm, eventName string) string {
	itsm = strings.ToLower(strings.TrimSpace(itsm))
	if itsm == "" {
		itsm = "unknown"
	}
	return "tickets." + itsm + "." + strings.ToLower(eventName)
}
