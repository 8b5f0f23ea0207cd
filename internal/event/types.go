package event

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Kind is the routing classification of an inbound conversation event.
// Each envelope is classified exactly once.
type Kind string

const (
	KindConversationCompleted Kind = "conversation_completed"
	KindMessage               Kind = "message"
	KindChatPinned            Kind = "chat_pinned"
	KindUnsupported           Kind = "unsupported"
)

// MessageType is the structural type of an inbound chat message body.
type MessageType string

const (
	MessageTypeText     MessageType = "TEXT"
	MessageTypeButton   MessageType = "BUTTON"
	MessageTypeCarousel MessageType = "CAROUSEL"
)

// BreakMarker is the sentinel the bot platform embeds in a message when the
// conversation should be escalated to a human agent.
const BreakMarker = "BOT BREAK"

// Envelope is one inbound webhook event from the chat-support platform.
type Envelope struct {
	TenantID string `json:"client_id" validate:"required"`
	ITSM     string `json:"itsm"`
	UserRef  string `json:"user" validate:"required"`
	Body     Body   `json:"body"`
}

// Body carries the event name and the per-kind payload sections. Sections
// irrelevant to the event kind are left at their zero values.
type Body struct {
	EventName string       `json:"event_name"`
	Agent     Agent        `json:"agent"`
	Message   Message      `json:"message"`
	User      User         `json:"user"`
	Data      Conversation `json:"data"`
}

type Agent struct {
	Name        string `json:"name"`
	IsAutomated bool   `json:"is_automated"`
}

type User struct {
	UserName string `json:"user_name"`
}

type Conversation struct {
	ConversationNo int `json:"conversation_no"`
}

// Message is the typed chat-message section of a message event.
type Message struct {
	Body MessageBody `json:"body"`
}

type MessageBody struct {
	Text string      `json:"text"`
	Type MessageType `json:"type"`
	Data MessageData `json:"data"`
}

// MessageData holds the structured extras of a message: disambiguation
// intents for break-style messages and items for BUTTON/CAROUSEL messages.
type MessageData struct {
	Intents []string `json:"intents"`
	Items   []Item   `json:"items"`
}

// Item is one element of a BUTTON or CAROUSEL message.
type Item struct {
	Type           string      `json:"type"`
	ActionableText string      `json:"actionable_text"`
	URI            string      `json:"uri"`
	Payload        ItemPayload `json:"payload"`
	Thumbnail      Thumbnail   `json:"thumbnail"`
	Title          string      `json:"title"`
}

type ItemPayload struct {
	URL     string `json:"url"`
	Message string `json:"message"`
}

type Thumbnail struct {
	Image string `json:"image"`
}

// Kind classifies the envelope by event name. Conversation completion is
// checked before the message match: completion events must never fall into
// the message branch.
func (e Envelope) Kind() Kind {
	name := e.Body.EventName
	switch {
	case strings.Contains(name, "webhook_conversation_complete"):
		return KindConversationCompleted
	case strings.Contains(name, "message"):
		return KindMessage
	case strings.Contains(name, "chat_pinned"):
		return KindChatPinned
	default:
		return KindUnsupported
	}
}

// HasBreak reports whether the message demands agent escalation, either via
// the literal break marker in the text or a non-empty disambiguation list.
// This takes priority over the structural message type.
func (b MessageBody) HasBreak() bool {
	return strings.Contains(b.Text, BreakMarker) || len(b.Data.Intents) > 0
}

// IsAppActionLink reports whether the item is a clickable link action.
func (i Item) IsAppActionLink() bool {
	return strings.EqualFold(i.Type, "app_action") && strings.EqualFold(i.URI, "link")
}

// IsTextOnly reports whether the item is a plain button option.
func (i Item) IsTextOnly() bool {
	return strings.EqualFold(i.Type, "text_only")
}

var validate = validator.New()

// Decode parses and validates an inbound webhook payload.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode event: %w", err)
	}
	if err := validate.Struct(env); err != nil {
		return Envelope{}, fmt.Errorf("validate event: %w", err)
	}
	return env, nil
}
