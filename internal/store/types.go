package store

import "errors"

// ErrNotFound is returned when a keyed lookup has no row.
var ErrNotFound = errors.New("store: not found")

// Credentials are the per-tenant secrets and feature flags used for the
// downstream chat-platform and transcript APIs. Read-only within a single
// event invocation.
type Credentials struct {
	TenantID           string
	ChatAuth           string
	BusinessID         string
	APIClientID        string
	APIAuthToken       string
	TranslationEnabled bool
}

// RoutingRecord maps an end user to the messaging-platform delivery
// identifiers plus the conversation metadata the composer needs.
type RoutingRecord struct {
	UserID    string
	Channel   string
	RobotJID  string
	AccountID string
	ToJID     string
	UserName  string
	Email     string
	AgentName string
	LastQuery string
}

// TranscriptBotName is the transcript attribution used for automated sends
// and for sends without a known agent channel.
const TranscriptBotName = "BOT"
