package relay

import (
	"context"

	"github.com/deskbridge/zoom-relay/internal/search"
	"github.com/deskbridge/zoom-relay/internal/store"
	"github.com/deskbridge/zoom-relay/internal/ticket"
	"github.com/deskbridge/zoom-relay/internal/zoom"
)

// Store is the lookup-table surface the router needs: credentials, identity
// resolution, routing records, and the three permitted updates.
type Store interface {
	GetCredentials(ctx context.Context, tenantID string) (store.Credentials, error)
	ResolveUser(ctx context.Context, externalID string) (string, error)
	GetRoutingRecord(ctx context.Context, userID string) (store.RoutingRecord, error)
	SetChannel(ctx context.Context, userID, channel string) error
	SetAgentName(ctx context.Context, userID, agentName string) error
	AppendTranscript(ctx context.Context, userID, actor, message string) error
}

// Transport delivers composed payloads to the messaging platform.
type Transport interface {
	Send(ctx context.Context, in zoom.SendInput) (*zoom.Delivery, error)
}

// TranscriptFetcher pulls the full conversation text from the chat-support
// platform when a conversation completes.
type TranscriptFetcher interface {
	ChatTranscript(ctx context.Context, creds store.Credentials, userName string, conversationNo int) (string, error)
}

// Translator converts agent-side text into the user's language. Called
// synchronously before a send, only for translation-enabled tenants.
type Translator interface {
	Translate(ctx context.Context, message, userID string) (string, error)
}

// Searcher answers a free-text query from the FAQ index.
type Searcher interface {
	Search(ctx context.Context, query string) (search.Answer, error)
}

// TicketDispatcher fires ticketing side effects. Failures are logged by the
// router and otherwise unobserved.
type TicketDispatcher interface {
	DispatchResolution(ctx context.Context, itsm string, r ticket.Resolution) error
	DispatchAttachment(ctx context.Context, itsm string, a ticket.Attachment) error
}
