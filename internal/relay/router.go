package relay

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/deskbridge/zoom-relay/internal/event"
	"github.com/deskbridge/zoom-relay/internal/search"
	"github.com/deskbridge/zoom-relay/internal/store"
	"github.com/deskbridge/zoom-relay/internal/ticket"
	"github.com/deskbridge/zoom-relay/internal/zoom"
)

const (
	// fallbackAgentName stands in when the pinned event carries no usable
	// agent name.
	fallbackAgentName = "IT Agent"

	completedNotice    = "----- *This conversation is marked as completed* -----"
	pinnedNoticeFormat = "----- *%s has entered the conversation* -----"

	// downloadInstruction replaces an empty head text on BUTTON messages so
	// the link blocks never ship with a blank head.
	downloadInstruction = "You can click the below button to download the file."
)

// Router classifies inbound conversation events and drives the composer,
// transport, store, and side-effect collaborators in order. One event is
// processed start to finish per call; no state is shared across calls.
type Router struct {
	logger      *slog.Logger
	store       Store
	transport   Transport
	transcripts TranscriptFetcher
	translator  Translator
	searcher    Searcher
	tickets     TicketDispatcher
}

// NewRouter wires the router with its collaborators.
func NewRouter(log *slog.Logger, st Store, transport Transport, transcripts TranscriptFetcher, translator Translator, searcher Searcher, tickets TicketDispatcher) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{
		logger:      log.With(slog.String("service", "relay")),
		store:       st,
		transport:   transport,
		transcripts: transcripts,
		translator:  translator,
		searcher:    searcher,
		tickets:     tickets,
	}
}

// Handle processes one inbound event. Internal failures are logged and
// swallowed; the webhook acknowledgment never depends on the outcome.
func (r *Router) Handle(ctx context.Context, env event.Envelope) error {
	userID, err := r.store.ResolveUser(ctx, env.UserRef)
	if err != nil {
		r.logger.Error("no conversation mapping for user ref",
			slog.String("user_ref", env.UserRef), slog.Any("error", err))
		return nil
	}

	creds, err := r.store.GetCredentials(ctx, env.TenantID)
	if err != nil {
		// Sends may fail without credentials, but the event is still routed.
		r.logger.Warn("credentials missing for tenant", slog.String("tenant_id", env.TenantID))
	}

	kind := env.Kind()
	r.logger.Info("event received",
		slog.String("kind", string(kind)),
		slog.String("tenant_id", env.TenantID),
		slog.String("user_id", userID),
	)

	switch kind {
	case event.KindConversationCompleted:
		return r.handleResolution(ctx, env, userID, creds)
	case event.KindMessage:
		return r.handleMessage(ctx, env, userID, creds)
	case event.KindChatPinned:
		return r.handlePinned(ctx, env, userID, creds)
	default:
		r.logger.Info("unsupported event", slog.String("event_name", env.Body.EventName))
		return nil
	}
}

// handleResolution announces completion, logs the notice to the transcript,
// and fires the ticket-resolution dispatch with the full chat history.
func (r *Router) handleResolution(ctx context.Context, env event.Envelope, userID string, creds store.Credentials) error {
	chatText, err := r.transcripts.ChatTranscript(ctx, creds, env.Body.User.UserName, env.Body.Data.ConversationNo)
	if err != nil {
		r.logger.Error("chat transcript fetch failed", slog.Any("error", err))
	}

	rec, err := r.store.GetRoutingRecord(ctx, userID)
	if err != nil {
		r.logger.Error("routing record missing; resolution not announced",
			slog.String("user_id", userID), slog.Any("error", err))
		return nil
	}

	message := completedNotice
	if creds.TranslationEnabled {
		message = r.translated(ctx, message, userID)
	}

	if _, err := r.transport.Send(ctx, zoom.SendInput{
		RobotJID:  rec.RobotJID,
		ToJID:     rec.ToJID,
		AccountID: rec.AccountID,
		Message:   message,
	}); err != nil {
		r.logger.Error("resolution notice send failed", slog.Any("error", err))
	}
	r.appendTranscript(ctx, userID, store.TranscriptBotName, message)

	if err := r.tickets.DispatchResolution(ctx, env.ITSM, ticket.Resolution{
		TenantID:    env.TenantID,
		User:        userID,
		ChatHistory: chatText,
		IsAutomated: env.Body.Agent.IsAutomated,
	}); err != nil {
		r.logger.Error("ticket resolution dispatch failed", slog.Any("error", err))
	}
	return nil
}

// handlePinned announces the agent entering the conversation and records
// the agent's display name on the routing record.
func (r *Router) handlePinned(ctx context.Context, env event.Envelope, userID string, creds store.Credentials) error {
	agentName := AgentDisplayName(env.Body.Agent.Name)
	message := fmt.Sprintf(pinnedNoticeFormat, agentName)
	if creds.TranslationEnabled {
		message = r.translated(ctx, message, userID)
	}

	rec, err := r.store.GetRoutingRecord(ctx, userID)
	if err != nil {
		r.logger.Error("routing record missing; pinned notice dropped",
			slog.String("user_id", userID), slog.Any("error", err))
		return nil
	}

	asAgent := rec.Channel != "" && !env.Body.Agent.IsAutomated
	if _, err := r.transport.Send(ctx, zoom.SendInput{
		RobotJID:  rec.RobotJID,
		ToJID:     rec.ToJID,
		AccountID: rec.AccountID,
		Message:   message,
		AsAgent:   asAgent,
		AgentName: agentName,
	}); err != nil {
		r.logger.Error("pinned notice send failed", slog.Any("error", err))
	}
	r.appendTranscript(ctx, userID, transcriptActor(asAgent, agentName), message)

	if err := r.store.SetAgentName(ctx, userID, agentName); err != nil {
		r.logger.Error("persist agent name failed", slog.Any("error", err))
	}
	return nil
}

// handleMessage is the richest path: escalation buttons, link and carousel
// items, translation, attributed sends, and the one-time channel backfill.
func (r *Router) handleMessage(ctx context.Context, env event.Envelope, userID string, creds store.Credentials) error {
	body := env.Body.Message.Body
	isAutomated := env.Body.Agent.IsAutomated

	rec, err := r.store.GetRoutingRecord(ctx, userID)
	if err != nil {
		r.logger.Error("routing record missing; message dropped",
			slog.String("user_id", userID), slog.Any("error", err))
		return nil
	}
	agentName := AgentDisplayName(rec.AgentName)
	asAgent := rec.Channel != "" && !isAutomated
	actor := transcriptActor(asAgent, agentName)

	// Escalation content wins over the structural message type.
	if body.HasBreak() {
		buttons := []zoom.Button{zoom.AgentEscalationButton()}
		for _, intent := range body.Data.Intents {
			buttons = append(buttons, zoom.NewButton(intent, intent))
		}
		return r.answerFromSearch(ctx, userID, rec, buttons, asAgent, agentName)
	}

	var links []zoom.Block
	var buttons []zoom.Button
	text := body.Text

	if strings.Contains(string(body.Type), "BUTTON") {
		for _, item := range body.Data.Items {
			switch {
			case item.IsAppActionLink():
				url := item.Payload.URL
				links = append(links, zoom.NewLinkBlock(item.ActionableText, url))
				if fileType, ok := documentFileType(url); ok {
					r.appendTranscript(ctx, userID, actor, "ATTACHMENT")
					r.dispatchAttachment(ctx, env, userID, rec.Email, ticket.Attachment{
						FileType: fileType,
						FileName: attachmentFileName(item.ActionableText, fileType),
						FileLink: url,
					})
				}
			case item.IsTextOnly():
				buttons = append(buttons, zoom.NewButton(item.ActionableText, item.Payload.Message))
			}
		}
		if text == "" {
			text = downloadInstruction
		}
	}

	if strings.Contains(string(body.Type), "CAROUSEL") {
		// Inbound attachments are forwarded to the ticket, never re-sent to
		// the messaging platform.
		for _, item := range body.Data.Items {
			r.appendTranscript(ctx, userID, actor, "IMAGE")
			r.dispatchAttachment(ctx, env, userID, rec.Email, ticket.Attachment{
				FileType: "png",
				FileName: attachmentFileName(item.Title, "png"),
				FileLink: item.Thumbnail.Image,
			})
		}
		return nil
	}

	if creds.TranslationEnabled {
		text = r.translated(ctx, text, userID)
	}

	delivery, err := r.transport.Send(ctx, zoom.SendInput{
		RobotJID:  rec.RobotJID,
		ToJID:     rec.ToJID,
		AccountID: rec.AccountID,
		Message:   text,
		Links:     links,
		Buttons:   buttons,
		AsAgent:   asAgent,
		AgentName: agentName,
	})
	if err != nil {
		r.logger.Error("message send failed", slog.Any("error", err))
	}
	r.appendTranscript(ctx, userID, actor, text)

	if rec.Channel == "" && delivery != nil && delivery.Channel != "" {
		if err := r.store.SetChannel(ctx, userID, delivery.Channel); err != nil {
			r.logger.Error("channel backfill failed", slog.Any("error", err))
		}
	}
	return nil
}

// answerFromSearch replies to an escalation with the FAQ answer for the
// user's last stored query plus the accumulated button list, then stops
// processing the event.
func (r *Router) answerFromSearch(ctx context.Context, userID string, rec store.RoutingRecord, buttons []zoom.Button, asAgent bool, agentName string) error {
	answer, err := r.searcher.Search(ctx, rec.LastQuery)
	if err != nil {
		r.logger.Error("search failed", slog.Any("error", err))
		answer = search.Answer{Message: search.MissMessage}
	}

	var links []zoom.Block
	if answer.Link != "" {
		links = append(links, zoom.SearchLinkBlock(answer.Link))
	}

	if _, err := r.transport.Send(ctx, zoom.SendInput{
		RobotJID:  rec.RobotJID,
		ToJID:     rec.ToJID,
		AccountID: rec.AccountID,
		Message:   answer.Message,
		Links:     links,
		Buttons:   buttons,
		AsAgent:   asAgent,
		AgentName: agentName,
	}); err != nil {
		r.logger.Error("search reply send failed", slog.Any("error", err))
	}
	r.appendTranscript(ctx, userID, transcriptActor(asAgent, agentName), answer.Message)
	return nil
}

func (r *Router) appendTranscript(ctx context.Context, userID, actor, message string) {
	if err := r.store.AppendTranscript(ctx, userID, actor, message); err != nil {
		r.logger.Error("transcript append failed", slog.String("user_id", userID), slog.Any("error", err))
	}
}

func (r *Router) dispatchAttachment(ctx context.Context, env event.Envelope, userID, email string, att ticket.Attachment) {
	att.TenantID = env.TenantID
	att.User = userID
	att.Email = email
	if err := r.tickets.DispatchAttachment(ctx, env.ITSM, att); err != nil {
		r.logger.Error("ticket attachment dispatch failed", slog.Any("error", err))
	}
}

// translated passes the outgoing text through the translation collaborator.
// On failure the original text is sent; a send beats a dropped notice.
func (r *Router) translated(ctx context.Context, message, userID string) string {
	if r.translator == nil {
		return message
	}
	out, err := r.translator.Translate(ctx, message, userID)
	if err != nil {
		r.logger.Error("translation failed; sending original text", slog.Any("error", err))
		return message
	}
	if out == "" {
		return message
	}
	return out
}

func transcriptActor(asAgent bool, agentName string) string {
	if asAgent {
		return agentName
	}
	return store.TranscriptBotName
}

// AgentDisplayName derives the presentable agent name: title-cased, with a
// fixed fallback when the event carries nothing usable.
func AgentDisplayName(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return fallbackAgentName
	}
	return titleCase(name)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		runes := []rune(strings.ToLower(word))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// documentFileType reports the ticket attachment type for link targets that
// point at documents. Other links are rendered but not ticketed.
func documentFileType(url string) (string, bool) {
	switch {
	case strings.Contains(url, ".pdf"):
		return "pdf", true
	case strings.Contains(url, ".docx"):
		return "docx", true
	default:
		return "", false
	}
}

func attachmentFileName(text, fileType string) string {
	if strings.TrimSpace(text) == "" {
		return "file." + fileType
	}
	return text + "." + fileType
}
