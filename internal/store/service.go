package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// transcriptTimeLayout renders HH:MM:SS DD-MM-YYYY, the stamp every
// transcript line is prefixed with.
const transcriptTimeLayout = "15:04:05 02-01-2006"

// Service reads tenant credentials and user routing records and applies the
// three permitted mutations: transcript append, one-time channel backfill,
// and agent-name overwrite.
type Service struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a store service on the given connection pool.
func NewService(log *slog.Logger, pool *pgxpool.Pool) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		pool:   pool,
		logger: log.With(slog.String("service", "store")),
		now:    time.Now,
	}
}

// GetCredentials returns the credentials for a tenant. A miss is reported
// with ErrNotFound and zero credentials; callers may proceed and let the
// dependent sends fail instead of aborting.
func (s *Service) GetCredentials(ctx context.Context, tenantID string) (Credentials, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT tenant_id, chat_auth, business_id, api_client_id, api_auth_token, translation_enabled
		 FROM tenants WHERE tenant_id = $1`, tenantID)

	var creds Credentials
	var chatAuth, businessID, apiClientID, apiAuthToken pgtype.Text
	err := row.Scan(&creds.TenantID, &chatAuth, &businessID, &apiClientID, &apiAuthToken, &creds.TranslationEnabled)
	if errors.Is(err, pgx.ErrNoRows) {
		s.logger.Error("credentials not found", slog.String("tenant_id", tenantID))
		return Credentials{}, ErrNotFound
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("get credentials: %w", err)
	}
	creds.ChatAuth = textToString(chatAuth)
	creds.BusinessID = textToString(businessID)
	creds.APIClientID = textToString(apiClientID)
	creds.APIAuthToken = textToString(apiAuthToken)
	return creds, nil
}

// ResolveUser maps an external user reference to the internal user id. A
// miss is terminal for the current event.
func (s *Service) ResolveUser(ctx context.Context, externalID string) (string, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT user_id FROM identity_aliases WHERE external_id = $1`, externalID)

	var userID string
	err := row.Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolve user: %w", err)
	}
	return userID, nil
}

// GetRoutingRecord returns the delivery identifiers and conversation
// metadata for a user.
func (s *Service) GetRoutingRecord(ctx context.Context, userID string) (RoutingRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT user_id, im_channel, robot_jid, account_id, to_jid, user_name, email, agent_name, last_query
		 FROM routing_records WHERE user_id = $1`, userID)

	var rec RoutingRecord
	var channel, robotJID, accountID, toJID, userName, email, agentName, lastQuery pgtype.Text
	err := row.Scan(&rec.UserID, &channel, &robotJID, &accountID, &toJID, &userName, &email, &agentName, &lastQuery)
	if errors.Is(err, pgx.ErrNoRows) {
		return RoutingRecord{}, ErrNotFound
	}
	if err != nil {
		return RoutingRecord{}, fmt.Errorf("get routing record: %w", err)
	}
	rec.Channel = textToString(channel)
	rec.RobotJID = textToString(robotJID)
	rec.AccountID = textToString(accountID)
	rec.ToJID = textToString(toJID)
	rec.UserName = textToString(userName)
	rec.Email = textToString(email)
	rec.AgentName = textToString(agentName)
	rec.LastQuery = textToString(lastQuery)
	return rec, nil
}

// SetChannel backfills the messaging-platform channel id after the first
// successful send that reported one.
func (s *Service) SetChannel(ctx context.Context, userID, channel string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE routing_records SET im_channel = $2 WHERE user_id = $1`, userID, channel)
	if err != nil {
		return fmt.Errorf("set channel: %w", err)
	}
	return nil
}

// SetAgentName records the display name of the agent handling the
// conversation.
func (s *Service) SetAgentName(ctx context.Context, userID, agentName string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE routing_records SET agent_name = $2 WHERE user_id = $1`, userID, agentName)
	if err != nil {
		return fmt.Errorf("set agent name: %w", err)
	}
	return nil
}

// AppendTranscript appends one stamped line to the user's transcript.
// Lines are never edited or removed; newest last, newline separated. A
// missing user is logged and ignored so a transcript write never fails the
// surrounding branch.
func (s *Service) AppendTranscript(ctx context.Context, userID, actor, message string) error {
	row := s.pool.QueryRow(ctx,
		`SELECT chat_transcript FROM routing_records WHERE user_id = $1`, userID)

	var transcript pgtype.Text
	err := row.Scan(&transcript)
	if errors.Is(err, pgx.ErrNoRows) {
		s.logger.Error("transcript user not found", slog.String("user_id", userID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("read transcript: %w", err)
	}

	line := FormatTranscriptLine(s.now(), actor, message)
	updated := line
	if existing := textToString(transcript); existing != "" {
		updated = existing + "\n" + line
	}

	if _, err := s.pool.Exec(ctx,
		`UPDATE routing_records SET chat_transcript = $2 WHERE user_id = $1`, userID, updated); err != nil {
		return fmt.Errorf("append transcript: %w", err)
	}
	return nil
}

// FormatTranscriptLine renders one transcript line: a local time stamp, the
// acting party in brackets, and the message text.
func FormatTranscriptLine(at time.Time, actor, message string) string {
	return fmt.Sprintf("%s [%s]: %s", at.Format(transcriptTimeLayout), actor, message)
}

func textToString(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return strings.TrimSpace(t.String)
}
