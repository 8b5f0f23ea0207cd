package zoom

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskbridge/zoom-relay/internal/config"
)

type zoomStub struct {
	tokenCalls  atomic.Int64
	sendCalls   atomic.Int64
	sendStatus  int
	tokenStatus int
	lastAuth    string
	lastPayload Payload
	oauthServer *httptest.Server
	apiServer   *httptest.Server
}

func newZoomStub(t *testing.T) *zoomStub {
	t.Helper()
	stub := &zoomStub{sendStatus: http.StatusCreated, tokenStatus: http.StatusOK}

	stub.oauthServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stub.tokenCalls.Add(1)
		if r.URL.Query().Get("grant_type") != "client_credentials" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if stub.tokenStatus != http.StatusOK {
			w.WriteHeader(stub.tokenStatus)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-123"})
	}))
	t.Cleanup(stub.oauthServer.Close)

	stub.apiServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stub.sendCalls.Add(1)
		stub.lastAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&stub.lastPayload)
		w.WriteHeader(stub.sendStatus)
		if stub.sendStatus == http.StatusCreated {
			_ = json.NewEncoder(w).Encode(map[string]string{"channel": "ch-42", "id": "msg-9"})
		}
	}))
	t.Cleanup(stub.apiServer.Close)

	return stub
}

func (s *zoomStub) client() *Client {
	return NewClient(nil, config.ZoomConfig{
		OAuthURL:   s.oauthServer.URL,
		APIURL:     s.apiServer.URL,
		ClientAuth: "basic-creds",
	})
}

func TestSendSuccess(t *testing.T) {
	t.Parallel()

	stub := newZoomStub(t)
	delivery, err := stub.client().Send(context.Background(), SendInput{
		RobotJID:  "robot@x",
		ToJID:     "user@x",
		AccountID: "acc-1",
		Message:   "hello",
	})

	require.NoError(t, err)
	require.NotNil(t, delivery)
	assert.Equal(t, "ch-42", delivery.Channel)
	assert.Equal(t, "msg-9", delivery.MessageID)
	assert.Equal(t, "Bearer tok-123", stub.lastAuth)
	assert.Equal(t, "hello", stub.lastPayload.Content.Head.Text)
	assert.Empty(t, stub.lastPayload.Username)
}

func TestSendFetchesTokenPerCall(t *testing.T) {
	t.Parallel()

	stub := newZoomStub(t)
	client := stub.client()

	for range 3 {
		_, err := client.Send(context.Background(), SendInput{RobotJID: "r", ToJID: "u", AccountID: "a", Message: "m"})
		require.NoError(t, err)
	}

	assert.Equal(t, int64(3), stub.tokenCalls.Load())
	assert.Equal(t, int64(3), stub.sendCalls.Load())
}

func TestSendAgentAttribution(t *testing.T) {
	t.Parallel()

	stub := newZoomStub(t)
	_, err := stub.client().Send(context.Background(), SendInput{
		RobotJID:  "r",
		ToJID:     "u",
		AccountID: "a",
		Message:   "on it",
		AsAgent:   true,
		AgentName: "Sam Rivers",
	})

	require.NoError(t, err)
	assert.Equal(t, "Sam Rivers", stub.lastPayload.Username)
	assert.Equal(t, ":computer:", stub.lastPayload.IconEmoji)
}

func TestSendNon201IsError(t *testing.T) {
	t.Parallel()

	stub := newZoomStub(t)
	stub.sendStatus = http.StatusOK

	delivery, err := stub.client().Send(context.Background(), SendInput{RobotJID: "r", ToJID: "u", AccountID: "a", Message: "m"})

	require.Error(t, err)
	assert.Nil(t, delivery)
	assert.Contains(t, err.Error(), "unexpected status 200")
}

func TestSendTokenExchangeFailure(t *testing.T) {
	t.Parallel()

	stub := newZoomStub(t)
	stub.tokenStatus = http.StatusUnauthorized

	_, err := stub.client().Send(context.Background(), SendInput{RobotJID: "r", ToJID: "u", AccountID: "a", Message: "m"})

	require.Error(t, err)
	assert.Equal(t, int64(0), stub.sendCalls.Load(), "send must not be attempted without a token")
}
