package event

import (
	"testing"
)

func TestKindClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		eventName string
		want      Kind
	}{
		{name: "completion", eventName: "webhook_conversation_complete", want: KindConversationCompleted},
		{name: "completion with suffix", eventName: "webhook_conversation_completed_v2", want: KindConversationCompleted},
		{name: "message", eventName: "message", want: KindMessage},
		{name: "message with prefix", eventName: "agent_message", want: KindMessage},
		{name: "chat pinned", eventName: "chat_pinned", want: KindChatPinned},
		{name: "unsupported", eventName: "typing_indicator", want: KindUnsupported},
		{name: "empty", eventName: "", want: KindUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := Envelope{Body: Body{EventName: tt.eventName}}
			if got := env.Kind(); got != tt.want {
				t.Errorf("Kind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHasBreak(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body MessageBody
		want bool
	}{
		{name: "marker in text", body: MessageBody{Text: "BOT BREAK"}, want: true},
		{name: "marker embedded", body: MessageBody{Text: "escalating: BOT BREAK now"}, want: true},
		{name: "intents without marker", body: MessageBody{Text: "pick one", Data: MessageData{Intents: []string{"VPN"}}}, want: true},
		{name: "plain text", body: MessageBody{Text: "hello"}, want: false},
		{name: "lowercase marker ignored", body: MessageBody{Text: "bot break"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.body.HasBreak(); got != tt.want {
				t.Errorf("HasBreak() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestItemPredicates(t *testing.T) {
	t.Parallel()

	link := Item{Type: "app_action", URI: "link"}
	if !link.IsAppActionLink() {
		t.Error("app_action/link item must be a link action")
	}
	mixedCase := Item{Type: "APP_ACTION", URI: "Link"}
	if !mixedCase.IsAppActionLink() {
		t.Error("link predicate must be case insensitive")
	}
	textOnly := Item{Type: "text_only"}
	if textOnly.IsAppActionLink() {
		t.Error("text_only item is not a link action")
	}
	if !textOnly.IsTextOnly() {
		t.Error("text_only item must be a button option")
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	payload := []byte(`{
		"client_id": "tenant-1",
		"itsm": "servicenow",
		"user": "ext-1",
		"body": {
			"event_name": "message",
			"agent": {"name": "sam", "is_automated": false},
			"message": {"body": {"text": "hi", "type": "TEXT"}}
		}
	}`)

	env, err := Decode(payload)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if env.TenantID != "tenant-1" || env.UserRef != "ext-1" {
		t.Errorf("decoded envelope = %+v", env)
	}
	if env.Body.Message.Body.Type != MessageTypeText {
		t.Errorf("message type = %q", env.Body.Message.Body.Type)
	}
}

func TestDecodeRejectsMissingUser(t *testing.T) {
	t.Parallel()

	if _, err := Decode([]byte(`{"client_id": "tenant-1"}`)); err == nil {
		t.Error("envelope without a user ref must fail validation")
	}
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	t.Parallel()

	if _, err := Decode([]byte(`{"client_id":`)); err == nil {
		t.Error("malformed payload must fail")
	}
}
