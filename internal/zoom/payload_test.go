package zoom

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestBuildContentEmptyBlocksOmitBody(t *testing.T) {
	t.Parallel()

	content := BuildContent("plain text", nil, nil)
	data, err := json.Marshal(content)
	if err != nil {
		t.Fatalf("marshal content: %v", err)
	}
	if strings.Contains(string(data), `"body"`) {
		t.Errorf("content without blocks must omit the body key, got %s", data)
	}
}

func TestBuildContentOrdering(t *testing.T) {
	t.Parallel()

	links := []Block{
		NewLinkBlock("Guide", "https://files.example.com/guide.pdf"),
		NewLinkBlock("Portal", "https://portal.example.com"),
	}
	buttons := []Button{NewButton("Yes", "confirm"), NewButton("No", "cancel")}

	content := BuildContent("head", links, buttons)

	if got := len(content.Body); got != 3 {
		t.Fatalf("expected 2 link blocks and 1 actions block, got %d blocks", got)
	}
	if content.Body[0].Type != "message" || content.Body[1].Type != "message" {
		t.Errorf("link blocks must precede actions, got types %q %q", content.Body[0].Type, content.Body[1].Type)
	}
	actions := content.Body[2]
	if actions.Type != "actions" {
		t.Fatalf("trailing block type = %q, want actions", actions.Type)
	}
	if len(actions.Items) != 2 {
		t.Errorf("actions block holds %d buttons, want 2", len(actions.Items))
	}
}

func TestNewButtonMarker(t *testing.T) {
	t.Parallel()

	b := NewButton("Password Reset", "Password Reset")
	if b.Text != "Password Reset \U0001F4AC" {
		t.Errorf("button text = %q, want the label with the chat marker", b.Text)
	}
	if b.Value != "Password Reset" {
		t.Errorf("button value = %q, must stay unmarked", b.Value)
	}
	if b.Style != "Default" {
		t.Errorf("button style = %q, want Default", b.Style)
	}
}

func TestAgentEscalationButton(t *testing.T) {
	t.Parallel()

	b := AgentEscalationButton()
	if b.Text != "Talk to an Agent \U0001F4AC" {
		t.Errorf("escalation text = %q", b.Text)
	}
	if b.Value != "Talk to an Agent" {
		t.Errorf("escalation value = %q", b.Value)
	}
}

func TestNewLinkBlockMarker(t *testing.T) {
	t.Parallel()

	block := NewLinkBlock("Guide", "https://files.example.com/guide.pdf")
	if block.Text != "Guide \U0001F4CE" {
		t.Errorf("link text = %q, want the label with the link marker", block.Text)
	}
	if block.Link != "https://files.example.com/guide.pdf" {
		t.Errorf("link url = %q", block.Link)
	}
}

func TestSearchLinkBlockEscapesSpaces(t *testing.T) {
	t.Parallel()

	block := SearchLinkBlock("https://kb.example.com/pw reset guide.html")
	if block.Link != "https://kb.example.com/pw%20reset%20guide.html" {
		t.Errorf("link url = %q, spaces must be percent-escaped", block.Link)
	}
	if block.Text != "Visit Link \U0001F4CE" {
		t.Errorf("link text = %q", block.Text)
	}
}
