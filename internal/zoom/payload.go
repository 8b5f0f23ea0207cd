package zoom

import "strings"

// Decorative label suffixes. These are part of the literal wire text, not
// metadata; downstream rendering depends on them byte-for-byte.
const (
	buttonMarker = " \U0001F4AC" // 💬
	linkMarker   = " \U0001F4CE" // 📎
)

// AgentEscalationLabel is the fixed first option of every disambiguation
// button group.
const AgentEscalationLabel = "Talk to an Agent"

// Payload is the wire body of POST /v2/im/chat/messages.
type Payload struct {
	RobotJID  string  `json:"robot_jid"`
	ToJID     string  `json:"to_jid"`
	AccountID string  `json:"account_id"`
	Content   Content `json:"content"`
	Username  string  `json:"username,omitempty"`
	IconEmoji string  `json:"icon_emoji,omitempty"`
}

// Content carries the head text and the optional ordered body blocks. A
// payload with no link and no button blocks has no body key at all.
type Content struct {
	Head Head    `json:"head"`
	Body []Block `json:"body,omitempty"`
}

type Head struct {
	Text string `json:"text"`
}

// Block is one body element: a clickable link ("message") or a grouped set
// of action buttons ("actions").
type Block struct {
	Type  string   `json:"type"`
	Text  string   `json:"text,omitempty"`
	Link  string   `json:"link,omitempty"`
	Items []Button `json:"items,omitempty"`
}

// Button is one actionable option inside an actions block.
type Button struct {
	Text  string `json:"text"`
	Value string `json:"value"`
	Style string `json:"style"`
}

// NewButton builds a button option. The label carries the decorative marker;
// the value is what comes back when the user taps it.
func NewButton(label, value string) Button {
	return Button{
		Text:  label + buttonMarker,
		Value: value,
		Style: "Default",
	}
}

// AgentEscalationButton is the fixed "talk to a human" option.
func AgentEscalationButton() Button {
	return NewButton(AgentEscalationLabel, AgentEscalationLabel)
}

// NewLinkBlock builds a clickable link body block.
func NewLinkBlock(label, url string) Block {
	return Block{
		Type: "message",
		Text: label + linkMarker,
		Link: url,
	}
}

// SearchLinkBlock builds the link block pointing at a search result
// document. Spaces are percent-escaped so the platform renders the link.
func SearchLinkBlock(url string) Block {
	return NewLinkBlock("Visit Link", strings.ReplaceAll(url, " ", "%20"))
}

// BuildContent assembles the outbound content: head text, then link blocks
// in order, then a single trailing actions group when any buttons exist.
func BuildContent(text string, links []Block, buttons []Button) Content {
	content := Content{Head: Head{Text: text}}
	if len(links) > 0 {
		content.Body = append(content.Body, links...)
	}
	if len(buttons) > 0 {
		content.Body = append(content.Body, Block{Type: "actions", Items: buttons})
	}
	return content
}
