package entities

import "encoding/json"

// Message kinds as delivered by the webhook. Anything else is stored for audit
// but never triggers a reply.
const (
	TypeText        = "text"
	TypeButton      = "button"
	TypeInteractive = "interactive"
)

// Channel names, used to route outbound replies back to the right transport.
const (
	ChannelWhatsApp  = "whatsapp" // Cloud API webhook
	ChannelTelegram  = "telegram"
	ChannelWhatsmeow = "whatsmeow" // personal device session
)

// MessageEvent is one inbound or outbound message unit. From and To are
// normalized addresses; From is empty for messages we sent ourselves.
type MessageEvent struct {
	ID        string          `json:"id,omitempty"`
	From      string          `json:"from,omitempty"`
	To        string          `json:"to,omitempty"`
	Timestamp string          `json:"timestamp"` // platform ordering token, opaque
	Type      string          `json:"type"`
	Body      string          `json:"body,omitempty"`
	Channel   string          `json:"channel,omitempty"`
	Raw       json.RawMessage `json:"raw,omitempty"` // original payload fragment, audit only
}

// Actionable reports whether this event should trigger a reply: a message-like
// type with extractable text from a known counterparty.
func (m MessageEvent) Actionable() bool {
	if m.From == "" || m.Body == "" {
		return false
	}
	switch m.Type {
	case TypeText, TypeButton, TypeInteractive:
		return true
	}
	return false
}

// ConversationAddress is the storage partition key: the counterparty if known,
// otherwise our own number (outbound-from-self events).
func (m MessageEvent) ConversationAddress() string {
	if m.From != "" {
		return m.From
	}
	return m.To
}

// ReplyMode selects how a reply is produced.
type ReplyMode string

const (
	ReplyTemplate  ReplyMode = "template"  // pre-approved greeting, first contact
	ReplyGenerated ReplyMode = "generated" // freeform text from the generator
)

// ResponseDecision is the outcome of evaluating one inbound event. It lives for
// a single orchestration pass and is never persisted. History holds the
// newest-first snapshot the classification was based on, so the generator sees
// exactly the state that was locked in.
type ResponseDecision struct {
	Mode    ReplyMode
	History []MessageEvent
}

// WebhookResult is what the webhook caller gets back. Dispatch outcomes are
// deliberately not part of it.
type WebhookResult struct {
	Received int `json:"received"`
	Stored   int `json:"stored"`
}
