package usecases

import (
	"encoding/json"

	"warelay/internal/entities"
)

// Webhook payload shape (Cloud API): entry -> changes -> value -> messages,
// with the receiving number in value.metadata. Each level is decoded
// independently so one malformed branch costs only that branch.

type webhookEnvelope struct {
	Entry []json.RawMessage `json:"entry"`
}

type webhookEntry struct {
	Changes []json.RawMessage `json:"changes"`
}

type webhookChange struct {
	Value webhookValue `json:"value"`
}

type webhookValue struct {
	Metadata webhookMetadata   `json:"metadata"`
	Messages []json.RawMessage `json:"messages"`
}

type webhookMetadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

type webhookMessage struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      struct {
		Body string `json:"body"`
	} `json:"text"`
	Button struct {
		Text string `json:"text"`
	} `json:"button"`
	Interactive struct {
		NFMReply struct {
			Body string `json:"body"`
		} `json:"nfm_reply"`
		ButtonReply struct {
			Title string `json:"title"`
		} `json:"button_reply"`
	} `json:"interactive"`
}

// ParseWebhookPayload flattens a raw webhook payload into message events in
// the order they appear. It is total: any absent or malformed level yields
// zero items at that level, and whatever could be extracted is still
// returned. Addresses come out normalized; the original message fragment is
// kept on the event for audit.
func ParseWebhookPayload(payload []byte) []entities.MessageEvent {
	events := []entities.MessageEvent{}

	var envelope webhookEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return events
	}

	for _, rawEntry := range envelope.Entry {
		var entry webhookEntry
		if err := json.Unmarshal(rawEntry, &entry); err != nil {
			continue
		}
		for _, rawChange := range entry.Changes {
			var change webhookChange
			if err := json.Unmarshal(rawChange, &change); err != nil {
				continue
			}

			to := change.Value.Metadata.DisplayPhoneNumber
			if to == "" {
				to = change.Value.Metadata.PhoneNumberID
			}
			to = entities.NormalizeAddress(to)

			for _, rawMsg := range change.Value.Messages {
				var msg webhookMessage
				if err := json.Unmarshal(rawMsg, &msg); err != nil {
					continue
				}

				var body string
				switch msg.Type {
				case entities.TypeText:
					body = msg.Text.Body
				case entities.TypeButton:
					body = msg.Button.Text
				case entities.TypeInteractive:
					body = msg.Interactive.NFMReply.Body
					if body == "" {
						body = msg.Interactive.ButtonReply.Title
					}
				}
				// Other types are emitted with an empty body so storage and
				// audit still see them; they never trigger a reply.

				events = append(events, entities.MessageEvent{
					ID:        msg.ID,
					From:      entities.NormalizeAddress(msg.From),
					To:        to,
					Timestamp: msg.Timestamp,
					Type:      msg.Type,
					Body:      body,
					Channel:   entities.ChannelWhatsApp,
					Raw:       rawMsg,
				})
			}
		}
	}

	return events
}
