package usecases

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warelay/internal/entities"
)

func webhookBody(messages string) []byte {
	return []byte(fmt.Sprintf(`{
		"object": "whatsapp_business_account",
		"entry": [{
			"id": "106540352242922",
			"changes": [{
				"field": "messages",
				"value": {
					"messaging_product": "whatsapp",
					"metadata": {"display_phone_number": "15550001111", "phone_number_id": "123456"},
					"messages": [%s]
				}
			}]
		}]
	}`, messages))
}

func TestParseWebhookPayloadText(t *testing.T) {
	payload := webhookBody(`{
		"id": "wamid.abc",
		"from": "+62 812-3456",
		"timestamp": "1700000000",
		"type": "text",
		"text": {"body": "hello there"}
	}`)

	events := ParseWebhookPayload(payload)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "wamid.abc", ev.ID)
	assert.Equal(t, "628123456", ev.From, "sender is normalized")
	assert.Equal(t, "15550001111", ev.To, "receiver comes from metadata")
	assert.Equal(t, "1700000000", ev.Timestamp)
	assert.Equal(t, entities.TypeText, ev.Type)
	assert.Equal(t, "hello there", ev.Body)
	assert.Equal(t, entities.ChannelWhatsApp, ev.Channel)
	assert.NotEmpty(t, ev.Raw, "original fragment is kept")
}

func TestParseWebhookPayloadButtonAndInteractive(t *testing.T) {
	payload := webhookBody(`
		{"id": "m1", "from": "628111", "type": "button", "button": {"text": "Confirm"}},
		{"id": "m2", "from": "628111", "type": "interactive", "interactive": {"button_reply": {"title": "Option A"}}},
		{"id": "m3", "from": "628111", "type": "interactive", "interactive": {"nfm_reply": {"body": "form data"}}}
	`)

	events := ParseWebhookPayload(payload)
	require.Len(t, events, 3)
	assert.Equal(t, "Confirm", events[0].Body)
	assert.Equal(t, "Option A", events[1].Body)
	assert.Equal(t, "form data", events[2].Body, "nfm_reply wins over button_reply")
}

func TestParseWebhookPayloadUnknownType(t *testing.T) {
	payload := webhookBody(`{"id": "m1", "from": "628111", "type": "image", "image": {"id": "media1"}}`)

	events := ParseWebhookPayload(payload)
	require.Len(t, events, 1)
	assert.Equal(t, "image", events[0].Type)
	assert.Empty(t, events[0].Body, "unknown types carry no text")
}

func TestParseWebhookPayloadTotality(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"empty object", `{}`},
		{"not json", `<html>`},
		{"empty body", ``},
		{"entry not a list", `{"entry": "nope"}`},
		{"entry without changes", `{"entry": [{"id": "x"}]}`},
		{"change without value", `{"entry": [{"changes": [{"field": "messages"}]}]}`},
		{"value without messages", `{"entry": [{"changes": [{"value": {"metadata": {}}}]}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			events := ParseWebhookPayload([]byte(tc.payload))
			assert.NotNil(t, events)
			assert.Empty(t, events)
		})
	}
}

func TestParseWebhookPayloadMalformedBranchSkipped(t *testing.T) {
	// One broken entry must not drop the parsable one.
	payload := []byte(`{
		"entry": [
			"garbage",
			{"changes": [{"value": {
				"metadata": {"phone_number_id": "123456"},
				"messages": [{"id": "ok", "from": "628999", "type": "text", "text": {"body": "still here"}}]
			}}]}
		]
	}`)

	events := ParseWebhookPayload(payload)
	require.Len(t, events, 1)
	assert.Equal(t, "still here", events[0].Body)
	assert.Equal(t, "123456", events[0].To, "phone_number_id is the metadata fallback")
}
