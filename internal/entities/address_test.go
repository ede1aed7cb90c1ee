package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAddress(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain digits", "6281234567890", "6281234567890"},
		{"plus prefix", "+62 812-3456-7890", "6281234567890"},
		{"parens and dots", "(62) 812.3456.7890", "6281234567890"},
		{"letters stripped", "wa:6281234567890", "6281234567890"},
		{"no digits", "hello", ""},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeAddress(tc.in))
		})
	}
}

func TestNormalizeAddressIdempotent(t *testing.T) {
	once := NormalizeAddress("+62 812-3456-7890")
	assert.Equal(t, once, NormalizeAddress(once))
}

func TestActionable(t *testing.T) {
	assert.True(t, MessageEvent{From: "628", Type: TypeText, Body: "hi"}.Actionable())
	assert.True(t, MessageEvent{From: "628", Type: TypeButton, Body: "yes"}.Actionable())
	assert.True(t, MessageEvent{From: "628", Type: TypeInteractive, Body: "pick"}.Actionable())

	assert.False(t, MessageEvent{From: "628", Type: "image", Body: "cap"}.Actionable(), "unknown type")
	assert.False(t, MessageEvent{From: "628", Type: TypeText}.Actionable(), "empty body")
	assert.False(t, MessageEvent{Type: TypeText, Body: "hi"}.Actionable(), "no sender")
}

func TestConversationAddress(t *testing.T) {
	assert.Equal(t, "111", MessageEvent{From: "111", To: "222"}.ConversationAddress())
	assert.Equal(t, "222", MessageEvent{To: "222"}.ConversationAddress(), "outbound falls back to To")
	assert.Equal(t, "", MessageEvent{}.ConversationAddress())
}
