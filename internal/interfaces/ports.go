package interfaces

import (
	"context"

	"warelay/internal/entities"
)

// AIClient generates freeform reply text from a fully formatted prompt.
type AIClient interface {
	GenerateResponse(ctx context.Context, prompt string) (string, error)
}

// Messenger delivers replies to a normalized address. Both operations can
// fail; the orchestrator logs failures and never retries.
type Messenger interface {
	SendText(ctx context.Context, to, body string) error
	SendTemplate(ctx context.Context, to string) error
}

// ConversationStore persists and retrieves message events per address.
//
// Append skips events that lack both addresses after normalization and
// returns how many it actually stored; an unreachable or unconfigured
// backend degrades to 0, never an error. Fetch returns history for the
// address newest-first (limit <= 0 means unbounded) and degrades to an
// empty slice for the same reasons: the pipeline keeps running in
// template-only mode rather than failing.
type ConversationStore interface {
	Append(ctx context.Context, events []entities.MessageEvent) int
	Fetch(ctx context.Context, address string, limit int) []entities.MessageEvent
	Recent(ctx context.Context, limit int) []entities.MessageEvent
}
