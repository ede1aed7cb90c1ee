package repository

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"warelay/internal/entities"
)

// MessageRepository is the Postgres-backed conversation store. A nil pool puts
// it in degraded mode: Append stores nothing and returns 0, Fetch and Recent
// return empty history. The pipeline then runs template-only instead of
// failing outright.
type MessageRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewMessageRepository(db *pgxpool.Pool, logger *slog.Logger) *MessageRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &MessageRepository{db: db, logger: logger.With("component", "messages")}
}

// Append stores events in arrival order. Events lacking both addresses after
// normalization are skipped and do not count. Safe with zero events.
func (r *MessageRepository) Append(ctx context.Context, events []entities.MessageEvent) int {
	if r.db == nil {
		if len(events) > 0 {
			r.logger.Warn("store unavailable, dropping events", "count", len(events))
		}
		return 0
	}

	stored := 0
	for _, ev := range events {
		participants := participantNumbers(ev)
		if len(participants) == 0 {
			r.logger.Warn("skip event without addresses", "message_id", ev.ID)
			continue
		}
		_, err := r.db.Exec(ctx, `
			INSERT INTO messages (message_id, from_number, to_number, participants, channel, msg_type, body, ts, raw)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, ev.ID, ev.From, ev.To, participants, ev.Channel, ev.Type, ev.Body, ev.Timestamp, []byte(ev.Raw))
		if err != nil {
			r.logger.Error("insert failed", "error", err, "message_id", ev.ID)
			continue
		}
		stored++
	}
	return stored
}

// Fetch returns history for the address, newest-first by the stored ordering
// token. limit <= 0 means the entire history.
func (r *MessageRepository) Fetch(ctx context.Context, address string, limit int) []entities.MessageEvent {
	if r.db == nil || address == "" {
		return []entities.MessageEvent{}
	}

	query := `
		SELECT message_id, from_number, to_number, channel, msg_type, body, ts
		FROM messages
		WHERE $1 = ANY(participants)
		ORDER BY ts DESC, id DESC
	`
	args := []any{address}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("fetch failed", "error", err, "address", address)
		return []entities.MessageEvent{}
	}
	defer rows.Close()

	return r.scanEvents(rows, address)
}

// Recent returns the latest events across all conversations, for diagnostics.
func (r *MessageRepository) Recent(ctx context.Context, limit int) []entities.MessageEvent {
	if r.db == nil {
		return []entities.MessageEvent{}
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(ctx, `
		SELECT message_id, from_number, to_number, channel, msg_type, body, ts
		FROM messages
		ORDER BY ts DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		r.logger.Error("recent fetch failed", "error", err)
		return []entities.MessageEvent{}
	}
	defer rows.Close()

	return r.scanEvents(rows, "")
}

func (r *MessageRepository) scanEvents(rows pgx.Rows, address string) []entities.MessageEvent {
	events := []entities.MessageEvent{}
	for rows.Next() {
		var ev entities.MessageEvent
		if err := rows.Scan(&ev.ID, &ev.From, &ev.To, &ev.Channel, &ev.Type, &ev.Body, &ev.Timestamp); err != nil {
			r.logger.Error("scan failed", "error", err, "address", address)
			return []entities.MessageEvent{}
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("row iteration failed", "error", err, "address", address)
		return []entities.MessageEvent{}
	}
	return events
}

func participantNumbers(ev entities.MessageEvent) []string {
	participants := []string{}
	if ev.From != "" {
		participants = append(participants, ev.From)
	}
	if ev.To != "" && ev.To != ev.From {
		participants = append(participants, ev.To)
	}
	return participants
}
