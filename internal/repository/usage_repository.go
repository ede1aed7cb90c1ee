package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type UsageRepository struct {
	db *pgxpool.Pool
}

type DailyUsage struct {
	Date             time.Time `json:"date"`
	MessagesSent     int       `json:"messages_sent"`
	MessagesReceived int       `json:"messages_received"`
}

func NewUsageRepository(db *pgxpool.Pool) *UsageRepository {
	return &UsageRepository{db: db}
}

// IncrementSent bumps today's outbound counter. Counters are best-effort;
// a missing database is not an error.
func (r *UsageRepository) IncrementSent() error {
	if r.db == nil {
		return nil
	}
	today := time.Now().Format("2006-01-02")
	_, err := r.db.Exec(context.Background(), `
		INSERT INTO message_usage (date, messages_sent, messages_received)
		VALUES ($1, 1, 0)
		ON CONFLICT (date)
		DO UPDATE SET messages_sent = message_usage.messages_sent + 1
	`, today)
	return err
}

// IncrementReceived bumps today's inbound counter.
func (r *UsageRepository) IncrementReceived() error {
	if r.db == nil {
		return nil
	}
	today := time.Now().Format("2006-01-02")
	_, err := r.db.Exec(context.Background(), `
		INSERT INTO message_usage (date, messages_sent, messages_received)
		VALUES ($1, 0, 1)
		ON CONFLICT (date)
		DO UPDATE SET messages_received = message_usage.messages_received + 1
	`, today)
	return err
}

// GetTodayUsage returns today's message counts.
func (r *UsageRepository) GetTodayUsage() (sent, received int, err error) {
	if r.db == nil {
		return 0, 0, nil
	}
	today := time.Now().Format("2006-01-02")
	err = r.db.QueryRow(context.Background(), `
		SELECT COALESCE(messages_sent, 0), COALESCE(messages_received, 0)
		FROM message_usage WHERE date = $1
	`, today).Scan(&sent, &received)
	if err != nil {
		return 0, 0, nil // No record means 0 usage
	}
	return sent, received, nil
}

// GetUsageHistory returns the last N days of traffic.
func (r *UsageRepository) GetUsageHistory(days int) ([]DailyUsage, error) {
	usage := []DailyUsage{}
	if r.db == nil {
		return usage, nil
	}
	startDate := time.Now().AddDate(0, 0, -days).Format("2006-01-02")
	rows, err := r.db.Query(context.Background(), `
		SELECT date, messages_sent, messages_received
		FROM message_usage
		WHERE date >= $1
		ORDER BY date ASC
	`, startDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var u DailyUsage
		if err := rows.Scan(&u.Date, &u.MessagesSent, &u.MessagesReceived); err != nil {
			return nil, err
		}
		usage = append(usage, u)
	}
	return usage, rows.Err()
}
