package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Well-known bot_config keys. Each has a compiled-in default so the relay
// works with an empty (or absent) table.
const (
	ConfigTemplateName     = "template_name"
	ConfigTemplateLanguage = "template_language"
	ConfigSystemPrompt     = "system_prompt"
	ConfigApologyText      = "apology_text"
	ConfigWelcomeText      = "welcome_text"
)

type BotConfig struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConfigRepository stores runtime-tunable bot settings. A nil pool makes every
// lookup fall back to the caller's default.
type ConfigRepository struct {
	db *pgxpool.Pool
}

func NewConfigRepository(db *pgxpool.Pool) *ConfigRepository {
	return &ConfigRepository{db: db}
}

// GetConfig returns a config value by key, or "" when unset.
func (r *ConfigRepository) GetConfig(key string) (string, error) {
	if r.db == nil {
		return "", nil
	}
	var value string
	err := r.db.QueryRow(context.Background(), "SELECT value FROM bot_config WHERE key=$1", key).Scan(&value)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", nil // Not found is not strictly an error
		}
		return "", err
	}
	return value, nil
}

// GetConfigOr returns the stored value for key, or fallback when the key is
// unset or the backend is unavailable.
func (r *ConfigRepository) GetConfigOr(key, fallback string) string {
	value, err := r.GetConfig(key)
	if err != nil || value == "" {
		return fallback
	}
	return value
}

func (r *ConfigRepository) SetConfig(key, value string) error {
	if r.db == nil {
		return nil
	}
	_, err := r.db.Exec(context.Background(), `
		INSERT INTO bot_config (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=NOW()
	`, key, value)
	return err
}

func (r *ConfigRepository) GetAllConfigs() ([]BotConfig, error) {
	configs := []BotConfig{}
	if r.db == nil {
		return configs, nil
	}
	rows, err := r.db.Query(context.Background(), "SELECT key, value, updated_at FROM bot_config")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c BotConfig
		if err := rows.Scan(&c.Key, &c.Value, &c.UpdatedAt); err != nil {
			return nil, err
		}
		configs = append(configs, c)
	}
	return configs, rows.Err()
}
