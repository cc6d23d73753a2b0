package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/duskmoss/sortify/internal/models"
)

// tokenKey is the fixed key the token record is stored under.
const tokenKey = "spotify_token"

// CredentialRepository persists the OAuth token record as an opaque JSON
// value in the credentials key-value table.
type CredentialRepository struct {
	db *sql.DB
}

// NewCredentialRepository creates a new [CredentialRepository] with the given database connection.
func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Load returns the stored token record, or nil when none is stored.
//
// Malformed stored content degrades to "no stored session" rather than
// failing the caller.
func (r *CredentialRepository) Load() (*models.TokenRecord, error) {
	var value string
	err := r.db.QueryRow("SELECT value FROM credentials WHERE key = ?", tokenKey).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query credentials: %w", err)
	}

	var record models.TokenRecord
	if err := json.Unmarshal([]byte(value), &record); err != nil {
		return nil, nil
	}
	if record.AccessToken == "" {
		return nil, nil
	}

	return &record, nil
}

// Save upserts the token record.
func (r *CredentialRepository) Save(record *models.TokenRecord) error {
	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal token record: %w", err)
	}

	query := `
		INSERT INTO credentials (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	if _, err := r.db.Exec(query, tokenKey, string(value), time.Now()); err != nil {
		return fmt.Errorf("failed to save token record: %w", err)
	}

	return nil
}

// Clear removes the stored token record. Clearing an empty store is a no-op.
func (r *CredentialRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM credentials WHERE key = ?", tokenKey); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}
