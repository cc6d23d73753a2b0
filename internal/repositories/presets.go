package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/duskmoss/sortify/internal/models"
	"github.com/duskmoss/sortify/internal/shared"
)

// PresetRepository persists named sort-rule lists.
type PresetRepository struct {
	db *sql.DB
}

// NewPresetRepository creates a new [PresetRepository] with the given database connection.
func NewPresetRepository(db *sql.DB) *PresetRepository {
	return &PresetRepository{db: db}
}

// Create inserts a new preset with a generated ID. The name must be unique.
func (r *PresetRepository) Create(preset *models.SortPreset) error {
	if err := preset.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	preset.ID = shared.GenerateID()
	now := time.Now()
	preset.CreatedAt = now
	preset.UpdatedAt = now

	rules, err := json.Marshal(preset.Rules)
	if err != nil {
		return fmt.Errorf("failed to marshal rules: %w", err)
	}

	query := `
		INSERT INTO sort_presets (id, name, rules, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
	`

	if _, err := r.db.Exec(query, preset.ID, preset.Name, string(rules), preset.CreatedAt, preset.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert preset: %w", err)
	}

	return nil
}

// GetByName retrieves a preset by its unique name.
func (r *PresetRepository) GetByName(name string) (*models.SortPreset, error) {
	query := `
		SELECT id, name, rules, created_at, updated_at FROM sort_presets WHERE name = ?
	`

	preset, err := scanPreset(r.db.QueryRow(query, name))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("preset not found: %s", name)
	}
	if err != nil {
		return nil, err
	}

	return preset, nil
}

// List retrieves all presets ordered by name.
func (r *PresetRepository) List() ([]*models.SortPreset, error) {
	query := `
		SELECT id, name, rules, created_at, updated_at FROM sort_presets ORDER BY name ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query presets: %w", err)
	}
	defer rows.Close()

	var presets []*models.SortPreset
	for rows.Next() {
		preset, err := scanPreset(rows)
		if err != nil {
			return nil, err
		}
		presets = append(presets, preset)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return presets, nil
}

// Delete removes a preset by name.
func (r *PresetRepository) Delete(name string) error {
	result, err := r.db.Exec("DELETE FROM sort_presets WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("failed to delete preset: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("preset not found: %s", name)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPreset(row rowScanner) (*models.SortPreset, error) {
	var (
		preset    models.SortPreset
		rules     string
		createdAt time.Time
		updatedAt time.Time
	)

	if err := row.Scan(&preset.ID, &preset.Name, &rules, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan preset: %w", err)
	}

	if err := json.Unmarshal([]byte(rules), &preset.Rules); err != nil {
		return nil, fmt.Errorf("failed to decode preset rules: %w", err)
	}

	preset.CreatedAt = createdAt
	preset.UpdatedAt = updatedAt
	return &preset, nil
}
