package models

import (
	"fmt"
	"time"
)

// TokenRecord is the persisted OAuth session state.
//
// RefreshToken is never empty once a record has been persisted: a refresh
// response that omits a new refresh token carries the previous one forward.
type TokenRecord struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Scope        string    `json:"scope"`
}

// ExpiresWithin reports whether the access token expires before now+window.
func (t *TokenRecord) ExpiresWithin(now time.Time, window time.Duration) bool {
	return !now.Add(window).Before(t.ExpiresAt)
}

// PendingAuthState holds the transient values of a single login attempt.
//
// Created at login initiation and consumed (read once, then deleted) when the
// authorization completes or fails. A second login attempt overwrites it.
type PendingAuthState struct {
	State        string
	CodeVerifier string
}

// PlaylistSummary is a read-only projection of a provider playlist,
// rebuilt on every fetch.
type PlaylistSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	TotalTracks int    `json:"total_tracks"`
	ImageURL    string `json:"image_url,omitempty"`
	OwnerName   string `json:"owner_name,omitempty"`
}

// TrackRow is one playlist entry flattened for sorting and display.
//
// OriginalIndex is assigned at collection time and never changes; it is the
// deterministic tie-break key for sorting.
type TrackRow struct {
	ID            string `json:"id"`
	URI           string `json:"uri"`
	Name          string `json:"name"`
	Artists       string `json:"artists"`
	MainArtist    string `json:"main_artist"`
	Album         string `json:"album"`
	Popularity    *int   `json:"popularity,omitempty"`
	DurationMS    int    `json:"duration_ms"`
	AddedAt       string `json:"added_at"`
	OriginalIndex int    `json:"original_index"`
}

// SortField enumerates the track attributes a rule can sort by.
type SortField string

const (
	FieldName       SortField = "name"
	FieldArtists    SortField = "artists"
	FieldMainArtist SortField = "main_artist"
	FieldAlbum      SortField = "album"
	FieldPopularity SortField = "popularity"
	FieldDuration   SortField = "duration"
	FieldAddedAt    SortField = "added_at"
)

// SortFields lists every valid field in display order.
func SortFields() []SortField {
	return []SortField{
		FieldName, FieldArtists, FieldMainArtist, FieldAlbum,
		FieldPopularity, FieldDuration, FieldAddedAt,
	}
}

// ParseSortField validates a user-supplied field name.
func ParseSortField(s string) (SortField, error) {
	for _, f := range SortFields() {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown sort field %q", s)
}

// SortDirection is the order of a single rule.
type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// ParseSortDirection validates a user-supplied direction.
func ParseSortDirection(s string) (SortDirection, error) {
	switch SortDirection(s) {
	case Ascending, Descending:
		return SortDirection(s), nil
	}
	return "", fmt.Errorf("unknown sort direction %q", s)
}

// SortRule pairs a field with a direction. An ordered list of rules defines
// sort priority: the first rule is the primary key.
type SortRule struct {
	Field     SortField     `json:"field"`
	Direction SortDirection `json:"direction"`
}

func (r SortRule) String() string {
	return fmt.Sprintf("%s:%s", r.Field, r.Direction)
}

// SortPreset is a named, persisted rule list.
type SortPreset struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Rules     []SortRule `json:"rules"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Validate checks the preset is storable.
func (p *SortPreset) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("preset name is required")
	}
	if len(p.Rules) == 0 {
		return fmt.Errorf("preset needs at least one rule")
	}
	seen := make(map[SortField]bool, len(p.Rules))
	for _, rule := range p.Rules {
		if _, err := ParseSortField(string(rule.Field)); err != nil {
			return err
		}
		if _, err := ParseSortDirection(string(rule.Direction)); err != nil {
			return err
		}
		if seen[rule.Field] {
			return fmt.Errorf("duplicate sort field %q", rule.Field)
		}
		seen[rule.Field] = true
	}
	return nil
}
