package services

import (
	"context"

	"github.com/duskmoss/sortify/internal/models"
)

// CredentialStore persists the OAuth token record across process runs.
type CredentialStore interface {
	// Load returns the stored record, or nil when none is stored.
	Load() (*models.TokenRecord, error)

	// Save upserts the record.
	Save(record *models.TokenRecord) error

	// Clear removes the stored record.
	Clear() error
}

// PendingStore holds the transient state of the current login attempt.
type PendingStore interface {
	// PutPending stores the pending auth state, replacing any prior attempt.
	PutPending(state models.PendingAuthState)

	// TakePending returns and deletes the pending auth state.
	TakePending() *models.PendingAuthState

	// ClearPending drops any pending auth state.
	ClearPending()
}

// Service defines playlist read and write operations against the provider.
type Service interface {
	// UserProfile retrieves the authenticated user's profile.
	UserProfile(ctx context.Context) (*SpotifyUser, error)

	// GetPlaylists retrieves every playlist owned or followed by the user.
	GetPlaylists(ctx context.Context) ([]models.PlaylistSummary, error)

	// GetPlaylistTracks retrieves every playable track in a playlist, in
	// playlist order.
	GetPlaylistTracks(ctx context.Context, playlistID string) ([]models.TrackRow, error)

	// CreatePlaylist creates a new playlist for the given user.
	CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.PlaylistSummary, error)

	// AddTracks appends track URIs to a playlist in order.
	AddTracks(ctx context.Context, playlistID string, uris []string) error

	// Name returns the name of the provider.
	Name() string
}
