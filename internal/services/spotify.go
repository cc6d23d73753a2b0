// Spotify API implementation of [Service]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/duskmoss/sortify/internal/models"
	"github.com/duskmoss/sortify/internal/shared"
)

const (
	spotifyBaseURL = "https://api.spotify.com/v1"

	// refreshWindow is how close to expiry a token is refreshed before use.
	refreshWindow = 60 * time.Second

	// maxAttempts bounds the request loop, counting the first try.
	maxAttempts = 3

	// defaultRetryAfter applies when a 429 carries no Retry-After header.
	defaultRetryAfter = 2 * time.Second

	// addTracksBatchSize is the API limit on URIs per add request.
	addTracksBatchSize = 100

	playlistPageLimit = 50
	trackPageLimit    = 100
)

// APIError is a non-retryable error response from the Spotify API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("spotify API error: status %d: %s", e.Status, e.Message)
}

type apiErrorBody struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type playlistTrackCount struct {
	Total int `json:"total"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Owner       owner              `json:"owner"`
	Public      bool               `json:"public"`
	Tracks      playlistTrackCount `json:"tracks"`
	Images      []SpotifyImage     `json:"images"`
	URI         string             `json:"uri"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	Popularity *int            `json:"popularity"`
	URI        string          `json:"uri"`
}

// SpotifyPlaylistTrack represents a track within a playlist context. Track is
// a pointer: removed or unavailable entries come back as null.
type SpotifyPlaylistTrack struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

type paginatedPlaylists struct {
	Items []SpotifySimplePlaylist `json:"items"`
	Total int                     `json:"total"`
	Next  *string                 `json:"next"`
}

type paginatedTracks struct {
	Items []SpotifyPlaylistTrack `json:"items"`
	Total int                    `json:"total"`
	Next  *string                `json:"next"`
}

// SpotifyService implements [Service] against the Spotify Web API.
//
// Every request runs through an authorized pipeline: the stored token is
// refreshed before use when it is about to expire, a 401 triggers at most one
// refresh-and-retry, and a 429 waits out the server's Retry-After before
// retrying, all within a bounded number of attempts.
type SpotifyService struct {
	httpClient *http.Client
	creds      CredentialStore
	auth       *Authenticator
	limiter    *rate.Limiter
	baseURL    string
	onRefresh  func(*models.TokenRecord)
}

// NewSpotifyService creates a [SpotifyService] backed by the given stores and
// authenticator.
func NewSpotifyService(creds CredentialStore, auth *Authenticator) *SpotifyService {
	return &SpotifyService{
		httpClient: http.DefaultClient,
		creds:      creds,
		auth:       auth,
		limiter:    rate.NewLimiter(rate.Every(100*time.Millisecond), 5),
		baseURL:    spotifyBaseURL,
	}
}

// SetHTTPClient overrides the HTTP client used for API requests.
func (s *SpotifyService) SetHTTPClient(client *http.Client) {
	s.httpClient = client
}

// SetBaseURL overrides the API base URL.
func (s *SpotifyService) SetBaseURL(baseURL string) {
	s.baseURL = strings.TrimRight(baseURL, "/")
}

// SetTokenRefreshCallback registers an observer invoked after every
// successful token refresh performed by the request pipeline.
func (s *SpotifyService) SetTokenRefreshCallback(fn func(*models.TokenRecord)) {
	s.onRefresh = fn
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// refresh renews the session and notifies the refresh observer.
func (s *SpotifyService) refresh(ctx context.Context, current *models.TokenRecord) (*models.TokenRecord, error) {
	record, err := s.auth.Refresh(ctx, current)
	if err != nil {
		return nil, err
	}
	if s.onRefresh != nil {
		s.onRefresh(record)
	}
	return record, nil
}

// do performs an authorized request against the API.
//
// The loop makes at most maxAttempts tries. A 401 consumes the single
// refresh-and-retry allowance; a second 401 fails the request. A 429 waits
// for the server's Retry-After (or a default) and retries.
func (s *SpotifyService) do(ctx context.Context, method, endpoint string, body any, result any) error {
	record, err := s.creds.Load()
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if record == nil {
		return shared.ErrNotAuthenticated
	}

	if record.ExpiresWithin(time.Now(), refreshWindow) {
		if record, err = s.refresh(ctx, record); err != nil {
			return err
		}
	}

	var payload []byte
	if body != nil {
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	refreshed := false
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait interrupted: %w", err)
		}

		var reader *bytes.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := newRequest(ctx, method, s.baseURL+endpoint, reader)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+record.AccessToken)

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			err := decodeBody(resp, result)
			resp.Body.Close()
			return err

		case resp.StatusCode == http.StatusUnauthorized && !refreshed:
			resp.Body.Close()
			refreshed = true
			if record, err = s.refresh(ctx, record); err != nil {
				return err
			}
			continue

		case resp.StatusCode == http.StatusTooManyRequests:
			resp.Body.Close()
			if err := waitRetryAfter(ctx, resp.Header.Get("Retry-After")); err != nil {
				return err
			}
			continue

		default:
			apiErr := parseAPIError(resp)
			resp.Body.Close()
			return apiErr
		}
	}

	return fmt.Errorf("request to %s gave up after %d attempts: %w", endpoint, maxAttempts, shared.ErrServiceUnavailable)
}

// newRequest builds the request with a JSON content type when a body is
// present. A nil *bytes.Reader must not reach http.NewRequestWithContext as a
// non-nil io.Reader.
func newRequest(ctx context.Context, method, apiURL string, body *bytes.Reader) (*http.Request, error) {
	var req *http.Request
	var err error

	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, apiURL, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, apiURL, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func decodeBody(resp *http.Response, result any) error {
	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// parseAPIError reads the error envelope. A malformed body falls back to the
// generic status text.
func parseAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	var envelope apiErrorBody
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error.Message != "" {
		apiErr.Message = envelope.Error.Message
	}

	return apiErr
}

// waitRetryAfter sleeps for the server-provided delay in seconds, or the
// default when the header is missing or malformed.
func waitRetryAfter(ctx context.Context, header string) error {
	delay := defaultRetryAfter
	if header != "" {
		if seconds, err := strconv.Atoi(header); err == nil && seconds >= 0 {
			delay = time.Duration(seconds) * time.Second
		}
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("interrupted while waiting out rate limit: %w", ctx.Err())
	}
}

// relativeNext reduces an absolute pagination link to a path relative to the
// API base. An empty result ends the walk.
func relativeNext(next string) string {
	u, err := url.Parse(next)
	if err != nil {
		return ""
	}

	path := u.Path
	if idx := strings.Index(path, "/v1/"); idx >= 0 {
		path = path[idx+len("/v1"):]
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return path
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.do(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetPlaylists retrieves all playlists for the authenticated user, walking
// the pagination cursor until it is exhausted.
func (s *SpotifyService) GetPlaylists(ctx context.Context) ([]models.PlaylistSummary, error) {
	var all []models.PlaylistSummary
	endpoint := fmt.Sprintf("/me/playlists?limit=%d", playlistPageLimit)

	for endpoint != "" {
		var page paginatedPlaylists
		if err := s.do(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		for _, sp := range page.Items {
			all = append(all, models.PlaylistSummary{
				ID:          sp.ID,
				Name:        sp.Name,
				Description: sp.Description,
				TotalTracks: sp.Tracks.Total,
				ImageURL:    firstImageURL(sp.Images),
				OwnerName:   sp.Owner.DisplayName,
			})
		}

		endpoint = ""
		if page.Next != nil {
			endpoint = relativeNext(*page.Next)
		}
	}

	return all, nil
}

// GetPlaylistTracks retrieves every playable track in a playlist.
//
// Entries whose track is null or missing an ID (removed or unavailable
// content) are skipped; the original index counts only emitted rows, so it
// stays gapless.
func (s *SpotifyService) GetPlaylistTracks(ctx context.Context, playlistID string) ([]models.TrackRow, error) {
	var rows []models.TrackRow
	endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d", url.PathEscape(playlistID), trackPageLimit)

	for endpoint != "" {
		var page paginatedTracks
		if err := s.do(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			if item.Track == nil || item.Track.ID == "" {
				continue
			}

			track := item.Track
			row := models.TrackRow{
				ID:            track.ID,
				URI:           track.URI,
				Name:          track.Name,
				Artists:       joinArtists(track.Artists),
				Album:         track.Album.Name,
				Popularity:    track.Popularity,
				DurationMS:    track.DurationMS,
				AddedAt:       item.AddedAt,
				OriginalIndex: len(rows),
			}
			if len(track.Artists) > 0 {
				row.MainArtist = track.Artists[0].Name
			}

			rows = append(rows, row)
		}

		endpoint = ""
		if page.Next != nil {
			endpoint = relativeNext(*page.Next)
		}
	}

	return rows, nil
}

// CreatePlaylist creates a new, initially empty playlist for the given user.
// The name is trimmed and must not be empty.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.PlaylistSummary, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("playlist name: %w", shared.ErrEmptyName)
	}

	body := map[string]any{
		"name":        name,
		"description": description,
		"public":      public,
	}

	var created SpotifySimplePlaylist
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))
	if err := s.do(ctx, http.MethodPost, endpoint, body, &created); err != nil {
		return nil, err
	}

	return &models.PlaylistSummary{
		ID:          created.ID,
		Name:        created.Name,
		Description: created.Description,
		TotalTracks: created.Tracks.Total,
		ImageURL:    firstImageURL(created.Images),
		OwnerName:   created.Owner.DisplayName,
	}, nil
}

// AddTracks appends track URIs to a playlist in sequential batches, each
// within the API's per-request limit. Batches are never sent concurrently so
// a failure leaves a committed prefix of the full list.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	if len(uris) == 0 {
		return fmt.Errorf("no tracks to add: %w", shared.ErrEmptyTrackSet)
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))

	for start := 0; start < len(uris); start += addTracksBatchSize {
		end := min(start+addTracksBatchSize, len(uris))

		body := map[string]any{"uris": uris[start:end]}
		if err := s.do(ctx, http.MethodPost, endpoint, body, nil); err != nil {
			return fmt.Errorf("failed to add tracks %d-%d: %w", start, end-1, err)
		}
	}

	return nil
}

func joinArtists(artists []SpotifyArtist) string {
	names := make([]string, len(artists))
	for i, artist := range artists {
		names[i] = artist.Name
	}
	return strings.Join(names, ", ")
}

func firstImageURL(images []SpotifyImage) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}
