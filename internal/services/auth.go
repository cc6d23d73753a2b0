package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/duskmoss/sortify/internal/models"
	"github.com/duskmoss/sortify/internal/shared"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
)

// Authenticator drives the authorization-code flow with PKCE and manages the
// stored token record. Spotify treats this client as public, so no client
// secret is involved anywhere in the flow.
type Authenticator struct {
	config     *oauth2.Config
	creds      CredentialStore
	session    PendingStore
	httpClient *http.Client
}

// NewAuthenticator creates an [Authenticator] from the Spotify credentials
// config and the credential and session stores.
func NewAuthenticator(cfg *shared.SpotifyConfig, creds CredentialStore, session PendingStore) *Authenticator {
	return &Authenticator{
		config: &oauth2.Config{
			ClientID:    cfg.ClientID,
			RedirectURL: cfg.RedirectURI,
			Scopes:      cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyAuthURL,
				TokenURL: spotifyTokenURL,
			},
		},
		creds:      creds,
		session:    session,
		httpClient: http.DefaultClient,
	}
}

// SetHTTPClient overrides the HTTP client used for token requests.
func (a *Authenticator) SetHTTPClient(client *http.Client) {
	a.httpClient = client
}

// SetTokenURL overrides the token endpoint.
func (a *Authenticator) SetTokenURL(tokenURL string) {
	a.config.Endpoint.TokenURL = tokenURL
}

// BeginLogin starts a login attempt: it generates a fresh state and PKCE
// verifier, stores them as the pending attempt, and returns the authorization
// URL to open in the browser.
//
// Starting a second attempt replaces the first; only the latest attempt can
// complete.
func (a *Authenticator) BeginLogin(ctx context.Context) (string, error) {
	state := shared.GenerateID()
	verifier := oauth2.GenerateVerifier()

	a.session.PutPending(models.PendingAuthState{
		State:        state,
		CodeVerifier: verifier,
	})

	return a.config.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier)), nil
}

// CompleteLogin finishes the login attempt with the authorization code and
// state delivered to the redirect endpoint.
//
// The pending attempt is consumed whether completion succeeds or fails, so a
// stale verifier can never be replayed.
func (a *Authenticator) CompleteLogin(ctx context.Context, code, state string) (*models.TokenRecord, error) {
	pending := a.session.TakePending()
	if pending == nil {
		return nil, fmt.Errorf("no login attempt in progress: %w", shared.ErrMissingVerifier)
	}
	if pending.State != state {
		return nil, fmt.Errorf("authorization response state does not match login attempt: %w", shared.ErrStateMismatch)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	token, err := a.config.Exchange(ctx, code, oauth2.VerifierOption(pending.CodeVerifier))
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, fmt.Errorf("%w: status %d", shared.ErrTokenExchange, retrieveErr.Response.StatusCode)
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrTokenExchange, err)
	}

	record := recordFromToken(token, nil)
	if err := a.creds.Save(record); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	return record, nil
}

// Refresh exchanges the refresh token for a fresh access token and persists
// the result.
//
// Spotify may omit the refresh token from the response; the prior one is
// carried forward so the session stays renewable. A rejected refresh ends the
// session: credentials are cleared and [shared.ErrSessionExpired] is returned.
func (a *Authenticator) Refresh(ctx context.Context, current *models.TokenRecord) (*models.TokenRecord, error) {
	if current == nil || current.RefreshToken == "" {
		a.creds.Clear()
		return nil, shared.ErrSessionExpired
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	source := a.config.TokenSource(ctx, &oauth2.Token{
		RefreshToken: current.RefreshToken,
		// Force a refresh rather than reusing the stale access token.
		Expiry: time.Now().Add(-time.Minute),
	})

	token, err := source.Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			if clearErr := a.creds.Clear(); clearErr != nil {
				return nil, fmt.Errorf("failed to clear rejected session: %w", clearErr)
			}
			return nil, fmt.Errorf("refresh rejected with status %d: %w", retrieveErr.Response.StatusCode, shared.ErrSessionExpired)
		}
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}

	record := recordFromToken(token, current)
	if err := a.creds.Save(record); err != nil {
		return nil, fmt.Errorf("failed to persist refreshed session: %w", err)
	}

	return record, nil
}

// Logout clears the stored session and any pending login attempt. Logging out
// while signed out is a no-op.
func (a *Authenticator) Logout() error {
	a.session.ClearPending()
	return a.creds.Clear()
}

// CurrentSession returns the stored token record, or
// [shared.ErrNotAuthenticated] when no session is stored.
func (a *Authenticator) CurrentSession() (*models.TokenRecord, error) {
	record, err := a.creds.Load()
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, shared.ErrNotAuthenticated
	}
	return record, nil
}

// recordFromToken maps an oauth2 token to the stored record, carrying the
// prior refresh token forward when the response omits one.
func recordFromToken(token *oauth2.Token, prior *models.TokenRecord) *models.TokenRecord {
	record := &models.TokenRecord{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}

	if scope, ok := token.Extra("scope").(string); ok {
		record.Scope = scope
	}

	if record.RefreshToken == "" && prior != nil {
		record.RefreshToken = prior.RefreshToken
	}
	if record.Scope == "" && prior != nil {
		record.Scope = prior.Scope
	}

	return record
}
