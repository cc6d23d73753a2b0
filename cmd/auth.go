package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/duskmoss/sortify/internal/server"
	"github.com/duskmoss/sortify/internal/shared"
)

// loginTimeout bounds how long the loopback server waits for the redirect.
const loginTimeout = 2 * time.Minute

// AuthLogin runs the full authorization-code + PKCE flow.
//
// Starts the loopback callback server, opens the browser for user
// authorization, and exchanges the delivered code for tokens.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if r.auth == nil {
		return fmt.Errorf("%w: authenticator not initialized, run 'sortify setup database'", shared.ErrServiceUnavailable)
	}

	if err := r.config.Credentials.Spotify.Validate(); err != nil {
		return err
	}

	timeout := cmd.Duration("timeout")
	if timeout <= 0 {
		timeout = loginTimeout
	}

	authURL, err := r.auth.BeginLogin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start login: %w", err)
	}

	loopback := server.NewLoopback(&r.config.Server, r.logger)
	if err := loopback.Start(); err != nil {
		return err
	}

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%s timeout)...\n", timeout)

	result, err := loopback.Wait(ctx, timeout)
	if err != nil {
		return err
	}
	if result.Error() != nil {
		return fmt.Errorf("authorization failed: %w", result.Error())
	}

	record, err := r.auth.CompleteLogin(ctx, result.Code, result.State)
	if err != nil {
		return err
	}

	r.logger.Info("login complete", "expires_at", record.ExpiresAt)

	r.writePlainln("✓ Login successful")
	r.writePlain("Access token expires at %s\n", record.ExpiresAt.Format(time.RFC1123))
	if record.Scope != "" {
		r.writePlain("Granted scopes: %s\n", record.Scope)
	}

	return nil
}

// AuthStatus shows the stored session state.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if r.auth == nil {
		return fmt.Errorf("%w: authenticator not initialized, run 'sortify setup database'", shared.ErrServiceUnavailable)
	}

	record, err := r.auth.CurrentSession()
	if errors.Is(err, shared.ErrNotAuthenticated) {
		return r.writePlain("✗ Not logged in\n")
	}
	if err != nil {
		return err
	}

	r.writePlain("✓ Logged in\n")
	if time.Now().After(record.ExpiresAt) {
		r.writePlain("Access token: expired at %s (renews on next request)\n", record.ExpiresAt.Format(time.RFC1123))
	} else {
		r.writePlain("Access token: valid until %s\n", record.ExpiresAt.Format(time.RFC1123))
	}
	if record.Scope != "" {
		r.writePlain("Granted scopes: %s\n", record.Scope)
	}

	return nil
}

// AuthLogout clears the stored session. Logging out while signed out succeeds.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if r.auth == nil {
		return fmt.Errorf("%w: authenticator not initialized, run 'sortify setup database'", shared.ErrServiceUnavailable)
	}

	if err := r.auth.Logout(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	return r.writePlain("✓ Logged out\n")
}
