// Package services contains the Spotify client: the PKCE authenticator that
// manages the token lifecycle, and the API service that performs authorized
// requests with refresh, retry, and rate-limit handling.
package services
