// Package repositories provides the persistence layer.
//
// Durable state (the OAuth token record, named sort presets) lives in SQLite
// as opaque key-value and row entries. Transient login state (PendingAuthState)
// lives in an in-memory session store scoped to the process lifetime.
package repositories
